package peers

import (
	"net"
	"strconv"

	"github.com/juju/errors"
)

// Address represents an address on the IP network.
type Address struct {
	Host string
	Port uint16
}

func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.FormatUint(uint64(a.Port), 10))
}

// NewAddress constructs a new address from a string in the format "host:port".
func NewAddress(str string) (Address, error) {
	host, portStr, err := net.SplitHostPort(str)
	if err != nil {
		return Address{}, errors.NewNotValid(err, "address "+strconv.Quote(str))
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Address{}, errors.NewNotValid(err, "port "+strconv.Quote(portStr))
	}
	if host == "" {
		return Address{}, errors.NotValidf("empty host in address %q", str)
	}
	return Address{Host: host, Port: uint16(port)}, nil
}

// ParseAddress accepts either "host:port" or a bare host, in which case the
// shared listening port is used.
func ParseAddress(str string, defaultPort uint16) (Address, error) {
	if _, _, err := net.SplitHostPort(str); err == nil {
		return NewAddress(str)
	}
	if str == "" {
		return Address{}, errors.NotValidf("empty address")
	}
	return Address{Host: str, Port: defaultPort}, nil
}
