package mutex

import (
	"fmt"

	"lamportd/internal/lamport"
	"lamportd/internal/peers"
)

// Request is a claim on the critical section issued by Sender at Timestamp.
type Request struct {
	Timestamp lamport.Time
	Sender    peers.ID
}

// Less orders requests by timestamp, then by sender id.
func (r Request) Less(other Request) bool {
	if r.Timestamp != other.Timestamp {
		return r.Timestamp < other.Timestamp
	}
	return r.Sender < other.Sender
}

func (r Request) String() string {
	return fmt.Sprintf("(%d, %d)", r.Timestamp, r.Sender)
}
