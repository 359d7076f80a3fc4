package lamport

import "strconv"

// Time is a value of a Lamport logical clock.
type Time uint64

func (t Time) String() string {
	return strconv.FormatUint(uint64(t), 10)
}
