package lamport

// Clock is an interface for Lamport logical clocks.
type Clock interface {
	// Time is a getter for the current Lamport time value.
	Time() Time
	// Tick advances the clock for a local event and returns the new value.
	Tick() Time
	// Observe is called on every message receipt with the sender's timestamp.
	// It moves the clock to max(current, remote)+1 and returns the new value.
	Observe(remote Time) Time
}
