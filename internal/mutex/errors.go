package mutex

import "github.com/juju/errors"

const (
	// ErrProtocolViolation is returned when a peer breaks the protocol, such
	// as a RELEASE for a request that is not pending. It is fatal to the engine.
	ErrProtocolViolation = errors.ConstError("protocol violation")
	// ErrRequestOutstanding is returned when a request is made while the
	// previous one has not been released yet.
	ErrRequestOutstanding = errors.ConstError("request already outstanding")
	// ErrEngineStopped is returned once the engine is dying.
	ErrEngineStopped = errors.ConstError("mutex engine stopped")
)
