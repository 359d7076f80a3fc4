package mutex

import "lamportd/internal/peers"

//go:generate go run go.uber.org/mock/mockgen -package mutex -destination network_mock_test.go lamportd/internal/mutex Network

// Network delivers protocol messages to peers. Implementations must not
// block on slow peers, since they are called from the engine's goroutine.
type Network interface {
	// Send queues msg for the given peer.
	Send(to peers.ID, msg Message) error
	// Broadcast queues msg for every peer.
	Broadcast(msg Message)
}
