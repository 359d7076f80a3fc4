package mutex

import (
	"fmt"

	"lamportd/internal/lamport"
	"lamportd/internal/peers"
)

// Kind is the type of a protocol message.
type Kind int

const (
	KindRequest Kind = iota
	KindReply
	KindRelease
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "REQUEST"
	case KindReply:
		return "REPLY"
	case KindRelease:
		return "RELEASE"
	default:
		return "INVALID"
	}
}

// Message is the unit exchanged between processes, one per connection.
type Message struct {
	Timestamp lamport.Time
	Sender    peers.ID
	Kind      Kind
}

func (m Message) String() string {
	return fmt.Sprintf("%s(%d@%d)", m.Kind, m.Sender, m.Timestamp)
}
