package mutex

import (
	"github.com/juju/collections/set"

	"lamportd/internal/peers"
)

// ReplyTracker is the set of peers that replied to the current local request.
type ReplyTracker struct {
	senders set.Ints
}

// NewReplyTracker returns an empty tracker.
func NewReplyTracker() *ReplyTracker {
	return &ReplyTracker{senders: set.NewInts()}
}

// Record marks sender as having replied.
func (t *ReplyTracker) Record(sender peers.ID) {
	t.senders.Add(int(sender))
}

// Has reports whether sender replied.
func (t *ReplyTracker) Has(sender peers.ID) bool {
	return t.senders.Contains(int(sender))
}

// Count returns the number of distinct senders that replied.
func (t *ReplyTracker) Count() int {
	return t.senders.Size()
}

// Reset forgets every reply.
func (t *ReplyTracker) Reset() {
	t.senders = set.NewInts()
}

// Values returns the senders in ascending order.
func (t *ReplyTracker) Values() []peers.ID {
	return toIDs(t.senders)
}

func toIDs(s set.Ints) []peers.ID {
	sorted := s.SortedValues()
	ids := make([]peers.ID, len(sorted))
	for i, v := range sorted {
		ids[i] = peers.ID(v)
	}
	return ids
}
