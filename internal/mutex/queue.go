package mutex

import (
	"github.com/juju/errors"

	"lamportd/internal/peers"
	"lamportd/internal/utils"
)

// PendingQueue holds the outstanding requests known to a process, smallest
// first. It is not safe for concurrent use.
type PendingQueue struct {
	requests *utils.HeapSet[Request]
	senders  map[peers.ID]int
}

// NewPendingQueue returns an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{
		requests: utils.NewHeapSet(Request.Less),
		senders:  make(map[peers.ID]int),
	}
}

// Insert adds r. Inserting a request already present has no effect.
func (q *PendingQueue) Insert(r Request) {
	if q.requests.Contains(r) {
		return
	}
	q.requests.Push(r)
	q.senders[r.Sender]++
}

// Peek returns the smallest request, or false if the queue is empty.
func (q *PendingQueue) Peek() (Request, bool) {
	return q.requests.Peek()
}

// PopIfMatches removes the head of the queue if it was issued by sender.
// Otherwise the queue is left untouched and the error satisfies
// errors.Is(err, ErrProtocolViolation).
func (q *PendingQueue) PopIfMatches(sender peers.ID) (Request, error) {
	head, ok := q.requests.Peek()
	if !ok {
		return Request{}, errors.Annotatef(ErrProtocolViolation, "release from %d with no pending request", sender)
	}
	if head.Sender != sender {
		return Request{}, errors.Annotatef(ErrProtocolViolation, "release from %d but head is %v", sender, head)
	}
	q.requests.Pop()
	q.forget(sender)
	return head, nil
}

// Remove deletes r wherever it is in the queue and reports whether it was there.
func (q *PendingQueue) Remove(r Request) bool {
	if !q.requests.Remove(r) {
		return false
	}
	q.forget(r.Sender)
	return true
}

// Contains reports whether sender has at least one request in the queue.
func (q *PendingQueue) Contains(sender peers.ID) bool {
	return q.senders[sender] > 0
}

// Len returns the number of queued requests.
func (q *PendingQueue) Len() int {
	return q.requests.Len()
}

// Snapshot returns the queued requests in order.
func (q *PendingQueue) Snapshot() []Request {
	return q.requests.Items()
}

func (q *PendingQueue) forget(sender peers.ID) {
	if q.senders[sender]--; q.senders[sender] <= 0 {
		delete(q.senders, sender)
	}
}
