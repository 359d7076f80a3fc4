package peers

import (
	"sort"

	"github.com/juju/errors"
)

// ID identifies a process taking part in the mutual exclusion protocol.
type ID int

// Peer is one entry of the static peer list.
type Peer struct {
	ID      ID
	Address Address
}

// Registry maps process identifiers to network addresses. It never changes
// after construction and is safe for concurrent reads.
type Registry struct {
	addrs map[ID]Address
	ids   []ID
}

// NewRegistry builds a registry from the given entries. Duplicate ids are
// rejected.
func NewRegistry(entries []Peer) (*Registry, error) {
	r := &Registry{addrs: make(map[ID]Address, len(entries))}
	for _, p := range entries {
		if _, ok := r.addrs[p.ID]; ok {
			return nil, errors.NotValidf("duplicate peer id %d", p.ID)
		}
		r.addrs[p.ID] = p.Address
		r.ids = append(r.ids, p.ID)
	}
	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })
	return r, nil
}

// All returns every peer, ordered by id.
func (r *Registry) All() []Peer {
	all := make([]Peer, 0, len(r.ids))
	for _, id := range r.ids {
		all = append(all, Peer{ID: id, Address: r.addrs[id]})
	}
	return all
}

// IDs returns the peer ids in ascending order.
func (r *Registry) IDs() []ID {
	return append([]ID(nil), r.ids...)
}

// AddressOf resolves the address of a peer. The returned error satisfies
// errors.Is(err, errors.NotFound) when the id is unknown.
func (r *Registry) AddressOf(id ID) (Address, error) {
	addr, ok := r.addrs[id]
	if !ok {
		return Address{}, errors.NotFoundf("peer %d", id)
	}
	return addr, nil
}

// Contains reports whether id is a known peer.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.addrs[id]
	return ok
}

// Len is the number of peers, the local process excluded.
func (r *Registry) Len() int {
	return len(r.ids)
}
