package currency

import "sort"

// Registry maps chain ids to their native currencies.
type Registry struct {
	natives map[uint64]*Native
}

// NewRegistry creates a Registry. A later native for the same chain replaces an earlier one.
func NewRegistry(natives ...*Native) *Registry {
	r := &Registry{natives: make(map[uint64]*Native, len(natives))}
	for _, n := range natives {
		r.natives[n.ChainID()] = n
	}
	return r
}

// Native returns the native currency of chainID.
func (r *Registry) Native(chainID uint64) (*Native, bool) {
	n, ok := r.natives[chainID]
	return n, ok
}

// ChainIDs returns the configured chain ids in ascending order.
func (r *Registry) ChainIDs() []uint64 {
	ids := make([]uint64, 0, len(r.natives))
	for id := range r.natives {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
