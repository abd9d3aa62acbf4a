package network

import (
	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
)

// CapsuleList maps component ids to capsules in resolution order.
// It is built fresh for every sub-network.
type CapsuleList struct {
	ids  []component.ID
	byID map[string]*capsule.Capsule
}

// NewCapsuleList returns an empty list.
func NewCapsuleList() *CapsuleList {
	return &CapsuleList{byID: make(map[string]*capsule.Capsule)}
}

// Add appends c under id. Adding an id twice keeps its first position.
func (l *CapsuleList) Add(id component.ID, c *capsule.Capsule) {
	key := id.String()
	if _, ok := l.byID[key]; !ok {
		l.ids = append(l.ids, id)
	}
	l.byID[key] = c
}

// Get returns the capsule for id.
func (l *CapsuleList) Get(id component.ID) (*capsule.Capsule, bool) {
	c, ok := l.byID[id.String()]
	return c, ok
}

// Len returns the number of capsules.
func (l *CapsuleList) Len() int {
	return len(l.ids)
}

// IDs returns the component ids in resolution order.
func (l *CapsuleList) IDs() []component.ID {
	return append([]component.ID(nil), l.ids...)
}

// Capsules returns the capsules in resolution order.
func (l *CapsuleList) Capsules() []*capsule.Capsule {
	out := make([]*capsule.Capsule, len(l.ids))
	for i, id := range l.ids {
		out[i] = l.byID[id.String()]
	}
	return out
}

// PathMap returns the working directories keyed by component id string.
func (l *CapsuleList) PathMap() map[string]string {
	out := make(map[string]string, len(l.ids))
	for _, id := range l.ids {
		out[id.String()] = l.byID[id.String()].WorkDir
	}
	return out
}
