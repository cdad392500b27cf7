package draft

import (
	"context"
	"sync"

	"github.com/vidall28/trocasequebras/internal/model"
)

// MemorySlots is an in-process SlotStore. Stored groups are copied in and out.
type MemorySlots struct {
	mu    sync.RWMutex
	slots map[string]*model.EntryGroup
}

// NewMemorySlots creates an empty slot store.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{slots: make(map[string]*model.EntryGroup)}
}

func (m *MemorySlots) LoadSlot(_ context.Context, ownerID string) (*model.EntryGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[ownerID].Clone(), nil
}

func (m *MemorySlots) SaveSlot(_ context.Context, g *model.EntryGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[g.OwnerID] = g.Clone()
	return nil
}

func (m *MemorySlots) ClearSlot(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, ownerID)
	return nil
}
