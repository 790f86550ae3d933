package storage

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore is a SlotStore held in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string]Slot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]Slot),
	}
}

func (s *MemoryStore) Put(ctx context.Context, slot Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if slot.ID == "" {
		return errors.New("storage: slot id is empty")
	}
	slot.Data = append([]byte(nil), slot.Data...)
	s.mu.Lock()
	s.slots[slot.ID] = slot
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Slot, error) {
	if err := ctx.Err(); err != nil {
		return Slot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return Slot{}, ErrSlotNotFound
	}
	slot.Data = append([]byte(nil), slot.Data...)
	return slot, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		slot.Data = nil
		out = append(out, slot)
	}
	s.mu.Unlock()
	sortSlots(out)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[id]; !ok {
		return ErrSlotNotFound
	}
	delete(s.slots, id)
	return nil
}
