// Package storage keeps named save slots: Quetzal save states together with
// the identity of the game they belong to.
package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/samcharles93/ififf/pkg/gameid"
)

// ErrSlotNotFound is returned when a slot id is not present in the store.
var ErrSlotNotFound = errors.New("storage: slot not found")

// Slot is one stored save state.
type Slot struct {
	ID          string
	Name        string
	Identity    gameid.Identity
	HasIdentity bool
	Data        []byte
	CreatedAt   time.Time
}

// SlotStore persists save slots. List returns slots without their Data,
// ordered by creation time and then id.
type SlotStore interface {
	Put(ctx context.Context, slot Slot) error
	Get(ctx context.Context, id string) (Slot, error)
	List(ctx context.Context) ([]Slot, error)
	Delete(ctx context.Context, id string) error
}

func sortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].CreatedAt.Equal(slots[j].CreatedAt) {
			return slots[i].CreatedAt.Before(slots[j].CreatedAt)
		}
		return slots[i].ID < slots[j].ID
	})
}
