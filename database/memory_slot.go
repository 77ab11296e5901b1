package database

import (
	"context"
	"sync"

	"github.com/yashrajoria/bms-storefront/ledger"
)

// MemorySlot is a process-local slot. Values are lost on restart.
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

// MemoryUserSlots returns a factory handing out one MemorySlot per user.
func MemoryUserSlots() ledger.SlotFactory {
	var mu sync.Mutex
	slots := make(map[string]*MemorySlot)
	return func(userID string) ledger.Slot {
		mu.Lock()
		defer mu.Unlock()
		s, ok := slots[userID]
		if !ok {
			s = NewMemorySlot()
			slots[userID] = s
		}
		return s
	}
}

func (s *MemorySlot) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ledger.ErrSlotEmpty
	}
	return append([]byte(nil), v...), nil
}

func (s *MemorySlot) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}
