package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/yashrajoria/bms-storefront/ledger"
)

// BadgerSlot keeps values in an embedded badger database. It backs the
// terminal client, where there is no shared server to hold the ledger.
type BadgerSlot struct {
	db     *badger.DB
	prefix string
}

// OpenBadger opens (or creates) a badger database in dir. An empty dir opens
// an in-memory database.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}
	return db, nil
}

func NewBadgerSlot(db *badger.DB, prefix string) *BadgerSlot {
	return &BadgerSlot{db: db, prefix: prefix}
}

// BadgerUserSlots mirrors UserSlots for a badger database.
func BadgerUserSlots(db *badger.DB, namespace string) ledger.SlotFactory {
	return func(userID string) ledger.Slot {
		return NewBadgerSlot(db, fmt.Sprintf("%s:user:%s", namespace, userID))
	}
}

func (s *BadgerSlot) getKey(key string) []byte {
	return []byte(s.prefix + ":" + key)
}

func (s *BadgerSlot) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.getKey(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ledger.ErrSlotEmpty
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerSlot) Set(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.getKey(key), value)
	})
}
