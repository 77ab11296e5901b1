// Package ledger keeps the list of orders that were issued a Snap token but are
// not known to be paid. The list lives in a durable Slot and is reloaded from it
// on open; the Slot stays the source of truth across restarts.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/models"
)

// SlotKey is the fixed key the serialized list is stored under.
const SlotKey = "unpaidOrders"

// ErrSlotEmpty is returned by Slot.Get when nothing has been stored yet.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a small durable key/value store.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

var validate = validator.New()

// Ledger is an in-memory view of the stored unpaid orders. Every mutation is
// written back to the slot before it returns.
type Ledger struct {
	mu      sync.Mutex
	slot    Slot
	log     *zap.Logger
	orders  []models.UnpaidOrder
	durable bool
}

// Load reads the stored list. A missing, unreadable or unparsable value yields
// an empty list; failures are logged and never returned.
func Load(ctx context.Context, slot Slot, log *zap.Logger) []models.UnpaidOrder {
	log = logger.OrNop(log)

	raw, err := slot.Get(ctx, SlotKey)
	if errors.Is(err, ErrSlotEmpty) || (err == nil && len(raw) == 0) {
		return []models.UnpaidOrder{}
	}
	if err != nil {
		log.Warn("unpaid orders unreadable, starting empty",
			zap.Error(apperrors.ErrPersistenceRead.Wrap(err)))
		return []models.UnpaidOrder{}
	}

	var stored []models.UnpaidOrder
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.Warn("unpaid orders unparsable, starting empty",
			zap.Error(apperrors.ErrPersistenceRead.Wrap(err)),
			zap.Int("bytes", len(raw)))
		return []models.UnpaidOrder{}
	}

	// keep one entry per order id, last value wins at the first position
	out := make([]models.UnpaidOrder, 0, len(stored))
	index := make(map[models.ID]int, len(stored))
	for _, o := range stored {
		if strings.TrimSpace(o.OrderID.String()) == "" || strings.TrimSpace(o.SnapToken) == "" {
			continue
		}
		if i, ok := index[o.OrderID]; ok {
			out[i] = o
			continue
		}
		index[o.OrderID] = len(out)
		out = append(out, o)
	}
	return out
}

// Open loads the slot into a new Ledger.
func Open(ctx context.Context, slot Slot, log *zap.Logger) *Ledger {
	return &Ledger{
		slot:    slot,
		log:     logger.OrNop(log),
		orders:  Load(ctx, slot, log),
		durable: true,
	}
}

// Orders returns a copy of the current list.
func (l *Ledger) Orders() []models.UnpaidOrder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Find returns the entry for orderID.
func (l *Ledger) Find(orderID models.ID) (models.UnpaidOrder, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, o := range l.orders {
		if o.OrderID == orderID {
			return o, true
		}
	}
	return models.UnpaidOrder{}, false
}

// Durable reports whether the last write reached the slot. A false value means
// the in-memory list holds changes that may not survive a reload.
func (l *Ledger) Durable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.durable
}

// Upsert replaces the entry with the same order id, or appends a new one, and
// returns the resulting list. An order without id or token is rejected with an
// InvalidOrder error and leaves the ledger untouched.
func (l *Ledger) Upsert(ctx context.Context, order models.UnpaidOrder) ([]models.UnpaidOrder, error) {
	order.OrderID = models.ID(strings.TrimSpace(order.OrderID.String()))
	order.SnapToken = strings.TrimSpace(order.SnapToken)
	if err := validate.Struct(order); err != nil {
		return nil, apperrors.ErrInvalidOrder.
			WithMessage("order_id and snap_token are required").
			Wrap(err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	replaced := false
	for i := range l.orders {
		if l.orders[i].OrderID == order.OrderID {
			l.orders[i] = order
			replaced = true
			break
		}
	}
	if !replaced {
		l.orders = append(l.orders, order)
	}

	l.persist(ctx)
	return l.snapshot(), nil
}

// Remove drops the entry for orderID. Removing an absent id is a no-op.
func (l *Ledger) Remove(ctx context.Context, orderID models.ID) []models.UnpaidOrder {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.orders[:0:0]
	for _, o := range l.orders {
		if o.OrderID != orderID {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(l.orders) {
		return l.snapshot()
	}
	l.orders = kept

	l.persist(ctx)
	return l.snapshot()
}

// persist writes the whole list. Must be called with mu held.
func (l *Ledger) persist(ctx context.Context) {
	data, err := json.Marshal(l.orders)
	if err == nil {
		err = l.slot.Set(ctx, SlotKey, data)
	}
	if err != nil {
		l.durable = false
		l.log.Error("unpaid orders not saved",
			zap.Error(apperrors.ErrPersistenceWrite.Wrap(err)),
			zap.Int("orders", len(l.orders)))
		return
	}
	l.durable = true
}

func (l *Ledger) snapshot() []models.UnpaidOrder {
	out := make([]models.UnpaidOrder, len(l.orders))
	copy(out, l.orders)
	return out
}

// SlotFactory returns the slot holding a single user's ledger.
type SlotFactory func(userID string) Slot

// Opener hands out per-user ledgers. Each call re-reads the slot, so several
// processes sharing a backend see each other's writes.
type Opener struct {
	slots SlotFactory
	log   *zap.Logger
}

func NewOpener(slots SlotFactory, log *zap.Logger) *Opener {
	return &Opener{slots: slots, log: logger.OrNop(log)}
}

// Open loads the ledger for userID.
func (o *Opener) Open(ctx context.Context, userID string) (*Ledger, error) {
	if userID == "" {
		return nil, fmt.Errorf("open ledger: %w", apperrors.ErrUnauthorized)
	}
	return Open(ctx, o.slots(userID), o.log.With(zap.String("user_id", userID))), nil
}
