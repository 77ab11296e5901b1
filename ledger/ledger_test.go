package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/models"
)

// ---- fake slot ----

type fakeSlot struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	setHits int
}

func newFakeSlot() *fakeSlot { return &fakeSlot{data: map[string][]byte{}} }

func (s *fakeSlot) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ledger.ErrSlotEmpty
	}
	return v, nil
}

func (s *fakeSlot) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setHits++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func order(id, token string) models.UnpaidOrder {
	return models.UnpaidOrder{OrderID: models.ID(id), SnapToken: token}
}

// ---- tests ----

func TestLoadEmptySlot(t *testing.T) {
	got := ledger.Load(context.Background(), newFakeSlot(), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadUnparsableFallsBackToEmpty(t *testing.T) {
	slot := newFakeSlot()
	slot.data[ledger.SlotKey] = []byte("{not json")
	assert.Empty(t, ledger.Load(context.Background(), slot, nil))
}

func TestLoadReadFailureFallsBackToEmpty(t *testing.T) {
	slot := newFakeSlot()
	slot.getErr = errors.New("connection refused")
	assert.Empty(t, ledger.Load(context.Background(), slot, nil))
}

func TestLoadCollapsesDuplicatesAndDropsBlanks(t *testing.T) {
	slot := newFakeSlot()
	slot.data[ledger.SlotKey] = []byte(`[
		{"order_id":"A1","snap_token":"t1"},
		{"order_id":"B2","snap_token":"t2"},
		{"order_id":"A1","snap_token":"t3"},
		{"order_id":"","snap_token":"t4"}
	]`)
	got := ledger.Load(context.Background(), slot, nil)
	assert.Equal(t, []models.UnpaidOrder{order("A1", "t3"), order("B2", "t2")}, got)
}

func TestUpsertScenario(t *testing.T) {
	ctx := context.Background()
	slot := newFakeSlot()
	l := ledger.Open(ctx, slot, nil)

	got, err := l.Upsert(ctx, order("A1", "t1"))
	require.NoError(t, err)
	assert.Equal(t, []models.UnpaidOrder{order("A1", "t1")}, got)

	got, err = l.Upsert(ctx, order("A1", "t2"))
	require.NoError(t, err)
	assert.Equal(t, []models.UnpaidOrder{order("A1", "t2")}, got)

	assert.JSONEq(t, `[{"order_id":"A1","snap_token":"t2"}]`, string(slot.data[ledger.SlotKey]))
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := ledger.Open(ctx, newFakeSlot(), nil)

	_, err := l.Upsert(ctx, order("B2", "x"))
	require.NoError(t, err)
	once := l.Orders()
	_, err = l.Upsert(ctx, order("B2", "x"))
	require.NoError(t, err)

	assert.Equal(t, once, l.Orders())
}

func TestUpsertKeepsPosition(t *testing.T) {
	ctx := context.Background()
	l := ledger.Open(ctx, newFakeSlot(), nil)
	for _, o := range []models.UnpaidOrder{order("1", "a"), order("2", "b"), order("3", "c")} {
		_, err := l.Upsert(ctx, o)
		require.NoError(t, err)
	}

	got, err := l.Upsert(ctx, order("2", "bb"))
	require.NoError(t, err)
	assert.Equal(t, []models.UnpaidOrder{order("1", "a"), order("2", "bb"), order("3", "c")}, got)
}

func TestUpsertRejectsInvalidOrder(t *testing.T) {
	ctx := context.Background()
	slot := newFakeSlot()
	l := ledger.Open(ctx, slot, nil)

	_, err := l.Upsert(ctx, order("", "t1"))
	assert.Equal(t, apperrors.KindInvalidOrder, apperrors.KindOf(err))
	_, err = l.Upsert(ctx, order("A1", ""))
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)
	_, err = l.Upsert(ctx, order("A1", "   "))
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)
	_, err = l.Upsert(ctx, order(" \t", "t1"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)

	assert.Empty(t, l.Orders())
	assert.Zero(t, slot.setHits)
}

func TestUpsertTrimsFields(t *testing.T) {
	ctx := context.Background()
	l := ledger.Open(ctx, newFakeSlot(), nil)

	got, err := l.Upsert(ctx, order(" A1 ", " tok1\n"))
	require.NoError(t, err)
	assert.Equal(t, []models.UnpaidOrder{order("A1", "tok1")}, got)
}

func TestDurabilityRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := newFakeSlot()
	l := ledger.Open(ctx, slot, nil)

	_, err := l.Upsert(ctx, order("A1", "t1"))
	require.NoError(t, err)
	_, err = l.Upsert(ctx, order("B2", "t2"))
	require.NoError(t, err)
	l.Remove(ctx, "A1")

	reloaded := ledger.Open(ctx, slot, nil)
	assert.Equal(t, l.Orders(), reloaded.Orders())
}

func TestRemoveTwiceEqualsOnce(t *testing.T) {
	ctx := context.Background()
	slot := newFakeSlot()
	l := ledger.Open(ctx, slot, nil)
	_, _ = l.Upsert(ctx, order("A1", "t1"))
	_, _ = l.Upsert(ctx, order("B2", "t2"))

	once := l.Remove(ctx, "A1")
	hits := slot.setHits
	twice := l.Remove(ctx, "A1")

	assert.Equal(t, once, twice)
	assert.Equal(t, hits, slot.setHits, "removing an absent id must not write")
}

func TestRemoveLastLeavesEmptyArray(t *testing.T) {
	ctx := context.Background()
	slot := newFakeSlot()
	l := ledger.Open(ctx, slot, nil)
	_, _ = l.Upsert(ctx, order("A1", "t1"))

	assert.Empty(t, l.Remove(ctx, "A1"))
	assert.Equal(t, "[]", string(slot.data[ledger.SlotKey]))
}

func TestWriteFailureKeepsInMemoryChange(t *testing.T) {
	ctx := context.Background()
	slot := newFakeSlot()
	slot.setErr = errors.New("quota exceeded")
	l := ledger.Open(ctx, slot, nil)

	got, err := l.Upsert(ctx, order("A1", "t1"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.False(t, l.Durable())

	slot.setErr = nil
	_, err = l.Upsert(ctx, order("B2", "t2"))
	require.NoError(t, err)
	assert.True(t, l.Durable())
	assert.Len(t, ledger.Load(ctx, slot, nil), 2)
}

func TestFindAndOrdersCopy(t *testing.T) {
	ctx := context.Background()
	l := ledger.Open(ctx, newFakeSlot(), nil)
	_, _ = l.Upsert(ctx, order("A1", "t1"))

	o, ok := l.Find("A1")
	assert.True(t, ok)
	assert.Equal(t, "t1", o.SnapToken)
	_, ok = l.Find("Z9")
	assert.False(t, ok)

	list := l.Orders()
	list[0].SnapToken = "mutated"
	o, _ = l.Find("A1")
	assert.Equal(t, "t1", o.SnapToken)
}

func TestOpenerIsolatesUsers(t *testing.T) {
	ctx := context.Background()
	slots := map[string]*fakeSlot{"u1": newFakeSlot(), "u2": newFakeSlot()}
	opener := ledger.NewOpener(func(userID string) ledger.Slot { return slots[userID] }, nil)

	l1, err := opener.Open(ctx, "u1")
	require.NoError(t, err)
	_, _ = l1.Upsert(ctx, order("A1", "t1"))

	l2, err := opener.Open(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, l2.Orders())

	again, err := opener.Open(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, again.Orders(), 1)

	_, err = opener.Open(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
