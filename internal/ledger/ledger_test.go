package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	total   int
	saves   int
	failErr error
}

func (m *memStore) RewardTotal() (int, error) { return m.total, nil }

func (m *memStore) SaveRewardTotal(total int) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.total = total
	m.saves++
	return nil
}

func TestAddPersistsAndNotifies(t *testing.T) {
	store := &memStore{total: 10}
	l, err := New(store, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, l.Total())

	var changes []Change
	unsubscribe := l.Subscribe(func(c Change) { changes = append(changes, c) })

	total, err := l.Add(5, "workout:Leg Day")
	require.NoError(t, err)
	assert.Equal(t, 15, total)
	assert.Equal(t, 15, store.total)
	assert.Equal(t, []Change{{Amount: 5, Source: "workout:Leg Day", Total: 15}}, changes)

	unsubscribe()
	_, err = l.Add(1, "manual")
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestAddClampsAtZero(t *testing.T) {
	store := &memStore{total: 3}
	l, err := New(store, nil)
	require.NoError(t, err)

	total, err := l.Add(-10, "reversal")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, store.total)
}

func TestZeroAmountPersistsWithoutNotification(t *testing.T) {
	store := &memStore{}
	l, err := New(store, nil)
	require.NoError(t, err)

	notified := false
	l.Subscribe(func(Change) { notified = true })

	_, err = l.Add(0, "workout:empty")
	require.NoError(t, err)
	assert.False(t, notified)
	assert.Equal(t, 1, store.saves)
}

func TestAddKeepsTotalWhenPersistFails(t *testing.T) {
	boom := errors.New("disk full")
	store := &memStore{total: 7}
	l, err := New(store, nil)
	require.NoError(t, err)
	store.failErr = boom

	total, err := l.Add(5, "workout:Leg Day")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 7, total)
	assert.Equal(t, 7, l.Total())
}

func TestReload(t *testing.T) {
	store := &memStore{total: 4}
	l, err := New(store, nil)
	require.NoError(t, err)

	store.total = 25
	assert.Equal(t, 4, l.Total())
	require.NoError(t, l.Reload())
	assert.Equal(t, 25, l.Total())
}

func TestCreditDefersNotification(t *testing.T) {
	store := &memStore{}
	l, err := New(store, nil)
	require.NoError(t, err)

	var changes []Change
	l.Subscribe(func(c Change) { changes = append(changes, c) })

	total, notify, err := l.Credit(5, "workout:Arms")
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 5, l.Total())
	assert.Empty(t, changes)

	notify()
	assert.Equal(t, []Change{{Amount: 5, Source: "workout:Arms", Total: 5}}, changes)

	store.failErr = errors.New("disk full")
	total, notify, err = l.Credit(5, "workout:Arms")
	assert.Error(t, err)
	assert.Equal(t, 5, total)
	notify()
	assert.Len(t, changes, 1)
}
