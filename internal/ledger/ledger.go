// Package ledger keeps the running skins total.
package ledger

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type TotalStore interface {
	RewardTotal() (int, error)
	SaveRewardTotal(total int) error
}

// Change describes one applied Add call.
type Change struct {
	Amount int
	Source string
	Total  int
}

type Ledger struct {
	store TotalStore
	log   *slog.Logger

	mu    sync.Mutex
	total int

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int
}

func New(store TotalStore, log *slog.Logger) (*Ledger, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	total, err := store.RewardTotal()
	if err != nil {
		return nil, fmt.Errorf("failed to load reward total: %w", err)
	}
	return &Ledger{
		store:     store,
		log:       log,
		total:     max(total, 0),
		observers: make(map[int]func(Change)),
	}, nil
}

func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Add applies amount (negative for reversals), clamps the result at zero and
// persists it. The in-memory total only changes once the write succeeded.
// Subscribers are called before Add returns.
func (l *Ledger) Add(amount int, source string) (int, error) {
	total, notify, err := l.Credit(amount, source)
	if err != nil {
		return total, err
	}
	notify()
	return total, nil
}

// Credit applies amount like Add but leaves the subscriber call to the
// returned func. Callers holding a lock of their own call it after releasing
// that lock.
func (l *Ledger) Credit(amount int, source string) (int, func(), error) {
	l.mu.Lock()
	next := max(l.total+amount, 0)
	if err := l.store.SaveRewardTotal(next); err != nil {
		total := l.total
		l.mu.Unlock()
		l.log.Error("failed to persist reward total", "amount", amount, "source", source, "error", err)
		return total, func() {}, fmt.Errorf("failed to persist reward total: %w", err)
	}
	l.total = next
	l.mu.Unlock()

	l.log.Info("reward applied", "amount", amount, "source", source, "total", next)
	if amount == 0 {
		return next, func() {}, nil
	}
	c := Change{Amount: amount, Source: source, Total: next}
	return next, func() { l.notify(c) }, nil
}

// Reload rereads the persisted total, for use after the store was replaced.
func (l *Ledger) Reload() error {
	total, err := l.store.RewardTotal()
	if err != nil {
		return fmt.Errorf("failed to load reward total: %w", err)
	}
	l.mu.Lock()
	l.total = max(total, 0)
	l.mu.Unlock()
	return nil
}

// Subscribe registers fn for non-zero changes. fn runs on the goroutine that
// applied the change. Call the returned func to stop.
func (l *Ledger) Subscribe(fn func(Change)) func() {
	l.obsMu.Lock()
	defer l.obsMu.Unlock()

	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	return func() {
		l.obsMu.Lock()
		defer l.obsMu.Unlock()
		delete(l.observers, id)
	}
}

func (l *Ledger) notify(c Change) {
	l.obsMu.Lock()
	fns := make([]func(Change), 0, len(l.observers))
	for _, fn := range l.observers {
		fns = append(fns, fn)
	}
	l.obsMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
