package ledger

import (
	"context"
	"sync"
)

type recordKey struct {
	actor string
	tick  uint64
}

// MemoryLedger is an in-memory, thread-safe Ledger implementation.
// It is primarily useful for testing and for single-process deployments
// that do not require durable persistence across restarts.
//
// The three stores of the model are kept as three literal maps. Mutating
// operations validate fully before touching any of them, so a rejected call
// leaves no partial state and no rollback is needed.
type MemoryLedger struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	records  map[recordKey]*EmissionRecord
	lastTick map[string]uint64
}

// New creates an empty MemoryLedger.
func New() *MemoryLedger {
	return &MemoryLedger{
		profiles: make(map[string]*Profile),
		records:  make(map[recordKey]*EmissionRecord),
		lastTick: make(map[string]uint64),
	}
}

// CreateProfile implements Ledger.
func (l *MemoryLedger) CreateProfile(_ context.Context, actor string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.profiles[actor]; exists {
		return ErrDuplicateProfile
	}
	l.profiles[actor] = &Profile{Actor: actor}
	return nil
}

// LogEmission implements Ledger.
func (l *MemoryLedger) LogEmission(_ context.Context, actor string, units uint64, category Category, tick uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, exists := l.profiles[actor]
	if !exists {
		return ErrProfileNotFound
	}
	if err := validateEmission(units, category); err != nil {
		return err
	}
	// A never-logged actor has an implicit marker of 0, so this check also
	// rejects a first emission at tick 0, the genesis tick.
	if l.lastTick[actor] == tick {
		return ErrDuplicateEntry
	}

	l.records[recordKey{actor: actor, tick: tick}] = &EmissionRecord{
		Actor:    actor,
		Tick:     tick,
		Category: category,
		Units:    units,
	}
	l.lastTick[actor] = tick
	p.TotalEmissions += units
	p.EmissionCount++
	return nil
}

// Profile implements Ledger.
func (l *MemoryLedger) Profile(_ context.Context, actor string) (*Profile, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, exists := l.profiles[actor]
	if !exists {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// TotalEmissions implements Ledger.
func (l *MemoryLedger) TotalEmissions(_ context.Context, actor string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, exists := l.profiles[actor]
	if !exists {
		return 0, nil
	}
	return p.TotalEmissions, nil
}

// EmissionHistory implements Ledger. See the interface note: the result is
// the running total, not an itemized list.
func (l *MemoryLedger) EmissionHistory(ctx context.Context, actor string) (uint64, error) {
	return l.TotalEmissions(ctx, actor)
}

// EmissionsByCategory implements Ledger. Always 0; see the interface note.
func (l *MemoryLedger) EmissionsByCategory(_ context.Context, _ string, _ Category) (uint64, error) {
	return 0, nil
}
