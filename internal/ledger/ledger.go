// Package ledger implements the carbon emissions ledger: a state machine
// over three per-actor stores (profile, emission log, last-emission marker)
// with centrally enforced invariants — one profile per actor, bounded
// per-event inputs, and at most one accepted emission per actor per logical
// time tick.
//
// Callers supply the actor identity and the current logical tick explicitly;
// the ledger reads no ambient state, so every transition is deterministic
// given (actor, current state, inputs, tick).
//
// Three implementations of the Ledger interface are provided:
//   - MemoryLedger: in-process, for testing and development.
//   - PostgresLedger: durable, for production use.
//   - SQLiteLedger: embedded, for single-node deployments.
package ledger

import "context"

// Ledger is the interface implemented by all emissions ledger backends.
// Mutating operations are atomic: either every write of the transition is
// applied or none are.
type Ledger interface {
	// CreateProfile inserts a fresh zero-valued profile for actor.
	// Insert-if-absent: returns ErrDuplicateProfile if one already exists.
	CreateProfile(ctx context.Context, actor string) error

	// LogEmission records one emission event for actor at the given tick.
	// Checks run in a fixed order, short-circuiting at the first failure:
	// profile existence (ErrProfileNotFound), input validity
	// (ErrInvalidEmission), then same-tick duplicate (ErrDuplicateEntry).
	LogEmission(ctx context.Context, actor string, units uint64, category Category, tick uint64) error

	// Profile returns actor's aggregate state, or ErrProfileNotFound.
	Profile(ctx context.Context, actor string) (*Profile, error)

	// TotalEmissions returns actor's running total, or 0 if no profile
	// exists. Never fails on a missing profile.
	TotalEmissions(ctx context.Context, actor string) (uint64, error)

	// EmissionHistory returns actor's running total. It does NOT return the
	// itemized list of records; this limitation is carried over from the
	// source system deliberately.
	EmissionHistory(ctx context.Context, actor string) (uint64, error)

	// EmissionsByCategory always returns 0. Per-category breakdown is a
	// known gap; the signature is kept so wiring it later is additive.
	EmissionsByCategory(ctx context.Context, actor string, category Category) (uint64, error)
}
