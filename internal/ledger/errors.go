package ledger

import "errors"

// Every ledger failure is a rejected transaction caused by caller input or a
// violated precondition; none are transient or retryable as-is. The numeric
// codes returned by Code are part of the external contract and must be
// preserved verbatim.

// ErrUnauthorized is reserved for an access-control layer in front of the
// ledger. Core transitions never return it.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidEmission is returned when units are outside 1..MaxUnits-1 or the
// category is not one of the defined values.
var ErrInvalidEmission = errors.New("invalid emission: units must be in 1..9999 and category must be one of transportation, energy, diet")

// ErrProfileNotFound is returned when an operation requires a profile that
// was never created.
var ErrProfileNotFound = errors.New("profile not found")

// ErrDuplicateProfile is returned when CreateProfile finds an existing
// profile for the actor.
var ErrDuplicateProfile = errors.New("profile already exists")

// ErrDuplicateEntry is returned when an actor already has an accepted
// emission at the same logical time.
var ErrDuplicateEntry = errors.New("emission already recorded at this logical time")

// Code maps a ledger error to its numeric failure code: 403 Unauthorized,
// 400 InvalidEmission, 404 ProfileNotFound, 409 DuplicateProfile and
// DuplicateEntry. Returns 0 for errors outside the taxonomy.
func Code(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return 403
	case errors.Is(err, ErrInvalidEmission):
		return 400
	case errors.Is(err, ErrProfileNotFound):
		return 404
	case errors.Is(err, ErrDuplicateProfile), errors.Is(err, ErrDuplicateEntry):
		return 409
	default:
		return 0
	}
}
