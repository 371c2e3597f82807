package ledger_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/greentrace/carbonledger/internal/ledger"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *ledger.SQLiteLedger {
	t.Helper()
	l, err := ledger.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSQLite_createProfileDuplicateGuard(t *testing.T) {
	l := openSQLite(t)

	if err := l.CreateProfile(ctx, "actor-a"); err != nil {
		t.Fatalf("first CreateProfile: %v", err)
	}
	if err := l.CreateProfile(ctx, "actor-a"); !errors.Is(err, ledger.ErrDuplicateProfile) {
		t.Errorf("second CreateProfile: got %v, want ErrDuplicateProfile", err)
	}
}

func TestSQLite_transitionSemantics(t *testing.T) {
	l := openSQLite(t)

	// Missing profile wins over invalid input.
	if err := l.LogEmission(ctx, "ghost", 0, ledger.Category(9), 1); !errors.Is(err, ledger.ErrProfileNotFound) {
		t.Errorf("profile-less emission: got %v, want ErrProfileNotFound", err)
	}

	if err := l.CreateProfile(ctx, "actor-a"); err != nil {
		t.Fatal(err)
	}

	if err := l.LogEmission(ctx, "actor-a", 10000, ledger.Energy, 1); !errors.Is(err, ledger.ErrInvalidEmission) {
		t.Errorf("units at bound: got %v, want ErrInvalidEmission", err)
	}
	if err := l.LogEmission(ctx, "actor-a", 50, ledger.Transportation, 1); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if err := l.LogEmission(ctx, "actor-a", 75, ledger.Energy, 1); !errors.Is(err, ledger.ErrDuplicateEntry) {
		t.Errorf("repeat tick 1: got %v, want ErrDuplicateEntry", err)
	}
	if err := l.LogEmission(ctx, "actor-a", 75, ledger.Energy, 2); err != nil {
		t.Fatalf("tick 2: %v", err)
	}

	p, err := l.Profile(ctx, "actor-a")
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalEmissions != 125 || p.EmissionCount != 2 {
		t.Errorf("aggregates: got %+v, want total 125 count 2", p)
	}
}

func TestSQLite_queriesForUnknownActor(t *testing.T) {
	l := openSQLite(t)

	total, err := l.TotalEmissions(ctx, "nobody")
	if err != nil || total != 0 {
		t.Errorf("TotalEmissions: got (%d, %v), want (0, nil)", total, err)
	}
	if _, err := l.Profile(ctx, "nobody"); !errors.Is(err, ledger.ErrProfileNotFound) {
		t.Errorf("Profile: got %v, want ErrProfileNotFound", err)
	}
}

func TestSQLite_reopenKeepsState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")

	l, err := ledger.OpenSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.CreateProfile(ctx, "actor-a"); err != nil {
		t.Fatal(err)
	}
	if err := l.LogEmission(ctx, "actor-a", 42, ledger.Diet, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	l2, err := ledger.OpenSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()

	total, err := l2.TotalEmissions(ctx, "actor-a")
	if err != nil {
		t.Fatal(err)
	}
	if total != 42 {
		t.Errorf("total after reopen: got %d, want 42", total)
	}

	// The marker survives too: tick 1 is still a duplicate.
	if err := l2.LogEmission(ctx, "actor-a", 5, ledger.Diet, 1); !errors.Is(err, ledger.ErrDuplicateEntry) {
		t.Errorf("tick 1 after reopen: got %v, want ErrDuplicateEntry", err)
	}
}
