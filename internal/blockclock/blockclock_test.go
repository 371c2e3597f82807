package blockclock_test

import (
	"context"
	"testing"
	"time"

	"github.com/greentrace/carbonledger/internal/blockclock"
)

func TestNew_startsPastGenesis(t *testing.T) {
	c := blockclock.New()
	if got := c.Current(); got != 1 {
		t.Errorf("Current(): got %d, want 1", got)
	}
}

func TestAdvance_monotonic(t *testing.T) {
	c := blockclock.NewAt(10)

	if got := c.Advance(); got != 11 {
		t.Errorf("Advance(): got %d, want 11", got)
	}
	if got := c.Current(); got != 11 {
		t.Errorf("Current() after Advance: got %d, want 11", got)
	}

	prev := c.Current()
	for i := 0; i < 100; i++ {
		next := c.Advance()
		if next <= prev {
			t.Fatalf("clock went backwards: %d after %d", next, prev)
		}
		prev = next
	}
}

func TestRun_advancesUntilCancelled(t *testing.T) {
	c := blockclock.New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for c.Current() < 5 {
		select {
		case <-deadline:
			t.Fatal("clock did not advance in time")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
