package shutdownqueue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func resetQueue(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		q.mu.Lock()

		q.entries = nil
		q.closed = false

		q.mu.Unlock()
	})
}

//nolint:paralleltest
func TestNilTaskIgnored(t *testing.T) {
	resetQueue(t)

	Add("nil", nil)

	err := Shutdown(t.Context())
	if err != nil {
		t.Fatalf("expected nil after adding nil task; got %v", err)
	}
}

//nolint:paralleltest
func TestLIFOOrder(t *testing.T) {
	resetQueue(t)

	var (
		mu    sync.Mutex
		order []string
	)

	for _, name := range []string{"db", "pool", "http"} {
		Add(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()

			return nil
		})
	}

	err := Shutdown(t.Context())
	if err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	want := []string{"http", "pool", "db"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order mismatch: got %v, want %v", order, want)
	}
}

//nolint:paralleltest
func TestPanicIsReportedWithTaskName(t *testing.T) {
	resetQueue(t)

	var ranAfterPanic atomic.Bool

	Add("after", func(context.Context) error {
		ranAfterPanic.Store(true)

		return nil
	})
	Add("exploding", func(context.Context) error { panic("boom") })

	err := Shutdown(t.Context())
	if err == nil {
		t.Fatalf("expected error with panic; got nil")
	}

	if !strings.Contains(err.Error(), `panic in shutdown task "exploding": boom`) {
		t.Fatalf("unexpected error: %q", err.Error())
	}

	if !ranAfterPanic.Load() {
		t.Fatalf("expected tasks after the panic to still run")
	}
}

//nolint:paralleltest
func TestCancelStopsDrain(t *testing.T) {
	resetQueue(t)

	var ranEarliest atomic.Bool

	Add("earliest", func(context.Context) error {
		ranEarliest.Store(true)

		return nil
	})

	gateReady := make(chan struct{})
	Add("gate", func(ctx context.Context) error {
		close(gateReady)
		<-ctx.Done()

		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)

	go func() {
		errCh <- Shutdown(ctx)
	}()

	<-gateReady
	cancel()

	err := <-errCh
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got: %v", err)
	}

	if ranEarliest.Load() {
		t.Fatalf("expected earliest task to be skipped after cancel")
	}
}

//nolint:paralleltest
func TestRunsOnceAndJoinsErrors(t *testing.T) {
	resetQueue(t)

	errAlpha := errors.New("alpha")
	errBeta := errors.New("beta")

	var count atomic.Int32

	Add("alpha", func(context.Context) error {
		count.Add(1)

		return errAlpha
	})
	Add("beta", func(context.Context) error { return errBeta })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := Shutdown(ctx)
	if !errors.Is(err, errAlpha) || !errors.Is(err, errBeta) {
		t.Fatalf("expected joined error to contain both; got: %v", err)
	}

	err = Shutdown(ctx)
	if err != nil {
		t.Fatalf("second Shutdown expected nil; got %v", err)
	}

	if got := count.Load(); got != 1 {
		t.Fatalf("expected task to run once; got %d", got)
	}
}

//nolint:paralleltest
func TestAddDuringShutdownIsIgnored(t *testing.T) {
	resetQueue(t)

	started := make(chan struct{})
	unblock := make(chan struct{})

	Add("blocker", func(context.Context) error {
		close(started)
		<-unblock

		return nil
	})

	done := make(chan struct{})

	go func() {
		_ = Shutdown(context.Background())

		close(done)
	}()

	<-started

	var ran atomic.Bool
	Add("late", func(context.Context) error {
		ran.Store(true)

		return nil
	})

	close(unblock)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Shutdown did not finish")
	}

	if ran.Load() {
		t.Fatalf("task added after shutdown should not run")
	}
}
