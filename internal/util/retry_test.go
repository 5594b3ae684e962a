package util

import (
	"context"
	"errors"
	"testing"
)

func TestRetry(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		got, err := Retry(3, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("not yet")
			}
			return 42, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 42 || calls != 3 {
			t.Fatalf("got %d after %d calls, want 42 after 3", got, calls)
		}
	})

	t.Run("returns last error", func(t *testing.T) {
		calls := 0
		_, err := Retry(2, func() (int, error) {
			calls++
			return 0, errors.New("always")
		})
		if err == nil || calls != 2 {
			t.Fatalf("expected error after 2 calls, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("zero maxTries defaults to one", func(t *testing.T) {
		calls := 0
		_, _ = Retry(0, func() (int, error) {
			calls++
			return 0, errors.New("x")
		})
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})
}

func TestRetryErrWithContext(t *testing.T) {
	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := RetryErrWithContext(ctx, 5, func(ctx context.Context) error {
			calls++
			return errors.New("never reached")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 0 {
			t.Fatalf("expected 0 calls on canceled context, got %d", calls)
		}
	})

	t.Run("does not retry context errors from fn", func(t *testing.T) {
		calls := 0
		err := RetryErrWithContext(context.Background(), 5, func(ctx context.Context) error {
			calls++
			return context.DeadlineExceeded
		})
		if !errors.Is(err, context.DeadlineExceeded) || calls != 1 {
			t.Fatalf("expected single call with deadline error, got err=%v calls=%d", err, calls)
		}
	})
}
