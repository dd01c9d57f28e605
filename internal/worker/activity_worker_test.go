package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventplanner/internal/domain/registration"
)

func TestActivityWorkerHandlesUntilClosed(t *testing.T) {
	ch := make(chan registration.Activity, 2)
	w := NewActivityWorker(ch, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var seen []registration.Kind
	w.Handle = func(ctx context.Context, a registration.Activity) {
		seen = append(seen, a.Kind)
	}

	ch <- registration.Activity{Kind: registration.KindRegistered, EventID: 1, UserID: 2}
	ch <- registration.Activity{Kind: registration.KindUnregistered, EventID: 1, UserID: 2}
	close(ch)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after channel close")
	}
	require.Len(t, seen, 2)
	assert.Equal(t, registration.KindUnregistered, seen[1])
}

func TestActivityWorkerStopsOnCancel(t *testing.T) {
	ch := make(chan registration.Activity)
	w := NewActivityWorker(ch, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
