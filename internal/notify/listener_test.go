package notify

import (
	"context"
	"testing"
	"time"

	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
)

func TestListener_DrainsInOrder(t *testing.T) {
	f := newFixture(t)
	l := NewListener(f.pipeline, 16, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	l.Enqueue("sensors/door/entry", []byte(`{"subject":"first"}`))
	l.Enqueue("sensors/door/entry", []byte(`{"subject":"second"}`))

	deadline := time.After(2 * time.Second)
	for f.feed.Len() < 2 {
		select {
		case <-deadline:
			t.Fatalf("listener processed %d messages, want 2", f.feed.Len())
		case <-time.After(10 * time.Millisecond):
		}
	}

	entries := f.feed.Recent(10)
	if entries[0].Subject != "first" || entries[1].Subject != "second" {
		t.Errorf("order = [%s %s], want delivery order", entries[0].Subject, entries[1].Subject)
	}

	cancel()
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop after cancel")
	}
}
