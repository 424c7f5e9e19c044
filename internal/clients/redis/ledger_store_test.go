package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

func testStore(t *testing.T) LedgerStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run ledger store tests")
	}
	t.Setenv("REDIS_ADDR", addr)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	s, err := NewLedgerStore(log)
	if err != nil {
		t.Fatalf("NewLedgerStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLedgerStore_AppendCapsList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := "ledger:test:" + uuid.NewString()

	for i := 0; i < types.MaxLedgerEntriesPerDay+1; i++ {
		e := types.LedgerEntry{
			Agent:      "test",
			ActionType: "suggestion",
			Payload:    map[string]string{"target_text": fmt.Sprintf("item-%d", i)},
			Timestamp:  time.Now().UTC(),
		}
		if err := s.Append(ctx, key, e, types.MaxLedgerEntriesPerDay); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	got, err := s.Entries(ctx, key)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != types.MaxLedgerEntriesPerDay {
		t.Fatalf("got %d entries, want %d", len(got), types.MaxLedgerEntriesPerDay)
	}
	// The very first entry is the one dropped.
	if got[0].Payload["target_text"] != "item-1" {
		t.Fatalf("oldest surviving entry = %q, want item-1", got[0].Payload["target_text"])
	}
	last := got[len(got)-1]
	if want := fmt.Sprintf("item-%d", types.MaxLedgerEntriesPerDay); last.Payload["target_text"] != want {
		t.Fatalf("newest entry = %q, want %s", last.Payload["target_text"], want)
	}
}

func TestLedgerStore_EntriesMissingKey(t *testing.T) {
	s := testStore(t)

	got, err := s.Entries(context.Background(), "ledger:test:"+uuid.NewString())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list for missing key, got %d", len(got))
	}
}
