package logsink

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fleetbot/internal/domain"
)

func TestBufferRecentNewestFirst(t *testing.T) {
	b := NewBuffer(10)
	for i := 0; i < 3; i++ {
		b.Emit("alpha", "FOLLOW", domain.SeverityInfo, fmt.Sprintf("msg-%d", i))
	}
	recent := b.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Message != "msg-2" || recent[1].Message != "msg-1" {
		t.Fatalf("expected newest first, got %q then %q", recent[0].Message, recent[1].Message)
	}
}

func TestBufferDropsOldestBeyondCapacity(t *testing.T) {
	b := NewBuffer(2)
	b.Emit("a", "LIKE", domain.SeverityInfo, "first")
	b.Emit("a", "LIKE", domain.SeverityInfo, "second")
	b.Emit("a", "LIKE", domain.SeverityInfo, "third")

	recent := b.Recent(0)
	if len(recent) != 2 {
		t.Fatalf("expected capacity 2, got %d entries", len(recent))
	}
	if recent[1].Message != "second" {
		t.Fatalf("oldest entry should have been dropped, got %q", recent[1].Message)
	}
}

func TestBufferSubscribersReceiveEntries(t *testing.T) {
	b := NewBuffer(10)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Emit("alpha", "COMMENT", domain.SeveritySuccess, "done")
	select {
	case e := <-ch:
		if e.AccountID != "alpha" || e.Severity != domain.SeveritySuccess {
			t.Fatalf("unexpected entry: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber did not receive entry")
	}
}

func TestBufferEmitNeverBlocksOnFullSubscriber(t *testing.T) {
	b := NewBuffer(1000)
	_, cancel := b.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Emit("alpha", "LIKE", domain.SeverityInfo, "spam")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Emit blocked on a full subscriber channel")
	}
}

func TestBufferCancelIsIdempotent(t *testing.T) {
	b := NewBuffer(10)
	_, cancel := b.Subscribe()
	cancel()
	cancel() // must not panic on double close
	b.Emit("alpha", "LIKE", domain.SeverityInfo, "after cancel")
}

func TestWebhookPublishesEntries(t *testing.T) {
	var mu sync.Mutex
	received := make([]Entry, 0, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second)
	w.Emit("alpha", "SAVE", domain.SeverityError, "boom")

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("webhook never received the entry")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if received[0].Action != "SAVE" || received[0].Severity != domain.SeverityError {
		t.Fatalf("unexpected webhook entry: %+v", received[0])
	}
}
