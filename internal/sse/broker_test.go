package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeCatalogReloaded, Data: map[string]string{"path": "properties.json"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: catalog.reloaded") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"properties.json"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishCatalogEvent_MapThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First reload triggers map.updated, the second one right after does not.
	b.PublishCatalogEvent("reloaded", "a.json")
	b.PublishCatalogEvent("reloaded", "b.json")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	mapCount := 0
	reloadCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "map.updated") {
				mapCount++
			} else {
				reloadCount++
			}
		default:
			break loop
		}
	}

	if reloadCount != 2 {
		t.Errorf("reload events = %d, want 2", reloadCount)
	}
	if mapCount != 1 {
		t.Errorf("map events = %d, want 1 (throttled)", mapCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeMapUpdated, Data: map[string]string{}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: map.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeMapUpdated, Data: map[string]string{}})
	b.PublishCatalogEvent("reloaded", "x.json")
	b.PublishAlert("u1", map[string]string{"id": "a"})
}

func TestFailedReloadDoesNotTouchMap(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishCatalogEvent("failed", "properties.json")
	time.Sleep(50 * time.Millisecond)

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: catalog.failed") {
			t.Fatalf("unexpected event %q", msg)
		}
	default:
		t.Fatal("expected catalog.failed event")
	}
	select {
	case msg := <-ch:
		t.Fatalf("unexpected extra event %q", msg)
	default:
	}
}

func TestAlertsOnlyReachOwner(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	owner := b.SubscribeUser("u1")
	defer b.Unsubscribe(owner)
	other := b.SubscribeUser("u2")
	defer b.Unsubscribe(other)
	anon := b.Subscribe()
	defer b.Unsubscribe(anon)

	b.PublishAlert("u1", map[string]string{"id": "alert-1"})
	time.Sleep(50 * time.Millisecond)

	select {
	case msg := <-owner:
		if !strings.Contains(string(msg), "event: alert.created") || !strings.Contains(string(msg), "alert-1") {
			t.Errorf("owner got %q", msg)
		}
	default:
		t.Fatal("owner did not receive alert")
	}
	for name, ch := range map[string]chan []byte{"other": other, "anon": anon} {
		select {
		case msg := <-ch:
			t.Errorf("%s received %q", name, msg)
		default:
		}
	}
}

func TestHandlerUsesContextUser(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ctx, cancel := context.WithCancel(WithUser(context.Background(), "u7"))
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	b.PublishAlert("u7", map[string]string{"id": "mine"})
	b.PublishAlert("u8", map[string]string{"id": "theirs"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "mine") || strings.Contains(body, "theirs") {
		t.Errorf("body = %q", body)
	}
}
