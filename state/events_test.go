package state

import "testing"

func TestObserverSubscribeAndNotify(t *testing.T) {
	ol := newObserverList()
	var got []AppEvent
	unsub := ol.subscribe(func(ev AppEvent) { got = append(got, ev) })

	ol.notify(Connected{ConnID: "a"})
	ol.notify(Disconnected{ConnID: "a"})
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}

	unsub()
	ol.notify(Connected{ConnID: "b"})
	if len(got) != 2 {
		t.Fatalf("expected no further events after unsubscribe, got %d", len(got))
	}
}

func TestObserverMultipleSubscribers(t *testing.T) {
	ol := newObserverList()
	var a, b int
	ol.subscribe(func(AppEvent) { a++ })
	ol.subscribe(func(AppEvent) { b++ })
	ol.notify(ViewChanged{})
	if a != 1 || b != 1 {
		t.Fatalf("expected both subscribers notified once, got a=%d b=%d", a, b)
	}
}

func TestAppEventIsClosedSumType(t *testing.T) {
	var events []AppEvent = []AppEvent{
		Connecting{ConnID: "x"},
		Connected{ConnID: "x"},
		ConnectionFailed{ConnID: "x", Err: nil},
		DocumentsLoaded{Session: SessionKey{ConnID: "x", Database: "d", Collection: "c"}, Total: 3},
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events")
	}
}
