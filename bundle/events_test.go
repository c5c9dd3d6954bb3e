package bundle

import "testing"

func TestDispatchEventFansOutToAllListeners(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	bus.AddEventListener(TopicBuildStart, func(payload any) { calls = append(calls, "first") })
	bus.AddEventListener(TopicBuildStart, func(payload any) { calls = append(calls, "second") })
	bus.DispatchEvent(TopicBuildStart, nil)
	if len(calls) != 2 {
		t.Fatalf("expected both listeners to run, got %v", calls)
	}
}

func TestDispatchEventOnlyNotifiesMatchingTopic(t *testing.T) {
	bus := NewEventBus()
	called := false
	bus.AddEventListener(TopicBuildEnd, func(payload any) { called = true })
	bus.DispatchEvent(TopicBuildStart, nil)
	if called {
		t.Error("listener for a different topic must not fire")
	}
}

func TestDispatchEventRecoversPanicAndReroutesToLoggerError(t *testing.T) {
	bus := NewEventBus()
	var loggedPayload any
	bus.AddEventListener(TopicLoggerError, func(payload any) { loggedPayload = payload })
	bus.AddEventListener(TopicBuildStart, func(payload any) { panic("boom") })

	bus.DispatchEvent(TopicBuildStart, nil)

	if loggedPayload != "boom" {
		t.Errorf("expected panicking listener to reroute to LOGGER_ERROR, got %v", loggedPayload)
	}
}

func TestDispatchEventPayloadDelivered(t *testing.T) {
	bus := NewEventBus()
	var got any
	bus.AddEventListener(TopicBuildEnd, func(payload any) { got = payload })
	bus.DispatchEvent(TopicBuildEnd, 42)
	if got != 42 {
		t.Errorf("expected payload 42, got %v", got)
	}
}
