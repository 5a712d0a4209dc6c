package bridge

import "errors"

// ErrNoWindow is reported when an outbound message has no window to go to.
var ErrNoWindow = errors.New("bridge: no window attached")

// Message is an inbound page message decoded from JSON.
type Message = map[string]any

// Outbound is the wire format for host-to-page messages.
type Outbound struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Store is the persistent key-value store used by the dispatcher.
type Store interface {
	Load() map[string]any
	Save(map[string]any)
}

// Sender delivers outbound messages to the page. Implemented by Channel.
type Sender interface {
	Send(Outbound)
}

// Port injects a script into the page. Implemented by the host window.
type Port interface {
	Eval(script string) error
}

// Capability is the platform SDK surface the bridge depends on.
type Capability interface {
	Available() bool
	IsSubscribedApp(appID uint32) (bool, error)
	AccountID() (uint32, error)
	UnlockAchievement(name string) error
}

// EventKind classifies a traffic event.
type EventKind string

const (
	EventInbound   EventKind = "inbound"   // forwarded by the gate
	EventDropped   EventKind = "dropped"   // rejected by the gate
	EventCommand   EventKind = "command"   // matched by the dispatcher
	EventQueued    EventKind = "queued"    // held until the page is ready
	EventDelivered EventKind = "delivered" // injected into the page
	EventFailed    EventKind = "failed"    // injection failed
	EventNavigate  EventKind = "navigate"  // navigation or window-open decision
)

// Event describes one message crossing the bridge.
type Event struct {
	Kind    EventKind `json:"kind"`
	Origin  string    `json:"origin,omitempty"`
	Command string    `json:"command,omitempty"`
	URL     string    `json:"url,omitempty"`
	Allowed bool      `json:"allowed,omitempty"`
	Payload any       `json:"payload,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Observer receives traffic events. Implemented by the inspector.
type Observer interface {
	Observe(Event)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
