package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultFrameID is the id of the iframe hosting the game in the wrapper page.
const DefaultFrameID = "mainframe"

// Channel delivers host-to-page messages. Messages sent before the page is
// ready are queued and flushed in order once it is.
type Channel struct {
	mu      sync.Mutex
	port    Port
	ready   bool
	pending []Outbound

	targetOrigin string
	frameID      string
	observer     Observer
	logger       *slog.Logger
}

// NewChannel creates a channel posting to targetOrigin, addressed to the
// frame with frameID when the page has one.
func NewChannel(targetOrigin, frameID string, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	if frameID == "" {
		frameID = DefaultFrameID
	}
	return &Channel{
		targetOrigin: targetOrigin,
		frameID:      frameID,
		observer:     nopObserver{},
		logger:       logger.With("component", "channel"),
	}
}

// SetObserver installs a traffic observer.
func (c *Channel) SetObserver(o Observer) {
	c.observer = observerOrNop(o)
}

// Attach binds the channel to a new window instance. Readiness starts over.
func (c *Channel) Attach(p Port) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.port = p
	c.ready = false
}

// Detach forgets the window. Later sends are dropped.
func (c *Channel) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.port = nil
	c.ready = false
}

// Send delivers msg, queues it while the page is loading, or drops it when
// no window is attached.
func (c *Channel) Send(msg Outbound) {
	c.mu.Lock()
	port := c.port
	if port == nil {
		c.mu.Unlock()
		c.logger.Debug("dropping message, no window", "key", msg.Key)
		return
	}
	if !c.ready {
		c.pending = append(c.pending, msg)
		c.mu.Unlock()
		c.observer.Observe(Event{Kind: EventQueued, Command: msg.Key, Payload: msg})
		return
	}
	c.mu.Unlock()

	c.deliver(port, msg)
}

// MarkReady records that the page finished loading and flushes the queue in
// FIFO order. It reports false when the page was already ready or no window
// is attached.
func (c *Channel) MarkReady() bool {
	c.mu.Lock()
	if c.ready || c.port == nil {
		c.mu.Unlock()
		return false
	}
	c.ready = true
	queued := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(queued) > 0 {
		c.logger.Debug("flushing pending messages", "count", len(queued))
	}
	for _, msg := range queued {
		c.Send(msg)
	}
	return true
}

// Ready reports whether the page signaled readiness.
func (c *Channel) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Pending returns the number of queued messages.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Channel) deliver(port Port, msg Outbound) {
	script, err := c.script(msg)
	if err == nil {
		err = port.Eval(script)
	}
	if err != nil {
		c.logger.Warn("failed to post message", "key", msg.Key, "error", err)
		c.observer.Observe(Event{Kind: EventFailed, Command: msg.Key, Payload: msg, Error: err.Error()})
		return
	}
	c.observer.Observe(Event{Kind: EventDelivered, Command: msg.Key, Payload: msg})
}

// script builds the page-side snippet that posts msg as a cross-document
// message to the game frame, or to the top window when there is no frame.
func (c *Channel) script(msg Outbound) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encoding message: %w", err)
	}
	origin, _ := json.Marshal(c.targetOrigin)
	frame, _ := json.Marshal(c.frameID)
	return fmt.Sprintf(deliveryScript, payload, origin, frame), nil
}

const deliveryScript = `(function() {
  var payload = %s;
  var targetOrigin = %s;
  var frame = document.getElementById(%s);
  if (frame && frame.contentWindow) {
    frame.contentWindow.postMessage(payload, targetOrigin);
  } else {
    window.postMessage(payload, targetOrigin);
  }
})();`
