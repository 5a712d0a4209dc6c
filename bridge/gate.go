package bridge

import (
	"log/slog"
	"strings"
)

// NullOrigin is the origin browsers report for file-based and sandboxed content.
const NullOrigin = "null"

// WindowAction is the decision for a new-window request.
type WindowAction string

const (
	ActionAllow WindowAction = "allow"
	ActionDeny  WindowAction = "deny"
)

// Gate is the trust boundary between the embedded page and the host. It
// decides which page messages reach the dispatcher and where the window may
// navigate.
type Gate struct {
	trusted  string
	allowed  map[string]struct{}
	external func(url string)
	observer Observer
	logger   *slog.Logger
}

// NewGate builds a gate for the trusted origin. The trusted origin and the
// null origin are always accepted; extra lists additional accepted origins.
// external opens a denied URL in the user's default handler.
func NewGate(trusted string, extra []string, external func(url string), logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	trusted = strings.TrimRight(trusted, "/")
	allowed := map[string]struct{}{
		trusted:    {},
		NullOrigin: {},
	}
	for _, o := range extra {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	if external == nil {
		external = func(string) {}
	}
	return &Gate{
		trusted:  trusted,
		allowed:  allowed,
		external: external,
		observer: nopObserver{},
		logger:   logger.With("component", "gate"),
	}
}

// SetObserver installs a traffic observer.
func (g *Gate) SetObserver(o Observer) {
	g.observer = observerOrNop(o)
}

// Trusted returns the trusted origin.
func (g *Gate) Trusted() string {
	return g.trusted
}

// AllowOrigin reports whether messages from origin may reach the host.
func (g *Gate) AllowOrigin(origin string) bool {
	_, ok := g.allowed[origin]
	return ok
}

// Forward passes data to next when origin is allow-listed and reports
// whether it did. Rejected messages are dropped without any reply.
func (g *Gate) Forward(origin string, data any, next func(any)) bool {
	if !g.AllowOrigin(origin) {
		g.logger.Debug("dropping message from untrusted origin", "origin", origin)
		g.observer.Observe(Event{Kind: EventDropped, Origin: origin, Payload: data})
		return false
	}
	g.observer.Observe(Event{Kind: EventInbound, Origin: origin, Payload: data})
	next(data)
	return true
}

// AllowNavigation reports whether the window may load url in place.
func (g *Gate) AllowNavigation(url string) bool {
	switch {
	case url == "", url == "about:blank":
		return true
	case strings.HasPrefix(url, "file://"):
		return true
	case url == g.trusted:
		return true
	case strings.HasPrefix(url, g.trusted):
		// The origin must end where the host does.
		switch url[len(g.trusted)] {
		case '/', '?', '#':
			return true
		}
	}
	return false
}

// Navigate decides a navigation request. It returns false when the
// navigation must be canceled, after handing url to the external handler.
func (g *Gate) Navigate(url string) bool {
	if g.AllowNavigation(url) {
		g.observer.Observe(Event{Kind: EventNavigate, URL: url, Allowed: true})
		return true
	}
	g.logger.Info("opening navigation externally", "url", url)
	g.observer.Observe(Event{Kind: EventNavigate, URL: url})
	g.external(url)
	return false
}

// OpenWindow decides a new-window request with the same policy as Navigate.
func (g *Gate) OpenWindow(url string) WindowAction {
	if g.Navigate(url) {
		return ActionAllow
	}
	return ActionDeny
}
