package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"web2view/bridge"
	"web2view/config"
	"web2view/inspector"
	"web2view/kvstore"
	"web2view/steam"
)

// inboxSize bounds page events waiting for the dispatch loop. Bound
// callbacks block the UI thread once it fills.
const inboxSize = 256

// App is the desktop shell: one window, its bridge, and the platform session.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	window      Window
	store       *kvstore.Store
	provider    steam.Provider
	entitlement *bridge.Entitlement
	gate        *bridge.Gate
	channel     *bridge.Channel
	dispatcher  *bridge.Dispatcher
	inspector   *inspector.Server
	openURL     func(string)
	pageURL     string

	inbox    chan func()
	done     chan struct{}
	loopDone chan struct{}
	looping  bool
	quitOnce sync.Once
	stopOnce sync.Once
}

// NewApp wires the bridge around provider. openURL hands denied navigations
// and the inspector page to the user's default handler.
func NewApp(cfg *config.Config, provider steam.Provider, openURL func(string), logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if openURL == nil {
		openURL = func(string) {}
	}
	if provider == nil {
		provider = steam.Demo()
	}

	a := &App{
		cfg:       cfg,
		logger:    logger.With("component", "shell"),
		store:     kvstore.InDir(cfg.DataDir, logger),
		provider:  provider,
		inspector: inspector.New(cfg.Inspector.Addr, logger),
		openURL:   openURL,
		inbox:     make(chan func(), inboxSize),
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}

	a.entitlement = bridge.NewEntitlement(provider, cfg.Game.AppID, logger)
	a.gate = bridge.NewGate(cfg.Game.Origin, cfg.Bridge.AllowedOrigins, openURL, logger)
	a.channel = bridge.NewChannel(a.gate.Trusted(), cfg.Game.FrameID, logger)
	a.dispatcher = bridge.NewDispatcher(a.store, a.channel, a.entitlement, a.Quit, logger)

	a.gate.SetObserver(a.inspector)
	a.channel.SetObserver(a.inspector)
	a.dispatcher.SetObserver(a.inspector)
	return a
}

// Init attaches the window, installs the page bridge, starts the dispatch
// loop and loads pageURL.
func (a *App) Init(w Window, pageURL string) error {
	a.window = w
	a.pageURL = pageURL
	a.channel.Attach(windowPort{w: w})
	session := a.inspector.NewSession()

	bindings := map[string]interface{}{
		bindPost:      a.onPost,
		bindReady:     a.onReady,
		bindNavigate:  a.onNavigate,
		bindInspector: a.onInspector,
	}
	for name, fn := range bindings {
		if err := w.Bind(name, fn); err != nil {
			return fmt.Errorf("binding %s: %w", name, err)
		}
	}
	w.Init(preloadScript(a.gate.Trusted()))

	a.looping = true
	go a.loop()

	a.logger.Info("loading game",
		"url", pageURL,
		"session", session,
		"platform", a.entitlement.Available(),
	)
	w.Navigate(pageURL)
	return nil
}

// Run blocks in the window's event loop and shuts everything down when the
// window closes.
func (a *App) Run() {
	a.window.Run()
	a.Shutdown()
}

// Quit ends the session: the platform SDK is shut down first, then the
// window loop is stopped.
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		a.logger.Info("quit requested")
		a.shutdownProvider()
		if a.window != nil {
			a.window.Terminate()
		}
	})
}

// Shutdown releases the window, the platform session and the inspector. It
// is safe to call more than once.
func (a *App) Shutdown() {
	a.stopOnce.Do(func() {
		close(a.done)
		if a.looping {
			<-a.loopDone
		}
		a.channel.Detach()
		a.shutdownProvider()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.inspector.Stop(ctx); err != nil {
			a.logger.Warn("inspector stop failed", "error", err)
		}
		if a.window != nil {
			a.window.Destroy()
		}
		a.logger.Info("shell stopped")
	})
}

func (a *App) shutdownProvider() {
	if err := a.provider.Shutdown(); err != nil {
		a.logger.Warn("platform shutdown failed", "error", err)
	}
}

// loop runs page events one at a time in arrival order.
func (a *App) loop() {
	defer close(a.loopDone)
	for {
		select {
		case fn := <-a.inbox:
			fn()
		case <-a.done:
			return
		}
	}
}

// post queues fn on the dispatch loop. Events arriving after shutdown are
// discarded.
func (a *App) post(fn func()) {
	select {
	case a.inbox <- fn:
	case <-a.done:
	}
}

// onPost receives every page message with the origin it came from.
func (a *App) onPost(origin string, data interface{}) {
	a.post(func() {
		a.gate.Forward(origin, data, a.dispatcher.Handle)
	})
}

// onReady runs on every page load. The first load of a window flushes the
// queue; each load gets a fresh entitlement.
func (a *App) onReady() {
	a.post(func() {
		if a.channel.MarkReady() {
			a.logger.Debug("page ready")
		}
		a.channel.Send(a.entitlement.Resolve())
	})
}

// onNavigate applies the navigation policy. It runs on the UI thread and
// reports whether the page may load url in place. A denied document kind
// means the window already left the policy; it goes back to the wrapper.
func (a *App) onNavigate(url, kind string) bool {
	switch kind {
	case navWindow:
		return a.gate.OpenWindow(url) == bridge.ActionAllow
	case navDocument:
		if a.gate.Navigate(url) {
			return true
		}
		a.logger.Warn("untrusted document loaded, returning to wrapper", "url", url)
		a.window.Dispatch(func() { a.window.Navigate(a.pageURL) })
		return false
	default:
		return a.gate.Navigate(url)
	}
}

func (a *App) onInspector() {
	go a.toggleInspector()
}

func (a *App) toggleInspector() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pageURL, err := a.inspector.Toggle(ctx)
	if err != nil {
		a.logger.Warn("inspector toggle failed", "error", err)
		return
	}
	if pageURL != "" {
		a.openURL(pageURL)
	}
}

// windowPort injects scripts on the window's UI thread without waiting.
type windowPort struct {
	w Window
}

func (p windowPort) Eval(script string) error {
	if p.w == nil {
		return bridge.ErrNoWindow
	}
	p.w.Dispatch(func() { p.w.Eval(script) })
	return nil
}
