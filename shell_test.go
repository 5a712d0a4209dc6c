package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web2view/bridge"
	"web2view/config"
)

// callLog records lifecycle calls across fakes so tests can check ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeWindow struct {
	log *callLog

	mu        sync.Mutex
	bindings  map[string]interface{}
	scripts   []string
	navigated []string
	evals     []string

	terminated chan struct{}
	termOnce   sync.Once
}

func newFakeWindow(log *callLog) *fakeWindow {
	return &fakeWindow{
		log:        log,
		bindings:   make(map[string]interface{}),
		terminated: make(chan struct{}),
	}
}

func (w *fakeWindow) Init(js string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scripts = append(w.scripts, js)
}

func (w *fakeWindow) Bind(name string, f interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bindings[name] = f
	return nil
}

func (w *fakeWindow) Navigate(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.navigated = append(w.navigated, url)
}

func (w *fakeWindow) Eval(js string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evals = append(w.evals, js)
}

func (w *fakeWindow) Dispatch(f func()) { f() }

func (w *fakeWindow) Run() { <-w.terminated }

func (w *fakeWindow) Terminate() {
	w.termOnce.Do(func() {
		w.log.add("window.terminate")
		close(w.terminated)
	})
}

func (w *fakeWindow) Destroy() { w.log.add("window.destroy") }

func (w *fakeWindow) binding(name string) interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bindings[name]
}

func (w *fakeWindow) evaluated() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.evals...)
}

func (w *fakeWindow) post(origin string, data interface{}) {
	w.binding(bindPost).(func(string, interface{}))(origin, data)
}

func (w *fakeWindow) ready() {
	w.binding(bindReady).(func())()
}

type fakeProvider struct {
	log       *callLog
	available bool
	owned     bool
	accountID uint32

	mu       sync.Mutex
	unlocked []string
}

func (p *fakeProvider) Available() bool                      { return p.available }
func (p *fakeProvider) IsSubscribedApp(uint32) (bool, error) { return p.owned, nil }
func (p *fakeProvider) AccountID() (uint32, error)           { return p.accountID, nil }

func (p *fakeProvider) UnlockAchievement(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unlocked = append(p.unlocked, name)
	return nil
}

func (p *fakeProvider) Shutdown() error {
	p.log.add("provider.shutdown")
	return nil
}

type testShell struct {
	app    *App
	window *fakeWindow
	log    *callLog
	opened *[]string
}

func newTestShell(t *testing.T, provider *fakeProvider) testShell {
	t.Helper()
	log := &callLog{}
	provider.log = log

	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	var mu sync.Mutex
	opened := []string{}
	openURL := func(url string) {
		mu.Lock()
		defer mu.Unlock()
		opened = append(opened, url)
	}

	app := NewApp(cfg, provider, openURL, nil)
	w := newFakeWindow(log)
	require.NoError(t, app.Init(w, "file:///opt/blektre/wrapper.html?version=V1"))
	t.Cleanup(app.Shutdown)

	return testShell{app: app, window: w, log: log, opened: &opened}
}

// flush waits until every event posted so far has been handled.
func flush(t *testing.T, a *App) {
	t.Helper()
	done := make(chan struct{})
	a.post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not drain")
	}
}

func TestApp_InitInstallsBridge(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})

	for _, name := range []string{bindPost, bindReady, bindNavigate, bindInspector} {
		assert.NotNil(t, s.window.binding(name), name)
	}
	assert.Equal(t, []string{preloadScript("https://blektre.com")}, s.window.scripts)
	assert.Equal(t, []string{"file:///opt/blektre/wrapper.html?version=V1"}, s.window.navigated)
}

func TestApp_QueuesUntilReadyThenFlushes(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})
	const origin = "https://blektre.com"

	s.window.post(origin, map[string]any{"type": "store", "key": "hiscore", "value": float64(42)})
	s.window.post(origin, map[string]any{"type": "restore", "key": "hiscore"})
	s.window.post(origin, map[string]any{"type": "restore", "key": "unknown"})
	flush(t, s.app)

	assert.Empty(t, s.window.evaluated())
	assert.Equal(t, 2, s.app.channel.Pending())

	s.window.ready()
	flush(t, s.app)

	evals := s.window.evaluated()
	require.Len(t, evals, 3)
	assert.Contains(t, evals[0], `{"key":"hiscore","value":42}`)
	assert.Contains(t, evals[1], `{"key":"unknown","value":""}`)
	assert.Contains(t, evals[2], `{"key":"demoversion","value":1}`)

	// A reload pushes a fresh entitlement without replaying the queue.
	s.window.ready()
	flush(t, s.app)
	evals = s.window.evaluated()
	require.Len(t, evals, 4)
	assert.Contains(t, evals[3], `{"key":"demoversion","value":1}`)
}

func TestApp_OwnedEntitlementOnReady(t *testing.T) {
	s := newTestShell(t, &fakeProvider{available: true, owned: true, accountID: 12345})

	s.window.ready()
	flush(t, s.app)

	evals := s.window.evaluated()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], `{"key":"steamapp","value":12345}`)
}

func TestApp_UntrustedOriginNeverReachesStore(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})

	s.window.post("https://evil.example", map[string]any{"type": "store", "key": "user", "value": "x"})
	s.window.post("", map[string]any{"type": "store", "key": "stay", "value": "x"})
	s.window.post(bridge.NullOrigin, map[string]any{"type": "store", "key": "local", "value": "ok"})
	flush(t, s.app)

	assert.Equal(t, map[string]any{"local": "ok"}, s.app.store.Load())

	var kinds []bridge.EventKind
	for _, e := range s.app.inspector.History() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []bridge.EventKind{
		bridge.EventDropped,
		bridge.EventDropped,
		bridge.EventInbound,
		bridge.EventCommand,
	}, kinds)
}

func TestApp_AchievementUnlocks(t *testing.T) {
	provider := &fakeProvider{available: true}
	s := newTestShell(t, provider)

	s.window.post("https://bdev.blektre.com", map[string]any{"fn": "achievement", "nom": "ACH_FIRST_BLOOD"})
	flush(t, s.app)

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Equal(t, []string{"ACH_FIRST_BLOOD"}, provider.unlocked)
}

func TestApp_QuitShutsDownProviderFirst(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})

	finished := make(chan struct{})
	go func() {
		s.app.Run()
		close(finished)
	}()

	s.window.post("https://blektre.com", map[string]any{"action": "c3quit"})

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("shell did not stop after quit")
	}

	calls := s.log.snapshot()
	require.GreaterOrEqual(t, len(calls), 3)
	assert.Equal(t, []string{"provider.shutdown", "window.terminate"}, calls[:2])
	assert.Equal(t, "window.destroy", calls[len(calls)-1])
}

func TestApp_NavigationPolicy(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})
	navigate := s.window.binding(bindNavigate).(func(string, string) bool)

	assert.True(t, navigate("https://blektre.com/play?lvl=2", "link"))
	assert.True(t, navigate("about:blank", "window"))
	assert.False(t, navigate("https://store.steampowered.com/app/3045400", "link"))
	assert.False(t, navigate("https://discord.gg/blektre", "window"))

	assert.Equal(t, []string{
		"https://store.steampowered.com/app/3045400",
		"https://discord.gg/blektre",
	}, *s.opened)
}

func TestApp_UntrustedDocumentReturnsToWrapper(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})
	navigate := s.window.binding(bindNavigate).(func(string, string) bool)

	assert.False(t, navigate("https://evil.example/login", navDocument))

	assert.Equal(t, []string{"https://evil.example/login"}, *s.opened)
	assert.Equal(t, []string{
		"file:///opt/blektre/wrapper.html?version=V1",
		"file:///opt/blektre/wrapper.html?version=V1",
	}, s.window.navigated)
}

func TestApp_TrustedDocumentStays(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})
	navigate := s.window.binding(bindNavigate).(func(string, string) bool)

	assert.True(t, navigate("https://blektre.com/play", navDocument))

	assert.Empty(t, *s.opened)
	assert.Len(t, s.window.navigated, 1)
}

func TestApp_ToggleInspector(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})

	s.app.toggleInspector()
	require.True(t, s.app.inspector.Running())
	require.Len(t, *s.opened, 1)
	assert.Equal(t, s.app.inspector.URL(), (*s.opened)[0])

	s.app.toggleInspector()
	assert.False(t, s.app.inspector.Running())
	assert.Len(t, *s.opened, 1)
}

func TestApp_ShutdownIsIdempotent(t *testing.T) {
	s := newTestShell(t, &fakeProvider{})

	s.app.Shutdown()
	s.app.Shutdown()

	// Events after shutdown are discarded without blocking.
	s.window.post("https://blektre.com", map[string]any{"type": "store", "key": "k", "value": "v"})
	assert.Empty(t, s.app.store.Load())
	assert.Equal(t, []string{"provider.shutdown", "window.destroy"}, s.log.snapshot())
}

func TestWindowPort_NoWindow(t *testing.T) {
	assert.ErrorIs(t, windowPort{}.Eval("1"), bridge.ErrNoWindow)
}
