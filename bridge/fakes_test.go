package bridge

import (
	"errors"
	"sync"
)

// memStore is an in-memory Store that copies on load/save like the file store.
type memStore struct {
	data  map[string]any
	saves int
}

func newMemStore(initial map[string]any) *memStore {
	s := &memStore{data: map[string]any{}}
	for k, v := range initial {
		s.data[k] = v
	}
	return s
}

func (s *memStore) Load() map[string]any {
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

func (s *memStore) Save(m map[string]any) {
	s.saves++
	s.data = make(map[string]any, len(m))
	for k, v := range m {
		s.data[k] = v
	}
}

type recordingSender struct {
	sent []Outbound
}

func (r *recordingSender) Send(msg Outbound) {
	r.sent = append(r.sent, msg)
}

type fakeCapability struct {
	available    bool
	owned        bool
	ownedErr     error
	accountID    uint32
	accountErr   error
	unlockErr    error
	unlocked     []string
	ownedQueries []uint32
}

func (f *fakeCapability) Available() bool { return f.available }

func (f *fakeCapability) IsSubscribedApp(appID uint32) (bool, error) {
	f.ownedQueries = append(f.ownedQueries, appID)
	return f.owned, f.ownedErr
}

func (f *fakeCapability) AccountID() (uint32, error) { return f.accountID, f.accountErr }

func (f *fakeCapability) UnlockAchievement(name string) error {
	if f.unlockErr != nil {
		return f.unlockErr
	}
	f.unlocked = append(f.unlocked, name)
	return nil
}

var errBoom = errors.New("boom")

type fakePort struct {
	mu      sync.Mutex
	scripts []string
	err     error
}

func (p *fakePort) Eval(script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.scripts = append(p.scripts, script)
	return nil
}

func (p *fakePort) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) Observe(e Event) {
	r.events = append(r.events, e)
}

func (r *recordingObserver) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}
