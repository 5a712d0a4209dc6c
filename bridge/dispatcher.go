package bridge

import (
	"log/slog"
)

// Command names, lowercased.
const (
	CmdCheckOwnership = "checkownership"
	CmdAchievement    = "achievement"
	CmdStore          = "store"
	CmdStorage        = "storage"
	CmdRestore        = "restore"
	CmdClearStore     = "clearstore"
	CmdMyQuit         = "myquit"
	CmdQuit           = "quit"
	CmdC3Quit         = "c3quit"
)

// sessionKeys are removed by clearstore. Everything else survives.
var sessionKeys = []string{"user", "stay", "staytoken"}

// Dispatcher routes inbound page messages to host operations. It must be
// driven from a single goroutine; handlers run to completion one at a time.
type Dispatcher struct {
	store       Store
	sender      Sender
	entitlement *Entitlement
	quit        func()
	observer    Observer
	logger      *slog.Logger
}

// NewDispatcher wires a dispatcher. quit terminates the application.
func NewDispatcher(store Store, sender Sender, entitlement *Entitlement, quit func(), logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if quit == nil {
		quit = func() {}
	}
	return &Dispatcher{
		store:       store,
		sender:      sender,
		entitlement: entitlement,
		quit:        quit,
		observer:    nopObserver{},
		logger:      logger.With("component", "dispatcher"),
	}
}

// SetObserver installs a traffic observer.
func (d *Dispatcher) SetObserver(o Observer) {
	d.observer = observerOrNop(o)
}

// Handle processes one inbound message. Non-object input and unknown
// commands are ignored. Handle never panics into its caller.
func (d *Dispatcher) Handle(data any) {
	msg, ok := data.(map[string]any)
	if !ok {
		d.logger.Debug("ignoring non-object message", "type", typeName(data))
		return
	}

	cmd := CommandName(msg)

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command handler panicked", "command", cmd, "panic", r)
		}
	}()

	switch cmd {
	case CmdCheckOwnership:
		d.record(cmd, msg)
		d.sender.Send(d.entitlement.Resolve())

	case CmdAchievement:
		d.record(cmd, msg)
		d.entitlement.Unlock(AchievementName(msg))

	case CmdStore, CmdStorage:
		d.record(cmd, msg)
		d.handleStore(msg)

	case CmdRestore:
		d.record(cmd, msg)
		d.handleRestore(msg)

	case CmdClearStore:
		d.record(cmd, msg)
		d.handleClearStore()

	case CmdMyQuit, CmdQuit, CmdC3Quit:
		d.record(cmd, msg)
		d.logger.Info("quit requested by page", "command", cmd)
		d.quit()

	default:
		d.logger.Debug("ignoring unknown command", "command", cmd)
	}
}

func (d *Dispatcher) handleStore(msg Message) {
	key, value, ok := StoreArgs(msg)
	if !ok {
		d.logger.Debug("store without string key")
		return
	}
	store := d.store.Load()
	store[key] = value
	d.store.Save(store)
}

func (d *Dispatcher) handleRestore(msg Message) {
	key, ok := RestoreKey(msg)
	if !ok {
		d.logger.Debug("restore without string key")
		return
	}
	value, found := d.store.Load()[key]
	if !found || value == nil {
		value = ""
	}
	d.sender.Send(Outbound{Key: key, Value: value})
}

func (d *Dispatcher) handleClearStore() {
	store := d.store.Load()
	for _, k := range sessionKeys {
		delete(store, k)
	}
	d.store.Save(store)
}

func (d *Dispatcher) record(cmd string, msg Message) {
	d.observer.Observe(Event{Kind: EventCommand, Command: cmd, Payload: msg})
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	default:
		return "other"
	}
}
