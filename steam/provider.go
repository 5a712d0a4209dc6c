package steam

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnavailable is returned by every call on a provider that did not
// initialize.
var ErrUnavailable = errors.New("steam: platform capability unavailable")

// Provider is the platform capability surface: ownership, identity and
// achievements for one application.
type Provider interface {
	Available() bool
	IsSubscribedApp(appID uint32) (bool, error)
	AccountID() (uint32, error)
	UnlockAchievement(name string) error
	Shutdown() error
}

// Config describes how to reach the platform sidecar.
type Config struct {
	AppID   uint32
	Command string
	Args    []string
	Env     map[string]string

	// HandshakeTimeout bounds the initialize call only. Zero means 10s.
	HandshakeTimeout time.Duration
}

// Demo returns a provider that is never available.
func Demo() Provider {
	return demo{}
}

type demo struct{}

func (demo) Available() bool                      { return false }
func (demo) IsSubscribedApp(uint32) (bool, error) { return false, ErrUnavailable }
func (demo) AccountID() (uint32, error)           { return 0, ErrUnavailable }
func (demo) UnlockAchievement(string) error       { return ErrUnavailable }
func (demo) Shutdown() error                      { return nil }

// Open starts the sidecar and selects the implementation for the protocol
// version it announces. On any failure it returns Demo() together with the
// error, so callers can log it and carry on in demo mode.
func Open(cfg Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "steam")

	if cfg.Command == "" {
		return Demo(), fmt.Errorf("no sidecar configured: %w", ErrUnavailable)
	}

	conn, err := startSidecar(cfg.Command, cfg.Args, cfg.Env)
	if err != nil {
		return Demo(), fmt.Errorf("starting sidecar: %w", err)
	}

	p, err := handshake(conn, cfg, logger)
	if err != nil {
		conn.kill()
		return Demo(), err
	}
	return p, nil
}

type initializeResult struct {
	ProtocolVersion int `json:"protocolVersion"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

// handshake runs initialize on conn and picks the provider for the
// announced protocol version.
func handshake(conn *rpcConn, cfg Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	type initResp struct {
		result initializeResult
		err    error
	}
	initCh := make(chan initResp, 1)
	go func() {
		var r initResp
		r.err = conn.call("initialize", map[string]any{
			"appId": cfg.AppID,
			"clientInfo": map[string]any{
				"name":    "web2view",
				"version": "1.0.0",
			},
		}, &r.result)
		initCh <- r
	}()

	var hello initializeResult
	select {
	case r := <-initCh:
		if r.err != nil {
			return nil, fmt.Errorf("sidecar handshake failed: %w", r.err)
		}
		hello = r.result
	case <-time.After(timeout):
		return nil, fmt.Errorf("sidecar handshake timed out after %s", timeout)
	}

	conn.notify("initialized", nil)

	logger = logger.With("protocol", hello.ProtocolVersion, "sidecar", hello.ServerInfo.Name)
	switch hello.ProtocolVersion {
	case 1:
		logger.Info("platform sidecar ready")
		return &v1Provider{session: session{conn: conn, logger: logger}}, nil
	case 2:
		logger.Info("platform sidecar ready")
		return &v2Provider{session: session{conn: conn, logger: logger}}, nil
	default:
		return nil, fmt.Errorf("unsupported sidecar protocol version %d", hello.ProtocolVersion)
	}
}
