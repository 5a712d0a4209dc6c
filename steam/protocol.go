package steam

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

// session holds the parts shared by every protocol version.
type session struct {
	conn     *rpcConn
	logger   *slog.Logger
	shutdown sync.Once
}

func (s *session) Available() bool { return true }

func (s *session) IsSubscribedApp(appID uint32) (bool, error) {
	var owned bool
	if err := s.conn.call("apps.isSubscribedApp", map[string]any{"appId": appID}, &owned); err != nil {
		return false, fmt.Errorf("ownership check: %w", err)
	}
	return owned, nil
}

// identity fetches the local player's identity with method and extracts the
// account id from it.
func (s *session) identity(method string) (uint32, error) {
	var raw json.RawMessage
	if err := s.conn.call(method, nil, &raw); err != nil {
		return 0, fmt.Errorf("identity lookup: %w", err)
	}
	return accountIDFrom(raw), nil
}

// Shutdown asks the sidecar to release the SDK and stops the process.
func (s *session) Shutdown() error {
	s.shutdown.Do(func() {
		s.conn.notify("shutdown", nil)
		s.conn.kill()
		s.logger.Info("platform sidecar stopped")
	})
	return nil
}

// v1Provider talks to sidecars exposing the user/userStats surface.
type v1Provider struct {
	session
}

func (p *v1Provider) AccountID() (uint32, error) {
	return p.identity("user.getSteamId")
}

func (p *v1Provider) UnlockAchievement(name string) error {
	if err := p.conn.call("userStats.setAchievement", map[string]any{"name": name}, nil); err != nil {
		return fmt.Errorf("set achievement %q: %w", name, err)
	}
	if err := p.conn.call("userStats.storeStats", nil, nil); err != nil {
		return fmt.Errorf("store stats: %w", err)
	}
	return nil
}

// v2Provider talks to sidecars exposing the localplayer/achievements surface.
type v2Provider struct {
	session
}

func (p *v2Provider) AccountID() (uint32, error) {
	return p.identity("localplayer.getSteamId")
}

func (p *v2Provider) UnlockAchievement(name string) error {
	if err := p.conn.call("achievements.unlock", map[string]any{"name": name}, nil); err != nil {
		return fmt.Errorf("unlock achievement %q: %w", name, err)
	}
	return nil
}

// accountIDFields are the spellings sidecars use for the account id.
var accountIDFields = []string{"accountId", "accountID", "accountid"}

// accountIDFrom returns the first non-zero account id in a steam id object,
// or 0 when there is none.
func accountIDFrom(raw json.RawMessage) uint32 {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0
	}
	for _, field := range accountIDFields {
		v, ok := obj[field]
		if !ok {
			continue
		}
		if id := parseAccountID(v); id != 0 {
			return id
		}
	}
	return 0
}

func parseAccountID(v json.RawMessage) uint32 {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if id, err := strconv.ParseUint(n.String(), 10, 32); err == nil {
			return uint32(id)
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if id, err := strconv.ParseUint(s, 10, 32); err == nil {
			return uint32(id)
		}
	}
	return 0
}
