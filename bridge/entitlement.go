package bridge

import "log/slog"

// Outbound keys and values for the entitlement state.
const (
	KeyDemoVersion = "demoversion"
	KeySteamApp    = "steamapp"
	ValueDemo      = "demo"
)

// Entitlement resolves what the page should know about ownership.
type Entitlement struct {
	platform Capability
	appID    uint32
	logger   *slog.Logger
}

// NewEntitlement returns a resolver for appID. platform may be nil, which is the
// same as an unavailable capability.
func NewEntitlement(platform Capability, appID uint32, logger *slog.Logger) *Entitlement {
	if logger == nil {
		logger = slog.Default()
	}
	return &Entitlement{
		platform: platform,
		appID:    appID,
		logger:   logger.With("component", "entitlement"),
	}
}

// Available reports whether the platform capability initialized.
func (e *Entitlement) Available() bool {
	return e.platform != nil && e.platform.Available()
}

// Resolve returns the entitlement message for the current platform state:
// demoversion when the capability is missing, the account id when the app
// is owned and the identity resolves, demo otherwise.
func (e *Entitlement) Resolve() Outbound {
	if !e.Available() {
		return Outbound{Key: KeyDemoVersion, Value: 1}
	}

	owned, err := e.platform.IsSubscribedApp(e.appID)
	if err != nil {
		e.logger.Warn("ownership check failed", "app_id", e.appID, "error", err)
		owned = false
	}
	if !owned {
		return Outbound{Key: KeySteamApp, Value: ValueDemo}
	}

	accountID, err := e.platform.AccountID()
	if err != nil {
		e.logger.Warn("failed to get account id", "error", err)
		accountID = 0
	}
	if accountID == 0 {
		return Outbound{Key: KeySteamApp, Value: ValueDemo}
	}
	return Outbound{Key: KeySteamApp, Value: accountID}
}

// Unlock marks an achievement as earned. It is a no-op when the capability
// is unavailable or name is empty; failures are logged.
func (e *Entitlement) Unlock(name string) {
	if !e.Available() || name == "" {
		return
	}
	if err := e.platform.UnlockAchievement(name); err != nil {
		e.logger.Warn("achievement unlock failed", "name", name, "error", err)
		return
	}
	e.logger.Info("achievement unlocked", "name", name)
}
