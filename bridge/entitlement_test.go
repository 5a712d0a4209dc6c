package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntitlement_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		platform *fakeCapability
		want     Outbound
	}{
		{
			name:     "nil capability",
			platform: nil,
			want:     Outbound{Key: "demoversion", Value: 1},
		},
		{
			name:     "unavailable",
			platform: &fakeCapability{available: false, owned: true, accountID: 12345},
			want:     Outbound{Key: "demoversion", Value: 1},
		},
		{
			name:     "owned with account",
			platform: &fakeCapability{available: true, owned: true, accountID: 12345},
			want:     Outbound{Key: "steamapp", Value: uint32(12345)},
		},
		{
			name:     "not owned",
			platform: &fakeCapability{available: true, owned: false, accountID: 12345},
			want:     Outbound{Key: "steamapp", Value: "demo"},
		},
		{
			name:     "ownership error",
			platform: &fakeCapability{available: true, owned: true, ownedErr: errBoom, accountID: 12345},
			want:     Outbound{Key: "steamapp", Value: "demo"},
		},
		{
			name:     "zero account",
			platform: &fakeCapability{available: true, owned: true, accountID: 0},
			want:     Outbound{Key: "steamapp", Value: "demo"},
		},
		{
			name:     "identity error",
			platform: &fakeCapability{available: true, owned: true, accountID: 12345, accountErr: errBoom},
			want:     Outbound{Key: "steamapp", Value: "demo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var platform Capability
			if tt.platform != nil {
				platform = tt.platform
			}
			e := NewEntitlement(platform, 3045400, nil)
			assert.Equal(t, tt.want, e.Resolve())
		})
	}
}

func TestEntitlement_UnlockSkipsEmptyName(t *testing.T) {
	platform := &fakeCapability{available: true}
	e := NewEntitlement(platform, 1, nil)

	e.Unlock("")
	e.Unlock("ACH_1")

	assert.Equal(t, []string{"ACH_1"}, platform.unlocked)
}
