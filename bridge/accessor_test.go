package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandName_Precedence(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"type", Message{"type": "Store", "fn": "restore"}, "store"},
		{"fn", Message{"fn": "RESTORE", "action": "quit"}, "restore"},
		{"action", Message{"action": "ClearStore"}, "clearstore"},
		{"command", Message{"command": "checkOwnership"}, "checkownership"},
		{"key fallback", Message{"key": "MyQuit"}, "myquit"},
		{"empty type skipped", Message{"type": "", "fn": "store"}, "store"},
		{"false skipped", Message{"type": false, "command": "quit"}, "quit"},
		{"number", Message{"type": float64(7)}, "7"},
		{"one-element array", Message{"type": []any{"Store"}}, "store"},
		{"nested array", Message{"type": []any{[]any{"restore"}}}, "restore"},
		{"array join", Message{"type": []any{"a", nil, float64(2)}}, "a,,2"},
		{"object", Message{"type": map[string]any{"x": 1}}, "[object object]"},
		{"none", Message{"value": "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommandName(tt.msg))
		})
	}
}

func TestStoreArgs(t *testing.T) {
	tests := []struct {
		name      string
		msg       Message
		wantKey   string
		wantValue any
		wantOK    bool
	}{
		{"named", Message{"key": "score", "value": "10"}, "score", "10", true},
		{"storageKey alias", Message{"storageKey": "s", "v": "x"}, "s", "x", true},
		{"k alias", Message{"k": "s", "valued": "y", "value": "z"}, "s", "y", true},
		{"valued null kept", Message{"k": "s", "valued": nil, "value": "z"}, "s", "", true},
		{"false kept", Message{"k": "s", "value": false, "v": "z"}, "s", false, true},
		{"zero kept", Message{"k": "s", "value": float64(0), "v": "z"}, "s", float64(0), true},
		{"no value", Message{"k": "s"}, "s", "", true},
		{"positional", Message{"key": "ignored", "value": "no", "data": []any{"p", "q"}}, "p", "q", true},
		{"positional short", Message{"data": []any{"p"}}, "p", "", true},
		{"positional non-string key", Message{"data": []any{float64(1), "q"}}, "", "q", false},
		{"empty key falls through", Message{"key": "", "k": "real", "value": "v"}, "real", "v", true},
		{"numeric key", Message{"key": float64(3), "value": "v"}, "", "v", false},
		{"missing key", Message{"value": "v"}, "", "v", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, ok := StoreArgs(tt.msg)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestRestoreKey(t *testing.T) {
	tests := []struct {
		name   string
		msg    Message
		want   string
		wantOK bool
	}{
		{"key", Message{"key": "user"}, "user", true},
		{"value alias", Message{"value": "stay"}, "stay", true},
		{"data string overrides", Message{"key": "user", "data": "token"}, "token", true},
		{"data empty string overrides", Message{"key": "user", "data": ""}, "", true},
		{"data non-string ignored", Message{"key": "user", "data": []any{"x"}}, "user", true},
		{"missing", Message{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := RestoreKey(tt.msg)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestAchievementName(t *testing.T) {
	assert.Equal(t, "ACH_WIN", AchievementName(Message{"nom": "ACH_WIN", "name": "other"}))
	assert.Equal(t, "ACH_B", AchievementName(Message{"name": "ACH_B"}))
	assert.Equal(t, "ACH_C", AchievementName(Message{"nom": "", "value": "ACH_C"}))
	assert.Equal(t, "ACH_D", AchievementName(Message{"data": "ACH_D"}))
	assert.Equal(t, "", AchievementName(Message{"type": "achievement"}))
}
