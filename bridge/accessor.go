package bridge

import (
	"fmt"
	"math"
	"strings"
)

// Accessor pulls one candidate value out of a message. ok is false when the
// accessor has nothing to offer and the next one in the list should be tried.
type Accessor func(m Message) (v any, ok bool)

// Truthy yields the field when it holds a truthy value: not nil, false, 0,
// NaN or the empty string.
func Truthy(field string) Accessor {
	return func(m Message) (any, bool) {
		v, present := m[field]
		if !present || !truthy(v) {
			return nil, false
		}
		return v, true
	}
}

// Present yields the field whenever it exists, including explicit null,
// false and 0.
func Present(field string) Accessor {
	return func(m Message) (any, bool) {
		v, present := m[field]
		return v, present
	}
}

// Index yields element i of the sequence stored under field. Elements past
// the end resolve to nil, so a short sequence still counts as a match.
func Index(field string, i int) Accessor {
	return func(m Message) (any, bool) {
		seq, ok := m[field].([]any)
		if !ok {
			return nil, false
		}
		if i < len(seq) {
			return seq[i], true
		}
		return nil, true
	}
}

// String yields the field only when it is a string, empty or not.
func String(field string) Accessor {
	return func(m Message) (any, bool) {
		s, ok := m[field].(string)
		return s, ok
	}
}

// First runs the accessors in order and returns the first match.
func First(m Message, accessors ...Accessor) (any, bool) {
	for _, a := range accessors {
		if v, ok := a(m); ok {
			return v, true
		}
	}
	return nil, false
}

// Field lists, in priority order.
var (
	commandFields = []Accessor{
		Truthy("type"), Truthy("fn"), Truthy("action"), Truthy("command"), Truthy("key"),
	}
	achievementFields = []Accessor{
		Truthy("nom"), Truthy("name"), Truthy("value"), Truthy("data"),
	}
	storeKeyFields = []Accessor{
		Truthy("key"), Truthy("storageKey"), Truthy("k"),
	}
	storeValueFields = []Accessor{
		Present("valued"), Present("value"), Present("v"),
	}
	restoreKeyFields = []Accessor{
		Truthy("key"), Truthy("storageKey"), Truthy("k"), Truthy("value"),
	}
)

// CommandName returns the lowercased command of m, or "" when none is set.
func CommandName(m Message) string {
	v, ok := First(m, commandFields...)
	if !ok {
		return ""
	}
	return strings.ToLower(stringify(v))
}

// AchievementName returns the achievement identifier carried by m.
func AchievementName(m Message) string {
	v, ok := First(m, achievementFields...)
	if !ok {
		return ""
	}
	return stringify(v)
}

// StoreArgs returns the key and value of a store command. A sequence under
// "data" is read positionally as [key, value] and overrides named fields.
// keyOK is false when the resolved key is not a string.
func StoreArgs(m Message) (key string, value any, keyOK bool) {
	k, _ := First(m, storeKeyFields...)
	value, _ = First(m, storeValueFields...)
	if _, isSeq := m["data"].([]any); isSeq {
		k, _ = Index("data", 0)(m)
		value, _ = Index("data", 1)(m)
	}
	if value == nil {
		value = ""
	}
	key, keyOK = k.(string)
	return key, value, keyOK
}

// RestoreKey returns the key of a restore command. A string under "data"
// overrides named fields.
func RestoreKey(m Message) (string, bool) {
	k, _ := First(m, restoreKeyFields...)
	if s, ok := String("data")(m); ok {
		k = s
	}
	key, ok := k.(string)
	return key, ok
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e21 {
			return fmt.Sprintf("%.0f", t)
		}
		return fmt.Sprint(t)
	case []any:
		// Arrays join their elements with commas; null elements are empty.
		parts := make([]string, len(t))
		for i, e := range t {
			if e != nil {
				parts[i] = stringify(e)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return fmt.Sprint(t)
	}
}
