// Package fieldmap resolves values from loosely-shaped remote JSON records by
// trying an ordered list of candidate field names. The remote platform has
// shipped several generations of the same endpoints with different field
// names, so every mapping goes through these helpers instead of ad-hoc chains.
package fieldmap

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is a decoded JSON object.
type Record = map[string]any

// String returns the first non-empty string value among keys.
func String(rec Record, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return s, true
			}
		case json.Number:
			return s.String(), true
		case float64:
			// ids sometimes arrive as numbers
			return formatNumber(s), true
		}
	}
	return "", false
}

// StringOr is String with a default.
func StringOr(rec Record, def string, keys ...string) string {
	if s, ok := String(rec, keys...); ok {
		return s
	}
	return def
}

// Int returns the first present numeric value among keys. Presence wins, not
// truthiness: an explicit 0 is a valid result (stock can legitimately be 0).
func Int(rec Record, keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n), true
		case int:
			return n, true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

// IntOr is Int with a default.
func IntOr(rec Record, def int, keys ...string) int {
	if n, ok := Int(rec, keys...); ok {
		return n
	}
	return def
}

// PositiveIntOr returns the first present value that is > 0, else def.
// Used for quantities, where the remote sends 0/absent interchangeably.
func PositiveIntOr(rec Record, def int, keys ...string) int {
	for _, k := range keys {
		sub := Record{k: rec[k]}
		if n, ok := Int(sub, k); ok && n > 0 {
			return n
		}
	}
	return def
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
