// Package prayers holds the tracked item set, the per-day record and the
// reconciliation of a trailing window of days against stored records.
package prayers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultNames is the default ordered set of tracked prayers.
var DefaultNames = []string{"fajr", "dhuhr", "asr", "maghrib", "isha"}

// Set is an ordered set of tracked item names.
type Set struct {
	names []string
	index map[string]int
}

// NewSet builds a Set from names, normalizing case and whitespace.
// Empty, duplicate or non-identifier names are rejected.
func NewSet(names []string) (Set, error) {
	s := Set{index: make(map[string]int, len(names))}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			return Set{}, fmt.Errorf("empty item name")
		}
		if !isIdent(name) {
			return Set{}, fmt.Errorf("invalid item name %q", name)
		}
		if _, dup := s.index[name]; dup {
			return Set{}, fmt.Errorf("duplicate item name %q", name)
		}
		s.index[name] = len(s.names)
		s.names = append(s.names, name)
	}
	if len(s.names) == 0 {
		return Set{}, fmt.Errorf("at least one item is required")
	}
	return s, nil
}

// Default returns the five daily prayers.
func Default() Set {
	s, _ := NewSet(DefaultNames)
	return s
}

// Names returns a copy of the names in order.
func (s Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s Set) Len() int { return len(s.names) }

func (s Set) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func isIdent(name string) bool {
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

// Title capitalizes the first letter of an item name: "fajr" -> "Fajr".
func Title(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Record is one stored day. Status is a partial map: a missing item is
// not done.
type Record struct {
	DateID       string          `json:"date"`
	Status       map[string]bool `json:"prayers"`
	LastModified time.Time       `json:"last_modified"`
}

// Done reports whether name is marked done. Absent means false.
func (r *Record) Done(name string) bool {
	if r == nil || r.Status == nil {
		return false
	}
	return r.Status[name]
}

// Full returns every item of set with its value, defaulting to false.
func (r *Record) Full(set Set) map[string]bool {
	out := make(map[string]bool, set.Len())
	for _, name := range set.names {
		out[name] = r.Done(name)
	}
	return out
}

// DecodeStatus decodes a stored JSON object into a status map. Values
// that are not booleans are skipped.
func DecodeStatus(raw []byte) (map[string]bool, error) {
	status := make(map[string]bool)
	if len(raw) == 0 {
		return status, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode prayer status: %w", err)
	}
	for k, v := range fields {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			continue
		}
		status[k] = b
	}
	return status, nil
}
