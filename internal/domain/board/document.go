package board

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Card represents a single card inside a list. Ordering within the
// containing list's Cards slice is the card's column position.
type Card struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Time        string   `json:"time,omitempty"`
	Description string   `json:"description,omitempty"`
	Owners      []string `json:"owners,omitempty"`
	TagIDs      []string `json:"tag_ids,omitempty"`
	Complete    bool     `json:"complete,omitempty"`
	Todos       []Todo   `json:"todos,omitempty"`
}

// Todo is a checklist entry on a card
type Todo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// List is a board column holding an ordered sequence of cards.
// Ordering within the project's Lists slice is the board column order.
type List struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

// Tag is a project-scoped label cards can reference by ID
type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ColorHex string `json:"color_hex,omitempty"`
}

// DragMarker is a transient advisory record signaling that a named user
// currently has a list or card in an active drag gesture. StartedAt is the
// lease timestamp: markers older than the configured lease TTL are ignored
// by lock checks so a crashed client cannot leave an item locked forever.
type DragMarker struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	StartedAt   time.Time `json:"started_at"`
}

// ListArray is the JSON document column holding the full nested board
// structure. The whole column is rewritten on every mutation; the store
// performs no element-level merge, so the last successful write wins.
type ListArray []List

// Value implements driver.Valuer for JSON column storage
func (a ListArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lists: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for JSON column storage
func (a *ListArray) Scan(value interface{}) error {
	return scanJSON(value, a, "lists")
}

// TagArray is the JSON document column holding project tags
type TagArray []Tag

// Value implements driver.Valuer for JSON column storage
func (a TagArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for JSON column storage
func (a *TagArray) Scan(value interface{}) error {
	return scanJSON(value, a, "tags")
}

// MarkerArray is the JSON document column holding active drag markers
type MarkerArray []DragMarker

// Value implements driver.Valuer for JSON column storage
func (a MarkerArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal drag markers: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for JSON column storage
func (a *MarkerArray) Scan(value interface{}) error {
	return scanJSON(value, a, "drag markers")
}

// StringArray is the JSON document column for plain string membership lists
type StringArray []string

// Value implements driver.Valuer for JSON column storage
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string array: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for JSON column storage
func (a *StringArray) Scan(value interface{}) error {
	return scanJSON(value, a, "string array")
}

func scanJSON(value interface{}, target interface{}, what string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T for %s", value, what)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", what, err)
	}
	return nil
}

// union adds a marker with array-union semantics: one marker per
// {id, display name} pair; re-adding refreshes the lease timestamp.
func (a MarkerArray) union(m DragMarker) MarkerArray {
	for i, existing := range a {
		if existing.ID == m.ID && existing.DisplayName == m.DisplayName {
			a[i].StartedAt = m.StartedAt
			return a
		}
	}
	return append(a, m)
}

// remove deletes the marker matching {id, display name}. Removing an
// absent marker is a no-op.
func (a MarkerArray) remove(id, displayName string) MarkerArray {
	out := a[:0]
	for _, m := range a {
		if m.ID == id && m.DisplayName == displayName {
			continue
		}
		out = append(out, m)
	}
	return out
}

// lockedBy returns the display name of the first holder of a fresh marker
// for the given item id. A zero TTL disables the staleness check.
func (a MarkerArray) lockedBy(id string, now time.Time, ttl time.Duration) (string, bool) {
	for _, m := range a {
		if m.ID != id {
			continue
		}
		if ttl > 0 && now.Sub(m.StartedAt) > ttl {
			continue
		}
		return m.DisplayName, true
	}
	return "", false
}

// prune drops markers older than the lease TTL and reports how many were removed
func (a MarkerArray) prune(now time.Time, ttl time.Duration) (MarkerArray, int) {
	if ttl <= 0 {
		return a, 0
	}
	out := a[:0]
	removed := 0
	for _, m := range a {
		if now.Sub(m.StartedAt) > ttl {
			removed++
			continue
		}
		out = append(out, m)
	}
	return out, removed
}

// removeFor drops every marker held by the given display name
func (a MarkerArray) removeFor(displayName string) MarkerArray {
	out := a[:0]
	for _, m := range a {
		if m.DisplayName == displayName {
			continue
		}
		out = append(out, m)
	}
	return out
}
