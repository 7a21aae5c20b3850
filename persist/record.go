// Package persist stores factory floors as flat key/value machine records,
// either in zstd-compressed save files or in a SQLite database.
package persist

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record keys.
const (
	KeyVariant     = "variant"
	KeyX           = "x"
	KeyY           = "y"
	KeyZ           = "z"
	KeyEnabled     = "enabled"
	KeyCycleTimer  = "cycle_timer"
	KeyShape       = "shape"
	KeyDirX        = "dir_x"
	KeyDirY        = "dir_y"
	KeyDirZ        = "dir_z"
	KeySpeed       = "speed"
	KeyCurveRadius = "curve_radius"
	KeyMinSpacing  = "min_spacing"
	KeyUpstream    = "upstream"   // Index into the record list, -1 for none
	KeyDownstream  = "downstream" // Index into the record list, -1 for none
	KeyOutputKind  = "output_kind"
	KeyOutputCount = "output_count"
	KeyInputCount  = "input_count"
	KeyDelivered   = "delivered"
	KeyGeneration  = "generation"
)

// ItemRecord is one belt item.
type ItemRecord struct {
	Kind     string  `yaml:"kind" json:"kind"`
	Amount   int     `yaml:"amount" json:"amount"`
	Progress float64 `yaml:"progress" json:"progress"`
}

// Record is the persisted form of one machine. Values are strings; the typed
// getters fall back to the given default when a key is missing or does not parse.
type Record struct {
	Fields map[string]string `yaml:"fields" json:"fields"`
	Items  []ItemRecord      `yaml:"items,omitempty" json:"items,omitempty"`
}

// NewRecord creates an empty record.
func NewRecord() Record {
	return Record{Fields: make(map[string]string)}
}

func (r *Record) set(key, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[key] = value
}

// SetString stores a string value.
func (r *Record) SetString(key, v string) { r.set(key, v) }

// SetFloat stores a float with the shortest exact representation.
func (r *Record) SetFloat(key string, v float64) {
	r.set(key, strconv.FormatFloat(v, 'g', -1, 64))
}

// SetInt stores an int.
func (r *Record) SetInt(key string, v int) { r.set(key, strconv.Itoa(v)) }

// SetBool stores a bool.
func (r *Record) SetBool(key string, v bool) { r.set(key, strconv.FormatBool(v)) }

// String returns the value for key, or def when missing or empty.
func (r Record) String(key, def string) string {
	if v, ok := r.Fields[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// Float returns the value for key as a float, or def. NaN and infinities
// are treated as missing.
func (r Record) Float(key string, def float64) float64 {
	v, ok := r.Fields[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Int returns the value for key as an int, or def.
func (r Record) Int(key string, def int) int {
	v, ok := r.Fields[key]
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

// Bool returns the value for key as a bool, or def.
func (r Record) Bool(key string, def bool) bool {
	v, ok := r.Fields[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// Keys returns the record's keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
