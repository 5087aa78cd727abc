package domain

import (
	"encoding/json"
	"time"
)

// Reserved meta keys. Any other key is stored and returned untouched.
const (
	MetaName           = "name"
	MetaWhenCreated    = "whenCreated"
	MetaWhenEdited     = "whenEdited"
	MetaWhenUsed       = "whenUsed"
	MetaIsRecent       = "isRecent"
	MetaIsTesting      = "isTesting"
	MetaUnlockStrategy = "unlockStrategy"
)

// Meta is the free-form metadata attached to an address.
type Meta map[string]interface{}

// Copy returns a shallow copy of the meta, never nil.
func (m Meta) Copy() Meta {
	cp := make(Meta, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// Merge returns a copy of m with every entry of other set over it.
func (m Meta) Merge(other Meta) Meta {
	merged := m.Copy()
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

func (m Meta) Name() string {
	name, _ := m[MetaName].(string)
	return name
}

func (m Meta) IsTesting() bool {
	return m.GetBool(MetaIsTesting)
}

func (m Meta) IsRecent() bool {
	return m.GetBool(MetaIsRecent)
}

func (m Meta) GetBool(key string) bool {
	v, _ := m[key].(bool)
	return v
}

// GetInt64 returns the numeric value for key. Values decoded from json come
// back as float64 or json.Number depending on the backend, so every numeric
// representation is accepted.
func (m Meta) GetInt64(key string) (int64, bool) {
	switch v := m[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Stamp sets key to the current time in unix milliseconds.
func (m Meta) Stamp(key string) {
	m[key] = Now()
}

// Now returns the current time in unix milliseconds, the unit of every
// timestamp stored in meta.
func Now() int64 {
	return time.Now().UnixMilli()
}
