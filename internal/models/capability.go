package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Capability is a named permission token gating one administrative operation.
type Capability string

const (
	CapViewUsers       Capability = "view_users"
	CapManageUsers     Capability = "manage_users"
	CapViewData        Capability = "view_data"
	CapManageData      Capability = "manage_data"
	CapViewAnalytics   Capability = "view_analytics"
	CapManageAnalytics Capability = "manage_analytics"
	CapViewAuditLogs   Capability = "view_audit_logs"
)

// capabilityBits fixes the bit position of each capability. Append only.
var capabilityBits = []Capability{
	CapViewUsers,
	CapManageUsers,
	CapViewData,
	CapManageData,
	CapViewAnalytics,
	CapManageAnalytics,
	CapViewAuditLogs,
}

// AllCapabilities returns the closed capability vocabulary.
func AllCapabilities() []Capability {
	out := make([]Capability, len(capabilityBits))
	copy(out, capabilityBits)
	return out
}

func (c Capability) bit() (CapabilitySet, bool) {
	for i, known := range capabilityBits {
		if known == c {
			return CapabilitySet(1) << i, true
		}
	}
	return 0, false
}

// Valid reports whether c belongs to the vocabulary.
func (c Capability) Valid() bool {
	_, ok := c.bit()
	return ok
}

// CapabilitySet is a set over the closed capability vocabulary.
// The zero value is the empty set.
type CapabilitySet uint16

// DefaultCapabilities is granted to a new admin profile when no explicit
// permissions are given. manage_analytics and view_audit_logs are not part
// of it and must be granted explicitly.
var DefaultCapabilities = NewCapabilitySet(CapViewUsers, CapViewData, CapViewAnalytics)

// NewCapabilitySet builds a set from known capabilities. Unknown values panic,
// so it is meant for constants; use ParseCapabilities for external input.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		b, ok := c.bit()
		if !ok {
			panic(fmt.Sprintf("unknown capability %q", c))
		}
		s |= b
	}
	return s
}

// ParseCapabilities converts capability names into a set, rejecting unknown names.
func ParseCapabilities(names []string) (CapabilitySet, error) {
	var s CapabilitySet
	for _, name := range names {
		b, ok := Capability(name).bit()
		if !ok {
			return 0, fmt.Errorf("unknown capability %q", name)
		}
		s |= b
	}
	return s, nil
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	b, ok := c.bit()
	return ok && s&b == b
}

// Contains reports whether every capability of required is in s.
// The empty requirement is contained in every set.
func (s CapabilitySet) Contains(required CapabilitySet) bool {
	return s&required == required
}

// Names lists the capabilities in vocabulary order.
func (s CapabilitySet) Names() []string {
	names := make([]string, 0, len(capabilityBits))
	for i, c := range capabilityBits {
		if s&(CapabilitySet(1)<<i) != 0 {
			names = append(names, string(c))
		}
	}
	return names
}

// MarshalJSON encodes the set as an array of capability names.
func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes an array of capability names.
func (s *CapabilitySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseCapabilities(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the set as a JSON array so the column stays readable.
func (s CapabilitySet) Value() (driver.Value, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan reads a JSON array of capability names.
func (s *CapabilitySet) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = 0
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into CapabilitySet", src)
	}
}
