package role

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a role tag cannot be parsed.
var ErrUnknownRole = errors.New("unknown role")

// Role identifies the dashboard persona a conversation is bound to.
type Role int

const (
	Patient Role = iota + 1
	Professional
)

// All lists the supported roles in display order.
func All() []Role {
	return []Role{Patient, Professional}
}

// ParseRole accepts "patient", "professional" and the "doctor" alias.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "patient":
		return Patient, nil
	case "professional", "doctor":
		return Professional, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
}

// Valid reports whether r is one of the declared variants.
func (r Role) Valid() bool {
	return r == Patient || r == Professional
}

func (r Role) String() string {
	switch r {
	case Patient:
		return "patient"
	case Professional:
		return "professional"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// MarshalJSON encodes the role as its tag string.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a role tag string.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
