package valueobject

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// MemberClass – immutable value object
// ---------------------------------------------------------------------------

// MemberClass distinguishes fund contributors from external borrowers.
// Contributors take part in the yearly interest distribution; external
// borrowers only generate interest income for the pool.
type MemberClass struct {
	value string
}

const (
	memberClassContributor = "CONTRIBUTOR"
	memberClassExternal    = "EXTERNAL"
)

var (
	MemberClassContributor = MemberClass{value: memberClassContributor}
	MemberClassExternal    = MemberClass{value: memberClassExternal}
)

var validMemberClasses = map[string]MemberClass{
	memberClassContributor: MemberClassContributor,
	memberClassExternal:    MemberClassExternal,
}

// NewMemberClass creates a MemberClass from a raw string.
func NewMemberClass(s string) (MemberClass, error) {
	v, ok := validMemberClasses[s]
	if !ok {
		return MemberClass{}, fmt.Errorf("invalid member class: %q", s)
	}
	return v, nil
}

// String returns the string representation of the class.
func (c MemberClass) String() string { return c.value }

// IsZero returns true if the class has not been initialised.
func (c MemberClass) IsZero() bool { return c.value == "" }

// Equal returns true when both classes carry the same value.
func (c MemberClass) Equal(other MemberClass) bool { return c.value == other.value }
