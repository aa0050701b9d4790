package enums

import "fmt"

// MemberType distinguishes the kinds of school members.
type MemberType string

const (
	MemberTypeStudent MemberType = "STUDENT"
	MemberTypeStaff   MemberType = "STAFF"
	MemberTypeAdmin   MemberType = "ADMIN"
)

var validMemberTypes = []MemberType{
	MemberTypeStudent,
	MemberTypeStaff,
	MemberTypeAdmin,
}

// String implements fmt.Stringer.
func (m MemberType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberType.
func (m MemberType) IsValid() bool {
	for _, candidate := range validMemberTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the member may manage the school's roster.
func (m MemberType) IsAdmin() bool {
	return m == MemberTypeAdmin
}

// ParseMemberType converts raw input into a MemberType.
func ParseMemberType(value string) (MemberType, error) {
	for _, candidate := range validMemberTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member type %q", value)
}
