package auth

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the closed set of staff-portal roles.
// The zero value is never admitted into an authenticated session.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleDean
	RoleTeacher
	RoleRegistrar
	RoleLibrarian
)

var roleNames = map[Role]string{
	RoleAdmin:     "admin",
	RoleDean:      "dean",
	RoleTeacher:   "teacher",
	RoleRegistrar: "registrar",
	RoleLibrarian: "librarian",
}

// Roles returns every admissible role in declaration order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDean, RoleTeacher, RoleRegistrar, RoleLibrarian}
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether r is one of the admissible roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only canonical names are accepted.
func (r *Role) UnmarshalText(text []byte) error {
	role, ok := ParseRole(string(text))
	if !ok {
		return fmt.Errorf("invalid role %q", string(text))
	}
	*r = role
	return nil
}

// ParseRole maps a canonical role name (case-insensitive) to a Role.
func ParseRole(name string) (Role, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for role, n := range roleNames {
		if n == name {
			return role, true
		}
	}
	return RoleUnknown, false
}

// Category is a resource category a role is authorized to access.
type Category string

const (
	CategoryStaff      Category = "staff"
	CategorySettings   Category = "settings"
	CategoryDepartment Category = "departments"
	CategoryCourses    Category = "courses"
	CategoryGrades     Category = "grades"
	CategoryAttendance Category = "attendance"
	CategoryEnrollment Category = "enrollment"
	CategoryRecords    Category = "records"
	CategoryLibrary    Category = "library"
	CategoryReports    Category = "reports"
)

// roleScopes is the fixed authorization scope of each role.
var roleScopes = map[Role][]Category{
	RoleAdmin: {
		CategoryStaff, CategorySettings, CategoryDepartment, CategoryCourses, CategoryGrades,
		CategoryAttendance, CategoryEnrollment, CategoryRecords, CategoryLibrary, CategoryReports,
	},
	RoleDean:      {CategoryDepartment, CategoryStaff, CategoryCourses, CategoryGrades, CategoryReports},
	RoleTeacher:   {CategoryCourses, CategoryGrades, CategoryAttendance},
	RoleRegistrar: {CategoryEnrollment, CategoryRecords, CategoryCourses, CategoryReports},
	RoleLibrarian: {CategoryLibrary, CategoryReports},
}

// Scope returns a copy of the categories the role may access.
func (r Role) Scope() []Category {
	return slices.Clone(roleScopes[r])
}

// Allows reports whether the role's scope includes c.
func (r Role) Allows(c Category) bool {
	return slices.Contains(roleScopes[r], c)
}
