package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
)

func TestClaimTable_ResolvesRoleNames(t *testing.T) {
	table, err := NewClaimTable(nil)
	require.NoError(t, err)

	tests := map[string]domainauth.Role{
		"Admin":     domainauth.RoleAdmin,
		"dean":      domainauth.RoleDean,
		" TEACHER ": domainauth.RoleTeacher,
		"Registrar": domainauth.RoleRegistrar,
		"librarian": domainauth.RoleLibrarian,
	}
	for claim, want := range tests {
		got, err := table.Resolve(domainauth.Identity{RoleTag: claim})
		require.NoError(t, err, claim)
		assert.Equal(t, want, got, claim)
	}
}

func TestClaimTable_UnknownClaimFailsClosed(t *testing.T) {
	table, err := NewClaimTable(nil)
	require.NoError(t, err)

	for _, claim := range []string{"", "student", "unknown", "administrator"} {
		role, err := table.Resolve(domainauth.Identity{RoleTag: claim})
		require.Error(t, err)
		assert.True(t, apperrors.IsUnknownRole(err))
		assert.Equal(t, domainauth.RoleUnknown, role)
	}
}

func TestClaimTable_Aliases(t *testing.T) {
	table, err := NewClaimTable(map[string]string{"Faculty": "teacher", "head-of-school": "Dean"})
	require.NoError(t, err)

	role, err := table.Resolve(domainauth.Identity{RoleTag: "faculty"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleTeacher, role)

	role, err = table.Resolve(domainauth.Identity{RoleTag: "Head-Of-School"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleDean, role)

	assert.Len(t, table.Entries(), len(domainauth.Roles())+2)
}

func TestClaimTable_InvalidAliases(t *testing.T) {
	_, err := NewClaimTable(map[string]string{"student": "pupil"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")

	_, err = NewClaimTable(map[string]string{"admin": "teacher"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts")

	_, err = NewClaimTable(map[string]string{"  ": "teacher"})
	require.Error(t, err)
}

func TestClaimTable_EntriesSorted(t *testing.T) {
	table, err := NewClaimTable(nil)
	require.NoError(t, err)

	entries := table.Entries()
	require.NotEmpty(t, entries)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Claim, entries[i].Claim)
	}
}
