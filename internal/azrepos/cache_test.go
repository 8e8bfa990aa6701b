package azrepos

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "azrepos.ini"))
}

func TestCache_AuthorityRoundTrip(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.UpdateAuthority("contoso", "https://login.microsoftonline.com/T1"))
	v, ok := c.GetAuthority("contoso")
	require.True(t, ok)
	assert.Equal(t, "https://login.microsoftonline.com/T1", v)

	require.NoError(t, c.EraseAuthority("contoso"))
	_, ok = c.GetAuthority("contoso")
	assert.False(t, ok)
}

func TestCache_SignInOrg(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	v, ok := c.GetOrgUser("contoso")
	require.True(t, ok)
	assert.Equal(t, "alice@contoso.com", v)
}

func TestCache_EffectiveUser_RemoteOverridesOrg(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	require.NoError(t, c.SignInRemote("https://dev.azure.com/contoso/_git/widgets", "bob@contoso.com"))

	v, ok := c.EffectiveUser("contoso", "https://dev.azure.com/contoso/_git/widgets")
	require.True(t, ok)
	assert.Equal(t, "bob@contoso.com", v)
}

func TestCache_EffectiveUser_ExplicitSignOutSuppressesOrgUser(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	require.NoError(t, c.SignOutRemote("https://dev.azure.com/contoso/_git/widgets", true))

	_, ok := c.EffectiveUser("contoso", "https://dev.azure.com/contoso/_git/widgets")
	assert.False(t, ok, "explicit sign-out must resolve to none even though org has a user")
}

func TestCache_EffectiveUser_FallsBackToOrgWhenNoRemoteEntry(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))

	v, ok := c.EffectiveUser("contoso", "https://dev.azure.com/contoso/_git/widgets")
	require.True(t, ok)
	assert.Equal(t, "alice@contoso.com", v)
}

func TestCache_NonExplicitSignOutRemovesRatherThanBlanking(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInRemote("https://dev.azure.com/contoso/_git/widgets", "bob@contoso.com"))
	require.NoError(t, c.SignOutRemote("https://dev.azure.com/contoso/_git/widgets", false))

	_, hasEntry := c.GetRemoteUser("https://dev.azure.com/contoso/_git/widgets")
	assert.False(t, hasEntry, "non-explicit sign-out must remove the key, not blank it")
}

func TestCache_Store_FirstSignInGoesToOrgScope(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.Store("contoso", "https://dev.azure.com/contoso/_git/widgets", "alice@contoso.com"))

	v, ok := c.GetOrgUser("contoso")
	require.True(t, ok)
	assert.Equal(t, "alice@contoso.com", v)
	_, hasRemote := c.GetRemoteUser("https://dev.azure.com/contoso/_git/widgets")
	assert.False(t, hasRemote)
}

func TestCache_Store_DifferentUserGoesToRemoteScope(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	require.NoError(t, c.Store("contoso", "https://dev.azure.com/contoso/_git/widgets", "bob@contoso.com"))

	v, ok := c.GetRemoteUser("https://dev.azure.com/contoso/_git/widgets")
	require.True(t, ok)
	assert.Equal(t, "bob@contoso.com", v)
}

func TestCache_Store_SameUserClearsRemoteToPreferInheritance(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	require.NoError(t, c.SignInRemote("https://dev.azure.com/contoso/_git/widgets", "bob@contoso.com"))
	require.NoError(t, c.Store("contoso", "https://dev.azure.com/contoso/_git/widgets", "alice@contoso.com"))

	_, hasRemote := c.GetRemoteUser("https://dev.azure.com/contoso/_git/widgets")
	assert.False(t, hasRemote)
}

func TestCache_Erase_SignsOutRemoteExplicitlyWhenOrgHasUser(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	require.NoError(t, c.UpdateAuthority("contoso", "https://login.microsoftonline.com/T1"))
	require.NoError(t, c.Erase("contoso", "https://dev.azure.com/contoso/_git/widgets"))

	v, hasRemote := c.GetRemoteUser("https://dev.azure.com/contoso/_git/widgets")
	require.True(t, hasRemote)
	assert.Equal(t, "", v)
	_, hasAuthority := c.GetAuthority("contoso")
	assert.False(t, hasAuthority, "erase always drops the cached authority too")
}

func TestCache_GetOrgUsersAndRemoteUsers(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	require.NoError(t, c.SignInOrg("fabrikam", "carol@fabrikam.com"))
	require.NoError(t, c.SignInRemote("https://dev.azure.com/contoso/_git/widgets", "bob@contoso.com"))

	orgs := c.GetOrgUsers()
	assert.Equal(t, "alice@contoso.com", orgs["contoso"])
	assert.Equal(t, "carol@fabrikam.com", orgs["fabrikam"])

	remotes := c.GetRemoteUsers()
	assert.Equal(t, "bob@contoso.com", remotes["https://dev.azure.com/contoso/_git/widgets"])
}
