package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_EnvOverridesGitConfig(t *testing.T) {
	git := MapGitConfig{"credential.interactive": {"true"}}
	env := func(name string) (string, bool) {
		if name == "GCM_INTERACTIVE" {
			return "false", true
		}
		return "", false
	}
	r := New(git, KnownEnvVars, env)
	v, ok := r.Get("credential", "interactive", Scope{})
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}

func TestResolver_DeprecatedAliasUsedWhenPrimaryAbsent(t *testing.T) {
	env := func(name string) (string, bool) {
		if name == "GCM_AUTHORITY" {
			return "azure-repos", true
		}
		return "", false
	}
	r := New(MapGitConfig{}, KnownEnvVars, env)
	v, ok := r.Get("credential", "provider", Scope{})
	assert.True(t, ok)
	assert.Equal(t, "azure-repos", v)
}

func TestResolver_PrimaryEnvVarWinsOverDeprecatedAlias(t *testing.T) {
	env := func(name string) (string, bool) {
		switch name {
		case "GCM_PROVIDER":
			return "github", true
		case "GCM_AUTHORITY":
			return "azure-repos", true
		}
		return "", false
	}
	r := New(MapGitConfig{}, KnownEnvVars, env)
	v, ok := r.Get("credential", "provider", Scope{})
	assert.True(t, ok)
	assert.Equal(t, "github", v)
}

func TestResolver_HostSuffixMatching(t *testing.T) {
	git := MapGitConfig{
		"credential.visualstudio.com.provider": {"azure-repos"},
	}
	r := New(git, nil, nil)
	v, ok := r.Get("credential", "provider", Scope{Protocol: "https", Host: "microsoft.visualstudio.com"})
	assert.True(t, ok)
	assert.Equal(t, "azure-repos", v)
}

func TestResolver_MostSpecificWins(t *testing.T) {
	git := MapGitConfig{
		"credential.provider":                      {"generic"},
		"credential.github.com.provider":           {"github"},
		"credential.https://github.com/a.provider": {"azure-repos"},
	}
	r := New(git, nil, nil)
	v, ok := r.Get("credential", "provider", Scope{Protocol: "https", Host: "github.com", Path: "a"})
	assert.True(t, ok)
	assert.Equal(t, "azure-repos", v)
}

func TestResolver_TiesFavorMostRecentlySet(t *testing.T) {
	git := MapGitConfig{"credential.provider": {"generic", "github"}}
	r := New(git, nil, nil)
	v, _ := r.Get("credential", "provider", Scope{})
	assert.Equal(t, "github", v)
}

func TestResolver_BooleanCaseInsensitive(t *testing.T) {
	git := MapGitConfig{"credential.interactive": {"NO"}}
	r := New(git, nil, nil)
	assert.False(t, r.GetBool("credential", "interactive", Scope{}, true))
}

func TestResolver_DefaultWhenUnset(t *testing.T) {
	r := New(MapGitConfig{}, nil, nil)
	assert.Equal(t, "fallback", r.GetString("credential", "provider", Scope{}, "fallback"))
}
