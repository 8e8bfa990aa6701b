// Package settings resolves a "<section>.<property>" setting by consulting
// an environment variable, then Git config at increasingly general URL
// scopes, then a default.
package settings

import (
	"strconv"
	"strings"
)

// GitConfig is the read-only view over Git configuration this resolver
// consults. The real implementation shells out to `git config --get-all`;
// it is injected here so tests can substitute an in-memory map.
type GitConfig interface {
	// GetAll returns every configured value for key, in the order Git
	// config reports them (later entries are "more recently set").
	GetAll(key string) []string
}

// EnvLookup abstracts os.LookupEnv for tests.
type EnvLookup func(name string) (string, bool)

// Resolver resolves scoped settings.
type Resolver struct {
	Git GitConfig

	// EnvVars maps a "<section>.<property>" setting name to the
	// environment variable names that override it, in precedence order
	// (first present wins). Most settings have exactly one; a deprecated
	// alias (e.g. GCM_AUTHORITY for credential.provider) is listed after
	// its replacement. Not every setting has one.
	EnvVars map[string][]string

	lookupEnv EnvLookup
}

// New builds a Resolver. lookupEnv defaults to os.LookupEnv when nil.
func New(git GitConfig, envVars map[string][]string, lookupEnv EnvLookup) *Resolver {
	return &Resolver{Git: git, EnvVars: envVars, lookupEnv: lookupEnv}
}

// Scope identifies the remote a setting is being resolved for.
type Scope struct {
	Protocol string
	Host     string
	Path     string // canonicalized, no leading slash
}

// candidateKeys returns the Git-config keys to try, most specific first:
// "<section>.<protocol>://<host>/<path>.<property>", "<section>.<host>.<property>",
// progressively shorter parent-domain suffixes of host, then
// "<section>.<property>".
func candidateKeys(section, property string, scope Scope) []string {
	var keys []string
	if scope.Host != "" {
		if path := strings.TrimPrefix(scope.Path, "/"); path != "" {
			keys = append(keys, section+"."+scope.Protocol+"://"+scope.Host+"/"+path+"."+property)
		}
		labels := strings.Split(scope.Host, ".")
		for i := 0; i < len(labels); i++ {
			suffix := strings.Join(labels[i:], ".")
			keys = append(keys, section+"."+suffix+"."+property)
		}
	}
	keys = append(keys, section+"."+property)
	return keys
}

// Get resolves a setting's string value, or ok=false if nothing matched.
func (r *Resolver) Get(section, property string, scope Scope) (string, bool) {
	fullName := section + "." + property
	for _, envName := range r.EnvVars[fullName] {
		if v, present := r.lookup(envName); present {
			return v, true
		}
	}

	if r.Git != nil {
		for _, key := range candidateKeys(section, property, scope) {
			vals := r.Git.GetAll(key)
			if len(vals) == 0 {
				continue
			}
			// Most specific key wins outright; within one key, the most
			// recently set entry (last in GetAll's order) wins ties.
			return vals[len(vals)-1], true
		}
	}

	return "", false
}

// GetBool resolves a boolean setting, recognizing 1|true|yes|on and
// 0|false|no|off case-insensitively, the way Git itself does.
func (r *Resolver) GetBool(section, property string, scope Scope, def bool) bool {
	v, ok := r.Get(section, property, scope)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// GetString resolves a string setting with a default.
func (r *Resolver) GetString(section, property string, scope Scope, def string) string {
	if v, ok := r.Get(section, property, scope); ok {
		return v
	}
	return def
}

func (r *Resolver) lookup(name string) (string, bool) {
	if r.lookupEnv != nil {
		return r.lookupEnv(name)
	}
	return OSEnv(name)
}
