package settings

import "os"

// OSEnv is the EnvLookup backed by the real process environment.
func OSEnv(name string) (string, bool) { return os.LookupEnv(name) }

// MapGitConfig is an in-memory GitConfig for tests, and also the shape a
// real `git config --get-all --null` parser would populate.
type MapGitConfig map[string][]string

func (m MapGitConfig) GetAll(key string) []string { return m[key] }

// KnownEnvVars is the table of environment variables that override Git
// config, keyed by the "<section>.<property>" setting they alias. Values
// are listed in precedence order; credential.provider lists GCM_PROVIDER
// ahead of the deprecated GCM_AUTHORITY alias.
var KnownEnvVars = map[string][]string{
	"credential.interactive":        {"GCM_INTERACTIVE"},
	"credential.provider":           {"GCM_PROVIDER", "GCM_AUTHORITY"},
	"credential.allowWindowsAuth":   {"GCM_ALLOW_WINDOWSAUTH"},
	"credential.httpProxy":          {"GCM_HTTP_PROXY"},
	"credential.gitHubAuthModes":    {"GCM_GITHUB_AUTHMODES"},
	"credential.namespace":          {"GCM_NAMESPACE"},
	"credential.credentialStore":    {"GCM_CREDENTIAL_STORE"},
	"credential.plaintextStorePath": {"GCM_PLAINTEXT_STORE_PATH"},
	"credential.msauthFlow":         {"GCM_MSAUTH_FLOW"},
}
