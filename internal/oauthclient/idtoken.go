package oauthclient

import (
	"github.com/golang-jwt/jwt/v5"
)

// idTokenClaims is the subset of an OIDC id_token this package reads to
// populate TokenResult.AccountIdentifier. Signature verification is the
// authority's job at token-issuance time over TLS; we only need to read
// the claims, so this uses an unverified parse (ParseUnverified), matching
// how a confidential-client-less native app treats its own just-received
// id_token.
type idTokenClaims struct {
	PreferredUsername string `json:"preferred_username"`
	UPN               string `json:"upn"`
	Email             string `json:"email"`
}

func (c idTokenClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (c idTokenClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (c idTokenClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c idTokenClaims) GetIssuer() (string, error)                   { return "", nil }
func (c idTokenClaims) GetSubject() (string, error)                  { return "", nil }
func (c idTokenClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// accountFromIDToken extracts a human-readable account identifier (the
// Azure AD upn/preferred_username, or an email fallback) from an unparsed
// id_token JWT, returning "" if idToken is empty or malformed.
func accountFromIDToken(idToken string) string {
	if idToken == "" {
		return ""
	}
	var claims idTokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, &claims); err != nil {
		return ""
	}
	if claims.UPN != "" {
		return claims.UPN
	}
	if claims.PreferredUsername != "" {
		return claims.PreferredUsername
	}
	return claims.Email
}
