package identity

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Candidate claim names per identity field, checked in order. The URI-style
// names cover tokens minted by .NET identity stacks.
var (
	subjectClaims = []string{
		"sub",
		"nameid",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
		"uid",
		"user_id",
	}
	emailClaims = []string{
		"email",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress",
		"upn",
	}
	usernameClaims = []string{
		"preferred_username",
		"username",
		"unique_name",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
	}
	givenNameClaims = []string{
		"given_name",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname",
		"name",
		"first_name",
	}
	familyNameClaims = []string{
		"family_name",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname",
		"last_name",
		"surname",
	}
	roleClaims = []string{
		"role",
		"roles",
		"http://schemas.microsoft.com/ws/2008/06/identity/claims/role",
	}
)

// DecodeIdentity synthesizes a SessionUser from the payload of an access
// token without verifying its signature. It is total: any malformed input
// (wrong segment count, invalid base64, invalid JSON) yields (nil, false),
// never a panic. The signature is not checked: the backend is the authority
// on token validity, this only recovers the payload fields.
func DecodeIdentity(accessToken string) (*SessionUser, bool) {
	claims, ok := decodePayload(accessToken)
	if !ok {
		return nil, false
	}

	id, hasSubject := claimString(claims, subjectClaims...)
	if !hasSubject {
		// Placeholder identity for tokens with no subject claim at all.
		id = "local-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	role := RoleDriver
	if claim, ok := claimString(claims, roleClaims...); ok {
		if canonical, known := NormalizeRole(claim); known {
			role = canonical
		}
	}

	email, _ := claimString(claims, emailClaims...)
	username, _ := claimString(claims, usernameClaims...)
	givenName, _ := claimString(claims, givenNameClaims...)
	familyName, _ := claimString(claims, familyNameClaims...)

	return &SessionUser{
		ID:          id,
		DisplayName: givenName,
		FamilyName:  familyName,
		Username:    username,
		Email:       email,
		Role:        role,
		Permissions: DefaultPermissions(role),
	}, true
}

// decodePayload splits the token, base64url-decodes the middle segment and
// parses it as a JSON object.
func decodePayload(accessToken string) (map[string]any, bool) {
	segments := strings.Split(accessToken, ".")
	if len(segments) != 3 {
		return nil, false
	}

	payload := segments[1]
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}
	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}

	var claims map[string]any
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

// claimString returns the first non-empty string found under the candidate
// claim names. Array values contribute their first string element.
func claimString(claims map[string]any, names ...string) (string, bool) {
	for _, name := range names {
		value, ok := claims[name]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return v, true
			}
		case []any:
			for _, element := range v {
				if s, ok := element.(string); ok && s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}
