// Package tokens holds the access/refresh credential pair and the store that
// multiplexes it across an in-memory reference and durable storage.
package tokens

// Pair is the access/refresh token pair issued by the backend on login,
// register, or refresh. It is an immutable value object: replaced wholesale,
// never partially mutated.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
