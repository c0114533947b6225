package session

// State is the lifecycle state of the local session.
//
//	StateUninitialized → StateLoading → {StateAuthenticated, StateUnauthenticated}
//
// Only a successful login, register, or bootstrap restore leaves
// StateUnauthenticated.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)
