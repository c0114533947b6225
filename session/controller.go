// Package session orchestrates the session lifecycle: login, register,
// logout, refresh, and restoring a persisted session across process
// restarts. The Controller is the single writer of the current SessionUser
// and, through the token store, of the persisted token pair.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fleetwatch/go-fleet-client/api"
	"github.com/fleetwatch/go-fleet-client/identity"
	"github.com/fleetwatch/go-fleet-client/internal/apperrors"
	"github.com/fleetwatch/go-fleet-client/storage"
	"github.com/fleetwatch/go-fleet-client/tokens"
)

// UserStorageKey is the fixed durable-storage key the cached user lives
// under.
const UserStorageKey = "auth.user"

type Controller struct {
	api     *api.Client
	tokens  *tokens.Store
	storage storage.Store
	logger  zerolog.Logger

	lock  sync.RWMutex
	state State
	user  *identity.SessionUser

	// Concurrent 401s from independent requests coalesce into a single
	// refresh round-trip.
	refreshGroup singleflight.Group
}

type ControllerOption func(*Controller)

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController wires the controller into the pipeline's session hooks.
func NewController(client *api.Client, tokenStore *tokens.Store, store storage.Store, options ...ControllerOption) (*Controller, error) {
	if client == nil {
		return nil, errors.New("[NewController] api client is required")
	}
	if tokenStore == nil {
		return nil, errors.New("[NewController] token store is required")
	}
	if store == nil {
		return nil, errors.New("[NewController] storage is required")
	}

	c := &Controller{
		api:     client,
		tokens:  tokenStore,
		storage: store,
		logger:  zerolog.Nop(),
		state:   StateUninitialized,
	}
	for _, opt := range options {
		opt(c)
	}
	client.SetSessionHooks(c)
	return c, nil
}

var _ api.SessionHooks = (*Controller)(nil)

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// User returns the current session user, nil when unauthenticated.
func (c *Controller) User() *identity.SessionUser {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.user
}

// Bootstrap restores a persisted session on process start. A cached user is
// trusted immediately without a network round trip. With only a token pair
// persisted, the authoritative user is fetched from the backend, falling
// back to deriving one from the access token payload. When neither
// succeeds the session degrades to unauthenticated; the token pair stays in
// storage so the user can be refetched after a later login-free restart.
// Bootstrap always leaves the loading state and never fails the process.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.setState(StateLoading)

	pair, err := c.tokens.Current()
	if err != nil {
		// Storage failures read as "nothing persisted".
		c.logger.Warn().Err(err).Msg("bootstrap: token load failed")
		pair = nil
	}

	if user := c.loadPersistedUser(); user != nil {
		c.setSession(user)
		c.logger.Debug().Str("user_id", user.ID).Msg("bootstrap: restored cached session")
		return
	}

	if pair == nil {
		c.setState(StateUnauthenticated)
		return
	}

	if user, err := c.fetchCurrentUser(ctx); err == nil {
		c.persistUser(user)
		c.setSession(user)
		c.logger.Debug().Str("user_id", user.ID).Msg("bootstrap: fetched authoritative user")
		return
	} else if c.State() == StateUnauthenticated {
		// The fetch 401ed and the refresh path already tore the session down.
		return
	}

	if user, ok := identity.DecodeIdentity(pair.AccessToken); ok {
		c.persistUser(user)
		c.setSession(user)
		c.logger.Debug().Str("user_id", user.ID).Msg("bootstrap: derived user from token payload")
		return
	}

	// Tokens without an establishable user: indistinguishable from
	// unauthenticated until the next login.
	c.setState(StateUnauthenticated)
}

// Login authenticates with the backend. On failure the existing session
// state is left untouched.
func (c *Controller) Login(ctx context.Context, credentials Credentials) Result {
	var resp authResponse
	if err := c.api.Do(ctx, http.MethodPost, "/Auth/login", credentials, &resp, api.WithSkipAuth()); err != nil {
		return failureResult(err, "unable to sign in")
	}
	if err := c.establishSession(ctx, &resp); err != nil {
		c.logger.Error().Err(err).Msg("login: establishing session failed")
		return Result{Message: "unable to sign in"}
	}
	return Result{OK: true}
}

// Register creates an account and establishes a session from the response.
func (c *Controller) Register(ctx context.Context, request RegisterRequest) Result {
	var resp authResponse
	if err := c.api.Do(ctx, http.MethodPost, "/Auth/register", request, &resp, api.WithSkipAuth()); err != nil {
		return failureResult(err, "unable to register")
	}
	if err := c.establishSession(ctx, &resp); err != nil {
		c.logger.Error().Err(err).Msg("register: establishing session failed")
		return Result{Message: "unable to register"}
	}
	return Result{OK: true}
}

// RefreshSession implements api.SessionHooks. Concurrent callers share one
// in-flight refresh.
func (c *Controller) RefreshSession(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

// refresh trades the current refresh token for a new pair. Any failure
// clears the entire session; this is the single place a previously valid
// session is force-terminated.
func (c *Controller) refresh(ctx context.Context) error {
	pair, err := c.tokens.Current()
	if err != nil || pair == nil || pair.RefreshToken == "" {
		return apperrors.ErrNoRefreshToken
	}

	var resp authResponse
	if err := c.api.Do(ctx, http.MethodPost, "/Auth/refresh", refreshRequest{RefreshToken: pair.RefreshToken}, &resp, api.WithSkipAuth()); err != nil {
		c.logger.Warn().Err(err).Msg("refresh: backend rejected refresh token, clearing session")
		c.clearSession()
		return errors.Wrap(err, "[Controller.refresh] refresh request")
	}

	access := resp.access()
	if access == "" || resp.RefreshToken == "" {
		c.clearSession()
		return errors.New("[Controller.refresh] incomplete token pair in refresh response")
	}
	if err := c.tokens.Save(&tokens.Pair{AccessToken: access, RefreshToken: resp.RefreshToken}); err != nil {
		c.clearSession()
		return errors.Wrap(err, "[Controller.refresh] persist refreshed pair")
	}

	// The pair and user apply together. When the refresh response omits the
	// user, the existing one stays; with no existing user, derive one.
	if resp.User != nil {
		user := resp.User.toSessionUser()
		c.persistUser(user)
		c.setSession(user)
	} else if c.User() == nil {
		if user, ok := identity.DecodeIdentity(access); ok {
			c.persistUser(user)
			c.setSession(user)
		}
	} else {
		c.setState(StateAuthenticated)
	}
	return nil
}

// Logout best-effort informs the backend, then unconditionally clears the
// session. A 401 from the backend is ignored: the token may already be
// invalid.
func (c *Controller) Logout(ctx context.Context) {
	if pair, err := c.tokens.Current(); err == nil && pair != nil {
		err := c.api.Do(ctx, http.MethodPost, "/Auth/logout", nil, nil, api.WithoutRetry())
		if err != nil && !api.IsUnauthorized(err) {
			c.logger.Warn().Err(err).Msg("logout: backend call failed")
		}
	}
	c.clearSession()
}

// LogoutAll revokes every session server-side and always finishes with a
// local logout, guaranteeing local termination even when the remote call
// fails.
func (c *Controller) LogoutAll(ctx context.Context) {
	err := c.api.Do(ctx, http.MethodPost, "/Auth/logout-all", nil, nil, api.WithoutRetry())
	if err != nil && !api.IsUnauthorized(err) {
		c.logger.Warn().Err(err).Msg("logout-all: backend call failed")
	}
	c.Logout(ctx)
}

// ChangePassword is an authenticated pass-through.
func (c *Controller) ChangePassword(ctx context.Context, request ChangePasswordRequest) Result {
	if err := c.api.Do(ctx, http.MethodPost, "/Auth/change-password", request, nil); err != nil {
		return failureResult(err, "unable to change password")
	}
	return Result{OK: true}
}

// ForgotPassword requests a password-reset email.
func (c *Controller) ForgotPassword(ctx context.Context, email string) Result {
	if err := c.api.Do(ctx, http.MethodPost, "/Auth/forgot-password", forgotPasswordRequest{Email: email}, nil, api.WithSkipAuth()); err != nil {
		return failureResult(err, "unable to request a password reset")
	}
	return Result{OK: true}
}

// establishSession persists the pair from an auth response and resolves the
// session user, fetching or deriving one when the backend omitted it. On
// total failure the just-saved pair is rolled back so a failed login never
// mutates session state.
func (c *Controller) establishSession(ctx context.Context, resp *authResponse) error {
	access := resp.access()
	if access == "" || resp.RefreshToken == "" {
		return errors.New("[Controller.establishSession] incomplete token pair in auth response")
	}
	pair := &tokens.Pair{AccessToken: access, RefreshToken: resp.RefreshToken}
	if err := c.tokens.Save(pair); err != nil {
		return errors.Wrap(err, "[Controller.establishSession] persist pair")
	}

	var user *identity.SessionUser
	if resp.User != nil {
		user = resp.User.toSessionUser()
	} else if fetched, err := c.fetchCurrentUserWith(ctx, pair); err == nil {
		user = fetched
	} else if derived, ok := identity.DecodeIdentity(access); ok {
		user = derived
	}
	if user == nil {
		_ = c.tokens.Save(nil)
		return errors.New("[Controller.establishSession] no session user could be established")
	}

	c.persistUser(user)
	c.setSession(user)
	return nil
}

func (c *Controller) fetchCurrentUser(ctx context.Context) (*identity.SessionUser, error) {
	var user apiUser
	if err := c.api.Do(ctx, http.MethodGet, "/Auth/me", nil, &user); err != nil {
		return nil, errors.Wrap(err, "[Controller.fetchCurrentUser] GET /Auth/me")
	}
	return user.toSessionUser(), nil
}

// fetchCurrentUserWith bypasses the token store and the retry path; it runs
// mid-login, before the session is established.
func (c *Controller) fetchCurrentUserWith(ctx context.Context, pair *tokens.Pair) (*identity.SessionUser, error) {
	var user apiUser
	if err := c.api.Do(ctx, http.MethodGet, "/Auth/me", nil, &user, api.WithTokenPair(pair), api.WithoutRetry()); err != nil {
		return nil, errors.Wrap(err, "[Controller.fetchCurrentUserWith] GET /Auth/me")
	}
	return user.toSessionUser(), nil
}

// clearSession removes tokens and user from memory and storage and drops to
// unauthenticated.
func (c *Controller) clearSession() {
	if err := c.tokens.Save(nil); err != nil {
		c.logger.Warn().Err(err).Msg("clear session: deleting persisted tokens failed")
	}
	if err := c.storage.Delete(UserStorageKey); err != nil {
		c.logger.Warn().Err(err).Msg("clear session: deleting persisted user failed")
	}

	c.lock.Lock()
	c.user = nil
	c.state = StateUnauthenticated
	c.lock.Unlock()
}

func (c *Controller) setSession(user *identity.SessionUser) {
	c.lock.Lock()
	c.user = user
	c.state = StateAuthenticated
	c.lock.Unlock()
}

func (c *Controller) setState(state State) {
	c.lock.Lock()
	c.state = state
	c.lock.Unlock()
}

func (c *Controller) persistUser(user *identity.SessionUser) {
	data, err := json.Marshal(user)
	if err != nil {
		c.logger.Warn().Err(err).Msg("persist user: marshal failed")
		return
	}
	if err := c.storage.Set(UserStorageKey, data); err != nil {
		c.logger.Warn().Err(err).Msg("persist user: write failed")
	}
}

func (c *Controller) loadPersistedUser() *identity.SessionUser {
	data, err := c.storage.Get(UserStorageKey)
	if err != nil {
		return nil
	}
	var user identity.SessionUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil
	}
	return &user
}

// failureResult converts a pipeline error into a user-facing Result,
// preferring the backend-supplied message.
func failureResult(err error, fallback string) Result {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return Result{Message: msg}
		}
	}
	return Result{Message: fallback}
}
