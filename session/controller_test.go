package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/go-fleet-client/api"
	"github.com/fleetwatch/go-fleet-client/identity"
	"github.com/fleetwatch/go-fleet-client/internal/apperrors"
	"github.com/fleetwatch/go-fleet-client/session"
	"github.com/fleetwatch/go-fleet-client/storage/storefakes"
	"github.com/fleetwatch/go-fleet-client/tokens"
)

type fixture struct {
	fake       *storefakes.FakeStore
	tokens     *tokens.Store
	client     *api.Client
	controller *session.Controller
	requests   int32
}

// newFixture stands up the full stack against an httptest backend: file
// storage faked out, token store, request pipeline, and controller wired as
// the pipeline's session hooks.
func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()

	f := &fixture{fake: storefakes.NewFakeStore()}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.requests, 1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	store, err := tokens.NewStore(f.fake)
	require.NoError(t, err)
	f.tokens = store

	f.client, err = api.NewClient(server.URL, store)
	require.NoError(t, err)

	f.controller, err = session.NewController(f.client, store, f.fake)
	require.NoError(t, err)

	return f
}

func (f *fixture) seedPair(t *testing.T, pair tokens.Pair) {
	t.Helper()
	data, err := json.Marshal(pair)
	require.NoError(t, err)
	require.NoError(t, f.fake.Set(tokens.StorageKey, data))
}

func (f *fixture) seedUser(t *testing.T, user identity.SessionUser) {
	t.Helper()
	data, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, f.fake.Set(session.UserStorageKey, data))
}

func (f *fixture) requestCount() int32 {
	return atomic.LoadInt32(&f.requests)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func authResponseBody(user map[string]any) map[string]any {
	body := map[string]any{
		"accessToken":  "access-1",
		"refreshToken": "refresh-1",
	}
	if user != nil {
		body["user"] = user
	}
	return body
}

func TestLoginEstablishesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds session.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "jo", creds.Username)
		require.Empty(t, r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(authResponseBody(map[string]any{
			"id":        "u-1",
			"firstName": "Jo",
			"userName":  "jo",
			"email":     "jo@example.com",
			"role":      "manager",
		}))
	})
	f := newFixture(t, mux)

	result := f.controller.Login(context.Background(), session.Credentials{Username: "jo", Password: "pw"})
	require.True(t, result.OK)

	require.Equal(t, session.StateAuthenticated, f.controller.State())
	user := f.controller.User()
	require.NotNil(t, user)
	require.Equal(t, "u-1", user.ID)
	require.Equal(t, identity.RoleManager, user.Role)
	require.Equal(t, identity.DefaultPermissions(identity.RoleManager), user.Permissions)

	pair, err := f.tokens.Current()
	require.NoError(t, err)
	require.Equal(t, &tokens.Pair{AccessToken: "access-1", RefreshToken: "refresh-1"}, pair)
	require.True(t, f.fake.Has(session.UserStorageKey))
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid username or password"}`))
	}))

	result := f.controller.Login(context.Background(), session.Credentials{Username: "jo", Password: "wrong"})
	require.False(t, result.OK)
	require.Equal(t, "invalid username or password", result.Message)

	require.Equal(t, session.StateUninitialized, f.controller.State())
	require.Nil(t, f.controller.User())
	current, err := f.tokens.Current()
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestExpiredTokenIsRefreshedAndRequestRetried(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Vehicles", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("POST /Auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "refresh-old", req.RefreshToken)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "fresh",
			"refreshToken": "refresh-new",
		})
	})
	f := newFixture(t, mux)
	f.seedPair(t, tokens.Pair{AccessToken: "stale", RefreshToken: "refresh-old"})
	f.seedUser(t, identity.SessionUser{ID: "u-1", Role: identity.RoleDriver})
	f.controller.Bootstrap(context.Background())

	var vehicles []json.RawMessage
	err := f.client.Do(context.Background(), http.MethodGet, "/Vehicles", nil, &vehicles)
	require.NoError(t, err)

	pair, err := f.tokens.Current()
	require.NoError(t, err)
	require.Equal(t, &tokens.Pair{AccessToken: "fresh", RefreshToken: "refresh-new"}, pair)
	require.Equal(t, session.StateAuthenticated, f.controller.State())
	require.Equal(t, "u-1", f.controller.User().ID)
}

func TestRejectedRefreshTerminatesSession(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	f.seedPair(t, tokens.Pair{AccessToken: "stale", RefreshToken: "revoked"})
	f.seedUser(t, identity.SessionUser{ID: "u-1", Role: identity.RoleDriver})
	f.controller.Bootstrap(context.Background())
	require.Equal(t, session.StateAuthenticated, f.controller.State())

	err := f.client.Do(context.Background(), http.MethodGet, "/Vehicles", nil, nil)
	require.True(t, api.IsUnauthorized(err), "the caller sees the original 401")

	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	require.Nil(t, f.controller.User())
	current, err := f.tokens.Current()
	require.NoError(t, err)
	require.Nil(t, current)
	require.False(t, f.fake.Has(tokens.StorageKey))
	require.False(t, f.fake.Has(session.UserStorageKey))
}

func TestBootstrapTrustsCachedUserWithoutNetwork(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	f.seedPair(t, tokens.Pair{AccessToken: "a", RefreshToken: "r"})
	f.seedUser(t, identity.SessionUser{ID: "u-9", Username: "cached", Role: identity.RoleDispatcher})

	f.controller.Bootstrap(context.Background())

	require.Equal(t, session.StateAuthenticated, f.controller.State())
	require.Equal(t, "u-9", f.controller.User().ID)
	require.Equal(t, int32(0), f.requestCount())
}

func TestBootstrapFetchesUserWhenOnlyTokensPersisted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Auth/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer a", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "u-2",
			"userName": "fetched",
			"role":     "dispatcher",
		})
	})
	f := newFixture(t, mux)
	f.seedPair(t, tokens.Pair{AccessToken: "a", RefreshToken: "r"})

	f.controller.Bootstrap(context.Background())

	require.Equal(t, session.StateAuthenticated, f.controller.State())
	require.Equal(t, "u-2", f.controller.User().ID)
	require.True(t, f.fake.Has(session.UserStorageKey), "the fetched user is cached for the next start")
}

func TestBootstrapDerivesUserWhenBackendUnreachable(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	access := signedToken(t, jwt.MapClaims{
		"sub":        "u-3",
		"email":      "derived@example.com",
		"given_name": "Derived",
		"role":       "driver",
	})
	f.seedPair(t, tokens.Pair{AccessToken: access, RefreshToken: "r"})

	f.controller.Bootstrap(context.Background())

	require.Equal(t, session.StateAuthenticated, f.controller.State())
	user := f.controller.User()
	require.Equal(t, "u-3", user.ID)
	require.Equal(t, "derived@example.com", user.Email)
	require.Equal(t, identity.RoleDriver, user.Role)
}

func TestBootstrapWithNothingPersisted(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))

	f.controller.Bootstrap(context.Background())

	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	require.Nil(t, f.controller.User())
}

func TestBootstrapUndecodableTokenKeepsPairInStorage(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	f.seedPair(t, tokens.Pair{AccessToken: "opaque-not-a-jwt", RefreshToken: "r"})

	f.controller.Bootstrap(context.Background())

	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	require.True(t, f.fake.Has(tokens.StorageKey), "tokens stay persisted for a later attempt")
}

func TestRefreshSessionWithoutRefreshToken(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))

	err := f.controller.RefreshSession(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	release := make(chan struct{})
	var refreshes int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "fresh",
			"refreshToken": "refresh-new",
		})
	})
	f := newFixture(t, mux)
	f.seedPair(t, tokens.Pair{AccessToken: "stale", RefreshToken: "refresh-old"})

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.controller.RefreshSession(context.Background())
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshes), "overlapping refreshes share one round trip")
}

func TestLogoutAllClearsLocallyEvenWhenBackendFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Auth/logout-all", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("POST /Auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f := newFixture(t, mux)
	f.seedPair(t, tokens.Pair{AccessToken: "a", RefreshToken: "r"})
	f.seedUser(t, identity.SessionUser{ID: "u-1", Role: identity.RoleAdmin})
	f.controller.Bootstrap(context.Background())

	f.controller.LogoutAll(context.Background())

	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	require.Nil(t, f.controller.User())
	require.False(t, f.fake.Has(tokens.StorageKey))
	require.False(t, f.fake.Has(session.UserStorageKey))
}

func TestLogoutIgnoresExpiredToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f := newFixture(t, mux)
	f.seedPair(t, tokens.Pair{AccessToken: "expired", RefreshToken: "r"})
	f.seedUser(t, identity.SessionUser{ID: "u-1", Role: identity.RoleDriver})
	f.controller.Bootstrap(context.Background())

	f.controller.Logout(context.Background())

	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	require.Equal(t, int32(1), f.requestCount(), "a 401 logout is not retried")
}

func TestChangePasswordSurfacesBackendMessage(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"current password is incorrect"}`))
	}))
	f.seedPair(t, tokens.Pair{AccessToken: "a", RefreshToken: ""})

	result := f.controller.ChangePassword(context.Background(), session.ChangePasswordRequest{
		CurrentPassword:    "old",
		NewPassword:        "new",
		ConfirmNewPassword: "new",
	})
	require.False(t, result.OK)
	require.Equal(t, "current password is incorrect", result.Message)
}

func TestLoginWithTokenAliasAndOmittedUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":        "alias-access",
			"refreshToken": "alias-refresh",
		})
	})
	mux.HandleFunc("GET /Auth/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer alias-access", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   "u-5",
			"role": "admin",
		})
	})
	f := newFixture(t, mux)

	result := f.controller.Login(context.Background(), session.Credentials{Username: "jo", Password: "pw"})
	require.True(t, result.OK)
	require.Equal(t, "u-5", f.controller.User().ID)
	require.Equal(t, identity.RoleAdmin, f.controller.User().Role)

	pair, err := f.tokens.Current()
	require.NoError(t, err)
	require.Equal(t, "alias-access", pair.AccessToken)
}

func TestLoginRollsBackPairWhenNoUserEstablishable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "opaque-not-a-jwt",
			"refreshToken": "r",
		})
	})
	mux.HandleFunc("GET /Auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f := newFixture(t, mux)

	result := f.controller.Login(context.Background(), session.Credentials{Username: "jo", Password: "pw"})
	require.False(t, result.OK)

	current, err := f.tokens.Current()
	require.NoError(t, err)
	require.Nil(t, current, "a failed login leaves no half-established session")
}

func TestApiUserPermissionsOverrideDefaults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(authResponseBody(map[string]any{
			"id":   "u-6",
			"role": "driver",
			"permissions": map[string]any{
				"trackVehicles": true,
				"viewReports":   true,
			},
		}))
	})
	f := newFixture(t, mux)

	result := f.controller.Login(context.Background(), session.Credentials{Username: "jo", Password: "pw"})
	require.True(t, result.OK)

	user := f.controller.User()
	require.True(t, user.Permissions.ViewReports, "backend override wins over the driver default")
	require.True(t, user.Permissions.TrackVehicles)
	require.False(t, user.Permissions.ManageVehicles)
}
