package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/failure"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdP struct {
	server       *httptest.Server
	tokenCalls   int32
	tokenExpires int
	tokenStatus  int
	handler      http.HandlerFunc
}

func newFakeIdP(t *testing.T, handler http.HandlerFunc) *fakeIdP {
	f := &fakeIdP{handler: handler, tokenExpires: 3600, tokenStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		calls := atomic.AddInt32(&f.tokenCalls, 1)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, f.server.URL+"/api/v2/", r.PostForm.Get("audience"))

		if f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, calls, f.tokenExpires)
	})
	mux.HandleFunc("/api/v2/", func(w http.ResponseWriter, r *http.Request) {
		f.handler(w, r)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeIdP) client() *Client {
	return NewClient(Config{
		BaseURL:      f.server.URL,
		ClientID:     "client-id",
		ClientSecret: "secret",
		Timeout:      time.Second,
	}, log.NewNilLogger())
}

func TestClient_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("returns remote id", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v2/organizations", r.URL.Path)
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "acme", body["name"])

			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"org_123","name":"acme"}`)
		})

		id, err := idp.client().CreateAccount(ctx, Organizations, Attributes{"name": "acme", "display_name": "Acme Inc"})
		require.NoError(t, err)
		assert.Equal(t, "org_123", id)
	})

	t.Run("users are identified by user_id", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"user_id":"auth0|42","email":"jane@acme.io"}`)
		})

		id, err := idp.client().CreateAccount(ctx, Users, Attributes{"email": "jane@acme.io"})
		require.NoError(t, err)
		assert.Equal(t, "auth0|42", id)
	})

	t.Run("answer without id", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		})

		_, err := idp.client().CreateAccount(ctx, Users, Attributes{})
		assert.True(t, failure.Is(err, failure.ServerError))
	})

	t.Run("duplicate is terminal", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"message":"An organization with this name already exists."}`)
		})

		_, err := idp.client().CreateAccount(ctx, Organizations, Attributes{"name": "acme"})
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.ClientError))
		assert.False(t, failure.IsRetryable(err))
		assert.Contains(t, err.Error(), "409")
		assert.Contains(t, err.Error(), "already exists")
	})
}

func TestClient_Classification(t *testing.T) {
	ctx := context.Background()
	var status int32

	idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(atomic.LoadInt32(&status)))
	})
	client := idp.client()

	t.Run("4xx is a client error", func(t *testing.T) {
		for code := 400; code < 500; code++ {
			atomic.StoreInt32(&status, int32(code))

			err := client.UpdateAccount(ctx, Organizations, "org_1", Attributes{"display_name": "x"})
			require.Error(t, err, "status %d", code)

			fErr, ok := failure.As(err)
			require.True(t, ok, "status %d", code)
			assert.Equal(t, failure.ClientError, fErr.Kind, "status %d", code)
			assert.False(t, fErr.Retryable(), "status %d", code)
		}
	})

	t.Run("5xx is a server error", func(t *testing.T) {
		for code := 500; code < 600; code++ {
			atomic.StoreInt32(&status, int32(code))

			err := client.UpdateAccount(ctx, Organizations, "org_1", Attributes{"display_name": "x"})
			require.Error(t, err, "status %d", code)

			fErr, ok := failure.As(err)
			require.True(t, ok, "status %d", code)
			assert.Equal(t, failure.ServerError, fErr.Kind, "status %d", code)
			assert.True(t, fErr.Retryable(), "status %d", code)
		}
	})

	t.Run("redirect is unexpected", func(t *testing.T) {
		atomic.StoreInt32(&status, http.StatusFound)

		err := client.UpdateAccount(ctx, Organizations, "org_1", Attributes{})
		assert.True(t, failure.Is(err, failure.ServerError))
	})

	t.Run("2xx is success", func(t *testing.T) {
		atomic.StoreInt32(&status, http.StatusNoContent)

		assert.NoError(t, client.UpdateAccount(ctx, Organizations, "org_1", Attributes{}))
	})
}

func TestClassifyStatus(t *testing.T) {
	for code, expected := range map[int]failure.Kind{400: failure.ClientError, 409: failure.ClientError, 499: failure.ClientError, 500: failure.ServerError, 503: failure.ServerError, 301: failure.ServerError} {
		kind, ok := ClassifyStatus(code)
		assert.True(t, ok)
		assert.Equal(t, expected, kind, "status %d", code)
	}

	_, ok := ClassifyStatus(http.StatusCreated)
	assert.False(t, ok)
}

func TestClient_NetworkAndSetupErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no response is a network error", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Millisecond * 300)
		})
		client := NewClient(Config{BaseURL: idp.server.URL, ClientID: "client-id", Timeout: time.Millisecond * 50}, log.NewNilLogger())

		_, err := client.ListAccounts(ctx, Organizations)
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.NetworkError))
		assert.True(t, failure.IsRetryable(err))
	})

	t.Run("token failure is a setup error", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("api must not be called without a token")
		})
		idp.tokenStatus = http.StatusForbidden

		_, err := idp.client().CreateAccount(ctx, Organizations, Attributes{"name": "acme"})
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.SetupError))
		assert.True(t, failure.IsRetryable(err))
	})

	t.Run("unencodable body is a request setup error", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("api must not be called with a broken body")
		})

		_, err := idp.client().CreateAccount(ctx, Organizations, Attributes{"name": make(chan int)})
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.RequestSetupError))
		assert.True(t, failure.IsRetryable(err))
	})
}

func TestClient_TokenCaching(t *testing.T) {
	ctx := context.Background()

	t.Run("token is reused", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `[]`)
		})
		client := idp.client()

		for i := 0; i < 3; i++ {
			_, err := client.ListAccounts(ctx, Users)
			require.NoError(t, err)
		}

		assert.EqualValues(t, 1, atomic.LoadInt32(&idp.tokenCalls))
	})

	t.Run("token close to expiry is refreshed", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `[]`)
		})
		idp.tokenExpires = 10
		client := idp.client()

		_, err := client.ListAccounts(ctx, Users)
		require.NoError(t, err)
		_, err = client.ListAccounts(ctx, Users)
		require.NoError(t, err)

		// default leeway of 30s is larger than the 10s lifetime
		assert.EqualValues(t, 2, atomic.LoadInt32(&idp.tokenCalls))
	})

	t.Run("401 invalidates the token", func(t *testing.T) {
		var calls int32
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "Bearer token-2", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `[]`)
		})
		client := idp.client()

		_, err := client.ListAccounts(ctx, Users)
		assert.True(t, failure.Is(err, failure.ClientError))

		_, err = client.ListAccounts(ctx, Users)
		require.NoError(t, err)
		assert.EqualValues(t, 2, atomic.LoadInt32(&idp.tokenCalls))
	})
}

func TestClient_ListUpdateDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("list plain and wrapped answers", func(t *testing.T) {
		answers := []string{
			`[{"id":"org_1","name":"acme"},{"id":"org_2","name":"globex"}]`,
			`{"organizations":[{"id":"org_1","name":"acme"},{"id":"org_2","name":"globex"}],"start":0,"total":2}`,
		}

		for _, answer := range answers {
			idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				_, _ = io.WriteString(w, answer)
			})

			accounts, err := idp.client().ListAccounts(ctx, Organizations)
			require.NoError(t, err)
			require.Len(t, accounts, 2)
			assert.Equal(t, "org_2", accounts[1].ID)
			assert.Equal(t, "globex", accounts[1].Attributes["name"])
		}
	})

	t.Run("update patches escaped id", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/api/v2/users/auth0%7C42", r.URL.EscapedPath())
			_, _ = io.WriteString(w, `{"user_id":"auth0|42"}`)
		})

		assert.NoError(t, idp.client().UpdateAccount(ctx, Users, "auth0|42", Attributes{"name": "Jane"}))
	})

	t.Run("delete of missing account succeeds", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNotFound)
		})

		assert.NoError(t, idp.client().DeleteAccount(ctx, Organizations, "org_1"))
	})

	t.Run("delete forbidden", func(t *testing.T) {
		idp := newFakeIdP(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		err := idp.client().DeleteAccount(ctx, Organizations, "org_1")
		assert.True(t, failure.Is(err, failure.ClientError))
	})
}
