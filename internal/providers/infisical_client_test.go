package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretsadapter/internal/logging"
	"github.com/systmms/secretsadapter/internal/providers/contracts"
	"github.com/systmms/secretsadapter/pkg/provider"
)

// infisicalAPI is a minimal in-memory Infisical REST API.
type infisicalAPI struct {
	t       *testing.T
	mu      sync.Mutex
	secrets map[string]string
	scope   contracts.InfisicalScope
	methods []string
}

func newInfisicalAPI(t *testing.T) (*infisicalAPI, *httptest.Server) {
	api := &infisicalAPI{
		t:       t,
		secrets: map[string]string{},
		scope:   contracts.InfisicalScope{ProjectID: "proj-1", Environment: "dev", SecretPath: "/"},
	}
	srv := httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(srv.Close)
	return api, srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *infisicalAPI) handle(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.methods = append(a.methods, r.Method+" "+r.URL.Path)

	if r.URL.Path == infisicalLoginPath {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["clientId"] != "client-id" || body["clientSecret"] != "client-secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"statusCode": 401, "message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"accessToken": "tok", "expiresIn": 7200, "tokenType": "Bearer"})
		return
	}

	if r.Header.Get("Authorization") != "Bearer tok" {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "Token missing"})
		return
	}

	var (
		scope      contracts.InfisicalScope
		writeValue string
	)
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		scope = contracts.InfisicalScope{ProjectID: q.Get("workspaceId"), Environment: q.Get("environment"), SecretPath: q.Get("secretPath")}
	} else {
		var body infisicalWriteRequest
		assert.NoError(a.t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(a.t, "shared", body.Type)
		scope = contracts.InfisicalScope{ProjectID: body.WorkspaceID, Environment: body.Environment, SecretPath: body.SecretPath}
		writeValue = body.SecretValue
	}
	assert.Equal(a.t, a.scope, scope)

	if r.URL.Path == infisicalSecretsPath && r.Method == http.MethodGet {
		var list []contracts.InfisicalSecret
		for k, v := range a.secrets {
			list = append(list, contracts.InfisicalSecret{SecretKey: k, SecretValue: v})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"secrets": list})
		return
	}

	name := strings.TrimPrefix(r.URL.Path, infisicalSecretsPath+"/")
	value, exists := a.secrets[name]
	notFound := map[string]interface{}{"statusCode": 404, "message": "Secret with name '" + name + "' not found", "error": "NotFound"}

	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeJSON(w, http.StatusNotFound, notFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"secret": map[string]interface{}{"secretKey": name, "secretValue": value, "version": 1, "type": "shared"}})
	case http.MethodPost:
		if exists {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"statusCode": 400, "message": "Secret already exist"})
			return
		}
		a.secrets[name] = writeValue
		writeJSON(w, http.StatusOK, map[string]interface{}{"secret": map[string]interface{}{"secretKey": name}})
	case http.MethodPatch:
		if !exists {
			writeJSON(w, http.StatusNotFound, notFound)
			return
		}
		a.secrets[name] = writeValue
		writeJSON(w, http.StatusOK, map[string]interface{}{"secret": map[string]interface{}{"secretKey": name}})
	case http.MethodDelete:
		if !exists {
			writeJSON(w, http.StatusNotFound, notFound)
			return
		}
		delete(a.secrets, name)
		writeJSON(w, http.StatusOK, map[string]interface{}{"secret": map[string]interface{}{"secretKey": name}})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func testHTTPInfisicalConfig(siteURL string) InfisicalConfig {
	return InfisicalConfig{
		SiteURL:      siteURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		ProjectID:    "proj-1",
		Environment:  "dev",
		Timeout:      5 * time.Second,
	}
}

func TestInfisicalHTTPClient_Login(t *testing.T) {
	t.Parallel()

	_, srv := newInfisicalAPI(t)
	client, err := newInfisicalHTTPClient(testHTTPInfisicalConfig(srv.URL+"/"), nil)
	require.NoError(t, err)

	token, ttl, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, 2*time.Hour, ttl)

	bad := testHTTPInfisicalConfig(srv.URL)
	bad.ClientSecret = "wrong"
	client, err = newInfisicalHTTPClient(bad, nil)
	require.NoError(t, err)

	_, _, err = client.Login(context.Background())
	var infErr *InfisicalError
	require.True(t, errors.As(err, &infErr))
	assert.Equal(t, "auth", infErr.Op)
	assert.Equal(t, http.StatusUnauthorized, infErr.StatusCode)
	assert.Equal(t, "Invalid credentials", infErr.Message)
}

func TestInfisicalProvider_OverHTTP(t *testing.T) {
	t.Parallel()

	api, srv := newInfisicalAPI(t)
	p, err := NewInfisicalProvider(context.Background(), "inf", testHTTPInfisicalConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	v, err := p.Get(ctx, "DB_URL")
	require.NoError(t, err)
	assert.Equal(t, provider.Absent(), v, "404 body maps to absent")

	require.NoError(t, p.Set(ctx, "DB_URL", "postgres://a"))
	require.NoError(t, p.Set(ctx, "DB_URL", "postgres://b"), "already exists falls back to update")
	require.NoError(t, p.Set(ctx, "EMPTY", ""))

	v, err = p.Get(ctx, "DB_URL")
	require.NoError(t, err)
	assert.Equal(t, provider.Found("postgres://b"), v)

	v, err = p.Get(ctx, "EMPTY")
	require.NoError(t, err)
	assert.Equal(t, provider.Found(""), v)

	keys, err := p.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"DB_URL", "EMPTY"}, keys)

	require.NoError(t, p.Delete(ctx, "DB_URL"))
	require.NoError(t, p.Delete(ctx, "DB_URL"), "deleting a missing secret succeeds")

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Contains(t, api.methods, "PATCH /api/v3/secrets/raw/DB_URL")
	assert.Contains(t, api.methods, "DELETE /api/v3/secrets/raw/DB_URL")
	assert.Equal(t, "POST "+infisicalLoginPath, api.methods[0])
}

func TestInfisicalProvider_OverHTTPLoginRejected(t *testing.T) {
	t.Parallel()

	_, srv := newInfisicalAPI(t)
	cfg := testHTTPInfisicalConfig(srv.URL)
	cfg.ClientID = "someone-else"

	p, err := NewInfisicalProvider(context.Background(), "inf", cfg)
	assert.Nil(t, p)
	var authErr provider.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, authErr.Error(), "inf")
}

func TestInfisicalErrorClassification(t *testing.T) {
	t.Parallel()

	notFound := &InfisicalError{Op: "get", StatusCode: 404, Message: "Secret with name 'X' not found"}
	transport := &InfisicalError{Op: "get", Err: &url.Error{
		Op:  "Get",
		URL: "https://app.infisical.com/api/v3/secrets/raw/api-key-404?workspaceId=proj-404",
		Err: errors.New("connection reset: not found in route table"),
	}}

	tests := []struct {
		name          string
		err           error
		notFound      bool
		alreadyExists bool
	}{
		{"404 with message", notFound, true, false},
		{"404 without message", &InfisicalError{Op: "get", StatusCode: 404, Message: "gone"}, true, false},
		{"400 folder not found", &InfisicalError{Op: "get", StatusCode: 400, Message: "Folder not found"}, true, false},
		{"500", &InfisicalError{Op: "get", StatusCode: 500, Message: "boom"}, false, false},
		{"500 mentioning not found", &InfisicalError{Op: "get", StatusCode: 500, Message: "upstream not found"}, false, false},
		{"transport failure with 404 in url", transport, false, false},
		{"wrapped transport failure", fmt.Errorf("get: %w", transport), false, false},
		{"plain error", errors.New("404 not found, secret already exists"), false, false},
		{"already exists", &InfisicalError{Op: "create", StatusCode: 400, Message: "Secret already exist"}, false, true},
		{"conflict", &InfisicalError{Op: "create", StatusCode: 409, Message: "Secret already exists"}, false, true},
		{"already exists in transport error", &InfisicalError{Op: "create", Err: errors.New("already exists")}, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.notFound, isInfisicalNotFoundError(tt.err))
			assert.Equal(t, tt.alreadyExists, isInfisicalAlreadyExistsError(tt.err))
		})
	}
}

// newDroppingInfisicalAPI accepts logins and drops the connection on every other request.
func newDroppingInfisicalAPI(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == infisicalLoginPath {
			writeJSON(w, http.StatusOK, map[string]interface{}{"accessToken": "session-token", "expiresIn": 7200})
			return
		}
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfisicalProvider_OverHTTPConnectionDropped(t *testing.T) {
	t.Parallel()

	srv := newDroppingInfisicalAPI(t)
	var logs bytes.Buffer
	p, err := NewInfisicalProvider(context.Background(), "inf", testHTTPInfisicalConfig(srv.URL),
		WithInfisicalLogger(logging.NewWithWriter(&logs, true, true)))
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"api-key", "api-key-404", "not-found"} {
		v, err := p.Get(ctx, key)
		assert.ErrorIs(t, err, provider.ErrOperationFailed, key)
		assert.False(t, v.Exists, key)

		err = p.Delete(ctx, key)
		var opErr *provider.OperationError
		require.True(t, errors.As(err, &opErr), key)
		assert.Equal(t, "delete", opErr.Op)
		assert.Equal(t, key, opErr.Key)
	}

	assert.NotContains(t, logs.String(), "client-secret")
}

func TestRestyLogger(t *testing.T) {
	t.Parallel()

	var debug, quiet bytes.Buffer
	secrets := []string{"s3cr3t-value"}

	newRestyLogger(logging.NewWithWriter(&debug, true, true), secrets).
		Warnf("GET https://vault.example/items?token=%s failed", "s3cr3t-value")
	newRestyLogger(logging.NewWithWriter(&quiet, false, true), secrets).
		Errorf("GET https://vault.example/items failed")
	newRestyLogger(nil, secrets).Debugf("no logger configured")

	assert.Contains(t, debug.String(), "level=debug")
	assert.Contains(t, debug.String(), "token=[REDACTED] failed")
	assert.NotContains(t, debug.String(), "s3cr3t-value")
	assert.Empty(t, quiet.String(), "resty output is debug only")
}

func TestErrorBodyRedactsCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("rejected " + r.Header.Get("Authorization") + " with client secret machine-secret"))
	}))
	t.Cleanup(srv.Close)

	rest, err := newRestClient(httpClientOptions{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	resp, err := rest.R().SetAuthToken("bearer-abc123").Get("/")
	require.NoError(t, err)

	body := errorBody(resp, "machine-secret")
	assert.Equal(t, "rejected Bearer [REDACTED] with client secret [REDACTED]", body)
}
