package fakes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/systmms/secretsadapter/internal/providers/contracts"
)

const fakeInfisicalToken = "fake-infisical-token"

// FakeInfisicalServer serves the universal-auth login and raw secrets endpoints
// of the Infisical REST API from memory. Secrets are not scoped.
type FakeInfisicalServer struct {
	*httptest.Server

	ClientID     string
	ClientSecret string

	mu      sync.Mutex
	secrets map[string]string
	logins  int
}

// NewFakeInfisicalServer starts a fake server; it is closed when the test ends
func NewFakeInfisicalServer(t interface{ Cleanup(func()) }, clientID, clientSecret string) *FakeInfisicalServer {
	f := &FakeInfisicalServer{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		secrets:      make(map[string]string),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

// SetSecret stores a secret directly
func (f *FakeInfisicalServer) SetSecret(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[name] = value
}

// Secret returns a stored secret
func (f *FakeInfisicalServer) Secret(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.secrets[name]
	return v, ok
}

// Logins returns the number of successful logins
func (f *FakeInfisicalServer) Logins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func writeFakeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *FakeInfisicalServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/api/v1/auth/universal-auth/login" {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["clientId"] != f.ClientID || body["clientSecret"] != f.ClientSecret {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]interface{}{"statusCode": 401, "message": "Invalid credentials"})
			return
		}
		f.logins++
		writeFakeJSON(w, http.StatusOK, map[string]interface{}{"accessToken": fakeInfisicalToken, "expiresIn": 7200, "tokenType": "Bearer"})
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+fakeInfisicalToken {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "Token missing"})
		return
	}

	const secretsPath = "/api/v3/secrets/raw"
	if r.URL.Path == secretsPath && r.Method == http.MethodGet {
		list := make([]contracts.InfisicalSecret, 0, len(f.secrets))
		for k, v := range f.secrets {
			list = append(list, contracts.InfisicalSecret{SecretKey: k, SecretValue: v})
		}
		writeFakeJSON(w, http.StatusOK, map[string]interface{}{"secrets": list})
		return
	}
	if !strings.HasPrefix(r.URL.Path, secretsPath+"/") {
		http.NotFound(w, r)
		return
	}

	var body struct {
		SecretValue string `json:"secretValue"`
	}
	if r.Method == http.MethodPost || r.Method == http.MethodPatch {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	name := strings.TrimPrefix(r.URL.Path, secretsPath+"/")
	value, exists := f.secrets[name]
	notFound := map[string]interface{}{"statusCode": 404, "message": "Secret with name '" + name + "' not found", "error": "NotFound"}
	ok := map[string]interface{}{"secret": map[string]interface{}{"secretKey": name}}

	switch r.Method {
	case http.MethodGet:
		if !exists {
			writeFakeJSON(w, http.StatusNotFound, notFound)
			return
		}
		writeFakeJSON(w, http.StatusOK, map[string]interface{}{"secret": map[string]interface{}{"secretKey": name, "secretValue": value, "type": "shared"}})
	case http.MethodPost:
		if exists {
			writeFakeJSON(w, http.StatusBadRequest, map[string]interface{}{"statusCode": 400, "message": "Secret already exist"})
			return
		}
		f.secrets[name] = body.SecretValue
		writeFakeJSON(w, http.StatusOK, ok)
	case http.MethodPatch:
		if !exists {
			writeFakeJSON(w, http.StatusNotFound, notFound)
			return
		}
		f.secrets[name] = body.SecretValue
		writeFakeJSON(w, http.StatusOK, ok)
	case http.MethodDelete:
		if !exists {
			writeFakeJSON(w, http.StatusNotFound, notFound)
			return
		}
		delete(f.secrets, name)
		writeFakeJSON(w, http.StatusOK, ok)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
