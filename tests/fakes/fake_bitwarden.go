package fakes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/systmms/secretsadapter/internal/providers/contracts"
)

// FakeBitwardenServer serves GET /api/ciphers from an in-memory item list.
type FakeBitwardenServer struct {
	*httptest.Server

	// APIKey is the bearer token the server accepts
	APIKey string

	// Envelope wraps the item list in {"object":"list","data":[...]} when true
	Envelope bool

	// Status, when non-zero, is returned instead of the item list
	Status int

	// Body, when non-empty, is written verbatim instead of the item list
	Body string

	mu       sync.Mutex
	items    []contracts.BitwardenItem
	requests atomic.Int32
}

// NewFakeBitwardenServer starts a fake server; it is closed when the test ends
func NewFakeBitwardenServer(t interface{ Cleanup(func()) }, apiKey string) *FakeBitwardenServer {
	f := &FakeBitwardenServer{APIKey: apiKey}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

// AddItem appends an item to the vault
func (f *FakeBitwardenServer) AddItem(item contracts.BitwardenItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
}

// AddLogin appends a login item with the given password
func (f *FakeBitwardenServer) AddLogin(name, password string) {
	f.AddItem(contracts.BitwardenItem{
		Name:  name,
		Login: &contracts.BitwardenLogin{Password: password},
	})
}

// Requests returns the number of requests served
func (f *FakeBitwardenServer) Requests() int {
	return int(f.requests.Load())
}

func (f *FakeBitwardenServer) handle(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)

	if r.Header.Get("Authorization") != "Bearer "+f.APIKey {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet || r.URL.Path != "/api/ciphers" {
		http.NotFound(w, r)
		return
	}
	if f.Status != 0 {
		http.Error(w, `{"message":"server error"}`, f.Status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if f.Body != "" {
		_, _ = w.Write([]byte(f.Body))
		return
	}

	f.mu.Lock()
	items := append([]contracts.BitwardenItem(nil), f.items...)
	f.mu.Unlock()
	if items == nil {
		items = []contracts.BitwardenItem{}
	}

	var payload interface{} = items
	if f.Envelope {
		payload = map[string]interface{}{"object": "list", "data": items}
	}
	_ = json.NewEncoder(w).Encode(payload)
}
