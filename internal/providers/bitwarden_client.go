package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/systmms/secretsadapter/internal/logging"
	"github.com/systmms/secretsadapter/internal/providers/contracts"
)

const bitwardenCiphersPath = "/api/ciphers"

// bitwardenHTTPClient implements contracts.BitwardenClient over the Bitwarden REST API
type bitwardenHTTPClient struct {
	rest *resty.Client
}

// newBitwardenHTTPClient creates a client that authenticates every request with the API key
func newBitwardenHTTPClient(cfg BitwardenConfig, logger *logging.Logger) (*bitwardenHTTPClient, error) {
	rest, err := newRestClient(httpClientOptions{
		BaseURL:            cfg.ServerURL,
		Timeout:            cfg.Timeout,
		CACert:             cfg.CACert,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Logger:             logger,
		Secrets:            []string{cfg.APIKey},
	})
	if err != nil {
		return nil, err
	}
	rest.SetAuthToken(cfg.APIKey)

	return &bitwardenHTTPClient{rest: rest}, nil
}

// ListItems fetches every vault item visible to the token
func (c *bitwardenHTTPClient) ListItems(ctx context.Context) ([]contracts.BitwardenItem, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		Get(bitwardenCiphersPath)
	if err != nil {
		return nil, &BitwardenError{Op: "list", Err: err}
	}
	if resp.IsError() {
		return nil, &BitwardenError{
			Op:         "list",
			StatusCode: resp.StatusCode(),
			Message:    errorBody(resp),
		}
	}

	items, err := decodeBitwardenItems(resp.Body())
	if err != nil {
		return nil, &BitwardenError{Op: "list", Message: "malformed response", Err: err}
	}
	return items, nil
}

// decodeBitwardenItems accepts either a bare item array or the list envelope
// {"object": "list", "data": [...]}.
func decodeBitwardenItems(body []byte) ([]contracts.BitwardenItem, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var items []contracts.BitwardenItem
	if body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope struct {
		Data *[]contracts.BitwardenItem `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("response has no data array")
	}
	return *envelope.Data, nil
}
