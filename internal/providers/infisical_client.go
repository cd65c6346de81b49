package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/systmms/secretsadapter/internal/logging"
	"github.com/systmms/secretsadapter/internal/providers/contracts"
)

const (
	infisicalLoginPath   = "/api/v1/auth/universal-auth/login"
	infisicalSecretsPath = "/api/v3/secrets/raw"
	infisicalSecretPath  = "/api/v3/secrets/raw/{name}"
	infisicalSecretType  = "shared"
)

// infisicalHTTPClient implements contracts.InfisicalClient over the Infisical REST API
type infisicalHTTPClient struct {
	rest         *resty.Client
	clientID     string
	clientSecret string
}

// newInfisicalHTTPClient creates a new HTTP client for Infisical
func newInfisicalHTTPClient(cfg InfisicalConfig, logger *logging.Logger) (*infisicalHTTPClient, error) {
	rest, err := newRestClient(httpClientOptions{
		BaseURL: cfg.SiteURL,
		Timeout: cfg.Timeout,
		Logger:  logger,
		Secrets: []string{cfg.ClientSecret},
	})
	if err != nil {
		return nil, err
	}

	return &infisicalHTTPClient{
		rest:         rest,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}, nil
}

type infisicalLoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	TokenType   string `json:"tokenType"`
}

type infisicalWriteRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Environment string `json:"environment"`
	SecretPath  string `json:"secretPath"`
	SecretValue string `json:"secretValue"`
	Type        string `json:"type"`
}

type infisicalDeleteRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Environment string `json:"environment"`
	SecretPath  string `json:"secretPath"`
	Type        string `json:"type"`
}

// Login authenticates using Universal Auth (Machine Identity)
func (c *infisicalHTTPClient) Login(ctx context.Context) (string, time.Duration, error) {
	var result infisicalLoginResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"clientId":     c.clientID,
			"clientSecret": c.clientSecret,
		}).
		SetResult(&result).
		Post(infisicalLoginPath)
	if err := c.check("auth", resp, err); err != nil {
		return "", 0, err
	}
	if result.AccessToken == "" {
		return "", 0, &InfisicalError{Op: "auth", Message: "response has no access token"}
	}

	return result.AccessToken, time.Duration(result.ExpiresIn) * time.Second, nil
}

// GetSecret retrieves a single secret by name
func (c *infisicalHTTPClient) GetSecret(ctx context.Context, token string, scope contracts.InfisicalScope, name string) (*contracts.InfisicalSecret, error) {
	var result struct {
		Secret contracts.InfisicalSecret `json:"secret"`
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("name", name).
		SetQueryParams(scopeQuery(scope)).
		SetResult(&result).
		Get(infisicalSecretPath)
	if err := c.check("get", resp, err); err != nil {
		return nil, err
	}
	return &result.Secret, nil
}

// CreateSecret creates a shared secret
func (c *infisicalHTTPClient) CreateSecret(ctx context.Context, token string, scope contracts.InfisicalScope, name, value string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("name", name).
		SetBody(writeRequest(scope, value)).
		Post(infisicalSecretPath)
	return c.check("create", resp, err)
}

// UpdateSecret overwrites an existing shared secret
func (c *infisicalHTTPClient) UpdateSecret(ctx context.Context, token string, scope contracts.InfisicalScope, name, value string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("name", name).
		SetBody(writeRequest(scope, value)).
		Patch(infisicalSecretPath)
	return c.check("update", resp, err)
}

// DeleteSecret removes a shared secret
func (c *infisicalHTTPClient) DeleteSecret(ctx context.Context, token string, scope contracts.InfisicalScope, name string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("name", name).
		SetBody(infisicalDeleteRequest{
			WorkspaceID: scope.ProjectID,
			Environment: scope.Environment,
			SecretPath:  scope.SecretPath,
			Type:        infisicalSecretType,
		}).
		Delete(infisicalSecretPath)
	return c.check("delete", resp, err)
}

// ListSecrets lists the secrets under the scope's path
func (c *infisicalHTTPClient) ListSecrets(ctx context.Context, token string, scope contracts.InfisicalScope) ([]contracts.InfisicalSecret, error) {
	var result struct {
		Secrets []contracts.InfisicalSecret `json:"secrets"`
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(scopeQuery(scope)).
		SetResult(&result).
		Get(infisicalSecretsPath)
	if err := c.check("list", resp, err); err != nil {
		return nil, err
	}
	return result.Secrets, nil
}

func scopeQuery(scope contracts.InfisicalScope) map[string]string {
	return map[string]string{
		"workspaceId": scope.ProjectID,
		"environment": scope.Environment,
		"secretPath":  scope.SecretPath,
	}
}

func writeRequest(scope contracts.InfisicalScope, value string) infisicalWriteRequest {
	return infisicalWriteRequest{
		WorkspaceID: scope.ProjectID,
		Environment: scope.Environment,
		SecretPath:  scope.SecretPath,
		SecretValue: value,
		Type:        infisicalSecretType,
	}
}

// check converts a transport error or non-2xx response into *InfisicalError
func (c *infisicalHTTPClient) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &InfisicalError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}
	return &InfisicalError{
		Op:         op,
		StatusCode: resp.StatusCode(),
		Message:    infisicalErrorMessage(resp, c.clientSecret),
	}
}

// infisicalErrorMessage prefers the "message" field of the API's error body
func infisicalErrorMessage(resp *resty.Response, secrets ...string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		return logging.Redact(body.Message, secrets)
	}
	return errorBody(resp, secrets...)
}
