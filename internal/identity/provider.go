package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// AttributeUpdate carries the token attributes to push to the identity
// provider. Nil fields are left untouched; empty strings clear the
// attribute (used when exiting a tenancy).
type AttributeUpdate struct {
	Role       *string `json:"role,omitempty"`
	TenantID   *string `json:"tenant_id,omitempty"`
	TenantName *string `json:"tenant_name,omitempty"`
}

// Provider updates user attributes at the external identity provider.
// The platform treats every call as best-effort: failures are logged
// and surfaced as advisories, never retried automatically, and never
// roll back already-committed membership or tenant writes. The update
// is idempotent, so a later switch or login reconciles any miss.
type Provider interface {
	UpdateUserAttributes(ctx context.Context, username string, update AttributeUpdate) error
}

type httpProvider struct {
	baseURL      string
	serviceToken string
	client       *http.Client
}

// NewHTTPProvider talks to the identity provider's admin attributes
// endpoint using a service bearer token.
func NewHTTPProvider(baseURL, serviceToken string) Provider {
	return &httpProvider{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *httpProvider) UpdateUserAttributes(ctx context.Context, username string, update AttributeUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode attribute update: %w", err)
	}

	endpoint := fmt.Sprintf("%s/admin/users/%s/attributes", p.baseURL, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build attribute update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.serviceToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

type noopProvider struct{}

// NewNoopProvider logs attribute updates without calling out. Used in
// development and tests when no identity provider is configured.
func NewNoopProvider() Provider {
	return noopProvider{}
}

func (noopProvider) UpdateUserAttributes(_ context.Context, username string, update AttributeUpdate) error {
	log.Printf("identity: skipping attribute update for %s (no provider configured)", username)
	_ = update
	return nil
}
