package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrProviderUnavailable signals that the external content provider could not
// serve a render call. The orchestrator degrades to the minimal intervention
// instead of failing the request.
var ErrProviderUnavailable = errors.New("content provider unavailable")

// #region provider-interface
// Provider resolves a message slot plus parameters into final text.
// Rendering is a pure lookup/format operation on the provider side.
type Provider interface {
	Render(ctx context.Context, slotID string, params map[string]string) (string, error)
}

// #endregion provider-interface

// #region http-provider
// HTTPProvider renders slots against a remote content service.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider for the given base URL.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	SlotID string            `json:"slot_id"`
	Params map[string]string `json:"params,omitempty"`
}

type renderResponse struct {
	Text string `json:"text"`
}

// Render posts the slot and parameters to the provider's /render endpoint.
// Transport failures and 5xx responses surface as ErrProviderUnavailable.
func (p *HTTPProvider) Render(ctx context.Context, slotID string, params map[string]string) (string, error) {
	body, err := json.Marshal(renderRequest{SlotID: slotID, Params: params})
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: provider returned %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("render slot %s: unexpected status %d", slotID, resp.StatusCode)
	}

	var rr renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", fmt.Errorf("decode render response: %w", err)
	}
	return rr.Text, nil
}

// #endregion http-provider
