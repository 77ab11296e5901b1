package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/models"
)

// GatewayClient sends requests to the store REST API.
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

func NewGatewayClient(baseURL string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root the client talks to.
func (g *GatewayClient) BaseURL() string {
	return g.baseURL
}

func (g *GatewayClient) Do(ctx context.Context, method, path string, query url.Values, headers http.Header, body io.Reader) (*http.Response, error) {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	req.Header.Set("Accept", "application/json")

	return g.client.Do(req)
}

// Envelope is the API's response wrapper.
type Envelope struct {
	Data       json.RawMessage    `json:"data"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Message    string             `json:"message,omitempty"`
	Errors     json.RawMessage    `json:"errors,omitempty"`
}

// errorText flattens the API's errors field, which is a string, a list of
// strings or an object of field messages depending on the endpoint.
func (e Envelope) errorText() string {
	if len(e.Errors) > 0 {
		var s string
		if json.Unmarshal(e.Errors, &s) == nil && s != "" {
			return s
		}
		var list []string
		if json.Unmarshal(e.Errors, &list) == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
		var fields map[string]any
		if json.Unmarshal(e.Errors, &fields) == nil && len(fields) > 0 {
			parts := make([]string, 0, len(fields))
			for k, v := range fields {
				parts = append(parts, fmt.Sprintf("%s: %v", k, v))
			}
			sort.Strings(parts)
			return strings.Join(parts, "; ")
		}
	}
	return e.Message
}

// DecodeEnvelope reads resp into an Envelope and unmarshals its data into out
// (when out is non-nil). Non-2xx statuses become Fetch errors carrying the
// API's message.
func DecodeEnvelope(resp *http.Response, out any) (*Envelope, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Fetch(resp.StatusCode, "", fmt.Errorf("read upstream body: %w", err))
	}

	var env Envelope
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &env); err != nil && resp.StatusCode < 400 {
			return nil, apperrors.Fetch(resp.StatusCode, "", fmt.Errorf("decode upstream body: %w", err))
		}
	}

	if resp.StatusCode >= 400 {
		return &env, apperrors.Fetch(resp.StatusCode, env.errorText(),
			fmt.Errorf("upstream error: status=%d", resp.StatusCode))
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &env, apperrors.Fetch(resp.StatusCode, "", fmt.Errorf("decode upstream data: %w", err))
		}
	}
	return &env, nil
}

func BodyFromBytes(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return bytes.NewReader(b)
}
