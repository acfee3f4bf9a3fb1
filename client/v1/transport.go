package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Response mirrors the API envelope.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIError is a non-2xx reply. Message is the envelope's error text when the
// server sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Transport handles low-level HTTP and authentication
type Transport struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

func NewTransport(baseURL, token string) *Transport {
	return &Transport{
		BaseURL:    baseURL,
		AuthToken:  token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// helper: build full URL with query params
func (t *Transport) buildURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(t.BaseURL + path)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (t *Transport) Get(ctx context.Context, path string, query url.Values, out any) error {
	return t.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends data as JSON. A nil data sends no body.
func (t *Transport) Post(ctx context.Context, path string, data any, out any) error {
	return t.do(ctx, http.MethodPost, path, nil, data, out)
}

// do sends the request and decodes the envelope's data into out.
func (t *Transport) do(ctx context.Context, method, path string, query url.Values, data any, out any) error {
	fullURL, err := t.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if t.AuthToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.AuthToken))
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	envelope := Response[json.RawMessage]{}
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode >= 300 {
		msg := envelope.Error
		if decodeErr != nil || msg == "" {
			msg = string(raw)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, decodeErr)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}
