package helper

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

const netlifyPrefix = "/.netlify/functions/"

// functionRoutes maps the per-function paths of the Netlify deployment onto
// the router.
var functionRoutes = map[string]string{
	"auth-login":         "/api/auth/login",
	"time-clock-in":      "/api/time/clock-in",
	"time-clock-out":     "/api/time/clock-out",
	"time-status":        "/api/time/status",
	"time-entries":       "/api/time/entries",
	"time-summary":       "/api/time/summary",
	"admin-login":        "/api/admin/login",
	"admin-time-entries": "/api/admin/time-entries",
	"admin-dashboard":    "/api/admin/dashboard",
	"admin-settings":     "/api/admin/settings",
	"admin-employees":    "/api/admin/employees",
}

// RoutePath rewrites a Netlify function path to its API route. Other paths are
// returned unchanged.
func RoutePath(path string) string {
	if !strings.HasPrefix(path, netlifyPrefix) {
		return path
	}
	name, rest, _ := strings.Cut(strings.TrimPrefix(path, netlifyPrefix), "/")
	route, ok := functionRoutes[name]
	if !ok {
		return path
	}
	if rest != "" {
		route += "/" + rest
	}
	return route
}

// NewRequest converts a proxy event into an http.Request.
func NewRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	query := url.Values{}
	for k, vs := range event.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range event.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}
	u := url.URL{Path: RoutePath(event.Path), RawQuery: query.Encode()}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		body = decoded
	}

	method := event.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range event.MultiValueHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range event.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	if ip := event.RequestContext.Identity.SourceIP; ip != "" {
		req.RemoteAddr = ip + ":0"
	}
	if id := event.RequestContext.RequestID; id != "" && req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", id)
	}
	req.ContentLength = int64(len(body))
	return req, nil
}

// Serve runs event through handler and captures the proxy response. Binary
// bodies, such as workbook exports, are base64 encoded.
func Serve(ctx context.Context, handler http.Handler, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := NewRequest(ctx, event)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"success":false,"error":"Invalid request body"}`,
		}, nil
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	res := rec.Result()
	defer res.Body.Close()

	out := events.APIGatewayProxyResponse{
		StatusCode:        res.StatusCode,
		Headers:           map[string]string{},
		MultiValueHeaders: map[string][]string{},
	}
	for k, vs := range res.Header {
		out.Headers[k] = strings.Join(vs, ", ")
		out.MultiValueHeaders[k] = vs
	}

	raw := rec.Body.Bytes()
	if isText(res.Header.Get("Content-Type")) && utf8.Valid(raw) {
		out.Body = string(raw)
	} else {
		out.Body = base64.StdEncoding.EncodeToString(raw)
		out.IsBase64Encoded = true
	}
	return out, nil
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.HasPrefix(ct, "text/") || strings.Contains(ct, "json")
}
