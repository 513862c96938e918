// Package lambda adapts the HTTP router to AWS API Gateway proxy events.
package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

// HandlerFunc is the signature accepted by lambda.Start.
type HandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewHandler returns a Lambda handler that serves each proxy event through h.
func NewHandler(h http.Handler) HandlerFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		httpReq, err := toHTTPRequest(ctx, req)
		if err != nil {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusBadRequest,
				Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
				Body:       `{"error":"Bad Request"}`,
			}, nil
		}

		w := newResponseWriter()
		h.ServeHTTP(w, httpReq)
		return w.proxyResponse(), nil
	}
}

// toHTTPRequest converts a proxy event into an *http.Request. Base64
// bodies are decoded.
func toHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 body: %w", err)
		}
		body = decoded
	}

	path := req.Path
	if path == "" {
		path = "/"
	}
	u := url.URL{Path: path, RawQuery: queryString(req).Encode()}

	method := req.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.MultiValueHeaders {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
	}
	if ip := req.RequestContext.Identity.SourceIP; ip != "" {
		httpReq.RemoteAddr = ip + ":0"
		if httpReq.Header.Get("X-Forwarded-For") == "" {
			httpReq.Header.Set("X-Forwarded-For", ip)
		}
	}
	httpReq.ContentLength = int64(len(body))
	return httpReq, nil
}

func queryString(req events.APIGatewayProxyRequest) url.Values {
	q := url.Values{}
	for k, v := range req.QueryStringParameters {
		q.Set(k, v)
	}
	for k, vs := range req.MultiValueQueryStringParameters {
		q[k] = append([]string(nil), vs...)
	}
	return q
}

// responseWriter buffers a response so it can be returned as a proxy event.
type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: http.Header{}}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.body.Write(p)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) proxyResponse() events.APIGatewayProxyResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           make(map[string]string, len(w.header)),
		MultiValueHeaders: make(map[string][]string, len(w.header)),
	}
	for k, vs := range w.header {
		resp.Headers[k] = strings.Join(vs, ",")
		resp.MultiValueHeaders[k] = vs
	}

	if utf8.Valid(w.body.Bytes()) {
		resp.Body = w.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}
