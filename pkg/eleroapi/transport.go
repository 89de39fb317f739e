package eleroapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Encoding selects how a request body is serialized
type Encoding int

const (
	// EncodingJSON sends the body as application/json
	EncodingJSON Encoding = iota
	// EncodingForm sends the body as application/x-www-form-urlencoded
	EncodingForm
)

// Request describes a single call made through a Transport
type Request struct {
	Method   string
	URL      string
	Body     any // JSON value, or url.Values / map[string]string for EncodingForm
	Encoding Encoding
	Header   http.Header
}

// Transport performs one HTTP request per call over a reusable http.Client.
// It never retries.
type Transport struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTransport wraps httpClient. A nil httpClient gets a fresh client with its own
// connection pool; a nil logger discards output.
func NewTransport(httpClient *http.Client, logger *zap.Logger) *Transport {
	if httpClient == nil {
		httpClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{httpClient: httpClient, logger: logger}
}

// Do performs req and decodes the JSON response body into dest (which may be nil).
//
// Any status other than 200 yields a KindRequest error carrying the response body.
// Transport failures yield a KindAPI error and are logged with the failing URL.
func (t *Transport) Do(ctx context.Context, req Request, dest any) error {
	body, contentType, err := encodeBody(req.Body, req.Encoding)
	if err != nil {
		return &Error{Kind: KindRequest, Message: "failed to encode request body", URL: req.URL, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return &Error{Kind: KindRequest, Message: "failed to create request", URL: req.URL, Err: err}
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	t.logger.Debug("Sending request",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
	)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.logger.Error("Connection failed. Is eleropi running over network?",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return NewAPIError(req.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logger.Error("Connection failed while reading response",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return NewAPIError(req.URL, err)
	}

	if resp.StatusCode != http.StatusOK {
		t.logger.Debug("Unexpected response status",
			zap.String("url", req.URL),
			zap.Int("status", resp.StatusCode),
		)
		return NewStatusError(req.URL, resp.StatusCode, decodeDiagnostic(payload))
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return &Error{
			Kind:    KindRequest,
			Message: fmt.Sprintf("failed to decode response from %s", req.URL),
			URL:     req.URL,
			Body:    string(payload),
			Err:     err,
		}
	}

	return nil
}

// encodeBody serializes body according to enc. A nil body sends nothing.
func encodeBody(body any, enc Encoding) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}

	switch enc {
	case EncodingForm:
		var form url.Values
		switch v := body.(type) {
		case url.Values:
			form = v
		case map[string]string:
			form = url.Values{}
			for key, value := range v {
				form.Set(key, value)
			}
		default:
			return nil, "", fmt.Errorf("form body must be url.Values or map[string]string, got %T", body)
		}
		return strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil

	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// decodeDiagnostic returns the JSON-decoded payload, or the raw text when it is not JSON
func decodeDiagnostic(payload []byte) any {
	if len(payload) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(payload, &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(payload))
}
