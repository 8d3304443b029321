// Package apiclient talks to the production backend. Every call sends the
// X-Token secret, decodes the {success, data, error, message} envelope and
// validates the decoded data before handing it back.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diewo77/cobbler-crm/auth"
	"github.com/diewo77/cobbler-crm/internal/config"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader is set to a fresh uuid on every call.
const RequestIDHeader = "X-Request-ID"

// ErrInvalidPayload matches every *PayloadError.
var ErrInvalidPayload = errors.New("apiclient: invalid payload")

// APIError is a non-2xx response or an envelope with success=false.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// PayloadError is returned when the response data does not match the
// declared model.
type PayloadError struct {
	Path string
	Err  error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("apiclient: invalid payload from %s: %v", e.Path, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

func (e *PayloadError) Is(target error) bool { return target == ErrInvalidPayload }

type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	log      *logrus.Logger
	validate *validator.Validate
}

func New(cfg config.APIConfig, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		log:      log,
		validate: validator.New(),
	}
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// do sends one request and returns the decoded envelope of a successful
// response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	env, err := c.send(ctx, method, path, query, body)
	if err != nil && !IsNotFound(err) {
		config.LogError(c.log, "apiclient", method+" "+path, "request failed", nil, err)
	}
	return env, err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(auth.TokenHeader, c.token)
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: read %s: %w", path, err)
	}
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok && len(bytes.TrimSpace(raw)) == 0 {
		return &envelope{Success: true}, nil
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if !ok || (decodeErr == nil && !env.Success) {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
		if apiErr.Message == "" {
			apiErr.Message = env.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, &PayloadError{Path: path, Err: decodeErr}
	}
	return &env, nil
}

// decodeOne unmarshals and validates a single record.
func decodeOne[T any](c *Client, path string, env *envelope) (*T, error) {
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, c.payloadError(path, err)
	}
	if err := c.validate.Struct(&v); err != nil {
		return nil, c.payloadError(path, err)
	}
	return &v, nil
}

// decodeList unmarshals and validates every element of a list. A missing
// or null list decodes as empty.
func decodeList[T any](c *Client, path string, env *envelope) ([]T, error) {
	items := []T{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, c.payloadError(path, err)
		}
	}
	for i := range items {
		if err := c.validate.Struct(&items[i]); err != nil {
			return nil, c.payloadError(path, fmt.Errorf("item %d: %w", i, err))
		}
	}
	return items, nil
}

func (c *Client) payloadError(path string, err error) error {
	perr := &PayloadError{Path: path, Err: err}
	c.log.WithFields(logrus.Fields{"module": "apiclient", "path": path}).WithError(err).Error("invalid payload")
	return perr
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T
	Total      int
	Page       int
	Limit      int
	TotalPages int
}
