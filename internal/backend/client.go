// Package backend is the client for the hospital platform REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/pkg/ctxlog"
	"github.com/bissquit/mediconnect-console/internal/pkg/metrics"
	"github.com/sony/gobreaker"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultMaxFailures      = 5
	defaultOpenTimeout      = 30 * time.Second
	defaultHalfOpenRequests = 1

	maxErrorBody = 64 << 10
)

// Config holds backend client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
}

// BreakerConfig tunes the circuit breaker around platform calls.
type BreakerConfig struct {
	MaxFailures      uint32        // consecutive failures before opening
	OpenTimeout      time.Duration // how long the breaker stays open
	HalfOpenRequests uint32        // probes allowed while half-open
}

// Cookie is one platform session cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Credentials are the platform session cookies replayed on every call.
type Credentials []Cookie

// Client calls the platform API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a new platform API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend client: base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Breaker.MaxFailures == 0 {
		cfg.Breaker.MaxFailures = defaultMaxFailures
	}
	if cfg.Breaker.OpenTimeout == 0 {
		cfg.Breaker.OpenTimeout = defaultOpenTimeout
	}
	if cfg.Breaker.HalfOpenRequests == 0 {
		cfg.Breaker.HalfOpenRequests = defaultHalfOpenRequests
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker("platform-api", cfg.Breaker),
	}, nil
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// CurrentUser asks the platform which role the credentials belong to.
func (c *Client) CurrentUser(ctx context.Context, creds Credentials) (domain.Role, error) {
	var body struct {
		Role string `json:"role"`
	}

	if _, err := c.do(ctx, "current_user", http.MethodGet, "/auth/me", creds, nil, &body); err != nil {
		return "", err
	}

	role, err := domain.ParseRole(body.Role)
	if err != nil {
		return "", fmt.Errorf("%w: role %q: %w", ErrMalformedResponse, body.Role, err)
	}
	return role, nil
}

// Login submits credentials and returns the session cookies the platform set.
func (c *Client) Login(ctx context.Context, req LoginRequest) (Credentials, error) {
	resp, err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, req, nil)
	if err != nil {
		return nil, err
	}

	creds := make(Credentials, 0, len(resp.cookies))
	for _, ck := range resp.cookies {
		if ck.Value == "" || ck.MaxAge < 0 {
			continue
		}
		creds = append(creds, Cookie{Name: ck.Name, Value: ck.Value})
	}
	return creds, nil
}

// RegisterHospital creates a hospital and returns the identifier the platform assigned.
func (c *Client) RegisterHospital(ctx context.Context, creds Credentials, draft domain.HospitalDraft) (string, error) {
	var body struct {
		Hospital struct {
			ID string `json:"_id"`
		} `json:"hospital"`
	}

	if _, err := c.do(ctx, "register_hospital", http.MethodPost, "/systemAdmin/register-hospital", creds, draft, &body); err != nil {
		return "", err
	}

	if body.Hospital.ID == "" {
		return "", fmt.Errorf("%w: hospital id missing", ErrMalformedResponse)
	}
	return body.Hospital.ID, nil
}

type registerAdminRequest struct {
	domain.AdminDraft
	HospitalID string `json:"hospitalID"`
}

// RegisterHospitalAdmin creates the administrator account for a hospital.
func (c *Client) RegisterHospitalAdmin(ctx context.Context, creds Credentials, draft domain.AdminDraft, hospitalID string) error {
	req := registerAdminRequest{AdminDraft: draft, HospitalID: hospitalID}
	_, err := c.do(ctx, "register_hospital_admin", http.MethodPost, "/systemAdmin/register-hospitalAdmin", creds, req, nil)
	return err
}

type response struct {
	status  int
	cookies []*http.Cookie
}

// do performs one call through the circuit breaker. Transport failures and
// 5xx responses count against the breaker; 4xx responses do not.
func (c *Client) do(ctx context.Context, op, method, path string, creds Credentials, in, out any) (*response, error) {
	start := time.Now()

	var payload io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range creds {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	var rejected *APIError
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 300 {
			apiErr := readAPIError(resp)
			if resp.StatusCode >= 500 {
				return nil, apiErr
			}
			rejected = apiErr
			return &response{status: resp.StatusCode}, nil
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
			}
		}
		return &response{status: resp.StatusCode, cookies: resp.Cookies()}, nil
	})

	outcome := "ok"
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	}()

	var apiErr *APIError
	switch {
	case err == nil && rejected != nil:
		outcome = "rejected"
		return nil, rejected
	case err == nil:
		return result.(*response), nil
	case errors.As(err, &apiErr):
		outcome = "error"
		ctxlog.FromContext(ctx).Warn("platform call failed", "operation", op, "status", apiErr.Status, "message", apiErr.Message)
		return nil, apiErr
	case errors.Is(err, ErrMalformedResponse):
		outcome = "error"
		return nil, fmt.Errorf("%s: %w", op, err)
	default:
		outcome = "unavailable"
		ctxlog.FromContext(ctx).Warn("platform unreachable", "operation", op, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
}

func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Msg
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}
