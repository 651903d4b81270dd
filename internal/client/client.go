// Package client is the HTTP adapter for the booking API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"

	"bookerbdd/internal/config"
	"bookerbdd/pkg/logging"
)

const maxPreviewLength = 500

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &DecodeError{StatusCode: r.StatusCode, Body: r.Preview(), Err: err}
	}
	return nil
}

// Preview returns the body as text, truncated for error messages.
func (r *Response) Preview() string {
	s := string(r.Body)
	if len(s) > maxPreviewLength {
		return s[:maxPreviewLength] + "..."
	}
	return s
}

// Client talks to one booking API deployment.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client for the configured base URL. Every request is bounded
// by the configured timeout.
func New(cfg config.APIConfig) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.RequestTimeout
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = config.DefaultRequestTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping calls the health check endpoint.
func (c *Client) Ping(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/ping", nil, "")
}

// CreateBooking submits a new booking.
func (c *Client) CreateBooking(ctx context.Context, b Booking) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/booking", b, "")
}

// ListBookings returns booking ids, optionally narrowed by name.
func (c *Client) ListBookings(ctx context.Context, f Filter) (*Response, error) {
	path := "/booking"
	q := url.Values{}
	if f.Firstname != "" {
		q.Set("firstname", f.Firstname)
	}
	if f.Lastname != "" {
		q.Set("lastname", f.Lastname)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// GetBooking reads one booking.
func (c *Client) GetBooking(ctx context.Context, id int) (*Response, error) {
	return c.do(ctx, http.MethodGet, bookingPath(id), nil, "")
}

// UpdateBooking replaces a booking. Requires a token.
func (c *Client) UpdateBooking(ctx context.Context, id int, b Booking, token string) (*Response, error) {
	return c.do(ctx, http.MethodPut, bookingPath(id), b, token)
}

// PatchBooking partially updates a booking. Requires a token.
func (c *Client) PatchBooking(ctx context.Context, id int, p BookingPatch, token string) (*Response, error) {
	return c.do(ctx, http.MethodPatch, bookingPath(id), p, token)
}

// DeleteBooking removes a booking. Requires a token.
func (c *Client) DeleteBooking(ctx context.Context, id int, token string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, bookingPath(id), nil, token)
}

// Authenticate exchanges credentials for a session token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth", authRequest{Username: username, Password: password}, "")
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &AuthStatusError{StatusCode: resp.StatusCode}
	}

	var ar authResponse
	if err := resp.Decode(&ar); err != nil {
		return "", err
	}
	if ar.Token == "" {
		if ar.Reason != "" {
			return "", fmt.Errorf("%w: %s", ErrBadCredentials, ar.Reason)
		}
		return "", ErrBadCredentials
	}
	return ar.Token, nil
}

func bookingPath(id int) string {
	return "/booking/" + strconv.Itoa(id)
}

// do performs one blocking round trip. There is no retry: a transport failure
// is returned to the caller as *TransportError.
func (c *Client) do(ctx context.Context, method, path string, body any, token string) (*Response, error) {
	fullURL := c.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("building request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Cookie", "token="+token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: method, URL: fullURL, Err: err}
		}
	}

	logging.Debug("Client", "%s %s", method, fullURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: fullURL, Err: fmt.Errorf("reading response body: %w", err)}
	}
	logging.Debug("Client", "%s %s -> %d", method, fullURL, resp.StatusCode)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
