// Package downlink delivers hex commands to stations through the network
// operator's downlink API.
package downlink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultURL is the Swisscom LPN ThingPark downlink endpoint.
const DefaultURL = "https://proxy1.lpn.swisscom.ch/thingpark/lrc/rest/downlink/"

// Defaults applied by NewClient.
const (
	DefaultFPort   = 1
	DefaultTimeout = 10 * time.Second
)

const maxReplyBytes = 64 << 10

// TransportError reports a failed downlink request.
type TransportError struct {
	DevEUI     string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("downlink to %s: %v", e.DevEUI, e.Err)
	}
	return fmt.Sprintf("downlink to %s: relay answered %d: %s", e.DevEUI, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Config holds the relay endpoint settings.
type Config struct {
	URL     string
	FPort   int
	Timeout time.Duration
}

// Client posts downlink commands to the relay. It never retries.
type Client struct {
	endpoint   string
	fport      int
	httpClient *http.Client
}

// NewClient builds a client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.FPort <= 0 {
		cfg.FPort = DefaultFPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   cfg.URL,
		fport:      cfg.FPort,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send queues payloadHex for devEUI and returns the relay's reply body.
//
// The relay takes DevEUI, FPORT and Payload as query parameters of an empty
// form POST.
func (c *Client) Send(ctx context.Context, devEUI, payloadHex string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", &TransportError{DevEUI: devEUI, Err: fmt.Errorf("parse endpoint: %w", err)}
	}
	q := u.Query()
	q.Set("DevEUI", devEUI)
	q.Set("FPORT", strconv.Itoa(c.fport))
	q.Set("Payload", payloadHex)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), http.NoBody)
	if err != nil {
		return "", &TransportError{DevEUI: devEUI, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{DevEUI: devEUI, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", &TransportError{DevEUI: devEUI, StatusCode: resp.StatusCode, Err: fmt.Errorf("read reply: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{DevEUI: devEUI, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}
