package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/vocdoni/confidential-transfers/api"
	"github.com/vocdoni/confidential-transfers/log"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = http.MethodGet
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = http.MethodPost

	errCodeNot200 = "API error"

	// DefaultRetries is the number of attempts of a request that fails
	// before reaching the server.
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client
	DefaultTimeout = 10 * time.Second

	retryDelay   = 500 * time.Millisecond
	maxLoggedLen = 512
)

// HTTPclient is the ledger API HTTP client.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
}

// New returns a client for the API at host, after checking it answers the
// ping endpoint.
func New(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	c := &HTTPclient{
		c: &http.Client{
			Transport: &http.Transport{IdleConnTimeout: DefaultTimeout},
			Timeout:   DefaultTimeout,
		},
		host:    hostURL,
		retries: DefaultRetries,
	}
	data, status, err := c.Request(HTTPGET, nil, api.PingEndpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	log.Debugw("http client created", "host", hostURL.String())
	return c, nil
}

// SetRetries sets the number of attempts per request, at least one.
func (c *HTTPclient) SetRetries(n int) {
	c.retries = max(n, 1)
}

// SetTimeout sets the timeout of each attempt.
func (c *HTTPclient) SetTimeout(d time.Duration) {
	c.c.Timeout = d
	if tr, ok := c.c.Transport.(*http.Transport); ok {
		tr.ResponseHeaderTimeout = d
	}
}

// Request sends a request to the endpoint built by joining urlPath to the
// host, with jsonBody encoded as JSON if not nil. It returns the response body
// and status code. Only requests that do not reach the server are retried, an
// error status is returned as is.
func (c *HTTPclient) Request(method string, jsonBody any, urlPath ...string) ([]byte, int, error) {
	var body []byte
	if jsonBody != nil {
		var err error
		if body, err = json.Marshal(jsonBody); err != nil {
			return nil, 0, fmt.Errorf("could not encode request: %w", err)
		}
	}
	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	log.Debugw("http client request", "method", method, "url", u.String(), "body", truncate(body))

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := http.NewRequest(method, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, 0, fmt.Errorf("could not create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.c.Do(req)
		if err != nil {
			lastErr = err
			log.Warnw("http request failed", "error", err, "attempt", attempt, "retries", c.retries)
			if attempt < c.retries {
				time.Sleep(retryDelay)
			}
			continue
		}
		data, err := io.ReadAll(resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnw("could not close response body", "error", cerr)
		}
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("could not read response: %w", err)
		}
		return data, resp.StatusCode, nil
	}
	return nil, 0, fmt.Errorf("request failed after %d attempts: %w", c.retries, lastErr)
}

func truncate(body []byte) string {
	if len(body) > maxLoggedLen {
		return string(body[:maxLoggedLen]) + "..."
	}
	return string(body)
}
