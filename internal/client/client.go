// Package client talks to a datalist host over HTTP: it fetches a table's
// form fields and runs lookups the way the browser script does.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"datalist/internal/introspect"
	"datalist/internal/lookup"
)

// LookupPath is the host route that answers lookups.
const LookupPath = "/api/lookup"

// maxBody caps how much of a response is read.
const maxBody = 16 << 20

// ErrTransport matches every *TransportError.
var ErrTransport = errors.New("transport error")

// TransportError reports a request that never produced a usable result.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// resultFragment finds a result envelope inside a response polluted by
// other output.
var resultFragment = regexp.MustCompile(`(\{"result[\s\S]+\}\]\})`)

// Client posts lookup payloads to a host.
type Client struct {
	BaseURL string // e.g. http://localhost:8080
	Field   string // reserved form field, lookup.DefaultField when empty
	HTTP    *http.Client
}

// New returns a client for baseURL with a 30s request timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Field:   lookup.DefaultField,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) field() string {
	if c.Field == "" {
		return lookup.DefaultField
	}
	return c.Field
}

// Fetch posts p form-encoded under the reserved field and decodes the
// answer. A non-200 status comes back as a sentinel result; only a request
// that fails or a body that cannot be decoded is an error.
func (c *Client) Fetch(ctx context.Context, p lookup.Payload) (lookup.Result, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + LookupPath
	raw, err := json.Marshal(p)
	if err != nil {
		return lookup.Result{}, &TransportError{Op: "encode", URL: endpoint, Err: err}
	}
	form := url.Values{c.field(): {string(raw)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return lookup.Result{}, &TransportError{Op: "post", URL: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return lookup.Result{}, &TransportError{Op: "post", URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return lookup.Result{}, &TransportError{Op: "read", URL: endpoint, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return lookup.ErrorResult(fmt.Sprintf("%s: %d", http.StatusText(resp.StatusCode), resp.StatusCode)), nil
	}

	res, err := decodeResult(body)
	if err != nil {
		return lookup.Result{}, &TransportError{Op: "decode", URL: endpoint, Err: err}
	}
	return res, nil
}

// decodeResult parses body, retrying on the first result fragment it holds.
func decodeResult(body []byte) (lookup.Result, error) {
	var res lookup.Result
	err := json.Unmarshal(body, &res)
	if err == nil {
		return res, nil
	}
	frag := resultFragment.Find(body)
	if frag == nil {
		return lookup.Result{}, err
	}
	if ferr := json.Unmarshal(frag, &res); ferr != nil {
		return lookup.Result{}, err
	}
	return res, nil
}

// Fields returns the host's edit form of table with annotations resolved.
func (c *Client) Fields(ctx context.Context, table string) (introspect.Form, error) {
	var form introspect.Form
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/fields/" + url.PathEscape(table)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return form, &TransportError{Op: "get", URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return form, &TransportError{Op: "get", URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return form, &TransportError{Op: "read", URL: endpoint, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		return form, &TransportError{Op: "get", URL: endpoint, Err: fmt.Errorf("%s: %s", resp.Status, msg)}
	}
	if err := json.Unmarshal(body, &form); err != nil {
		return form, &TransportError{Op: "decode", URL: endpoint, Err: err}
	}
	return form, nil
}
