package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

// ErrDecode is returned when a response body is not valid JSON.
var ErrDecode = errors.New("failed to decode response body")

// Raw is the minimal view of an HTTP response.
type Raw interface {
	StatusCode() int
	// Status is the code followed by its reason phrase, e.g. "200 OK".
	Status() string
	Header() http.Header
	Body() []byte
}

// JSONer exposes the decoded JSON document of a response.
type JSONer interface {
	JSON() (any, error)
}

// Response is a Raw response with a JSON accessor.
type Response interface {
	Raw
	JSONer
}

// HTTPResponse is a fully read HTTP response.
type HTTPResponse struct {
	statusCode int
	status     string
	header     http.Header
	body       []byte

	once sync.Once
	json any
	err  error
}

// New builds a response from its parts. The status line is derived from code.
func New(code int, header http.Header, body []byte) *HTTPResponse {
	if header == nil {
		header = http.Header{}
	}
	return &HTTPResponse{
		statusCode: code,
		status:     statusLine(code),
		header:     header,
		body:       body,
	}
}

// FromHTTP reads and closes the body of resp.
func FromHTTP(resp *http.Response) (*HTTPResponse, error) {
	if resp == nil {
		return nil, errors.New("response: nil *http.Response")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	status := resp.Status
	if status == "" {
		status = statusLine(resp.StatusCode)
	}
	return &HTTPResponse{
		statusCode: resp.StatusCode,
		status:     status,
		header:     resp.Header.Clone(),
		body:       body,
	}, nil
}

func (r *HTTPResponse) StatusCode() int     { return r.statusCode }
func (r *HTTPResponse) Status() string      { return r.status }
func (r *HTTPResponse) Header() http.Header { return r.header }
func (r *HTTPResponse) Body() []byte        { return r.body }

// JSON decodes the body once and caches the result. Responses whose
// Content-Type is not JSON yield nil without error.
func (r *HTTPResponse) JSON() (any, error) {
	r.once.Do(func() {
		r.json, r.err = decodeJSON(r)
	})
	return r.json, r.err
}

func (r *HTTPResponse) String() string {
	return fmt.Sprintf("<Response %d bytes [%s]>", len(r.body), r.status)
}

// Wrap returns raw as a Response. A raw value that already provides a JSON
// accessor is returned unchanged.
func Wrap(raw Raw) Response {
	if r, ok := raw.(Response); ok {
		return r
	}
	return &wrapped{Raw: raw}
}

// Unwrap returns the Raw value a Response was built from.
func Unwrap(r Response) Raw {
	if w, ok := r.(*wrapped); ok {
		return w.Raw
	}
	return r
}

type wrapped struct {
	Raw

	once sync.Once
	json any
	err  error
}

func (w *wrapped) JSON() (any, error) {
	w.once.Do(func() {
		w.json, w.err = decodeJSON(w.Raw)
	})
	return w.json, w.err
}

// Decode unmarshals the body of r into v regardless of its Content-Type.
func Decode(r Raw, v any) error {
	if err := json.Unmarshal(r.Body(), v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// Text returns the body of r as a string.
func Text(r Raw) string {
	return string(r.Body())
}

// IsJSON reports whether the Content-Type of r is application/json or a +json type.
func IsJSON(r Raw) bool {
	mt, _, err := mime.ParseMediaType(r.Header().Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func decodeJSON(r Raw) (any, error) {
	if !IsJSON(r) {
		return nil, nil
	}
	var v any
	if err := Decode(r, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func statusLine(code int) string {
	return strings.TrimSpace(fmt.Sprintf("%d %s", code, http.StatusText(code)))
}
