package httpmock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// The Request type is a read-only view of an intercepted, in-flight HTTP request.
type Request struct {
	// The request's HTTP method, upper-cased, e.g. "GET" or "PUT".
	Method string
	// The full URL of the request.
	URL *url.URL
	// The request's header.
	Header http.Header
	// The raw request body, nil if the request has no body.
	Body []byte
}

// NewRequest returns a new Request for the given method, raw url, and body.
func NewRequest(method, rawURL string, body []byte) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method: strings.ToUpper(method),
		URL:    u,
		Header: make(http.Header),
		Body:   body,
	}, nil
}

// requestFromHTTP reads the given *http.Request into a Request. The body of
// r is consumed and replaced with an in-memory copy so that r can still be
// forwarded to the network.
func requestFromHTTP(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(r.Body); err != nil {
			return nil, err
		}
		r.Body.Close()
		body = buf.Bytes()
		r.Body = readCloser{bytes.NewReader(body)}
	}

	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
	}

	return &Request{
		Method: strings.ToUpper(r.Method),
		URL:    &u,
		Header: r.Header.Clone(),
		Body:   body,
	}, nil
}

// PostData returns the request body as a string.
func (r *Request) PostData() string {
	return string(r.Body)
}

// PostDataJSON decodes the request's JSON body into v.
func (r *Request) PostDataJSON(v interface{}) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("httpmock: %s %s has no body", r.Method, r.URL)
	}
	return json.Unmarshal(r.Body, v)
}

// JSON returns the request's body decoded into a generic JSON value.
func (r *Request) JSON() (interface{}, error) {
	var v interface{}
	if err := r.PostDataJSON(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// String returns the "METHOD URL" form of the request.
func (r *Request) String() string {
	return r.Method + " " + r.URL.String()
}

// Response describes the canned response used to fulfill an intercepted request.
type Response struct {
	// The HTTP status code, if left 0 it will default to 200.
	StatusCode int
	// The HTTP header to be sent with the response.
	Header Header
	// The response body.
	Body Body
}

// encode returns the status code, header, and body bytes of the response.
// If the header doesn't specify a Content-Type the one from the Body is used.
func (r Response) encode() (status int, header http.Header, body []byte, err error) {
	status = r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	header = make(http.Header)
	for k, vv := range r.Header {
		for _, v := range vv {
			header.Add(k, v)
		}
	}

	if r.Body != nil {
		rd, err := r.Body.Reader()
		if err != nil {
			return 0, nil, nil, err
		}
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(rd); err != nil {
			return 0, nil, nil, err
		}
		body = buf.Bytes()

		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", r.Body.ContentType())
		}
	}
	return status, header, body, nil
}

// A Header represents the key-value pairs in an HTTP header.
type Header map[string][]string

// The HeaderGetter returns an http.Header.
type HeaderGetter interface {
	GetHeader() http.Header
}

// compiler check
var _ HeaderGetter = Header(nil)

// GetHeader returns the Header as an http.Header with canonicalized keys.
func (h Header) GetHeader() http.Header {
	out := make(http.Header, len(h))
	for k, vv := range h {
		for _, v := range vv {
			out.Add(k, v)
		}
	}
	return out
}

// The QueryEncoder returns a string of query parameters in the "URL encoded" form.
type QueryEncoder interface {
	QueryEncode() string
}

// Query is a QueryEncoder that returns its' contents encoded into "URL encoded" form.
type Query url.Values

// compiler check
var _ QueryEncoder = Query(nil)

// QueryEncode encodes the Query's underlying values into "URL encoded"
// form. QueryEncode uses net/url's Values.Encode to encode the values,
// see the net/url documentation for more info.
func (q Query) QueryEncode() string {
	return url.Values(q).Encode()
}

// The ParamSetter substitutes the placeholders of a route pattern with parameter values.
//
// SetParams should return a copy of the given pattern with all of its placeholders
// replaced with actual parameter values. How the placeholders should be demarcated
// in the pattern depends on the implementation of the interface.
type ParamSetter interface {
	SetParams(pattern string) string
}

// Params is a ParamSetter that substitues a pattern's placeholders with
// its mapped values. The Params' keys represent the placeholders while the values
// are the actual parameters to be used to substitue those placeholders.
type Params map[string]interface{}

// compiler check
var _ ParamSetter = Params(nil)

// SetParams returns a copy of the given pattern replacing all of its placeholders
// with the actual parameter values contained in Params. The placeholders, used as
// keys to get the corresponding parameter values, are expected to be demarcated
// with curly braces; e.g.
//
//	pattern := "*/**/api/franchise/{franchise_id}/store"
//	params := Params{"franchise_id": 2}
//	fmt.Println(params.SetParams(pattern))
//	// outputs "*/**/api/franchise/2/store"
//
// Braces that enclose a comma, like the glob alternation "{a,b}", are
// left untouched.
func (pp Params) SetParams(pattern string) (path string) {
	var i, j int

	for {
		if i = strings.IndexByte(pattern, '{'); i > -1 {
			if j = strings.IndexByte(pattern[i:], '}'); j > -1 {
				j += i
				key := pattern[i+1 : j]
				if strings.IndexByte(key, ',') > -1 {
					path += pattern[:j+1]
				} else if v, ok := pp[key]; ok {
					path += pattern[:i] + fmt.Sprintf("%v", v)
				} else {
					path += pattern[:i]
				}
				pattern = pattern[j+1:]
				continue
			}
		}
		break
	}
	return path + pattern
}

type readCloser struct{ *bytes.Reader }

func (readCloser) Close() error { return nil }
