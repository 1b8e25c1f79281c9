// Package mockfile loads route definitions from yaml files so that a Router
// can be scripted without writing Go code, e.g. by "pizzamock serve".
//
// A mock file looks like this:
//
//	offline: true
//	routes:
//	  - pattern: "*/**/api/order/menu"
//	    method: GET
//	    json: [{"id": 1, "title": "Veggie", "price": 0.0038}]
//	  - pattern: "*/**/api/auth"
//	    method: PUT
//	    expect:
//	      json: {"email": "d@jwt.com", "password": "a"}
//	    json: {"user": {"id": 3, "name": "Kai Chen"}, "token": "abcdef"}
//	    times: 1
//	  - pattern: "*/**/api/docs"
//	    abort: failed
//
// Routes are registered in the order in which they appear in the file, a
// later route therefore takes precedence over an earlier one.
package mockfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frk/httpmock"
)

// File is the content of a mock file.
type File struct {
	// If true the Router treats requests not fulfilled by any
	// route as failures instead of letting them through.
	Offline bool    `yaml:"offline,omitempty"`
	Routes  []Route `yaml:"routes"`
}

// Route is a single route definition.
type Route struct {
	// The glob pattern of the route.
	Pattern string `yaml:"pattern"`
	// If set, the route serves only requests with this method.
	Method string `yaml:"method,omitempty"`
	// The status code of the response, 200 if omitted.
	Status int `yaml:"status,omitempty"`
	// The headers of the response.
	Headers map[string]string `yaml:"headers,omitempty"`
	// The response body, at most one of JSON and Text may be set.
	JSON interface{} `yaml:"json,omitempty"`
	Text *string     `yaml:"text,omitempty"`
	// If set, the request is aborted with this reason instead of fulfilled.
	Abort string `yaml:"abort,omitempty"`
	// The number of times the route serves a request, 0 means no limit.
	Times int `yaml:"times,omitempty"`
	// The time to wait before the response is sent.
	Delay Duration `yaml:"delay,omitempty"`
	// The expectations the request must meet.
	Expect Expect `yaml:"expect,omitempty"`
}

// Expect lists the expectations of a route. Multiple values of
// a query parameter are separated by a comma.
type Expect struct {
	JSON    interface{}       `yaml:"json,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Query   map[string]string `yaml:"query,omitempty"`
}

// Duration is a time.Duration that can be unmarshaled from a duration
// string, e.g. "250ms", or from a number of milliseconds.
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: delay must be a scalar", value.Line)
	}
	if ms, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load reads and parses the mock file at the given path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("mockfile: %s: %w", path, err)
	}
	return f, nil
}

// Parse parses and validates the mock file read from r. Unknown fields are an error.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	f := new(File)
	if err := dec.Decode(f); err != nil && err != io.EOF {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate reports all of the invalid route definitions of the file.
func (f *File) Validate() error {
	var errs []error
	for i, rr := range f.Routes {
		if err := rr.validate(); err != nil {
			errs = append(errs, fmt.Errorf("routes[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (rr Route) validate() error {
	if rr.Pattern == "" {
		return errors.New("pattern is required")
	}
	if _, err := httpmock.ParseGlob(rr.Pattern); err != nil {
		return err
	}
	if rr.JSON != nil && rr.Text != nil {
		return errors.New("json and text are mutually exclusive")
	}
	if rr.Abort != "" && (rr.JSON != nil || rr.Text != nil || rr.Status != 0) {
		return errors.New("abort cannot be combined with a response")
	}
	if rr.Status != 0 && (rr.Status < 100 || rr.Status > 599) {
		return fmt.Errorf("invalid status %d", rr.Status)
	}
	if rr.Times < 0 {
		return fmt.Errorf("invalid times %d", rr.Times)
	}
	return nil
}

// Options returns the Router options of the file.
func (f *File) Options() (opts []httpmock.Option) {
	if f.Offline {
		opts = append(opts, httpmock.Offline())
	}
	return opts
}

// Install registers the file's routes on r.
func (f *File) Install(r *httpmock.Router) {
	for _, rr := range f.Routes {
		opts := []httpmock.RouteOption{httpmock.Times(rr.Times)}
		if rr.Method != "" {
			opts = append(opts, httpmock.ForMethod(rr.Method))
		}
		r.Route(rr.Pattern, rr.handler(), opts...)
	}
}

func (rr Route) handler() httpmock.Handler {
	ee := rr.Expect.expectations()

	resp := httpmock.Response{StatusCode: rr.Status}
	if len(rr.Headers) > 0 {
		resp.Header = httpmock.Header{}
		for k, v := range rr.Headers {
			resp.Header[k] = []string{v}
		}
	}
	switch {
	case rr.JSON != nil:
		resp.Body = httpmock.JSON(rr.JSON)
	case rr.Text != nil:
		resp.Body = httpmock.Text(*rr.Text)
	}

	return func(rt *httpmock.Route) error {
		if err := rt.Expect(ee...); err != nil {
			return err
		}
		if rr.Delay > 0 {
			t := time.NewTimer(time.Duration(rr.Delay))
			defer t.Stop()
			select {
			case <-t.C:
			case <-rt.Context().Done():
				return rt.Context().Err()
			}
		}
		if rr.Abort != "" {
			return rt.Abort(rr.Abort)
		}
		return rt.Fulfill(resp)
	}
}

func (e Expect) expectations() (ee []httpmock.Expectation) {
	if len(e.Headers) > 0 {
		h := httpmock.Header{}
		for k, v := range e.Headers {
			h[k] = []string{v}
		}
		ee = append(ee, httpmock.MatchHeader(h))
	}
	if len(e.Query) > 0 {
		q := httpmock.Query{}
		for k, v := range e.Query {
			q[k] = strings.Split(v, ",")
		}
		ee = append(ee, httpmock.MatchQuery(q))
	}
	if e.JSON != nil {
		ee = append(ee, httpmock.MatchJSON(e.JSON))
	}
	return ee
}

// Record returns a File whose routes replay the fulfilled and aborted
// exchanges, each route serves its request exactly once. Exchanges that
// were let through to the network are replayed only if they have a
// recorded response.
func Record(xs []*httpmock.Exchange) *File {
	f := &File{Offline: true}
	for _, x := range xs {
		if x.Err != nil {
			continue
		}

		rr := Route{Pattern: escapeGlob(x.Request.URL.String()), Method: x.Request.Method, Times: 1}
		switch x.Action {
		case httpmock.ActionAbort:
			rr.Abort = x.Reason
		case httpmock.ActionFulfill:
			rr.Status = x.StatusCode
			setBody(&rr, x.Header.Get("Content-Type"), x.Body)
		default:
			continue
		}
		f.Routes = append(f.Routes, rr)
	}

	// later routes take precedence, replay requests to the
	// same url in the order in which they were recorded
	for i, j := 0, len(f.Routes)-1; i < j; i, j = i+1, j-1 {
		f.Routes[i], f.Routes[j] = f.Routes[j], f.Routes[i]
	}
	return f
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `{`, `\{`, `}`, `\}`)

// escapeGlob returns a glob pattern that matches s literally.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

func setBody(rr *Route, contentType string, body []byte) {
	if len(body) == 0 {
		return
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt == "application/json" {
		var v interface{}
		if err := json.Unmarshal(body, &v); err == nil && v != nil {
			rr.JSON = v
			return
		}
	}
	if mt != "" && mt != "text/plain" {
		rr.Headers = map[string]string{"Content-Type": contentType}
	}
	text := string(body)
	rr.Text = &text
}

// Encode writes the file to w as yaml.
func (f *File) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}
