package pizzamock

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/frk/httpmock"
)

const baseURL = "http://localhost:5173"

func testRouter(opts ...httpmock.Option) *httpmock.Router {
	opts = append([]httpmock.Option{httpmock.WithLogger(log.New(io.Discard))}, opts...)
	return httpmock.NewRouter(opts...)
}

type noNetwork struct{}

func (noNetwork) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("no network")
}

// storefront issues the requests the storefront would issue.
type storefront struct {
	t     *testing.T
	c     *http.Client
	token string
}

func newStorefront(t *testing.T, r *httpmock.Router) *storefront {
	return &storefront{t: t, c: &http.Client{Transport: r.Transport(noNetwork{})}}
}

// do sends the request and decodes the response body into out, if not nil.
func (s *storefront) do(method, path string, in, out interface{}) (status int, err error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	res, err := s.c.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("%s %s: %w", method, path, err)
		}
	}
	return res.StatusCode, nil
}

// must is like do but fails the test on error or on a non 200 status.
func (s *storefront) must(method, path string, in, out interface{}) {
	s.t.Helper()
	status, err := s.do(method, path, in, out)
	if err != nil {
		s.t.Fatal(err)
	}
	if status != http.StatusOK {
		s.t.Fatalf("%s %s: got status %d", method, path, status)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func mustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
