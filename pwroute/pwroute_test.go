package pwroute

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/frk/compare"
	"github.com/playwright-community/playwright-go"

	"github.com/frk/httpmock"
)

// fakeRequest implements the parts of playwright.Request used by the handler.
type fakeRequest struct {
	playwright.Request
	method  string
	url     string
	body    []byte
	headers map[string]string
}

func (r *fakeRequest) Method() string                         { return r.method }
func (r *fakeRequest) URL() string                            { return r.url }
func (r *fakeRequest) PostDataBuffer() ([]byte, error)        { return r.body, nil }
func (r *fakeRequest) AllHeaders() (map[string]string, error) { return r.headers, nil }

// fakeRoute records how the playwright route was resolved.
type fakeRoute struct {
	playwright.Route
	req       *fakeRequest
	fulfilled *playwright.RouteFulfillOptions
	aborted   []string
	fallback  bool
}

func (r *fakeRoute) Request() playwright.Request { return r.req }

func (r *fakeRoute) Fulfill(opts ...playwright.RouteFulfillOptions) error {
	r.fulfilled = &opts[0]
	return nil
}

func (r *fakeRoute) Abort(codes ...string) error {
	r.aborted = codes
	return nil
}

func (r *fakeRoute) Fallback(opts ...playwright.RouteFallbackOptions) error {
	r.fallback = true
	return nil
}

func Test_Handler(t *testing.T) {
	r := httpmock.NewRouter(httpmock.WithLogger(log.New(io.Discard)))
	r.Route("*/**/api/order/menu", func(rt *httpmock.Route) error {
		return rt.Fulfill(httpmock.Response{
			Header: httpmock.Header{"Set-Cookie": {"a=1", "b=2"}},
			Body:   httpmock.JSON([]string{"Veggie"}),
		})
	})
	r.Route("*/**/api/auth", httpmock.OnMethod("PUT", func(rt *httpmock.Route) error {
		if err := rt.Expect(
			httpmock.HasHeader("Content-Type", "application/json"),
			httpmock.MatchJSON(map[string]string{"email": "d@jwt.com"}),
		); err != nil {
			return err
		}
		return rt.Abort(httpmock.AbortAccessDenied)
	}))

	h := Handler(context.Background(), r)

	menu := &fakeRoute{req: &fakeRequest{method: "GET", url: "http://localhost:5173/api/order/menu"}}
	h(menu)
	want := &playwright.RouteFulfillOptions{
		Status:  playwright.Int(200),
		Headers: map[string]string{"Set-Cookie": "a=1\nb=2", "Content-Type": "application/json"},
		Body:    []byte(`["Veggie"]`),
	}
	if e := compare.Compare(menu.fulfilled, want); e != nil {
		t.Error(e)
	}

	auth := &fakeRoute{req: &fakeRequest{method: "PUT", url: "http://localhost:5173/api/auth",
		body:    []byte(`{"email":"d@jwt.com","password":"a"}`),
		headers: map[string]string{"content-type": "application/json"},
	}}
	h(auth)
	if e := compare.Compare(auth.aborted, []string{"accessdenied"}); e != nil {
		t.Error(e)
	}

	// the logout request is not handled by the router
	logout := &fakeRoute{req: &fakeRequest{method: "DELETE", url: "http://localhost:5173/api/auth"}}
	h(logout)
	if !logout.fallback {
		t.Error("want fallback")
	}

	// the expectation fails, the request is aborted
	bad := &fakeRoute{req: &fakeRequest{method: "PUT", url: "http://localhost:5173/api/auth", body: []byte(`{}`)}}
	h(bad)
	if e := compare.Compare(bad.aborted, []string{"failed"}); e != nil {
		t.Error(e)
	}
	if !httpmock.IsAssertion(r.Err()) {
		t.Errorf("got %v, want assertion error", r.Err())
	}
}

func Test_flatten(t *testing.T) {
	got := flatten(http.Header{
		"Content-Type": {"application/json"},
		"Vary":         {"Origin", "Accept"},
		"Set-Cookie":   {"a=1", "b=2"},
	})
	want := map[string]string{
		"Content-Type": "application/json",
		"Vary":         "Origin, Accept",
		"Set-Cookie":   "a=1\nb=2",
	}
	if e := compare.Compare(got, want); e != nil {
		t.Error(e)
	}
}
