// Package pwroute connects an httpmock.Router to a playwright page, or
// browser context, so that the requests issued by the page are dispatched
// to the Router's routes.
package pwroute

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/frk/httpmock"
)

// AllURLs is the pattern with which the Router is installed, every
// request of the page is passed to the Router.
const AllURLs = "**/*"

// Install installs r on the given page.
func Install(ctx context.Context, page playwright.Page, r *httpmock.Router) error {
	return page.Route(AllURLs, Handler(ctx, r))
}

// InstallContext installs r on every page of the given browser context.
func InstallContext(ctx context.Context, bc playwright.BrowserContext, r *httpmock.Router) error {
	return bc.Route(AllURLs, Handler(ctx, r))
}

// Handler returns a playwright route handler that dispatches the request to r
// and resolves the playwright route according to the Router's outcome. Requests
// let through by the Router fall back to any other handler registered with
// playwright, or to the network.
func Handler(ctx context.Context, r *httpmock.Router) func(playwright.Route) {
	return func(route playwright.Route) {
		req, err := request(route.Request())
		if err != nil {
			r.Logger().Error("failed to read request", "err", err)
			_ = route.Abort(httpmock.AbortFailed)
			return
		}

		// a failed dispatch is recorded by the Router and reported by the
		// scenario, the outcome in that case is an abort
		out, _ := r.Dispatch(ctx, req)
		if err := resolve(route, out); err != nil {
			r.Logger().Warn("failed to resolve route", "request", req.String(), "action", out.Action, "err", err)
		}
	}
}

func request(pr playwright.Request) (*httpmock.Request, error) {
	body, err := pr.PostDataBuffer()
	if err != nil {
		return nil, err
	}
	req, err := httpmock.NewRequest(pr.Method(), pr.URL(), body)
	if err != nil {
		return nil, err
	}

	headers, err := pr.AllHeaders()
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func resolve(route playwright.Route, out httpmock.Outcome) error {
	switch out.Action {
	case httpmock.ActionFulfill:
		return route.Fulfill(playwright.RouteFulfillOptions{
			Status:  playwright.Int(out.StatusCode),
			Headers: flatten(out.Header),
			Body:    out.Body,
		})
	case httpmock.ActionAbort:
		return route.Abort(out.Reason)
	}
	return route.Fallback()
}

// flatten joins multiple header values with a comma, with the exception of
// Set-Cookie whose values are joined with a newline.
func flatten(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k, vv := range h {
		sep := ", "
		if k == "Set-Cookie" {
			sep = "\n"
		}
		m[k] = strings.Join(vv, sep)
	}
	return m
}

// Driver is an httpmock.Driver that opens a fresh browser context, with the
// Router installed, and a page in it for every scenario.
type Driver struct {
	Browser playwright.Browser
	// The options used to create the browser context, e.g. the BaseURL.
	ContextOptions playwright.BrowserNewContextOptions
	// The default timeout of the page's actions, if 0 playwright's default is used.
	Timeout time.Duration
}

// compiler check
var _ httpmock.Driver[playwright.Page] = (*Driver)(nil)

// Open implements the httpmock.Driver interface.
func (d *Driver) Open(ctx context.Context, r *httpmock.Router) (playwright.Page, func() error, error) {
	bc, err := d.Browser.NewContext(d.ContextOptions)
	if err != nil {
		return nil, nil, err
	}
	if err := InstallContext(ctx, bc, r); err != nil {
		_ = bc.Close()
		return nil, nil, err
	}

	page, err := bc.NewPage()
	if err != nil {
		_ = bc.Close()
		return nil, nil, err
	}
	if d.Timeout > 0 {
		page.SetDefaultTimeout(float64(d.Timeout.Milliseconds()))
	}
	return page, func() error { return bc.Close() }, nil
}

// Launch starts playwright and launches the named browser, one of "chromium",
// "firefox", or "webkit". The returned func closes the browser and stops playwright.
func Launch(name string, headless bool) (playwright.Browser, func() error, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, nil, err
	}

	bt := pw.Chromium
	switch name {
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(headless)})
	if err != nil {
		_ = pw.Stop()
		return nil, nil, err
	}
	return b, func() error {
		if err := b.Close(); err != nil {
			_ = pw.Stop()
			return err
		}
		return pw.Stop()
	}, nil
}
