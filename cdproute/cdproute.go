// Package cdproute connects an httpmock.Router to a chromedp browser tab
// using the Fetch domain of the Chrome DevTools Protocol.
package cdproute

import (
	"context"
	"encoding/base64"
	"sort"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/frk/httpmock"
)

// Install enables request interception in the tab of the given chromedp
// context and dispatches every paused request to r.
func Install(ctx context.Context, r *httpmock.Router) error {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if ev, ok := ev.(*fetch.EventRequestPaused); ok {
			// the listener must not block, the request is resolved
			// with a command sent to the tab
			go handle(ctx, r, ev)
		}
	})
	return chromedp.Run(ctx, fetch.Enable().WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}}))
}

func handle(ctx context.Context, r *httpmock.Router, ev *fetch.EventRequestPaused) {
	var act chromedp.Action
	if req, err := Request(ev); err != nil {
		r.Logger().Error("failed to read request", "err", err)
		act = fetch.FailRequest(ev.RequestID, network.ErrorReasonFailed)
	} else {
		out, _ := r.Dispatch(ctx, req)
		act = Resolve(ev.RequestID, out)
	}

	c := chromedp.FromContext(ctx)
	if err := act.Do(cdp.WithExecutor(ctx, c.Target)); err != nil {
		r.Logger().Warn("failed to resolve request", "request", ev.Request.URL, "err", err)
	}
}

// Request returns the httpmock.Request of the paused request.
func Request(ev *fetch.EventRequestPaused) (*httpmock.Request, error) {
	var body []byte
	for _, e := range ev.Request.PostDataEntries {
		b, err := base64.StdEncoding.DecodeString(e.Bytes)
		if err != nil {
			return nil, err
		}
		body = append(body, b...)
	}

	req, err := httpmock.NewRequest(ev.Request.Method, ev.Request.URL+ev.Request.URLFragment, body)
	if err != nil {
		return nil, err
	}
	for k, v := range ev.Request.Headers {
		if s, ok := v.(string); ok {
			req.Header.Set(k, s)
		}
	}
	return req, nil
}

// Resolve returns the command that resolves the paused request according
// to the given outcome.
func Resolve(id fetch.RequestID, out httpmock.Outcome) chromedp.Action {
	switch out.Action {
	case httpmock.ActionFulfill:
		keys := make([]string, 0, len(out.Header))
		for k := range out.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		headers := []*fetch.HeaderEntry{}
		for _, k := range keys {
			for _, v := range out.Header[k] {
				headers = append(headers, &fetch.HeaderEntry{Name: k, Value: v})
			}
		}
		return fetch.FulfillRequest(id, int64(out.StatusCode)).
			WithResponseHeaders(headers).
			WithBody(base64.StdEncoding.EncodeToString(out.Body))
	case httpmock.ActionAbort:
		return fetch.FailRequest(id, ErrorReason(out.Reason))
	}
	return fetch.ContinueRequest(id)
}

// ErrorReason returns the network error reason for the given abort reason,
// unknown reasons map to network.ErrorReasonFailed.
func ErrorReason(reason string) network.ErrorReason {
	switch reason {
	case httpmock.AbortAborted:
		return network.ErrorReasonAborted
	case httpmock.AbortAccessDenied:
		return network.ErrorReasonAccessDenied
	case httpmock.AbortConnectionReset:
		return network.ErrorReasonConnectionReset
	case httpmock.AbortTimedOut:
		return network.ErrorReasonTimedOut
	}
	return network.ErrorReasonFailed
}

// Driver is an httpmock.Driver that opens a new tab, with the Router
// installed, in the browser of the given allocator context for every scenario.
type Driver struct {
	// A context created with chromedp.NewContext, or with one of the
	// allocator constructors, whose browser the tabs are opened in.
	Browser context.Context
}

// compiler check
var _ httpmock.Driver[context.Context] = (*Driver)(nil)

// Open implements the httpmock.Driver interface. The returned page is the
// chromedp context of the new tab, to be passed to chromedp.Run.
func (d *Driver) Open(ctx context.Context, r *httpmock.Router) (context.Context, func() error, error) {
	tab, cancel := chromedp.NewContext(d.Browser)
	if err := Install(tab, r); err != nil {
		cancel()
		return nil, nil, err
	}
	return tab, func() error {
		cancel()
		return nil
	}, nil
}
