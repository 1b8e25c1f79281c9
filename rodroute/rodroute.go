// Package rodroute connects an httpmock.Router to a rod page by hijacking
// the page's requests.
package rodroute

import (
	"context"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/frk/httpmock"
)

// Install hijacks every request of the given page and dispatches it to r.
// The returned func stops the hijacking.
func Install(ctx context.Context, page *rod.Page, r *httpmock.Router) (stop func() error, err error) {
	router := page.Context(ctx).HijackRequests()
	if err := router.Add("*", "", Handler(ctx, r)); err != nil {
		return nil, err
	}
	go router.Run()
	return router.Stop, nil
}

// Handler returns a rod hijack handler that dispatches the request to r and
// resolves the hijacked request according to the Router's outcome.
func Handler(ctx context.Context, r *httpmock.Router) func(*rod.Hijack) {
	return func(h *rod.Hijack) {
		req, err := request(h.Request)
		if err != nil {
			r.Logger().Error("failed to read request", "err", err)
			h.Response.Fail(proto.NetworkErrorReasonFailed)
			return
		}

		out, _ := r.Dispatch(ctx, req)
		switch out.Action {
		case httpmock.ActionFulfill:
			h.Response.Payload().ResponseCode = out.StatusCode
			for k, vv := range out.Header {
				for _, v := range vv {
					h.Response.SetHeader(k, v)
				}
			}
			h.Response.SetBody(out.Body)
		case httpmock.ActionAbort:
			h.Response.Fail(ErrorReason(out.Reason))
		default:
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}
	}
}

func request(hr *rod.HijackRequest) (*httpmock.Request, error) {
	var body []byte
	if s := hr.Body(); s != "" {
		body = []byte(s)
	}
	req, err := httpmock.NewRequest(hr.Method(), hr.URL().String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = hr.Req().Header.Clone()
	return req, nil
}

// ErrorReason returns the network error reason for the given abort reason,
// unknown reasons map to proto.NetworkErrorReasonFailed.
func ErrorReason(reason string) proto.NetworkErrorReason {
	switch reason {
	case httpmock.AbortAborted:
		return proto.NetworkErrorReasonAborted
	case httpmock.AbortAccessDenied:
		return proto.NetworkErrorReasonAccessDenied
	case httpmock.AbortConnectionReset:
		return proto.NetworkErrorReasonConnectionReset
	case httpmock.AbortTimedOut:
		return proto.NetworkErrorReasonTimedOut
	}
	return proto.NetworkErrorReasonFailed
}

// Driver is an httpmock.Driver that opens a new page in the browser, with
// the Router installed, for every scenario.
type Driver struct {
	Browser *rod.Browser
}

// compiler check
var _ httpmock.Driver[*rod.Page] = (*Driver)(nil)

// Open implements the httpmock.Driver interface.
func (d *Driver) Open(ctx context.Context, r *httpmock.Router) (*rod.Page, func() error, error) {
	page, err := d.Browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, nil, err
	}
	stop, err := Install(ctx, page, r)
	if err != nil {
		_ = page.Close()
		return nil, nil, err
	}
	return page.Context(ctx), func() error {
		if err := stop(); err != nil {
			_ = page.Close()
			return err
		}
		return page.Close()
	}, nil
}
