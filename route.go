package httpmock

import (
	"context"
	"net/http"
)

// Action is the terminal action taken for an intercepted request.
type Action uint8

const (
	// The request was let through to the network.
	ActionPassthrough Action = iota
	// The request was fulfilled with a canned response.
	ActionFulfill
	// The request was aborted, the page observes a network error.
	ActionAbort
)

func (a Action) String() string {
	switch a {
	case ActionPassthrough:
		return "passthrough"
	case ActionFulfill:
		return "fulfill"
	case ActionAbort:
		return "abort"
	}
	return "unknown"
}

// Common abort reasons, they correspond to the network error codes
// understood by the browser drivers.
const (
	AbortFailed          = "failed"
	AbortAborted         = "aborted"
	AbortAccessDenied    = "accessdenied"
	AbortConnectionReset = "connectionreset"
	AbortTimedOut        = "timedout"
)

// Outcome describes the terminal action of a dispatched request.
type Outcome struct {
	Action Action
	// The response to fulfill the request with, if Action is ActionFulfill.
	StatusCode int
	Header     http.Header
	Body       []byte
	// The network error reason, if Action is ActionAbort.
	Reason string
}

type routeState uint8

const (
	statePending routeState = iota
	stateFulfill
	stateFallback
	stateContinue
	stateAbort
)

// Route is handed to a Handler and is used to resolve the intercepted request.
type Route struct {
	ctx     context.Context
	req     *Request
	pattern string
	state   routeState
	out     Outcome
}

// Request returns the intercepted request.
func (rt *Route) Request() *Request { return rt.req }

// Context returns the context of the dispatch.
func (rt *Route) Context() context.Context { return rt.ctx }

// Pattern returns the pattern of the route whose handler is being invoked.
func (rt *Route) Pattern() string { return rt.pattern }

// Fulfill resolves the route with the given response. The response body is
// encoded immediately, so any state it refers to is read at dispatch time.
func (rt *Route) Fulfill(resp Response) error {
	if rt.state != statePending {
		return ErrRouteHandled
	}
	status, header, body, err := resp.encode()
	if err != nil {
		return &testError{code: errFulfillEncode, req: rt.req, pattern: rt.pattern, err: err}
	}
	rt.state = stateFulfill
	rt.out = Outcome{Action: ActionFulfill, StatusCode: status, Header: header, Body: body}
	return nil
}

// FulfillJSON resolves the route with a 200 response whose body is v encoded as json.
func (rt *Route) FulfillJSON(v interface{}) error {
	return rt.Fulfill(Response{Body: JSON(v)})
}

// Fallback declines the request, the next older matching route will be
// tried and, if there are none left, the request goes to the network.
func (rt *Route) Fallback() error {
	if rt.state != statePending {
		return ErrRouteHandled
	}
	rt.state = stateFallback
	return nil
}

// Continue sends the request to the network, skipping any remaining routes.
func (rt *Route) Continue() error {
	if rt.state != statePending {
		return ErrRouteHandled
	}
	rt.state = stateContinue
	return nil
}

// Abort resolves the route by failing the request with the given reason,
// if the reason is empty AbortFailed is used.
func (rt *Route) Abort(reason string) error {
	if rt.state != statePending {
		return ErrRouteHandled
	}
	if reason == "" {
		reason = AbortFailed
	}
	rt.state = stateAbort
	rt.out = Outcome{Action: ActionAbort, Reason: reason}
	return nil
}

// Expect checks the intercepted request against the given expectations and
// returns the error of the first one that is not met. The returned error
// should be returned by the handler, which fails the request and the
// scenario that made it.
func (rt *Route) Expect(ee ...Expectation) error {
	for _, e := range ee {
		if err := e(rt.req); err != nil {
			if te, ok := err.(*testError); ok {
				te.req = rt.req
				te.pattern = rt.pattern
			}
			return err
		}
	}
	return nil
}
