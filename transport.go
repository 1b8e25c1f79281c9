package httpmock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Transport returns an http.RoundTripper that dispatches the requests of an
// http.Client to the Router. Requests that are let through to the network
// are sent using next, if next is nil http.DefaultTransport is used.
func (r *Router) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{r: r, next: next}
}

type transport struct {
	r    *Router
	next http.RoundTripper
}

func (t *transport) RoundTrip(hr *http.Request) (*http.Response, error) {
	req, err := requestFromHTTP(hr)
	if err != nil {
		return nil, err
	}

	out, err := t.r.Dispatch(hr.Context(), req)
	if err != nil {
		return nil, err
	}

	switch out.Action {
	case ActionFulfill:
		return &http.Response{
			Status:        strconv.Itoa(out.StatusCode) + " " + http.StatusText(out.StatusCode),
			StatusCode:    out.StatusCode,
			Proto:         "HTTP/1.1",
			ProtoMajor:    1,
			ProtoMinor:    1,
			Header:        out.Header,
			Body:          io.NopCloser(bytes.NewReader(out.Body)),
			ContentLength: int64(len(out.Body)),
			Request:       hr,
		}, nil
	case ActionAbort:
		return nil, fmt.Errorf("httpmock: %s aborted: %s", req, out.Reason)
	}
	return t.next.RoundTrip(hr)
}

// ServeHTTP implements the http.Handler interface, which allows the Router to
// serve as a scripted backend. The request's full URL is reconstructed from
// its Host header and TLS state before it is dispatched.
//
// Requests let through to the network are forwarded to the upstream set with
// WithUpstream. Without an upstream such a request is answered with 404 and
// recorded as a failure.
func (r *Router) ServeHTTP(w http.ResponseWriter, hr *http.Request) {
	req, err := requestFromHTTP(hr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := r.Dispatch(hr.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	switch out.Action {
	case ActionFulfill:
		for k, vv := range out.Header {
			for _, v := range vv {
				w.Header().Add(k, v)
			}
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
		w.WriteHeader(out.StatusCode)
		_, _ = w.Write(out.Body)
	case ActionAbort:
		// a server cannot emulate a network error, hijack and
		// close the connection if possible
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return
			}
		}
		writeError(w, http.StatusBadGateway, fmt.Errorf("aborted: %s", out.Reason))
	default:
		if r.upstream != nil {
			r.upstream.ServeHTTP(w, hr)
			return
		}
		err := &testError{code: errRouteUnmatched, req: req}
		r.mu.Lock()
		r.failures = append(r.failures, err)
		r.mu.Unlock()
		writeError(w, http.StatusNotFound, err)
	}
}

// writeError writes err as the json message the storefront's API responds
// with on failure.
func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": StripColor(err.Error())})
}
