package httpmock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// A Handler handles an intercepted request that matched the handler's route.
//
// The handler must resolve the route exactly once by invoking one of the
// Route's Fulfill, Fallback, Continue, or Abort methods. A handler that
// returns a non-nil error, e.g. the one returned by Route.Expect, fails the
// request: the failure is recorded on the Router and the request is aborted.
type Handler func(rt *Route) error

// OnMethod returns a Handler that invokes h if the request's method is equal
// to the given method, and falls back to the next matching route otherwise.
// OnMethod should be used whenever more than one handler is registered for the
// same pattern, so that each handler serves only the requests meant for it.
func OnMethod(method string, h Handler) Handler {
	method = strings.ToUpper(method)
	return func(rt *Route) error {
		if rt.Request().Method != method {
			return rt.Fallback()
		}
		return h(rt)
	}
}

// Router holds an ordered list of routes and dispatches intercepted requests
// to them. A Router is meant to be used by a single test scenario; it is
// safe for concurrent use by the browser driver's event goroutines.
type Router struct {
	log      *log.Logger
	offline  bool
	upstream *httputil.ReverseProxy

	mu        sync.Mutex
	seq       int
	routes    []*registration // oldest first
	exchanges []*Exchange
	failures  errorList
	watches   []*Watch
}

// An Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used to log the Router's dispatch decisions.
// Dispatch decisions are logged at the debug level.
func WithLogger(l *log.Logger) Option {
	return func(r *Router) { r.log = l }
}

// Offline configures the Router to treat a request that is not fulfilled by
// any route as a failure, instead of letting it through to the network.
func Offline() Option {
	return func(r *Router) { r.offline = true }
}

// WithUpstream sets the URL of the real backend to which the Router, when used
// as an http.Handler, forwards the requests that it lets through to the network.
func WithUpstream(u *url.URL) Option {
	return func(r *Router) { r.upstream = httputil.NewSingleHostReverseProxy(u) }
}

// NewRouter returns a new Router configured with the given options.
func NewRouter(opts ...Option) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = log.NewWithOptions(os.Stderr, log.Options{
			Level:  log.WarnLevel,
			Prefix: "httpmock",
		})
	}
	return r
}

// Logger returns the Router's logger.
func (r *Router) Logger() *log.Logger {
	return r.log
}

type registration struct {
	id     int
	m      Matcher
	method string
	h      Handler
	times  int
	calls  int
	done   bool
}

// A RouteOption configures a single route registration.
type RouteOption func(*registration)

// Times limits the number of times the route's handler will be invoked. After
// the handler has been invoked n times the route is removed. A value of 0 or
// less means no limit.
func Times(n int) RouteOption {
	return func(reg *registration) { reg.times = n }
}

// ForMethod restricts the route to requests with the given method. Unlike a
// handler wrapped with OnMethod, the route is not tried at all for requests
// with another method, so those requests do not count towards its Times limit.
func ForMethod(method string) RouteOption {
	method = strings.ToUpper(method)
	return func(reg *registration) { reg.method = method }
}

// Route registers the handler h for requests whose URL matches the given glob
// pattern, see Glob for the syntax. The returned func removes the route.
//
// Routes registered later take precedence over routes registered earlier;
// when a handler falls back, the next older matching route is tried.
func (r *Router) Route(pattern string, h Handler, opts ...RouteOption) (unroute func()) {
	return r.RouteMatcher(Glob(pattern), h, opts...)
}

// RouteMatcher is like Route but uses the given Matcher to match request URLs.
func (r *Router) RouteMatcher(m Matcher, h Handler, opts ...RouteOption) (unroute func()) {
	reg := &registration{m: m, h: h}
	for _, opt := range opts {
		opt(reg)
	}

	r.mu.Lock()
	r.seq += 1
	reg.id = r.seq
	r.routes = append(r.routes, reg)
	r.mu.Unlock()

	r.log.Debug("route registered", "pattern", m.String(), "id", reg.id)
	return func() { r.unroute(reg) }
}

func (r *Router) unroute(reg *registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg.done = true
	for i, x := range r.routes {
		if x == reg {
			r.routes = append(r.routes[:i:i], r.routes[i+1:]...)
			break
		}
	}
}

// UnrouteAll removes all of the Router's routes.
func (r *Router) UnrouteAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.routes {
		reg.done = true
	}
	r.routes = nil
}

// candidates returns the routes matching req, newest first.
func (r *Router) candidates(req *Request) (list []*registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.routes) - 1; i >= 0; i-- {
		reg := r.routes[i]
		if reg.method != "" && reg.method != req.Method {
			continue
		}
		if reg.m.Match(req.URL) {
			list = append(list, reg)
		}
	}
	return list
}

// claim reports whether reg may still be invoked and, if so, counts the invocation.
func (r *Router) claim(reg *registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg.done {
		return false
	}
	reg.calls += 1
	if reg.times > 0 && reg.calls >= reg.times {
		reg.done = true
		for i, x := range r.routes {
			if x == reg {
				r.routes = append(r.routes[:i:i], r.routes[i+1:]...)
				break
			}
		}
	}
	return true
}

// Dispatch passes the request to the handlers of the matching routes, most
// recently registered first, until one of them resolves it. The returned
// Outcome describes the terminal action that the caller, i.e. the browser
// driver or HTTP front-end, must perform. A non-nil error is also recorded
// as a failure on the Router, and in that case the Outcome is always an abort.
func (r *Router) Dispatch(ctx context.Context, req *Request) (Outcome, error) {
	x := &Exchange{ID: uuid.NewString(), Time: time.Now(), Request: req}

	out, err := r.dispatch(ctx, req, x)
	if err != nil {
		out = Outcome{Action: ActionAbort, Reason: AbortFailed}
	}
	x.Action = out.Action
	x.StatusCode = out.StatusCode
	x.Header = out.Header
	x.Body = out.Body
	x.Reason = out.Reason
	x.Err = err
	r.record(x)

	if err != nil {
		r.log.Error("request failed", "request", req.String(), "err", err)
	} else {
		r.log.Debug("request dispatched", "request", req.String(), "action", out.Action, "pattern", x.Pattern)
	}
	return out, err
}

func (r *Router) dispatch(ctx context.Context, req *Request, x *Exchange) (Outcome, error) {
	for _, reg := range r.candidates(req) {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if !r.claim(reg) {
			continue
		}

		pattern := reg.m.String()
		rt := &Route{ctx: ctx, req: req, pattern: pattern}
		if err := reg.call(rt); err != nil {
			x.Pattern = pattern
			return Outcome{}, routeError(err, req, pattern)
		}

		switch rt.state {
		case stateFallback:
			x.Fallbacks = append(x.Fallbacks, pattern)
			continue
		case stateFulfill, stateAbort:
			x.Pattern = pattern
			return rt.out, nil
		case stateContinue:
			x.Pattern = pattern
			return r.network(req)
		default:
			x.Pattern = pattern
			return Outcome{}, &testError{code: errRouteUnresolved, req: req, pattern: pattern}
		}
	}
	return r.network(req)
}

// network returns the outcome for a request that is to be let through to the network.
func (r *Router) network(req *Request) (Outcome, error) {
	if r.offline {
		return Outcome{}, &testError{code: errRouteUnmatched, req: req}
	}
	return Outcome{Action: ActionPassthrough}, nil
}

// call invokes the registration's handler, converting a panic into an error.
func (reg *registration) call(rt *Route) (err error) {
	defer func() {
		if x := recover(); x != nil {
			err = fmt.Errorf("handler panic: %v", x)
		}
	}()
	return reg.h(rt)
}

// routeError returns err annotated with the request and pattern. A failed
// expectation that the handler wrapped is annotated in place and stays
// reachable through the returned error's chain.
func routeError(err error, req *Request, pattern string) error {
	var te *testError
	if errors.As(err, &te) {
		if te.req == nil {
			te.req = req
		}
		if te.pattern == "" {
			te.pattern = pattern
		}
		if te == err && (te.code.isAssertion() || te.code == errFulfillEncode) {
			return te
		}
	}
	return &testError{code: errRouteHandler, req: req, pattern: pattern, err: err}
}

func (r *Router) record(x *Exchange) {
	r.mu.Lock()
	r.exchanges = append(r.exchanges, x)
	if x.Err != nil {
		r.failures = append(r.failures, x.Err)
	}
	watches := r.watches[:0]
	var notify []*Watch
	for _, w := range r.watches {
		if w.m(x) {
			notify = append(notify, w)
		} else {
			watches = append(watches, w)
		}
	}
	r.watches = watches
	r.mu.Unlock()

	for _, w := range notify {
		w.ch <- x
	}
}

// Err returns the failures recorded by the Router, or nil if there were none.
func (r *Router) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.failures) == 0 {
		return nil
	}
	return append(errorList(nil), r.failures...)
}

// Failures returns a copy of the list of failures recorded by the Router.
func (r *Router) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.failures...)
}

// Exchanges returns a copy of the list of exchanges recorded by the Router,
// in the order in which they were dispatched.
func (r *Router) Exchanges() []*Exchange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Exchange(nil), r.exchanges...)
}

// Calls returns the number of recorded exchanges whose request's method is
// equal to method and whose URL matches the glob pattern. An empty method
// matches any method.
func (r *Router) Calls(method, pattern string) (n int) {
	m := MatchExchange(method, pattern)
	for _, x := range r.Exchanges() {
		if m(x) {
			n += 1
		}
	}
	return n
}

// Watch starts watching for the first exchange, dispatched after Watch
// returns, that is matched by m. Watch should be invoked before the action
// that triggers the request; the returned Watch's Wait then blocks until the
// triggered request-and-response cycle completes.
func (r *Router) Watch(m ExchangeMatcher) *Watch {
	w := &Watch{r: r, m: m, ch: make(chan *Exchange, 1)}
	r.mu.Lock()
	r.watches = append(r.watches, w)
	r.mu.Unlock()
	return w
}

// Watch is a pending wait for an exchange.
type Watch struct {
	r  *Router
	m  ExchangeMatcher
	ch chan *Exchange
}

// Wait blocks until the watched exchange has been dispatched or ctx is done.
func (w *Watch) Wait(ctx context.Context) (*Exchange, error) {
	select {
	case x := <-w.ch:
		return x, nil
	case <-ctx.Done():
		w.cancel()
		return nil, ctx.Err()
	}
}

func (w *Watch) cancel() {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	for i, x := range w.r.watches {
		if x == w {
			w.r.watches = append(w.r.watches[:i:i], w.r.watches[i+1:]...)
			break
		}
	}
}

// An ExchangeMatcher reports whether an exchange is the one being waited for.
type ExchangeMatcher func(x *Exchange) bool

// MatchExchange returns an ExchangeMatcher that matches exchanges whose
// request method is equal to method and whose URL matches the glob pattern.
// An empty method matches any method.
func MatchExchange(method, pattern string) ExchangeMatcher {
	g := Glob(pattern)
	method = strings.ToUpper(method)
	return func(x *Exchange) bool {
		if method != "" && x.Request.Method != method {
			return false
		}
		return g.Match(x.Request.URL)
	}
}

// Exchange is the record of a single dispatched request.
type Exchange struct {
	// A unique identifier of the exchange.
	ID string
	// The time at which the request was dispatched.
	Time time.Time
	// The intercepted request.
	Request *Request
	// The terminal action.
	Action Action
	// The pattern of the route that resolved the request. Empty if the
	// request was let through because no route resolved it.
	Pattern string
	// The patterns of the routes that fell back, in the order they were tried.
	Fallbacks []string
	// The fulfilled response, zero unless Action is ActionFulfill.
	StatusCode int
	Header     http.Header
	Body       []byte
	// The network error reason, empty unless Action is ActionAbort.
	Reason string
	// The failure, or nil.
	Err error
}
