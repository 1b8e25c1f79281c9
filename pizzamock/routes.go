// Package pizzamock provides mocks of the pizza storefront's API, both as
// scripted route sets that fulfill fixed payloads and as a stateful Backend.
//
// Every route set registers a single handler that serves one method and falls
// back on any other, so that route sets sharing a pattern, e.g. Login and
// Logout, can be registered side by side in any order.
package pizzamock

import (
	"github.com/frk/httpmock"
	"github.com/frk/httpmock/httptype"
)

// The patterns of the storefront's API endpoints.
const (
	MenuPattern          = "*/**/api/order/menu"
	FranchisesPattern    = "*/**/api/franchise"
	AnyFranchisePattern  = "*/**/api/franchise/*"
	FranchisePattern     = "*/**/api/franchise/{franchiseId}"
	StoresPattern        = "*/**/api/franchise/{franchiseId}/store"
	StorePattern         = "*/**/api/franchise/{franchiseId}/store/{storeId}"
	AuthPattern          = "*/**/api/auth"
	OrdersPattern        = "*/**/api/order"
	franchiseDeletedText = "franchise deleted"
	storeDeletedText     = "store deleted"
	logoutText           = "logout successful"
)

// apiPath holds the values of a pattern's placeholders.
type apiPath struct {
	FranchiseID int `param:"franchiseId"`
	StoreID     int `param:"storeId"`
}

func (p apiPath) pattern(tmpl string) string {
	return httptype.Params(p).SetParams(tmpl)
}

type franchiseRequest struct {
	Name   string     `json:"name"`
	Admins []adminRef `json:"admins"`
}

type adminRef struct {
	Email string `json:"email"`
}

type authHeader struct {
	Authorization string `header:"Authorization"`
}

// An Option configures a route set.
type Option func(*options)

type options struct {
	token  string
	times  int
	status int
}

// WithToken makes the route set expect the request to be authorized with
// the given bearer token.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// Times limits the number of requests the route set serves.
func Times(n int) Option {
	return func(o *options) { o.times = n }
}

// WithStatus sets the status code of the route set's response.
func WithStatus(code int) Option {
	return func(o *options) { o.status = code }
}

// register registers h for requests with the given method, requests with
// other methods are not seen by h.
func register(r *httpmock.Router, pattern, method string, opts []Option, h func(rt *httpmock.Route, o *options) error) (unroute func()) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var ee []httpmock.Expectation
	if o.token != "" {
		ee = append(ee, httpmock.MatchHeader(httptype.Header(authHeader{"Bearer " + o.token})))
	}

	return r.Route(pattern, func(rt *httpmock.Route) error {
		if err := rt.Expect(ee...); err != nil {
			return err
		}
		return h(rt, o)
	}, httpmock.ForMethod(method), httpmock.Times(o.times))
}

func fulfill(rt *httpmock.Route, o *options, body httpmock.Body) error {
	return rt.Fulfill(httpmock.Response{StatusCode: o.status, Body: body})
}

// Menu serves the menu.
func Menu(r *httpmock.Router, items []MenuItem, opts ...Option) func() {
	return register(r, MenuPattern, "GET", opts, func(rt *httpmock.Route, o *options) error {
		return fulfill(rt, o, httpmock.JSON(items))
	})
}

// Franchises serves the list of franchises. The list is read when the request
// is served, modifications made to it by the scenario are therefore reflected.
func Franchises(r *httpmock.Router, list *httpmock.Var[[]Franchise], opts ...Option) func() {
	return register(r, FranchisesPattern, "GET", opts, func(rt *httpmock.Route, o *options) error {
		return fulfill(rt, o, list.JSON())
	})
}

// CreateFranchise expects a request to create a franchise with the name
// and admin emails of want, and responds with res.
func CreateFranchise(r *httpmock.Router, want, res Franchise, opts ...Option) func() {
	req := franchiseRequest{Name: want.Name, Admins: []adminRef{}}
	for _, a := range want.Admins {
		req.Admins = append(req.Admins, adminRef{a.Email})
	}
	return register(r, FranchisesPattern, "POST", opts, func(rt *httpmock.Route, o *options) error {
		if err := rt.Expect(httpmock.MatchJSON(req)); err != nil {
			return err
		}
		return fulfill(rt, o, httpmock.JSON(res))
	})
}

// CloseFranchise serves the close request of the franchise with the given id.
func CloseFranchise(r *httpmock.Router, id int, opts ...Option) func() {
	pattern := apiPath{FranchiseID: id}.pattern(FranchisePattern)
	return register(r, pattern, "DELETE", opts, func(rt *httpmock.Route, o *options) error {
		return fulfill(rt, o, httpmock.JSON(Message{franchiseDeletedText}))
	})
}

// FranchiseeFranchises serves the franchises of a franchisee, i.e. "GET /api/franchise/{userId}".
// Like with Franchises the list is read when the request is served.
func FranchiseeFranchises(r *httpmock.Router, list *httpmock.Var[[]Franchise], opts ...Option) func() {
	return register(r, AnyFranchisePattern, "GET", opts, func(rt *httpmock.Route, o *options) error {
		return fulfill(rt, o, list.JSON())
	})
}

// CreateStore expects a request to create a store named res.Name in the
// franchise with the given id, and responds with res.
func CreateStore(r *httpmock.Router, franchiseID int, res Store, opts ...Option) func() {
	pattern := apiPath{FranchiseID: franchiseID}.pattern(StoresPattern)
	return register(r, pattern, "POST", opts, func(rt *httpmock.Route, o *options) error {
		if err := rt.Expect(httpmock.MatchJSON(map[string]string{"name": res.Name})); err != nil {
			return err
		}
		if res.FranchiseID == 0 {
			res.FranchiseID = franchiseID
		}
		return fulfill(rt, o, httpmock.JSON(res))
	})
}

// CloseStore serves the close request of the given store.
func CloseStore(r *httpmock.Router, franchiseID, storeID int, opts ...Option) func() {
	pattern := apiPath{FranchiseID: franchiseID, StoreID: storeID}.pattern(StorePattern)
	return register(r, pattern, "DELETE", opts, func(rt *httpmock.Route, o *options) error {
		return fulfill(rt, o, httpmock.JSON(Message{storeDeletedText}))
	})
}

// Login expects a login request with the given credentials and responds with res.
func Login(r *httpmock.Router, creds Credentials, res AuthResponse, opts ...Option) func() {
	return register(r, AuthPattern, "PUT", opts, func(rt *httpmock.Route, o *options) error {
		if err := rt.Expect(httpmock.MatchJSON(creds)); err != nil {
			return err
		}
		return fulfill(rt, o, httpmock.JSON(res))
	})
}

// Register expects a register request with the given credentials and responds with res.
func Register(r *httpmock.Router, creds Credentials, res AuthResponse, opts ...Option) func() {
	return register(r, AuthPattern, "POST", opts, func(rt *httpmock.Route, o *options) error {
		if err := rt.Expect(httpmock.MatchJSON(creds)); err != nil {
			return err
		}
		return fulfill(rt, o, httpmock.JSON(res))
	})
}

// Logout serves the logout request.
func Logout(r *httpmock.Router, opts ...Option) func() {
	return register(r, AuthPattern, "DELETE", opts, func(rt *httpmock.Route, o *options) error {
		return fulfill(rt, o, httpmock.JSON(Message{logoutText}))
	})
}

// Orders serves the diner's order history, read when the request is served.
func Orders(r *httpmock.Router, orders *httpmock.Var[DinerOrders], opts ...Option) func() {
	return register(r, OrdersPattern, "GET", opts, func(rt *httpmock.Route, o *options) error {
		return fulfill(rt, o, orders.JSON())
	})
}

// CreateOrder expects a create order request matching want and responds with res.
func CreateOrder(r *httpmock.Router, want OrderRequest, res OrderResponse, opts ...Option) func() {
	return register(r, OrdersPattern, "POST", opts, func(rt *httpmock.Route, o *options) error {
		if err := rt.Expect(httpmock.MatchJSON(want)); err != nil {
			return err
		}
		return fulfill(rt, o, httpmock.JSON(res))
	})
}
