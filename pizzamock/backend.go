package pizzamock

import (
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frk/httpmock"
)

// Backend is an in-memory implementation of the storefront's API. Unlike the
// scripted route sets it keeps state across requests: users can register and
// log in, franchises and stores can be created and closed, and diners can
// place orders and list their order history.
//
// The Backend's state is exposed as Vars so that a scenario can seed or
// inspect it directly. The Backend never modifies a value it has stored in
// a Var, it replaces it, values returned by Get are therefore safe to read.
type Backend struct {
	Menu       *httpmock.Var[[]MenuItem]
	Franchises *httpmock.Var[[]Franchise]
	Users      *httpmock.Var[[]User]
	// Orders maps a diner's id to the diner's orders.
	Orders *httpmock.Var[map[int][]Order]

	sessions *httpmock.Var[map[string]int]
	seq      *httpmock.Var[int]
	now      func() time.Time
}

// NewBackend returns a Backend seeded with the default menu and franchises,
// and with a diner, a franchisee, and an admin user.
func NewBackend() *Backend {
	franchisee := User{ID: 4, Name: "pizza franchisee", Email: "f@jwt.com", Password: "franchisee",
		Roles: []Role{{Role: RoleDiner}, {Role: RoleFranchisee, ObjectID: 2}}}

	franchises := DefaultFranchises()
	franchises[0].Admins = []User{publicUser(franchisee)}

	return &Backend{
		Menu:       httpmock.NewVar(DefaultMenu()),
		Franchises: httpmock.NewVar(franchises),
		Users: httpmock.NewVar([]User{
			{ID: 1, Name: "常用名字", Email: "admin@jwt.com", Password: "admin", Roles: []Role{{Role: RoleAdmin}}},
			{ID: 3, Name: "Kai Chen", Email: "d@jwt.com", Password: "a", Roles: []Role{{Role: RoleDiner}}},
			franchisee,
		}),
		Orders:   httpmock.NewVar(map[int][]Order{}),
		sessions: httpmock.NewVar(map[string]int{}),
		seq:      httpmock.NewVar(100),
		now:      time.Now,
	}
}

// Install registers the Backend's routes on r.
func (b *Backend) Install(r *httpmock.Router) {
	r.Route(MenuPattern, httpmock.OnMethod("GET", b.getMenu))

	r.Route(FranchisesPattern, httpmock.OnMethod("GET", b.listFranchises))
	r.Route(FranchisesPattern, httpmock.OnMethod("POST", b.createFranchise))
	r.Route(AnyFranchisePattern, httpmock.OnMethod("GET", b.userFranchises))
	r.Route(AnyFranchisePattern, httpmock.OnMethod("DELETE", b.closeFranchise))
	r.Route("*/**/api/franchise/*/store", httpmock.OnMethod("POST", b.createStore))
	r.Route("*/**/api/franchise/*/store/*", httpmock.OnMethod("DELETE", b.closeStore))

	r.Route(AuthPattern, httpmock.OnMethod("PUT", b.login))
	r.Route(AuthPattern, httpmock.OnMethod("POST", b.register))
	r.Route(AuthPattern, httpmock.OnMethod("DELETE", b.logout))

	r.Route(OrdersPattern, httpmock.OnMethod("GET", b.listOrders))
	r.Route(OrdersPattern, httpmock.OnMethod("POST", b.createOrder))
}

func (b *Backend) nextID() (id int) {
	b.seq.Update(func(n *int) {
		*n += 1
		id = *n
	})
	return id
}

// user returns the user of the session identified by the request's bearer token.
func (b *Backend) user(rt *httpmock.Route) (User, bool) {
	auth := rt.Request().Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return User{}, false
	}
	id, ok := b.sessions.Get()[token]
	if !ok {
		return User{}, false
	}
	for _, u := range b.Users.Get() {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (b *Backend) startSession(rt *httpmock.Route, u User) error {
	token := uuid.NewString()
	b.sessions.Update(func(m *map[string]int) {
		*m = maps.Clone(*m)
		(*m)[token] = u.ID
	})
	return rt.FulfillJSON(AuthOf(u, token))
}

func (b *Backend) getMenu(rt *httpmock.Route) error {
	return rt.Fulfill(httpmock.Response{Body: b.Menu.JSON()})
}

func (b *Backend) listFranchises(rt *httpmock.Route) error {
	return rt.Fulfill(httpmock.Response{Body: b.Franchises.JSON()})
}

func (b *Backend) createFranchise(rt *httpmock.Route) error {
	u, ok := b.user(rt)
	if !ok || !hasRole(u, RoleAdmin) {
		return respond(rt, http.StatusForbidden, "unable to create a franchise")
	}

	var req franchiseRequest
	if err := rt.Request().PostDataJSON(&req); err != nil || req.Name == "" {
		return respond(rt, http.StatusBadRequest, "invalid franchise")
	}

	// the admins are looked up and granted the role in one update
	var unknown string
	f := Franchise{ID: b.nextID(), Name: req.Name, Stores: []Store{}}
	b.Users.Update(func(v *[]User) {
		out := append([]User(nil), *v...)
		for _, a := range req.Admins {
			i := indexUser(out, a.Email)
			if i < 0 {
				unknown = a.Email
				return
			}
			out[i].Roles = append(append([]Role(nil), out[i].Roles...), Role{Role: RoleFranchisee, ObjectID: f.ID})
			f.Admins = append(f.Admins, publicUser(out[i]))
		}
		*v = out
	})
	if unknown != "" {
		return respond(rt, http.StatusNotFound, "unknown user for franchise admin "+unknown)
	}

	b.Franchises.Update(func(v *[]Franchise) {
		*v = append(append([]Franchise(nil), *v...), f)
	})
	return rt.FulfillJSON(f)
}

func (b *Backend) userFranchises(rt *httpmock.Route) error {
	u, ok := b.user(rt)
	if !ok {
		return respond(rt, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathInt(rt.Request().URL, "franchise")
	if !ok {
		return respond(rt, http.StatusNotFound, "unknown user")
	}

	list := []Franchise{}
	if u.ID == id || hasRole(u, RoleAdmin) {
		for _, f := range b.Franchises.Get() {
			for _, a := range f.Admins {
				if a.ID == id {
					list = append(list, f)
					break
				}
			}
		}
	}
	return rt.FulfillJSON(list)
}

func (b *Backend) closeFranchise(rt *httpmock.Route) error {
	u, ok := b.user(rt)
	if !ok || !hasRole(u, RoleAdmin) {
		return respond(rt, http.StatusForbidden, "unable to close a franchise")
	}
	id, _ := pathInt(rt.Request().URL, "franchise")

	b.Franchises.Update(func(v *[]Franchise) {
		out := make([]Franchise, 0, len(*v))
		for _, f := range *v {
			if f.ID != id {
				out = append(out, f)
			}
		}
		*v = out
	})
	return rt.FulfillJSON(Message{franchiseDeletedText})
}

func (b *Backend) createStore(rt *httpmock.Route) error {
	fid, _ := pathInt(rt.Request().URL, "franchise")
	u, ok := b.user(rt)
	if !ok || !(hasRole(u, RoleAdmin) || isFranchiseAdmin(b.Franchises.Get(), fid, u.ID)) {
		return respond(rt, http.StatusForbidden, "unable to create a store")
	}

	var req Store
	if err := rt.Request().PostDataJSON(&req); err != nil || req.Name == "" {
		return respond(rt, http.StatusBadRequest, "invalid store")
	}

	store := Store{ID: b.nextID(), FranchiseID: fid, Name: req.Name}
	var found bool
	b.Franchises.Update(func(v *[]Franchise) {
		out := append([]Franchise(nil), *v...)
		for i := range out {
			if out[i].ID == fid {
				out[i].Stores = append(append([]Store(nil), out[i].Stores...), Store{ID: store.ID, Name: store.Name})
				found = true
			}
		}
		*v = out
	})
	if !found {
		return respond(rt, http.StatusNotFound, "unknown franchise")
	}
	return rt.FulfillJSON(store)
}

func (b *Backend) closeStore(rt *httpmock.Route) error {
	fid, _ := pathInt(rt.Request().URL, "franchise")
	sid, _ := pathInt(rt.Request().URL, "store")
	u, ok := b.user(rt)
	if !ok || !(hasRole(u, RoleAdmin) || isFranchiseAdmin(b.Franchises.Get(), fid, u.ID)) {
		return respond(rt, http.StatusForbidden, "unable to close a store")
	}

	b.Franchises.Update(func(v *[]Franchise) {
		out := append([]Franchise(nil), *v...)
		for i := range out {
			if out[i].ID != fid {
				continue
			}
			stores := make([]Store, 0, len(out[i].Stores))
			for _, s := range out[i].Stores {
				if s.ID != sid {
					stores = append(stores, s)
				}
			}
			out[i].Stores = stores
		}
		*v = out
	})
	return rt.FulfillJSON(Message{storeDeletedText})
}

func (b *Backend) login(rt *httpmock.Route) error {
	var creds Credentials
	if err := rt.Request().PostDataJSON(&creds); err != nil {
		return respond(rt, http.StatusBadRequest, "invalid credentials")
	}
	for _, u := range b.Users.Get() {
		if u.Email == creds.Email && u.Password == creds.Password {
			return b.startSession(rt, u)
		}
	}
	return respond(rt, http.StatusNotFound, "unknown user")
}

func (b *Backend) register(rt *httpmock.Route) error {
	var creds Credentials
	if err := rt.Request().PostDataJSON(&creds); err != nil || creds.Name == "" || creds.Email == "" || creds.Password == "" {
		return respond(rt, http.StatusBadRequest, "name, email, and password are required")
	}

	var u User
	b.Users.Update(func(v *[]User) {
		if indexUser(*v, creds.Email) > -1 {
			return
		}
		u = User{ID: b.nextID(), Name: creds.Name, Email: creds.Email, Password: creds.Password,
			Roles: []Role{{Role: RoleDiner}}}
		*v = append(append([]User(nil), *v...), u)
	})
	if u.ID == 0 {
		return respond(rt, http.StatusConflict, "email already registered")
	}
	return b.startSession(rt, u)
}

func (b *Backend) logout(rt *httpmock.Route) error {
	if _, ok := b.user(rt); !ok {
		return respond(rt, http.StatusUnauthorized, "unauthorized")
	}
	token := strings.TrimPrefix(rt.Request().Header.Get("Authorization"), "Bearer ")
	b.sessions.Update(func(m *map[string]int) {
		*m = maps.Clone(*m)
		delete(*m, token)
	})
	return rt.FulfillJSON(Message{logoutText})
}

func (b *Backend) listOrders(rt *httpmock.Route) error {
	u, ok := b.user(rt)
	if !ok {
		return respond(rt, http.StatusUnauthorized, "unauthorized")
	}
	orders := append([]Order{}, b.Orders.Get()[u.ID]...)
	return rt.FulfillJSON(DinerOrders{DinerID: u.ID, Orders: orders, Page: 1})
}

func (b *Backend) createOrder(rt *httpmock.Route) error {
	u, ok := b.user(rt)
	if !ok {
		return respond(rt, http.StatusUnauthorized, "unauthorized")
	}

	var req OrderRequest
	if err := rt.Request().PostDataJSON(&req); err != nil || len(req.Items) == 0 {
		return respond(rt, http.StatusBadRequest, "invalid order")
	}
	storeID, err := strconv.Atoi(req.StoreID)
	if err != nil {
		return respond(rt, http.StatusBadRequest, "invalid store id "+strconv.Quote(req.StoreID))
	}

	order := Order{
		ID:          b.nextID(),
		FranchiseID: req.FranchiseID,
		StoreID:     storeID,
		Date:        b.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}
	for i, it := range req.Items {
		it.ID = i + 1
		order.Items = append(order.Items, it)
	}
	b.Orders.Update(func(m *map[int][]Order) {
		*m = maps.Clone(*m)
		(*m)[u.ID] = append(append([]Order(nil), (*m)[u.ID]...), order)
	})

	return rt.FulfillJSON(OrderResponse{
		Order: PlacedOrder{OrderRequest: req, ID: order.ID},
		JWT:   strings.ReplaceAll(uuid.NewString(), "-", ""),
	})
}

func respond(rt *httpmock.Route, status int, msg string) error {
	return rt.Fulfill(httpmock.Response{StatusCode: status, Body: httpmock.JSON(Message{msg})})
}

// pathInt returns the integer path segment that follows the segment named after.
func pathInt(u *url.URL, after string) (int, bool) {
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == after {
			n, err := strconv.Atoi(segs[i+1])
			return n, err == nil
		}
	}
	return 0, false
}

func hasRole(u User, role string) bool {
	for _, r := range u.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

func isFranchiseAdmin(list []Franchise, franchiseID, userID int) bool {
	for _, f := range list {
		if f.ID != franchiseID {
			continue
		}
		for _, a := range f.Admins {
			if a.ID == userID {
				return true
			}
		}
	}
	return false
}

func indexUser(list []User, email string) int {
	for i, u := range list {
		if u.Email == email {
			return i
		}
	}
	return -1
}

// publicUser returns u without its password and roles.
func publicUser(u User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email}
}
