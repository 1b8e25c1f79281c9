package pizzamock

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/frk/compare"

	"github.com/frk/httpmock"
)

func Test_Purchase(t *testing.T) {
	r := testRouter(httpmock.Offline())
	order := OrderRequest{
		Items: []OrderItem{
			{MenuID: 1, Description: "Veggie", Price: 0.0038},
			{MenuID: 2, Description: "Pepperoni", Price: 0.0042},
		},
		StoreID:     "4",
		FranchiseID: 2,
	}

	Menu(r, DefaultMenu())
	Franchises(r, httpmock.NewVar(DefaultFranchises()))
	Login(r, LoginOf(Diner), AuthOf(Diner, "abcdef"))
	CreateOrder(r, order, OrderResponse{Order: PlacedOrder{OrderRequest: order, ID: 23}, JWT: "eyJpYXQ"},
		WithToken("abcdef"))

	s := newStorefront(t, r)

	var auth AuthResponse
	s.must("PUT", "/api/auth", LoginOf(Diner), &auth)
	if auth.User.Initials() != "KC" {
		t.Errorf("got initials %q, want %q", auth.User.Initials(), "KC")
	}
	s.token = auth.Token

	var menu []MenuItem
	s.must("GET", "/api/order/menu", nil, &menu)
	var franchises []Franchise
	s.must("GET", "/api/franchise", nil, &franchises)

	// the storefront builds the order from the menu and the selected store
	req := OrderRequest{StoreID: "4", FranchiseID: franchises[0].ID}
	for _, m := range menu {
		req.Items = append(req.Items, OrderItem{MenuID: m.ID, Description: m.Title, Price: m.Price})
	}
	if got, want := FormatPrice(Total(req.Items)), "0.008 ₿"; got != want {
		t.Errorf("got total %q, want %q", got, want)
	}

	var res OrderResponse
	s.must("POST", "/api/order", req, &res)
	if res.Order.ID != 23 || res.JWT != "eyJpYXQ" {
		t.Errorf("got order %+v", res)
	}
	if err := r.Err(); err != nil {
		t.Error(err)
	}
}

func Test_Purchase_unauthorized(t *testing.T) {
	r := testRouter()
	order := OrderRequest{Items: []OrderItem{{MenuID: 1, Description: "Veggie", Price: 0.0038}}, StoreID: "4", FranchiseID: 2}
	CreateOrder(r, order, OrderResponse{}, WithToken("abcdef"))

	s := newStorefront(t, r)
	s.token = "123456"
	if _, err := s.do("POST", "/api/order", order, nil); err == nil {
		t.Fatal("want error, got nil")
	}
	if err := r.Err(); !httpmock.IsAssertion(err) {
		t.Errorf("got %v, want assertion error", err)
	}
}

func Test_StoreLifecycle(t *testing.T) {
	r := testRouter(httpmock.Offline())
	list := httpmock.NewVar([]Franchise{{ID: 2, Name: "pizzaPocket", Stores: []Store{{ID: 4, Name: "SLC", TotalRevenue: 0.05}}}})
	provo := Store{ID: 5, Name: "Provo"}

	FranchiseeFranchises(r, list)
	CreateStore(r, 2, provo)
	CloseStore(r, 2, 5)

	ids := func() (ids []int) {
		var got []Franchise
		newStorefront(t, r).must("GET", "/api/franchise/3", nil, &got)
		for _, s := range got[0].Stores {
			ids = append(ids, s.ID)
		}
		return ids
	}
	s := newStorefront(t, r)

	var created Store
	s.must("POST", "/api/franchise/2/store", map[string]string{"name": "Provo"}, &created)
	if e := compare.Compare(created, Store{ID: 5, FranchiseID: 2, Name: "Provo"}); e != nil {
		t.Error(e)
	}
	list.Update(func(v *[]Franchise) { (*v)[0].Stores = append((*v)[0].Stores, provo) })
	if e := compare.Compare(ids(), []int{4, 5}); e != nil {
		t.Error(e)
	}

	var msg Message
	s.must("DELETE", "/api/franchise/2/store/5", nil, &msg)
	if msg.Message != "store deleted" {
		t.Errorf("got message %q", msg.Message)
	}
	list.Update(func(v *[]Franchise) { (*v)[0].Stores = (*v)[0].Stores[:1] })
	if e := compare.Compare(ids(), []int{4}); e != nil {
		t.Error(e)
	}

	if err := r.Err(); err != nil {
		t.Error(err)
	}
}

func Test_Franchises_create_and_close(t *testing.T) {
	r := testRouter(httpmock.Offline())
	list := httpmock.NewVar(DefaultFranchises())
	want := Franchise{Name: "pizzaPocket", Admins: []User{{Email: "f@jwt.com"}}}
	res := Franchise{ID: 5, Name: "pizzaPocket", Admins: []User{{ID: 4, Name: "pizza franchisee", Email: "f@jwt.com"}}, Stores: []Store{}}

	// registered on the same pattern, each serves only its own method
	Franchises(r, list)
	CreateFranchise(r, want, res, WithToken("admin-token"))
	CloseFranchise(r, 5, WithToken("admin-token"))

	s := newStorefront(t, r)
	s.token = "admin-token"

	var created Franchise
	s.must("POST", "/api/franchise", map[string]interface{}{
		"name":   "pizzaPocket",
		"admins": []map[string]string{{"email": "f@jwt.com"}},
	}, &created)
	if e := compare.Compare(created, res); e != nil {
		t.Error(e)
	}
	list.Update(func(v *[]Franchise) { *v = append(*v, created) })

	var got []Franchise
	s.must("GET", "/api/franchise", nil, &got)
	if n := len(got); n != 4 || got[3].Name != "pizzaPocket" {
		t.Errorf("got %d franchises, want pizzaPocket last", n)
	}

	var msg Message
	s.must("DELETE", "/api/franchise/5", nil, &msg)
	if msg.Message != "franchise deleted" {
		t.Errorf("got message %q", msg.Message)
	}

	if n := r.Calls("GET", FranchisesPattern); n != 1 {
		t.Errorf("got %d GET calls, want 1", n)
	}
	// the routes of other methods are never tried
	for _, x := range r.Exchanges()[:2] {
		if x.Pattern != FranchisesPattern || len(x.Fallbacks) != 0 {
			t.Errorf("%s: got pattern=%q fallbacks=%v", x.Request.Method, x.Pattern, x.Fallbacks)
		}
	}
	if err := r.Err(); err != nil {
		t.Error(err)
	}
}

func Test_CreateFranchise_mismatch(t *testing.T) {
	r := testRouter()
	CreateFranchise(r, Franchise{Name: "PIZZAA"}, Franchise{ID: 5, Name: "PIZZAA"})

	s := newStorefront(t, r)
	_, err := s.do("POST", "/api/franchise", map[string]interface{}{"name": "pizzaPocket", "admins": []interface{}{}}, nil)
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "$.name: got=pizzaPocket, want=PIZZAA") {
		t.Errorf("got %v", err)
	}
}

func Test_LoginLogout(t *testing.T) {
	r := testRouter(httpmock.Offline())
	Login(r, LoginOf(Admin), AuthOf(Admin, "abcdef"))
	Logout(r, WithToken("abcdef"))

	s := newStorefront(t, r)

	var auth AuthResponse
	s.must("PUT", "/api/auth", LoginOf(Admin), &auth)
	if e := compare.Compare(auth, AuthResponse{User: User{ID: 3, Name: "Kai Chen", Email: "admin@jwt.com",
		Roles: []Role{{Role: RoleAdmin}}}, Token: "abcdef"}); e != nil {
		t.Error(e)
	}
	s.token = auth.Token

	var msg Message
	s.must("DELETE", "/api/auth", nil, &msg)
	if msg.Message != "logout successful" {
		t.Errorf("got message %q", msg.Message)
	}

	// the logout route was not tried for the login request
	if x := r.Exchanges()[0]; len(x.Fallbacks) != 0 {
		t.Errorf("got fallbacks %v, want none", x.Fallbacks)
	}

	// a method served by neither route fails when offline
	if _, err := s.do("POST", "/api/auth", RegisterOf(Diner), nil); !errors.Is(err, httpmock.ErrUnmatched) {
		t.Errorf("got %v, want ErrUnmatched", err)
	}
}

func Test_LoginLogout_once(t *testing.T) {
	r := testRouter(httpmock.Offline())
	Login(r, LoginOf(Diner), AuthOf(Diner, "abcdef"), Times(1))
	Logout(r, Times(1))

	s := newStorefront(t, r)
	var auth AuthResponse
	s.must("PUT", "/api/auth", LoginOf(Diner), &auth)
	var msg Message
	s.must("DELETE", "/api/auth", nil, &msg)
	if msg.Message != "logout successful" {
		t.Errorf("got message %q", msg.Message)
	}

	// both routes are used up
	if _, err := s.do("PUT", "/api/auth", LoginOf(Diner), nil); !errors.Is(err, httpmock.ErrUnmatched) {
		t.Errorf("got %v, want ErrUnmatched", err)
	}
}

func Test_Login_wrong_credentials(t *testing.T) {
	r := testRouter()
	Login(r, LoginOf(Diner), AuthOf(Diner, "abcdef"))

	s := newStorefront(t, r)
	if _, err := s.do("PUT", "/api/auth", Credentials{Email: "d@jwt.com", Password: "b"}, nil); err == nil {
		t.Fatal("want error, got nil")
	}
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "$.password: got=b, want=a") {
		t.Errorf("got %v", err)
	}
}

func Test_Register(t *testing.T) {
	r := testRouter(httpmock.Offline())
	Register(r, RegisterOf(Diner), AuthOf(Diner, "abcdef"))

	var auth AuthResponse
	newStorefront(t, r).must("POST", "/api/auth", RegisterOf(Diner), &auth)
	if auth.Token != "abcdef" || auth.User.Password != "" {
		t.Errorf("got %+v", auth)
	}
}

func Test_Orders(t *testing.T) {
	r := testRouter(httpmock.Offline())
	history := httpmock.NewVar(DinerOrders{DinerID: 3, Orders: []Order{}, Page: 1})
	Orders(r, history, WithToken("abcdef"))

	s := newStorefront(t, r)
	s.token = "abcdef"

	var got DinerOrders
	s.must("GET", "/api/order", nil, &got)
	if len(got.Orders) != 0 {
		t.Errorf("got %d orders, want 0", len(got.Orders))
	}

	history.Update(func(v *DinerOrders) {
		v.Orders = append(v.Orders, Order{ID: 23, FranchiseID: 2, StoreID: 4, Date: "2024-06-05T05:14:40.000Z",
			Items: []OrderItem{{ID: 1, MenuID: 1, Description: "Veggie", Price: 0.0038}}})
	})
	s.must("GET", "/api/order", nil, &got)
	if len(got.Orders) != 1 || got.Orders[0].ID != 23 {
		t.Errorf("got %+v", got.Orders)
	}
}

func Test_Options(t *testing.T) {
	r := testRouter()
	Menu(r, DefaultMenu(), Times(1), WithStatus(http.StatusAccepted))

	s := newStorefront(t, r)
	status, err := s.do("GET", "/api/order/menu", nil, nil)
	if err != nil || status != http.StatusAccepted {
		t.Errorf("got status=%d err=%v", status, err)
	}

	// the route is gone, the request is let through to the network
	if _, err := s.do("GET", "/api/order/menu", nil, nil); err == nil || !strings.Contains(err.Error(), "no network") {
		t.Errorf("got %v, want network error", err)
	}
}

func Test_apiPath(t *testing.T) {
	tests := []struct {
		p    apiPath
		tmpl string
		want string
	}{
		{apiPath{FranchiseID: 2}, FranchisePattern, "*/**/api/franchise/2"},
		{apiPath{FranchiseID: 2}, StoresPattern, "*/**/api/franchise/2/store"},
		{apiPath{FranchiseID: 2, StoreID: 5}, StorePattern, "*/**/api/franchise/2/store/5"},
	}
	for _, tt := range tests {
		if got := tt.p.pattern(tt.tmpl); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
