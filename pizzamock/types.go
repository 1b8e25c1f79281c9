package pizzamock

import (
	"strconv"
)

// MenuItem is a pizza on the menu.
type MenuItem struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Franchise is a franchise with its admins and stores.
type Franchise struct {
	ID     int     `json:"id,omitempty"`
	Name   string  `json:"name"`
	Admins []User  `json:"admins,omitempty"`
	Stores []Store `json:"stores"`
}

// Store is a franchise's store.
type Store struct {
	ID           int     `json:"id,omitempty"`
	FranchiseID  int     `json:"franchiseId,omitempty"`
	Name         string  `json:"name"`
	TotalRevenue float64 `json:"totalRevenue"`
}

// User is a registered user. The password is only ever sent by the
// storefront, it is never part of a response.
type User struct {
	ID       int    `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Roles    []Role `json:"roles,omitempty"`
}

// Initials returns the initials of the user's name, as shown in the
// storefront's header, e.g. "KC" for "Kai Chen".
func (u User) Initials() (s string) {
	prev := ' '
	for _, r := range u.Name {
		if prev == ' ' && r != ' ' {
			s += string(r)
		}
		prev = r
	}
	return s
}

// Role is a user's role, the ObjectID of a franchisee is the id of the franchise.
type Role struct {
	Role     string `json:"role"`
	ObjectID int    `json:"objectId,omitempty"`
}

// The user roles.
const (
	RoleDiner      = "diner"
	RoleFranchisee = "franchisee"
	RoleAdmin      = "admin"
)

// Credentials is the body of the login and register requests.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the response to a successful login or registration.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// OrderItem is a single pizza of an order.
type OrderItem struct {
	ID          int     `json:"id,omitempty"`
	MenuID      int     `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// OrderRequest is the body of the create order request. The storefront
// sends the store id as a string.
type OrderRequest struct {
	Items       []OrderItem `json:"items"`
	StoreID     string      `json:"storeId"`
	FranchiseID int         `json:"franchiseId"`
}

// PlacedOrder is the order returned by the create order request.
type PlacedOrder struct {
	OrderRequest
	ID int `json:"id"`
}

// OrderResponse is the response to a successful create order request.
type OrderResponse struct {
	Order PlacedOrder `json:"order"`
	JWT   string      `json:"jwt"`
}

// Order is an order in a diner's order history.
type Order struct {
	ID          int         `json:"id"`
	FranchiseID int         `json:"franchiseId"`
	StoreID     int         `json:"storeId"`
	Date        string      `json:"date"`
	Items       []OrderItem `json:"items"`
}

// DinerOrders is a page of a diner's order history.
type DinerOrders struct {
	DinerID int     `json:"dinerId"`
	Orders  []Order `json:"orders"`
	Page    int     `json:"page"`
}

// Message is the body of responses that carry only a message.
type Message struct {
	Message string `json:"message"`
}

// Total returns the sum of the prices of the given items.
func Total(items []OrderItem) (total float64) {
	for _, it := range items {
		total += it.Price
	}
	return total
}

// FormatPrice formats the price the way the storefront displays it, e.g. "0.008 ₿".
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 3, 64) + " ₿"
}
