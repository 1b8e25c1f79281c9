package pizzamock

// DefaultMenu returns the two pizza menu.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{ID: 1, Title: "Veggie", Image: "pizza1.png", Price: 0.0038, Description: "A garden of delight"},
		{ID: 2, Title: "Pepperoni", Image: "pizza2.png", Price: 0.0042, Description: "Spicy treat"},
	}
}

// DefaultFranchises returns the franchises listed on the order page.
func DefaultFranchises() []Franchise {
	return []Franchise{
		{ID: 2, Name: "LotaPizza", Stores: []Store{
			{ID: 4, Name: "Lehi"},
			{ID: 5, Name: "Springville"},
			{ID: 6, Name: "American Fork"},
		}},
		{ID: 3, Name: "PizzaCorp", Stores: []Store{
			{ID: 7, Name: "Spanish Fork"},
		}},
		{ID: 4, Name: "topSpot", Stores: []Store{}},
	}
}

// Well known users.
var (
	Diner = User{ID: 3, Name: "Kai Chen", Email: "d@jwt.com", Password: "a",
		Roles: []Role{{Role: RoleDiner}}}
	Franchisee = User{ID: 3, Name: "Kai Chen", Email: "d@jwt.com", Password: "a",
		Roles: []Role{{Role: RoleFranchisee, ObjectID: 5}}}
	Admin = User{ID: 3, Name: "Kai Chen", Email: "admin@jwt.com", Password: "admin",
		Roles: []Role{{Role: RoleAdmin}}}
)

// LoginOf returns the credentials the storefront sends to log u in.
func LoginOf(u User) Credentials {
	return Credentials{Email: u.Email, Password: u.Password}
}

// RegisterOf returns the credentials the storefront sends to register u.
func RegisterOf(u User) Credentials {
	return Credentials{Name: u.Name, Email: u.Email, Password: u.Password}
}

// AuthOf returns the response to a successful login of u with the given token.
func AuthOf(u User, token string) AuthResponse {
	u.Password = ""
	return AuthResponse{User: u, Token: token}
}
