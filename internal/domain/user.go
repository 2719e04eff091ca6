package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

func (u *User) UserID() string { return u.ID }

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Session is the authenticated-user context held by the client.
type Session struct {
	Token         string `json:"token"`
	User          *User  `json:"user,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// Profile is the sign-up form.
type Profile struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
