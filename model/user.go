package model

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
