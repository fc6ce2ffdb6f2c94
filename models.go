package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record persisted by the credential store.
// Username and email carry UNIQUE constraints; the password hash is
// never serialized.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName    string     `bun:"display_name,notnull" json:"display_name,omitempty"`
	ImageURL       *string    `bun:"image_url" json:"image_url,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// UserView is the transient projection returned to callers after a
// successful login or registration. It is rebuilt on every request and
// never persisted; the token it carries is freshly minted each time.
type UserView struct {
	DisplayName string  `json:"displayName"`
	Username    string  `json:"username"`
	Image       *string `json:"image"`
	Token       string  `json:"token"`
}

// NewUserView projects a user record plus a freshly issued token.
func NewUserView(user *User, token string) *UserView {
	return &UserView{
		DisplayName: user.DisplayName,
		Username:    user.Username,
		Image:       user.ImageURL,
		Token:       token,
	}
}

type authIdentity struct {
	id       string
	username string
	email    string
}

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Username() string { return a.username }
func (a authIdentity) Email() string    { return a.email }

var _ Identity = authIdentity{}

// IdentityFromUser adapts a user record to the Identity consumed by the
// token service.
func IdentityFromUser(user *User) Identity {
	return authIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
	}
}
