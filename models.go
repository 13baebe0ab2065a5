package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity model. Email and username are unique at the store
// layer; Active starts false and becomes true exactly once verification
// succeeds. Superuser is an orthogonal override, not a role.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"role,notnull,default:'user'" json:"role,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Bio           string     `bun:"bio" json:"bio,omitempty"`
	Active        bool       `bun:"is_active" json:"is_active,omitempty"`
	Superuser     bool       `bun:"is_superuser" json:"is_superuser,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ConfirmationCode status values. At most one pending code exists per
// identity, issuing a new one invalidates the previous.
const (
	// CodePending is an issued, not yet consumed code
	CodePending = "pending"
	// CodeConsumed is a code spent by a successful verification
	CodeConsumed = "consumed"
	// CodeInvalidated is a code superseded by a newer one
	CodeInvalidated = "invalidated"
)

// ConfirmationCode stores a single-use, time-limited confirmation code.
// Only the bcrypt hash is persisted, never the cleartext.
type ConfirmationCode struct {
	bun.BaseModel `bun:"table:confirmation_codes,alias:code"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CodeHash      string     `bun:"code_hash,notnull" json:"-"`
	Status        string     `bun:"status,notnull,default:'pending'" json:"status,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	ConsumedAt    *time.Time `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Expired reports whether the code is past its TTL at the given instant.
func (c *ConfirmationCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Review is a catalog review. The (title_id, author_id) pair is unique
// among non-deleted reviews; the constraint is the source of truth for
// the uniqueness guard.
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rev"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TitleID       int64      `bun:"title_id,notnull,unique:reviews_title_author" json:"title_id,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid,unique:reviews_title_author" json:"author_id,omitempty"`
	Author        *User      `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Text          string     `bun:"text,notnull" json:"text,omitempty"`
	Score         int        `bun:"score,notnull" json:"score,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Comment is a comment on a review. Referenced here only for ownership
// checks in the permission engine.
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ReviewID      uuid.UUID  `bun:"review_id,notnull,type:uuid" json:"review_id,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	Author        *User      `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Text          string     `bun:"text,notnull" json:"text,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// usernameForEmail derives a deterministic display handle from an email.
// The short id suffix keeps handles unique when local parts collide
// across domains.
func usernameForEmail(email string, id uuid.UUID) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	local = strings.ToLower(local)
	suffix := strings.ReplaceAll(id.String(), "-", "")[:8]
	return local + "-" + suffix
}
