package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ActivateUserSQL = `UPDATE "users" AS "usr"
SET
	"is_active" = TRUE
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the identity store. Email and username uniqueness is
// guaranteed at the store layer; a violation surfaces as
// ErrIdentityConflict.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetOrCreateByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	Save(ctx context.Context, user *User) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	user, err := a.GetByIdentifierTx(ctx, tx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetOrCreateByEmailTx is the idempotent identity lookup used by
// RequestCode. The user id is derived deterministically from the email
// so concurrent first requests converge on the same row.
func (a *users) GetOrCreateByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	user, err := a.GetByIdentifierTx(ctx, tx, email)
	if err == nil {
		return user, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	record := &User{
		Email: email,
		Role:  RoleUser,
	}

	if id, err := hashid.NewUUID(email); err == nil {
		record.ID = id
	} else {
		record.ID = uuid.New()
	}
	record.Username = usernameForEmail(email, record.ID)

	created, err := a.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			// lost the race to a concurrent create, reuse the winner
			return a.GetByIdentifierTx(ctx, tx, email)
		}
		return nil, err
	}

	return created, nil
}

func (a *users) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := a.RawTx(ctx, tx, ActivateUserSQL, id.String())
	return err
}

func (a *users) Save(ctx context.Context, user *User) (*User, error) {
	return a.Update(ctx, user)
}
