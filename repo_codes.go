package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var InvalidatePendingCodesSQL = `UPDATE "confirmation_codes" AS "code"
SET
	"status" = 'invalidated',
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"code"."user_id" = ?
AND (
	"code"."status" = 'pending'
) RETURNING *;`

var PendingCodeByUserSQL = `SELECT * FROM "confirmation_codes" AS "code"
WHERE
	"code"."user_id" = ?
AND (
	"code"."status" = 'pending'
)
ORDER BY "code"."created_at" DESC
LIMIT 1;`

// ConsumeCodeSQL is a guarded update: the status predicate makes two
// concurrent consumers resolve to exactly one winner.
var ConsumeCodeSQL = `UPDATE "confirmation_codes" AS "code"
SET
	"status" = 'consumed',
	"consumed_at" = CURRENT_TIMESTAMP,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"code"."id" = ?
AND (
	"code"."status" = 'pending'
) RETURNING *;`

// ConfirmationCodes stores issued codes. The invariant is at most one
// pending code per identity: IssueTx invalidates whatever was pending
// before inserting the new row.
type ConfirmationCodes interface {
	PendingByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*ConfirmationCode, error)
	IssueTx(ctx context.Context, tx bun.IDB, code *ConfirmationCode) (*ConfirmationCode, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error)
}

type confirmationCodes struct {
	repository.Repository[*ConfirmationCode]
	db *bun.DB
}

var _ ConfirmationCodes = (*confirmationCodes)(nil)

func NewConfirmationCodesRepository(db *bun.DB) ConfirmationCodes {
	repo := repository.NewRepository[*ConfirmationCode](db, repository.ModelHandlers[*ConfirmationCode]{
		NewRecord: func() *ConfirmationCode { return &ConfirmationCode{} },
		GetID: func(c *ConfirmationCode) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *ConfirmationCode, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &confirmationCodes{
		Repository: repo,
		db:         db,
	}
}

func (r *confirmationCodes) PendingByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*ConfirmationCode, error) {
	records, err := r.RawTx(ctx, tx, PendingCodeByUserSQL, userID.String())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (r *confirmationCodes) IssueTx(ctx context.Context, tx bun.IDB, code *ConfirmationCode) (*ConfirmationCode, error) {
	if _, err := r.RawTx(ctx, tx, InvalidatePendingCodesSQL, code.UserID.String()); err != nil {
		return nil, err
	}
	return r.CreateTx(ctx, tx, code)
}

func (r *confirmationCodes) ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error) {
	records, err := r.RawTx(ctx, tx, ConsumeCodeSQL, id.String())
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}
