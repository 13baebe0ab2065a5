package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ReviewExistsSQL = `SELECT * FROM "reviews" AS "rev"
WHERE
	"rev"."deleted_at" IS NULL
AND "rev"."title_id" = ?
AND "rev"."author_id" = ?
LIMIT 1;`

// Reviews is the slice of the catalog store the uniqueness guard needs:
// an existence probe and the constrained insert.
type Reviews interface {
	ExistsForTitleAndAuthorTx(ctx context.Context, tx bun.IDB, titleID int64, authorID uuid.UUID) (bool, error)
	InsertTx(ctx context.Context, tx bun.IDB, review *Review) (*Review, error)
}

type reviews struct {
	repository.Repository[*Review]
	db *bun.DB
}

var _ Reviews = (*reviews)(nil)

func NewReviewsRepository(db *bun.DB) Reviews {
	repo := repository.NewRepository[*Review](db, repository.ModelHandlers[*Review]{
		NewRecord: func() *Review { return &Review{} },
		GetID: func(r *Review) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Review, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &reviews{
		Repository: repo,
		db:         db,
	}
}

func (r *reviews) ExistsForTitleAndAuthorTx(ctx context.Context, tx bun.IDB, titleID int64, authorID uuid.UUID) (bool, error) {
	records, err := r.RawTx(ctx, tx, ReviewExistsSQL, titleID, authorID.String())
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

func (r *reviews) InsertTx(ctx context.Context, tx bun.IDB, review *Review) (*Review, error) {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return r.CreateTx(ctx, tx, review)
}
