package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReviewUniquenessGuard enforces the one-review-per-author-per-title
// invariant at write time. It runs strictly after the permission check:
// authorization is identity-based, uniqueness is content-based, and the
// ordering keeps the error surface predictable.
type ReviewUniquenessGuard struct {
	repo   RepositoryManager
	logger Logger
}

func NewReviewUniquenessGuard(repo RepositoryManager) *ReviewUniquenessGuard {
	return &ReviewUniquenessGuard{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the guard.
func (g *ReviewUniquenessGuard) WithLogger(logger Logger) *ReviewUniquenessGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// CheckCanCreate reports whether the author may create a review for the
// title. It is a friendliness pre-check only; CreateReview re-verifies
// inside its transaction and the store constraint remains the source of
// truth.
func (g *ReviewUniquenessGuard) CheckCanCreate(ctx context.Context, authorID uuid.UUID, titleID int64) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	return g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := g.repo.Reviews().ExistsForTitleAndAuthorTx(ctx, tx, titleID, authorID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing review")
		}
		if exists {
			return ErrDuplicateReview
		}
		return nil
	})
}

// CreateReview inserts a review with the uniqueness check and the
// insert in one transaction. Two concurrent creates for the same
// (author, title) yield one success and one ErrDuplicateReview, the
// unique constraint closes the check-then-insert race.
func (g *ReviewUniquenessGuard) CreateReview(ctx context.Context, review *Review) (*Review, error) {
	if review == nil {
		return nil, goerrors.New("review must not be nil", goerrors.CategoryBadInput)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var created *Review

	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := g.repo.Reviews().ExistsForTitleAndAuthorTx(ctx, tx, review.TitleID, review.AuthorID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing review")
		}
		if exists {
			return ErrDuplicateReview
		}

		if created, err = g.repo.Reviews().InsertTx(ctx, tx, review); err != nil {
			if isUniqueViolation(err) {
				// concurrent create won the race, surface the same error
				// the pre-check would have produced
				return ErrDuplicateReview
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert review")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create review")
	}

	return created, nil
}
