package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reviewcat/auth"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockIdentity implements auth.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) IsSuperuser() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

func newTestTokenService() auth.TokenService {
	return auth.NewTokenService([]byte("test-signing-key"), 1, "reviewcat", nil, nil)
}

// captureNotifier records every delivery and can be told to fail.
type captureNotifier struct {
	mu       sync.Mutex
	failWith error
	sent     []capturedMessage
}

type capturedMessage struct {
	Address string
	Subject string
	Body    string
}

func (n *captureNotifier) Send(_ context.Context, address, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.sent = append(n.sent, capturedMessage{Address: address, Subject: subject, Body: body})
	return nil
}

func (n *captureNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return ""
	}
	body := n.sent[len(n.sent)-1].Body
	return strings.TrimPrefix(body, "Your confirmation code: ")
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// captureSink records activity events.
type captureSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *captureSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) byType(t auth.ActivityEventType) []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.ActivityEvent
	for _, e := range s.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// memRepo is an in-memory RepositoryManager. RunInTx serializes through
// a mutex so concurrent callers observe transaction semantics; the *Tx
// repository methods assume the transaction lock is held.
type memRepo struct {
	mu      sync.Mutex
	users   map[string]*auth.User
	codes   []*auth.ConfirmationCode
	reviews []*auth.Review
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*auth.User{}}
}

func (m *memRepo) Validate() error { return nil }

func (m *memRepo) MustValidate() {}

func (m *memRepo) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

func (m *memRepo) Users() auth.Users { return memUsers{m} }

func (m *memRepo) ConfirmationCodes() auth.ConfirmationCodes { return memCodes{m} }

func (m *memRepo) Reviews() auth.Reviews { return memReviews{m} }

func (m *memRepo) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *memRepo) codeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

func (m *memRepo) userByEmail(email string) *auth.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[email]
}

type memUsers struct{ r *memRepo }

func (u memUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	u.r.mu.Lock()
	defer u.r.mu.Unlock()
	return u.GetByEmailTx(ctx, nil, email)
}

func (u memUsers) GetByEmailTx(_ context.Context, _ bun.IDB, email string) (*auth.User, error) {
	if user, ok := u.r.users[email]; ok {
		return user, nil
	}
	return nil, auth.ErrIdentityNotFound
}

func (u memUsers) GetOrCreateByEmailTx(_ context.Context, _ bun.IDB, email string) (*auth.User, error) {
	if user, ok := u.r.users[email]; ok {
		return user, nil
	}
	now := time.Now()
	user := &auth.User{
		ID:        uuid.New(),
		Email:     email,
		Username:  email,
		Role:      auth.RoleUser,
		CreatedAt: &now,
	}
	u.r.users[email] = user
	return user, nil
}

func (u memUsers) ActivateTx(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	for _, user := range u.r.users {
		if user.ID == id {
			user.Active = true
			return nil
		}
	}
	return auth.ErrIdentityNotFound
}

func (u memUsers) Save(_ context.Context, user *auth.User) (*auth.User, error) {
	u.r.mu.Lock()
	defer u.r.mu.Unlock()
	u.r.users[user.Email] = user
	return user, nil
}

type memCodes struct{ r *memRepo }

func (c memCodes) PendingByUserTx(_ context.Context, _ bun.IDB, userID uuid.UUID) (*auth.ConfirmationCode, error) {
	var newest *auth.ConfirmationCode
	for _, code := range c.r.codes {
		if code.UserID == userID && code.Status == auth.CodePending {
			if newest == nil || code.CreatedAt.After(*newest.CreatedAt) {
				newest = code
			}
		}
	}
	return newest, nil
}

func (c memCodes) IssueTx(_ context.Context, _ bun.IDB, code *auth.ConfirmationCode) (*auth.ConfirmationCode, error) {
	for _, prior := range c.r.codes {
		if prior.UserID == code.UserID && prior.Status == auth.CodePending {
			prior.Status = auth.CodeInvalidated
		}
	}
	if code.CreatedAt == nil {
		now := time.Now()
		code.CreatedAt = &now
	}
	c.r.codes = append(c.r.codes, code)
	return code, nil
}

func (c memCodes) ConsumeTx(_ context.Context, _ bun.IDB, id uuid.UUID) (bool, error) {
	for _, code := range c.r.codes {
		if code.ID == id && code.Status == auth.CodePending {
			now := time.Now()
			code.Status = auth.CodeConsumed
			code.ConsumedAt = &now
			return true, nil
		}
	}
	return false, nil
}

type memReviews struct{ r *memRepo }

func (v memReviews) ExistsForTitleAndAuthorTx(_ context.Context, _ bun.IDB, titleID int64, authorID uuid.UUID) (bool, error) {
	for _, review := range v.r.reviews {
		if review.TitleID == titleID && review.AuthorID == authorID && review.DeletedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (v memReviews) InsertTx(_ context.Context, _ bun.IDB, review *auth.Review) (*auth.Review, error) {
	for _, existing := range v.r.reviews {
		if existing.TitleID == review.TitleID && existing.AuthorID == review.AuthorID && existing.DeletedAt == nil {
			return nil, fmt.Errorf("UNIQUE constraint failed: reviews.title_id, reviews.author_id")
		}
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	now := time.Now()
	review.CreatedAt = &now
	v.r.reviews = append(v.r.reviews, review)
	return review, nil
}
