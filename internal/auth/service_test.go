package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/billman/internal/config"
	"github.com/hitoshi/billman/internal/model"
)

type mockSessionRepo struct {
	createFn        func(ctx context.Context, session *model.Session) error
	findByIDFn      func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn    func(ctx context.Context, id string) error
	deleteExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now)
	}
	return 0, nil
}

func testSeed() config.SeedUser {
	return config.SeedUser{
		ID:       "1",
		Name:     "User",
		Email:    "user@nextmail.com",
		Password: "123456",
	}
}

func newTestService(repo *mockSessionRepo) *Service {
	return NewService(testSeed(), repo, ServiceConfig{SessionMaxAge: 86400})
}

// 静的レコードと完全一致する認証情報でUserが返り、パスワードが含まれないことを検証
func TestAuthenticate_Success(t *testing.T) {
	s := newTestService(&mockSessionRepo{})

	user, err := s.Authenticate("user@nextmail.com", "123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "1" || user.Email != "user@nextmail.com" || user.Name != "User" {
		t.Errorf("user = %+v", user)
	}
}

// 一致しない認証情報の組がすべてErrInvalidCredentialsになることを検証
func TestAuthenticate_InvalidCredentials(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong email", "other@nextmail.com", "123456"},
		{"wrong password", "user@nextmail.com", "654321"},
		{"both wrong", "other@nextmail.com", "654321"},
		{"empty email", "", "123456"},
		{"empty password", "user@nextmail.com", ""},
		{"both empty", "", ""},
		{"case-sensitive email", "User@nextmail.com", "123456"},
	}

	s := newTestService(&mockSessionRepo{})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := s.Authenticate(tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
			if user != nil {
				t.Errorf("user = %+v, want nil", user)
			}
		})
	}
}

// ログイン成功時に有効期限付きのセッションが永続化されることを検証
func TestSignIn_CreatesSession(t *testing.T) {
	var saved *model.Session
	repo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			saved = session
			return nil
		},
	}
	s := newTestService(repo)

	session, err := s.SignIn(context.Background(), "user@nextmail.com", "123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil {
		t.Fatal("session was not persisted")
	}
	if session.ID != saved.ID {
		t.Errorf("returned session ID %q != persisted %q", session.ID, saved.ID)
	}
	if session.UserID != "1" {
		t.Errorf("user_id = %q", session.UserID)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}
	wantExpiry := time.Now().Add(86400 * time.Second)
	if session.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || session.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("expires_at = %v", session.ExpiresAt)
	}
}

// 認証失敗時にはセッションが作成されないことを検証
func TestSignIn_InvalidCredentialsCreatesNoSession(t *testing.T) {
	createCalls := 0
	repo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createCalls++
			return nil
		},
	}
	s := newTestService(repo)

	_, err := s.SignIn(context.Background(), "user@nextmail.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if createCalls != 0 {
		t.Error("session must not be created on failed authentication")
	}
}

// セッション永続化の失敗が認証システム障害として返ることを検証
func TestSignIn_SessionStoreFailure(t *testing.T) {
	repo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			return errors.New("connection refused")
		},
	}
	s := newTestService(repo)

	_, err := s.SignIn(context.Background(), "user@nextmail.com", "123456")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("store failure must not be reported as invalid credentials")
	}
}

// SignOutがセッションを削除することを検証
func TestSignOut(t *testing.T) {
	var deleted string
	repo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	s := newTestService(repo)

	if err := s.SignOut(context.Background(), "session-abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "session-abc" {
		t.Errorf("deleted = %q", deleted)
	}
}

// 空のセッションIDでのSignOutがエラーになることを検証
func TestSignOut_EmptySessionID(t *testing.T) {
	s := newTestService(&mockSessionRepo{})
	if err := s.SignOut(context.Background(), ""); err == nil {
		t.Error("expected error for empty session ID")
	}
}

// 無効なセッションが「未ログイン」と等価（nil, nil）になることを検証
func TestCurrentUser_InvalidSessionsAreAnonymous(t *testing.T) {
	cases := []struct {
		name string
		repo *mockSessionRepo
		id   string
	}{
		{"empty session ID", &mockSessionRepo{}, ""},
		{"unknown session", &mockSessionRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return nil, nil
			},
		}, "unknown"},
		{"foreign user session", &mockSessionRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
				return &model.Session{ID: id, UserID: "999"}, nil
			},
		}, "foreign"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestService(tc.repo)
			user, err := s.CurrentUser(context.Background(), tc.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user != nil {
				t.Errorf("user = %+v, want nil", user)
			}
		})
	}
}

// 有効なセッションからユーザーが解決されることを検証
func TestCurrentUser_ValidSession(t *testing.T) {
	repo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        id,
				UserID:    "1",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	s := newTestService(repo)

	user, err := s.CurrentUser(context.Background(), "valid-session")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != "1" {
		t.Errorf("user = %+v", user)
	}
}

// セッションストア障害がエラーとして伝播することを検証
func TestCurrentUser_StoreFailure(t *testing.T) {
	repo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("connection refused")
		},
	}
	s := newTestService(repo)

	if _, err := s.CurrentUser(context.Background(), "any"); err == nil {
		t.Error("expected error")
	}
}
