// Package auth は認証情報の照合とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/billman/internal/config"
	"github.com/hitoshi/billman/internal/model"
	"github.com/hitoshi/billman/internal/repository"
)

// ErrInvalidCredentials は提出された認証情報が一致しなかったことを示す。
// どちらのフィールドが誤っていたかは呼び出し側に伝えない。
// これ以外のエラーはすべて認証システム障害として扱い、上位へ伝播させる。
var ErrInvalidCredentials = errors.New("invalid credentials")

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// 認証情報ストアは単一の静的レコードで、設定から注入される。
type Service struct {
	seed        config.SeedUser
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(seed config.SeedUser, sessionRepo repository.SessionRepository, cfg ServiceConfig) *Service {
	return &Service{
		seed:        seed,
		sessionRepo: sessionRepo,
		config:      cfg,
	}
}

// Authenticate は提出されたemail/passwordを静的レコードと完全一致で照合する。
// 一致した場合はパスワードを除いたUserを返す。
// 不一致の場合はErrInvalidCredentialsを返す（panicもその他の副作用もない）。
func (s *Service) Authenticate(email, password string) (*model.User, error) {
	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(s.seed.Email)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(s.seed.Password)) == 1

	if !emailMatch || !passwordMatch {
		return nil, ErrInvalidCredentials
	}

	return &model.User{
		ID:    s.seed.ID,
		Name:  s.seed.Name,
		Email: s.seed.Email,
	}, nil
}

// SignIn は認証情報を照合し、成功時にセッションを発行する。
// 不一致時はErrInvalidCredentials、それ以外の失敗は認証システム障害として返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := s.Authenticate(email, password)
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// SignOut はセッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser はセッションIDから現在のユーザーを取得する。
// セッションが無効・期限切れ・別ユーザーの場合はnilを返す。
// 無効なセッションは「未ログイン」と等価でありエラーではない。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if session.UserID != s.seed.ID {
		return nil, nil
	}

	return &model.User{
		ID:    s.seed.ID,
		Name:  s.seed.Name,
		Email: s.seed.Email,
	}, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
