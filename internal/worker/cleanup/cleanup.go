// Package cleanup は期限切れデータの定期削除ジョブを提供する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/billman/internal/repository"
)

// SessionSweeper は期限切れセッション行を削除するジョブ。
// 期限切れセッションは検索時点で「未ログイン」扱いのため機能影響はないが、
// テーブルの肥大化を防ぐために定期的に掃除する。
type SessionSweeper struct {
	sessions repository.SessionRepository
	logger   *slog.Logger
}

// NewSessionSweeper はSessionSweeperを生成する。
func NewSessionSweeper(sessions repository.SessionRepository, logger *slog.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		logger:   logger,
	}
}

// Run は期限切れセッションを1回削除する。
func (s *SessionSweeper) Run(ctx context.Context) error {
	deleted, err := s.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("session sweep failed: %w", err)
	}

	s.logger.Info("expired sessions swept",
		slog.Int64("deleted", deleted),
	)
	return nil
}

// Start は指定間隔でRunを繰り返す。起動直後に1回実行する。
// コンテキストのキャンセルで停止する。
func (s *SessionSweeper) Start(ctx context.Context, interval time.Duration) {
	if err := s.Run(ctx); err != nil {
		s.logger.Error("session sweep failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("session sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
