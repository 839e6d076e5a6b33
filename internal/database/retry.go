package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// initialBackoff は指数バックオフの初回遅延。
	initialBackoff = 500 * time.Millisecond
	// maxBackoff は指数バックオフの最大遅延。
	maxBackoff = 8 * time.Second
)

// Pinger は疎通確認のインターフェース。*sql.DB が満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// sleepFunc はバックオフの待機処理。テストで差し替える。
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CalculateBackoff は失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回500ms、2倍ずつ増加、最大8秒。
func CalculateBackoff(failures int) time.Duration {
	delay := initialBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// PingWithRetry は最大maxAttempts回まで疎通確認を行う。
// コンテナ起動直後などDBの準備が整っていない場合に備え、失敗ごとに指数バックオフで待機する。
// maxAttemptsが1未満の場合は1回だけ試行する。
func PingWithRetry(ctx context.Context, p Pinger, maxAttempts int, logger *slog.Logger) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = p.PingContext(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		delay := CalculateBackoff(attempt - 1)
		logger.Warn("database is not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("retry_in", delay),
			slog.String("error", lastErr.Error()),
		)
		if err := sleepFunc(ctx, delay); err != nil {
			return fmt.Errorf("database ping canceled: %w", err)
		}
	}

	return fmt.Errorf("database ping failed after %d attempts: %w", maxAttempts, lastErr)
}
