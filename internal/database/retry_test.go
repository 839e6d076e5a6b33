package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

// mockPinger は指定回数だけ失敗した後に成功するPingerのモック。
type mockPinger struct {
	failures int
	calls    int
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("connection refused")
	}
	return nil
}

// stubSleep はテスト中の待機を記録のみにする。
func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleepFunc = orig })
	return &delays
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{10, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := CalculateBackoff(tt.failures); got != tt.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestPingWithRetry_SucceedsAfterFailures(t *testing.T) {
	delays := stubSleep(t)
	p := &mockPinger{failures: 2}

	if err := PingWithRetry(context.Background(), p, 5, discardLogger()); err != nil {
		t.Fatalf("PingWithRetry: %v", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
	if len(*delays) != 2 || (*delays)[0] != 500*time.Millisecond || (*delays)[1] != time.Second {
		t.Errorf("delays = %v, want [500ms 1s]", *delays)
	}
}

func TestPingWithRetry_GivesUp(t *testing.T) {
	delays := stubSleep(t)
	p := &mockPinger{failures: 100}

	err := PingWithRetry(context.Background(), p, 3, discardLogger())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
	// 最後の試行の後は待機しない
	if len(*delays) != 2 {
		t.Errorf("len(delays) = %d, want 2", len(*delays))
	}
}

func TestPingWithRetry_SingleAttempt(t *testing.T) {
	delays := stubSleep(t)
	p := &mockPinger{failures: 1}

	if err := PingWithRetry(context.Background(), p, 0, discardLogger()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if p.calls != 1 || len(*delays) != 0 {
		t.Errorf("calls = %d, delays = %v, want 1 call and no wait", p.calls, *delays)
	}
}

func TestPingWithRetry_ContextCanceled(t *testing.T) {
	stubSleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &mockPinger{failures: 100}

	err := PingWithRetry(ctx, p, 5, discardLogger())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
