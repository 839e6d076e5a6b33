// Package auth はユーザー登録、パスワード認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

const (
	// BcryptCost はパスワードハッシュのコスト。
	BcryptCost = 11
	// MinPasswordLength はパスワードの最小文字数。
	MinPasswordLength = 10
	// maxPasswordBytes はbcryptが扱える入力の上限バイト数。
	maxPasswordBytes = 72
	// maxFieldLength はユーザー名とメールアドレスの最大文字数（varchar(255)）。
	maxFieldLength = 255
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // 0の場合はBcryptCostを使う
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Result は登録・ログインの結果。発行したセッションとユーザーを保持する。
type Result struct {
	User    *model.User
	Session *model.Session
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     metrics.MetricsCollector
	config      ServiceConfig
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	mc metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = BcryptCost
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     mc,
		config:      config,
		now:         time.Now,
	}
}

// Register はユーザーを作成し、そのままログイン状態にするセッションを発行する。
// ユーザー名またはメールアドレスが既に使われている場合はDUPLICATE_USERを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if apiErr := validateRegistration(username, email, in.Password); apiErr != nil {
		return nil, apiErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateUserError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Result{User: user, Session: session}, nil
}

// Login はメールアドレスとパスワードで認証し、セッションを発行する。
// メールアドレスが未登録の場合とパスワードが誤っている場合は同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードは必須です")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}

	if user == nil {
		// 応答時間からメールアドレスの登録有無を推測されないよう照合は必ず行う
		_ = bcrypt.CompareHashAndPassword(s.dummyPasswordHash(), []byte(password))
		s.metrics.RecordLoginFailure()
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.RecordLoginFailure()
		slog.Info("login failed", slog.String("user_id", user.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return &Result{User: user, Session: session}, nil
}

// Logout はセッションを破棄する。
// セッションが存在しないか期限切れの場合はSESSION_NOT_FOUNDを返す。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return model.NewSessionNotFoundError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return model.NewSessionNotFoundError()
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	slog.Info("user logged out", slog.String("user_id", session.UserID))
	return nil
}

// LogoutAll はユーザーの全セッションを破棄する（全端末からのログアウト）。
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if userID == "" {
		return model.NewUnauthorizedError()
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("全セッションの削除に失敗しました: %w", err)
	}

	slog.Info("user logged out from all sessions", slog.String("user_id", userID))
	return nil
}

// GetCurrentUser はユーザーIDから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("セッションIDの生成に失敗しました: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("セッションの保存に失敗しました: %w", err)
	}

	s.metrics.RecordSessionIssued()
	return session, nil
}

func (s *Service) dummyPasswordHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("blogman-dummy-password"), s.config.BcryptCost)
	})
	return s.dummyHash
}

// validateRegistration は登録入力を検証する。
// 全ての違反をまとめて1つのVALIDATION_ERRORとして返す。
func validateRegistration(username, email, password string) *model.APIError {
	var reasons []string

	switch {
	case username == "":
		reasons = append(reasons, "ユーザー名は必須です")
	case utf8.RuneCountInString(username) > maxFieldLength:
		reasons = append(reasons, fmt.Sprintf("ユーザー名は%d文字以内で入力してください", maxFieldLength))
	}

	switch {
	case email == "":
		reasons = append(reasons, "メールアドレスは必須です")
	case utf8.RuneCountInString(email) > maxFieldLength || !isValidEmail(email):
		reasons = append(reasons, "メールアドレスの形式が正しくありません")
	}

	switch {
	case password == "":
		reasons = append(reasons, "パスワードは必須です")
	case utf8.RuneCountInString(password) < MinPasswordLength:
		reasons = append(reasons, fmt.Sprintf("パスワードは%d文字以上で入力してください", MinPasswordLength))
	case len(password) > maxPasswordBytes:
		reasons = append(reasons, fmt.Sprintf("パスワードは%dバイト以内で入力してください", maxPasswordBytes))
	}

	if len(reasons) > 0 {
		return model.NewValidationError(reasons...)
	}
	return nil
}

// isValidEmail は表示名を含まない単一のアドレスかを判定する。
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".")
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
