// Package post は記事の作成・更新・削除・閲覧のドメインロジックを提供する。
//
// 書き込みは全て所有者スコープで行う。他ユーザーの記事と存在しない記事は
// 呼び出し側から区別できない同一のエラー（POST_NOT_FOUND）になる。
package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
)

// MaxTitleLength はタイトルの最大文字数（postsテーブルのvarchar(255)に対応）。
const MaxTitleLength = 255

// PostInput は記事の作成・更新の入力。
type PostInput struct {
	Title   string
	Content string
	// CategoryIDs がnilの場合、更新時は既存のカテゴリを維持する。
	// 空スライスの場合は全てのカテゴリ関連を解除する。
	CategoryIDs []string
}

// Service は記事管理のサービス層。
type Service struct {
	repo             repository.PostRepository
	titleSanitizer   security.Sanitizer
	contentSanitizer security.Sanitizer
	metrics          metrics.MetricsCollector
	now              func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.PostRepository,
	titleSanitizer security.Sanitizer,
	contentSanitizer security.Sanitizer,
	mc metrics.MetricsCollector,
) *Service {
	return &Service{
		repo:             repo,
		titleSanitizer:   titleSanitizer,
		contentSanitizer: contentSanitizer,
		metrics:          mc,
		now:              time.Now,
	}
}

// ListPosts は記事一覧をupdated_at降順で返す。
// categoryIDが空でない場合、そのカテゴリを含む記事のみを返す。
func (s *Service) ListPosts(ctx context.Context, categoryID string) ([]*model.PostWithDetails, error) {
	if categoryID != "" {
		parsed, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, model.NewInvalidCategoryError(categoryID)
		}
		categoryID = parsed.String()
	}

	posts, err := s.repo.List(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// GetPost は記事を投稿者名とカテゴリ付きで返す。
func (s *Service) GetPost(ctx context.Context, postID string) (*model.PostWithDetails, error) {
	id, ok := parseID(postID)
	if !ok {
		return nil, model.NewPostNotFoundError(postID)
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	return p, nil
}

// CreatePost はuserIDを所有者として記事を作成する。
// 記事本体とカテゴリ関連は同一トランザクションで保存され、
// 存在しないカテゴリが含まれる場合は何も保存されない。
func (s *Service) CreatePost(ctx context.Context, userID string, in PostInput) (*model.PostWithDetails, error) {
	title, content, categoryIDs, apiErr := s.normalize(in)
	if apiErr != nil {
		s.metrics.RecordPostWrite(metrics.OperationCreate, metrics.ResultInvalid)
		return nil, apiErr
	}

	now := s.now()
	p := &model.Post{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateWithCategories(ctx, p, categoryIDs); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			s.metrics.RecordPostWrite(metrics.OperationCreate, metrics.ResultInvalid)
			return nil, model.NewInvalidCategoryError("")
		}
		s.metrics.RecordPostWrite(metrics.OperationCreate, metrics.ResultError)
		return nil, fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	s.metrics.RecordPostWrite(metrics.OperationCreate, metrics.ResultSuccess)

	return s.reload(ctx, p.ID)
}

// UpdatePost はuserIDが所有する記事のタイトル・本文・カテゴリを更新する。
// 記事が存在しない場合と所有者が異なる場合は同じPOST_NOT_FOUNDを返す。
func (s *Service) UpdatePost(ctx context.Context, userID, postID string, in PostInput) (*model.PostWithDetails, error) {
	id, ok := parseID(postID)
	if !ok {
		s.metrics.RecordPostWrite(metrics.OperationUpdate, metrics.ResultNotFound)
		return nil, model.NewPostNotFoundError(postID)
	}

	title, content, categoryIDs, apiErr := s.normalize(in)
	if apiErr != nil {
		s.metrics.RecordPostWrite(metrics.OperationUpdate, metrics.ResultInvalid)
		return nil, apiErr
	}

	p := &model.Post{
		ID:        id,
		Title:     title,
		Content:   content,
		UserID:    userID,
		UpdatedAt: s.now(),
	}

	updated, err := s.repo.UpdateOwned(ctx, p, categoryIDs)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			s.metrics.RecordPostWrite(metrics.OperationUpdate, metrics.ResultInvalid)
			return nil, model.NewInvalidCategoryError("")
		}
		s.metrics.RecordPostWrite(metrics.OperationUpdate, metrics.ResultError)
		return nil, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	if !updated {
		s.metrics.RecordPostWrite(metrics.OperationUpdate, metrics.ResultNotFound)
		return nil, model.NewPostNotFoundError(postID)
	}
	s.metrics.RecordPostWrite(metrics.OperationUpdate, metrics.ResultSuccess)

	return s.reload(ctx, id)
}

// DeletePost はuserIDが所有する記事を削除する。
// 削除された行がちょうど1行の場合のみ成功とする。
func (s *Service) DeletePost(ctx context.Context, userID, postID string) error {
	id, ok := parseID(postID)
	if !ok {
		s.metrics.RecordPostWrite(metrics.OperationDelete, metrics.ResultNotFound)
		return model.NewPostNotFoundError(postID)
	}

	deleted, err := s.repo.DeleteOwned(ctx, id, userID)
	if err != nil {
		s.metrics.RecordPostWrite(metrics.OperationDelete, metrics.ResultError)
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}
	if !deleted {
		s.metrics.RecordPostWrite(metrics.OperationDelete, metrics.ResultNotFound)
		return model.NewPostNotFoundError(postID)
	}
	s.metrics.RecordPostWrite(metrics.OperationDelete, metrics.ResultSuccess)
	return nil
}

// reload は書き込み直後の記事を結合済みの形で再取得する。
func (s *Service) reload(ctx context.Context, id string) (*model.PostWithDetails, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の再取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("書き込み直後の記事が見つかりません: %s", id)
	}
	return p, nil
}

// normalize は入力をサニタイズして検証し、保存用の値を返す。
func (s *Service) normalize(in PostInput) (string, string, []string, *model.APIError) {
	var reasons []string

	title := s.titleSanitizer.Sanitize(strings.TrimSpace(in.Title))
	switch {
	case title == "":
		reasons = append(reasons, "タイトルは必須です")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		reasons = append(reasons, fmt.Sprintf("タイトルは%d文字以内で入力してください", MaxTitleLength))
	}

	content := strings.TrimSpace(s.contentSanitizer.Sanitize(strings.TrimSpace(in.Content)))
	if content == "" {
		reasons = append(reasons, "本文は必須です")
	}

	if len(reasons) > 0 {
		return "", "", nil, model.NewValidationError(reasons...)
	}

	categoryIDs, apiErr := normalizeCategoryIDs(in.CategoryIDs)
	if apiErr != nil {
		return "", "", nil, apiErr
	}

	return title, content, categoryIDs, nil
}

// normalizeCategoryIDs はカテゴリIDを正規化し、重複を取り除く。
// nilはnilのまま返し、「指定なし」と「空指定」の区別を保つ。
func normalizeCategoryIDs(ids []string) ([]string, *model.APIError) {
	if ids == nil {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, ok := parseID(raw)
		if !ok {
			return nil, model.NewInvalidCategoryError(raw)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}

// parseID はUUID形式の文字列を正規化する。
func parseID(raw string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
