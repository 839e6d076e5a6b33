package handler

import (
	"context"

	"github.com/hitoshi/blogman/internal/auth"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/post"
	"github.com/hitoshi/blogman/internal/repository"
)

// AuthServiceAdapter は auth.Service を AuthServiceInterface に適合させるアダプタ。
type AuthServiceAdapter struct {
	svc *auth.Service
}

// NewAuthServiceAdapter はAuthServiceAdapterを生成する。
func NewAuthServiceAdapter(svc *auth.Service) *AuthServiceAdapter {
	return &AuthServiceAdapter{svc: svc}
}

// Register はユーザーを登録しhandlerの結果型で返す。
func (a *AuthServiceAdapter) Register(ctx context.Context, req registerRequest) (*authResult, error) {
	result, err := a.svc.Register(ctx, auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return toAuthResult(result), nil
}

// Login は認証しhandlerの結果型で返す。
func (a *AuthServiceAdapter) Login(ctx context.Context, email, password string) (*authResult, error) {
	result, err := a.svc.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return toAuthResult(result), nil
}

// Logout はセッションを破棄する。
func (a *AuthServiceAdapter) Logout(ctx context.Context, sessionID string) error {
	return a.svc.Logout(ctx, sessionID)
}

// LogoutAll はユーザーの全セッションを破棄する。
func (a *AuthServiceAdapter) LogoutAll(ctx context.Context, userID string) error {
	return a.svc.LogoutAll(ctx, userID)
}

// GetCurrentUser は現在のユーザーをhandlerレスポンス型で返す。
func (a *AuthServiceAdapter) GetCurrentUser(ctx context.Context, userID string) (*currentUserResponse, error) {
	u, err := a.svc.GetCurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &currentUserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}, nil
}

func toAuthResult(result *auth.Result) *authResult {
	return &authResult{
		User: userSummaryResponse{
			ID:       result.User.ID,
			Username: result.User.Username,
		},
		SessionID: result.Session.ID,
		ExpiresAt: result.Session.ExpiresAt,
	}
}

// PostServiceAdapter は post.Service を PostServiceInterface に適合させるアダプタ。
type PostServiceAdapter struct {
	svc *post.Service
}

// NewPostServiceAdapter はPostServiceAdapterを生成する。
func NewPostServiceAdapter(svc *post.Service) *PostServiceAdapter {
	return &PostServiceAdapter{svc: svc}
}

// ListPosts は記事一覧をhandlerレスポンス型で返す。
func (a *PostServiceAdapter) ListPosts(ctx context.Context, categoryID string) ([]postResponse, error) {
	posts, err := a.svc.ListPosts(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	results := make([]postResponse, len(posts))
	for i, p := range posts {
		results[i] = toPostResponse(p)
	}
	return results, nil
}

// GetPost は記事をhandlerレスポンス型で返す。
func (a *PostServiceAdapter) GetPost(ctx context.Context, postID string) (*postResponse, error) {
	p, err := a.svc.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(p)
	return &resp, nil
}

// CreatePost は記事を作成しhandlerレスポンス型で返す。
func (a *PostServiceAdapter) CreatePost(ctx context.Context, userID string, req postRequest) (*postResponse, error) {
	p, err := a.svc.CreatePost(ctx, userID, toPostInput(req))
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(p)
	return &resp, nil
}

// UpdatePost は記事を更新しhandlerレスポンス型で返す。
func (a *PostServiceAdapter) UpdatePost(ctx context.Context, userID, postID string, req postRequest) (*postResponse, error) {
	p, err := a.svc.UpdatePost(ctx, userID, postID, toPostInput(req))
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(p)
	return &resp, nil
}

// DeletePost は記事を削除する。
func (a *PostServiceAdapter) DeletePost(ctx context.Context, userID, postID string) error {
	return a.svc.DeletePost(ctx, userID, postID)
}

func toPostInput(req postRequest) post.PostInput {
	return post.PostInput{
		Title:       req.Title,
		Content:     req.Content,
		CategoryIDs: req.categoryIDs(),
	}
}

// toPostResponse は model.PostWithDetails をhandlerレスポンス型に変換する。
func toPostResponse(p *model.PostWithDetails) postResponse {
	return postResponse{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		UserID:     p.UserID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		User:       postUserResponse{Username: p.Username},
		Categories: toCategoryResponses(p.Categories),
	}
}

// toCategoryResponses はカテゴリを変換する。nilの場合も空配列として返す。
func toCategoryResponses(categories []model.Category) []categoryResponse {
	results := make([]categoryResponse, len(categories))
	for i, c := range categories {
		results[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	return results
}

// CategoryServiceAdapter は repository.CategoryRepository を CategoryServiceInterface に適合させるアダプタ。
type CategoryServiceAdapter struct {
	repo repository.CategoryRepository
}

// NewCategoryServiceAdapter はCategoryServiceAdapterを生成する。
func NewCategoryServiceAdapter(repo repository.CategoryRepository) *CategoryServiceAdapter {
	return &CategoryServiceAdapter{repo: repo}
}

// ListCategories は全カテゴリをhandlerレスポンス型で返す。
func (a *CategoryServiceAdapter) ListCategories(ctx context.Context) ([]categoryResponse, error) {
	categories, err := a.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toCategoryResponses(categories), nil
}

// compile-time interface checks
var (
	_ AuthServiceInterface     = (*AuthServiceAdapter)(nil)
	_ PostServiceInterface     = (*PostServiceAdapter)(nil)
	_ CategoryServiceInterface = (*CategoryServiceAdapter)(nil)
)
