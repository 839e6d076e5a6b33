package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// ListPosts は記事一覧を返す。categoryIDが空でない場合はそのカテゴリで絞り込む。
	ListPosts(ctx context.Context, categoryID string) ([]postResponse, error)
	// GetPost は記事を1件返す。
	GetPost(ctx context.Context, postID string) (*postResponse, error)
	// CreatePost はuserIDを所有者として記事を作成する。
	CreatePost(ctx context.Context, userID string, req postRequest) (*postResponse, error)
	// UpdatePost はuserIDが所有する記事を更新する。
	UpdatePost(ctx context.Context, userID, postID string, req postRequest) (*postResponse, error)
	// DeletePost はuserIDが所有する記事を削除する。
	DeletePost(ctx context.Context, userID, postID string) error
}

// PostHandler は記事管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// postRequest は記事の作成・更新リクエストのボディ。
// 所有者IDはボディから受け取らず、常にセッションから取得する。
type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	// CategoryIDs はキー省略またはnullの場合nil。[]の場合は空スライスを指す。
	CategoryIDs *[]string `json:"categoryIds"`
}

// categoryIDs はサービス層に渡すカテゴリIDのスライスを返す。
// 指定なしはnil、空指定は長さ0の非nilスライスになる。
func (req postRequest) categoryIDs() []string {
	if req.CategoryIDs == nil {
		return nil
	}
	return *req.CategoryIDs
}

// postUserResponse は記事の投稿者情報。
type postUserResponse struct {
	Username string `json:"username"`
}

// categoryResponse はカテゴリのレスポンス。
type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// postResponse は記事のレスポンス。
type postResponse struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Content    string             `json:"content"`
	UserID     string             `json:"userId"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	User       postUserResponse   `json:"user"`
	Categories []categoryResponse `json:"categories"`
}

// ListPosts は記事一覧を取得する。
// GET /api/posts?category=<id>
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetPost は記事を1件取得する。
// GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePost は記事を作成する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.CreatePost(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePost は記事を更新する。
// 他ユーザーの記事と存在しない記事はどちらも404になる。
// PUT /api/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.UpdatePost(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePost は記事を削除する。
// DELETE /api/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePost(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireUserID はセッションミドルウェアが注入したユーザーIDを取得する。
// 取得できない場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}
