package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blogman/internal/model"
)

//go:embed demo.json
var demoJSON []byte

// maxDemoCategoriesPerPost はデモ記事1件あたりに付与するカテゴリの上限。
const maxDemoCategoriesPerPost = 3

// DemoUser はデモ用ユーザーの定義。
type DemoUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DemoPost はデモ用記事の定義。
type DemoPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DemoData はデモデータ一式。
type DemoData struct {
	Users []DemoUser `json:"users"`
	Posts []DemoPost `json:"posts"`
}

// UserStore はデモユーザーの作成に必要なインターフェース。
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// PostCreator はデモ記事の作成に必要なインターフェース。
type PostCreator interface {
	CreateWithCategories(ctx context.Context, post *model.Post, categoryIDs []string) error
}

// CategoryLister は既存カテゴリの取得に必要なインターフェース。
type CategoryLister interface {
	List(ctx context.Context) ([]model.Category, error)
}

// DemoDeps はデモデータ投入の依存関係。
type DemoDeps struct {
	Users      UserStore
	Posts      PostCreator
	Categories CategoryLister
	// BcryptCost は0の場合bcrypt.DefaultCostを使う。
	BcryptCost int
	// Rand はnilの場合、時刻由来のシードで生成する。
	Rand *rand.Rand
	Now  func() time.Time
}

// DemoResult はデモデータ投入の結果。
type DemoResult struct {
	Users   int
	Posts   int
	Skipped bool
}

// DefaultDemoData は組み込みのデモデータを返す。
func DefaultDemoData() (*DemoData, error) {
	var data DemoData
	if err := json.Unmarshal(demoJSON, &data); err != nil {
		return nil, fmt.Errorf("デモデータの解析に失敗: %w", err)
	}
	if len(data.Users) == 0 {
		return nil, fmt.Errorf("デモデータにユーザーが含まれていない")
	}
	return &data, nil
}

// RunDemo はデモユーザーとデモ記事を投入する。
// 各記事の所有者はデモユーザーから無作為に選び、既存カテゴリから1〜3件を無作為に関連付ける。
// デモユーザーが1人でも既に存在する場合は記事の重複を避けるため何もしない。
func RunDemo(ctx context.Context, data *DemoData, deps DemoDeps, logger *slog.Logger) (DemoResult, error) {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	rng := deps.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>32))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	for _, u := range data.Users {
		existing, err := deps.Users.FindByEmail(ctx, u.Email)
		if err != nil {
			return DemoResult{}, fmt.Errorf("デモユーザーの確認に失敗: %w", err)
		}
		if existing != nil {
			logger.Info("デモデータは投入済みのためスキップします",
				slog.String("email", u.Email),
			)
			return DemoResult{Skipped: true}, nil
		}
	}

	categories, err := deps.Categories.List(ctx)
	if err != nil {
		return DemoResult{}, fmt.Errorf("カテゴリの取得に失敗: %w", err)
	}

	userIDs := make([]string, 0, len(data.Users))
	for _, u := range data.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return DemoResult{}, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
		}
		t := now()
		user := &model.User{
			ID:           uuid.New().String(),
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: string(hash),
			CreatedAt:    t,
			UpdatedAt:    t,
		}
		if err := deps.Users.Create(ctx, user); err != nil {
			return DemoResult{}, fmt.Errorf("デモユーザー %s の作成に失敗: %w", u.Username, err)
		}
		userIDs = append(userIDs, user.ID)
	}

	result := DemoResult{Users: len(userIDs)}
	for _, p := range data.Posts {
		t := now()
		post := &model.Post{
			ID:        uuid.New().String(),
			Title:     p.Title,
			Content:   p.Content,
			UserID:    userIDs[rng.IntN(len(userIDs))],
			CreatedAt: t,
			UpdatedAt: t,
		}
		if err := deps.Posts.CreateWithCategories(ctx, post, pickCategoryIDs(rng, categories)); err != nil {
			return result, fmt.Errorf("デモ記事 %q の作成に失敗: %w", p.Title, err)
		}
		result.Posts++
	}

	logger.Info("デモデータの投入が完了しました",
		slog.Int("users", result.Users),
		slog.Int("posts", result.Posts),
	)
	return result, nil
}

// pickCategoryIDs は重複のないカテゴリIDを1〜3件無作為に選ぶ。
// カテゴリが存在しない場合は空スライスを返す。
func pickCategoryIDs(rng *rand.Rand, categories []model.Category) []string {
	if len(categories) == 0 {
		return []string{}
	}
	n := rng.IntN(min(maxDemoCategoriesPerPost, len(categories))) + 1
	perm := rng.Perm(len(categories))
	ids := make([]string, 0, n)
	for _, i := range perm[:n] {
		ids = append(ids, categories[i].ID)
	}
	return ids
}
