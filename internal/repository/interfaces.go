// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/blogman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// ユーザー名またはメールアドレスが重複する場合はErrDuplicateをラップして返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
// PostgreSQLとRedisの2種類の実装がある。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// PostRepository は記事データの永続化インターフェース。
// 記事本体とカテゴリ関連の書き込みは常に同一トランザクションで行う。
type PostRepository interface {
	// List は記事一覧を投稿者名とカテゴリ付きでupdated_at降順に返す。
	// categoryIDが空でない場合、そのカテゴリを含む記事のみを返す。
	// 返却される各記事のカテゴリ一覧は絞り込みに関係なく全件となる。
	List(ctx context.Context, categoryID string) ([]*model.PostWithDetails, error)

	// FindByID は指定IDの記事を投稿者名とカテゴリ付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.PostWithDetails, error)

	// CreateWithCategories は記事を作成し、カテゴリ関連を同一トランザクションで設定する。
	// 存在しないカテゴリが含まれる場合はErrForeignKeyViolationをラップして返し、何も保存しない。
	CreateWithCategories(ctx context.Context, post *model.Post, categoryIDs []string) error

	// UpdateOwned は所有者が一致する記事のタイトルと本文を更新する。
	// categoryIDsがnilの場合は既存のカテゴリ関連を維持し、空スライスの場合は全て解除する。
	// 対象の記事が存在しないか所有者が異なる場合はfalseを返す。
	UpdateOwned(ctx context.Context, post *model.Post, categoryIDs []string) (bool, error)

	// DeleteOwned は所有者が一致する記事を削除する。
	// 1行だけ削除された場合にtrueを返す。カテゴリ関連はCASCADE削除される。
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// List は全カテゴリを名前順で返す。
	List(ctx context.Context) ([]model.Category, error)

	// EnsureExists は指定名のカテゴリが存在しなければ作成する。
	// 新規に作成した件数を返す。
	EnsureExists(ctx context.Context, names []string) (int64, error)
}

