package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/blogman/internal/model"
)

// queryer は*sql.DBと*sql.Txの共通の読み取りメソッド。
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const selectPostWithUser = `SELECT p.id, p.title, p.content, p.user_id, p.created_at, p.updated_at, u.username
	 FROM posts p
	 JOIN users u ON u.id = p.user_id`

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// List は記事一覧を投稿者名とカテゴリ付きでupdated_at降順に返す。
// categoryIDでの絞り込みはEXISTSで行うため、各記事のカテゴリ一覧は欠けない。
func (r *PostgresPostRepo) List(ctx context.Context, categoryID string) ([]*model.PostWithDetails, error) {
	query := selectPostWithUser
	var args []any
	if categoryID != "" {
		query += `
	 WHERE EXISTS (
	     SELECT 1 FROM post_categories pc
	     WHERE pc.post_id = p.id AND pc.category_id = $1
	 )`
		args = append(args, categoryID)
	}
	query += `
	 ORDER BY p.updated_at DESC, p.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.PostWithDetails, 0)
	for rows.Next() {
		p := &model.PostWithDetails{Categories: []model.Category{}}
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.CreatedAt, &p.UpdatedAt, &p.Username); err != nil {
			return nil, fmt.Errorf("記事行の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	if err := attachCategories(ctx, r.db, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FindByID は指定IDの記事を投稿者名とカテゴリ付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.PostWithDetails, error) {
	p := &model.PostWithDetails{Categories: []model.Category{}}
	err := r.db.QueryRowContext(ctx,
		selectPostWithUser+`
	 WHERE p.id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.CreatedAt, &p.UpdatedAt, &p.Username)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}

	if err := attachCategories(ctx, r.db, []*model.PostWithDetails{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateWithCategories は記事を作成し、カテゴリ関連を同一トランザクションで設定する。
func (r *PostgresPostRepo) CreateWithCategories(ctx context.Context, post *model.Post, categoryIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.Title, post.Content, post.UserID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}

	if err := insertCategories(ctx, tx, post.ID, categoryIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// UpdateOwned は所有者が一致する記事のタイトルと本文を更新する。
// UPDATE ... RETURNINGで存在確認と所有者確認を1回の問い合わせで行い、行ロックを取得する。
func (r *PostgresPostRepo) UpdateOwned(ctx context.Context, post *model.Post, categoryIDs []string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	var updatedID string
	err = tx.QueryRowContext(ctx,
		`UPDATE posts SET title = $3, content = $4, updated_at = $5
		 WHERE id = $1 AND user_id = $2
		 RETURNING id`,
		post.ID, post.UserID, post.Title, post.Content, post.UpdatedAt,
	).Scan(&updatedID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}

	// nilは「カテゴリを変更しない」、空スライスは「全て解除」を意味する
	if categoryIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM post_categories WHERE post_id = $1`,
			updatedID,
		); err != nil {
			return false, fmt.Errorf("カテゴリ関連の削除に失敗しました: %w", err)
		}
		if err := insertCategories(ctx, tx, updatedID, categoryIDs); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return true, nil
}

// DeleteOwned は所有者が一致する記事を削除する。
func (r *PostgresPostRepo) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("記事の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected == 1, nil
}

// insertCategories は記事とカテゴリの関連をまとめて挿入する。
// categoryIDsは重複排除済みであること。
// ErrForeignKeyViolationに分類するのはこの挿入の失敗のみで、存在しないカテゴリを意味する。
func insertCategories(ctx context.Context, tx *sql.Tx, postID string, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO post_categories (post_id, category_id)
		 SELECT $1::uuid, unnest($2::uuid[])`,
		postID, pq.Array(categoryIDs),
	)
	if err != nil {
		return fmt.Errorf("カテゴリ関連の作成に失敗しました: %w", classifyError(err))
	}
	return nil
}

// attachCategories は記事一覧にカテゴリを1回の問い合わせでまとめて付与する。
func attachCategories(ctx context.Context, q queryer, posts []*model.PostWithDetails) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	byID := make(map[string]*model.PostWithDetails, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	rows, err := q.QueryContext(ctx,
		`SELECT pc.post_id, c.id, c.name
		 FROM post_categories pc
		 JOIN categories c ON c.id = pc.category_id
		 WHERE pc.post_id = ANY($1)
		 ORDER BY c.name ASC`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("記事カテゴリの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID string
		var c model.Category
		if err := rows.Scan(&postID, &c.ID, &c.Name); err != nil {
			return fmt.Errorf("記事カテゴリ行の読み取りに失敗しました: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Categories = append(p.Categories, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("記事カテゴリの走査に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
