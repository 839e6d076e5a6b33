// Package seed は参照データ（カテゴリ）とデモデータの初期投入を提供する。
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

//go:embed categories.json
var categoriesJSON []byte

// CategoryEnsurer はカテゴリの冪等な作成に必要なインターフェース。
// repository.CategoryRepositoryの部分集合として定義する。
type CategoryEnsurer interface {
	EnsureExists(ctx context.Context, names []string) (int64, error)
}

// DefaultCategories は組み込みのカテゴリ名一覧を返す。
func DefaultCategories() ([]string, error) {
	return parseCategories(categoriesJSON)
}

// parseCategories はカテゴリ名のJSON配列を解析する。
// 前後の空白を除去し、空文字と重複は取り除く。
func parseCategories(data []byte) ([]string, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("カテゴリ定義の解析に失敗: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// Run は組み込みのカテゴリを投入する。既存のカテゴリはそのまま残す。
// 新規に作成した件数を返す。
func Run(ctx context.Context, repo CategoryEnsurer, logger *slog.Logger) (int64, error) {
	names, err := DefaultCategories()
	if err != nil {
		return 0, err
	}

	created, err := repo.EnsureExists(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("カテゴリの投入に失敗: %w", err)
	}

	logger.Info("カテゴリの投入が完了しました",
		slog.Int("total", len(names)),
		slog.Int64("created", created),
	)
	return created, nil
}
