// Package model はドメインモデルを定義する。
package model

import "time"

// Post はブログ記事を表す。
// UserIDは作成後に変更されない。
type Post struct {
	ID        string
	Title     string
	Content   string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category は記事のカテゴリを表す。
// 参照データであり、APIから作成されることはない。
type Category struct {
	ID   string
	Name string
}

// PostWithDetails は記事に投稿者名とカテゴリ一覧を結合したモデル。
// usersテーブルとpost_categoriesテーブルをJOINして取得される。
type PostWithDetails struct {
	Post
	Username   string
	Categories []Category
}

// HasCategory は記事が指定カテゴリに属しているかを返す。
func (p *PostWithDetails) HasCategory(categoryID string) bool {
	for _, c := range p.Categories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}
