// Package model はドメインモデルを定義する。
package model

import "time"

// User はブログに登録したユーザーを表す。
// 登録時に作成され、アプリ内で更新・削除されることはない。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // bcryptハッシュ
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// IDはCookieに格納される不透明なトークン。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
