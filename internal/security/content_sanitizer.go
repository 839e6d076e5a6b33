// Package security はアプリケーションのセキュリティ機能を提供する。
//
// 記事のタイトルと本文は保存前にbluemondayの許可リストポリシーでサニタイズし、
// 保存済みデータ経由のXSSを防ぐ。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はユーザー入力のサニタイズ機能のインターフェースを定義する。
type Sanitizer interface {
	// Sanitize は入力を安全な文字列にして返す。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(raw string) string
}

// contentSanitizer は記事本文用のSanitizer実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer は記事本文用のSanitizerを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, hr, h2-h4, a, ul, ol, li, blockquote, pre, code, strong, em, del, img
//   - script, iframe, style および全てのon*イベント属性は除去
//   - imgのsrc属性: httpsスキームのみ許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "hr",
		"h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "del",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return u.Host != ""
	})

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// titleSanitizer は記事タイトル用のSanitizer実装。
// タイトルはプレーンテキストとして扱い、HTMLタグを全て除去する。
type titleSanitizer struct {
	policy   *bluemonday.Policy
	stripper *strings.Replacer
}

// NewTitleSanitizer は記事タイトル用のSanitizerを生成する。
func NewTitleSanitizer() *titleSanitizer {
	return &titleSanitizer{
		policy:   bluemonday.StrictPolicy(),
		stripper: strings.NewReplacer("<", "", ">", ""),
	}
}

// Sanitize はHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyがエスケープした実体参照は元に戻すが、山括弧は残さない。
func (s *titleSanitizer) Sanitize(raw string) string {
	text := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.TrimSpace(s.stripper.Replace(text))
}

// compile-time interface check
var (
	_ Sanitizer = (*contentSanitizer)(nil)
	_ Sanitizer = (*titleSanitizer)(nil)
)
