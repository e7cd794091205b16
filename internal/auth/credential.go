package auth

import (
	"net/http"
	"strings"
)

// DefaultCookieName はセッションCookieの既定名。
const DefaultCookieName = "ct_token"

// DefaultFallbackHeader は標準のAuthorizationヘッダーを除去するプロキシ環境向けの代替ヘッダー。
const DefaultFallbackHeader = "X-Auth-Token"

// CredentialExtractor はリクエストからトークン候補を取り出す。
type CredentialExtractor struct {
	cookieName     string
	fallbackHeader string
}

// NewCredentialExtractor はCredentialExtractorを生成する。
// 空文字列を渡した項目は既定値を使用する。
func NewCredentialExtractor(cookieName, fallbackHeader string) *CredentialExtractor {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if fallbackHeader == "" {
		fallbackHeader = DefaultFallbackHeader
	}
	return &CredentialExtractor{
		cookieName:     cookieName,
		fallbackHeader: fallbackHeader,
	}
}

// Extract は次の優先順でトークンを取り出す。見つからない場合は空文字列を返す。
//
//  1. Authorization: Bearer <token>
//  2. 代替ヘッダー（既定 X-Auth-Token）
//  3. セッションCookie（既定 ct_token）
func (e *CredentialExtractor) Extract(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if token := strings.TrimSpace(r.Header.Get(e.fallbackHeader)); token != "" {
		return token
	}
	if c, err := r.Cookie(e.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// CookieName はセッションCookie名を返す。
func (e *CredentialExtractor) CookieName() string {
	return e.cookieName
}

// FallbackHeader は代替ヘッダー名を返す。
func (e *CredentialExtractor) FallbackHeader() string {
	return e.fallbackHeader
}

// bearerToken は"Bearer <token>"形式のヘッダー値からトークンを取り出す。
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
