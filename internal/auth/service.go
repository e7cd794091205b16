// Package auth はメールアドレス・パスワード認証とアクセストークンの発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/ticklist/internal/metrics"
	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/password"
	"github.com/hitoshi/ticklist/internal/repository"
)

// パスワード長の制約（文字数）
const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

// DefaultTokenTTL はトークンの既定の有効期間（30日）。
const DefaultTokenTTL = 30 * 24 * time.Hour

// Config は認証コンポーネントの設定。
// 署名鍵やCookie名はグローバル変数ではなくこの構造体で明示的に渡す。
// トークンの読み取り元とCookieの発行設定もこの値から組み立てる。
type Config struct {
	Secret         []byte
	TokenTTL       time.Duration
	CookieName     string
	FallbackHeader string
	CookieSecure   bool
	CookieDomain   string
	BcryptCost     int
}

// withDefaults は未指定の項目に既定値を補ったコピーを返す。
func (c Config) withDefaults() Config {
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.FallbackHeader == "" {
		c.FallbackHeader = DefaultFallbackHeader
	}
	return c
}

// Result は登録・ログイン成功時の結果。
type Result struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users   repository.UserRepository
	lists   repository.ListRepository
	hasher  *password.Hasher
	tokens  *TokenIssuer
	creds   *CredentialExtractor
	cfg     Config
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	lists repository.ListRepository,
	cfg Config,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	cfg = cfg.withDefaults()
	return &Service{
		users:   users,
		lists:   lists,
		hasher:  password.NewHasher(cfg.BcryptCost),
		tokens:  NewTokenIssuer(cfg.Secret, cfg.TokenTTL),
		creds:   NewCredentialExtractor(cfg.CookieName, cfg.FallbackHeader),
		cfg:     cfg,
		metrics: mc,
		now:     time.Now,
	}
}

// Credentials はConfigのCookie名と代替ヘッダーでトークンを読み取るCredentialExtractorを返す。
func (s *Service) Credentials() *CredentialExtractor {
	return s.creds
}

// Config は既定値を補った設定を返す。署名鍵は含めない。
func (s *Service) Config() Config {
	cfg := s.cfg
	cfg.Secret = nil
	return cfg
}

// NormalizeEmail はメールアドレスの前後空白を除去し小文字化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateCredentials は登録時のメールアドレスとパスワードを検証する。
func validateCredentials(email, pw string) *model.APIError {
	if email == "" || !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return model.NewValidationError("メールアドレスの形式が正しくありません。")
	}
	n := utf8.RuneCountInString(pw)
	if n < MinPasswordLength {
		return model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で入力してください。", MinPasswordLength))
	}
	if n > MaxPasswordLength {
		return model.NewValidationError(fmt.Sprintf("パスワードは%d文字以内で入力してください。", MaxPasswordLength))
	}
	return nil
}

// Register はユーザーを登録し、トークンを発行する。
// 最初の登録ユーザーは所有者なしの旧データを引き継ぐ。
func (s *Service) Register(ctx context.Context, email, pw string) (*Result, error) {
	email = NormalizeEmail(email)
	if apiErr := validateCredentials(email, pw); apiErr != nil {
		s.metrics.RecordAuthAttempt("register", metrics.AuthOutcomeRejected)
		return nil, apiErr
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		s.metrics.RecordAuthAttempt("register", metrics.AuthOutcomeError)
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().Unix(),
	}

	adopted, err := s.users.CreateWithDefaults(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		s.metrics.RecordAuthAttempt("register", metrics.AuthOutcomeRejected)
		return nil, model.NewEmailTakenError()
	}
	if err != nil {
		s.metrics.RecordAuthAttempt("register", metrics.AuthOutcomeError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if adopted {
		slog.Info("first user adopted ownerless legacy data", slog.String("user_id", user.ID))
	}
	slog.Info("user registered", slog.String("user_id", user.ID))

	res, err := s.issue(user)
	if err != nil {
		s.metrics.RecordAuthAttempt("register", metrics.AuthOutcomeError)
		return nil, err
	}
	s.metrics.RecordAuthAttempt("register", metrics.AuthOutcomeSuccess)
	return res, nil
}

// Login はメールアドレスとパスワードを検証し、トークンを発行する。
// ユーザー不在とパスワード不一致は区別せず同じエラーを返す。
// 旧方式のハッシュで検証できた場合は現行方式で再ハッシュして保存する。
func (s *Service) Login(ctx context.Context, email, pw string) (*Result, error) {
	email = NormalizeEmail(email)
	if email == "" || pw == "" {
		s.metrics.RecordAuthAttempt("login", metrics.AuthOutcomeRejected)
		return nil, model.NewValidationError("メールアドレスとパスワードを入力してください。")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordAuthAttempt("login", metrics.AuthOutcomeError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.metrics.RecordAuthAttempt("login", metrics.AuthOutcomeRejected)
		return nil, model.NewInvalidCredentialsError()
	}

	ok, legacy := s.hasher.VerifyScheme(pw, user.PasswordHash)
	if !ok {
		s.metrics.RecordAuthAttempt("login", metrics.AuthOutcomeRejected)
		return nil, model.NewInvalidCredentialsError()
	}

	if legacy || s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, pw)
	}

	// 既定リスト導入前に作られたアカウントもログイン時に補完する
	if err := s.lists.EnsureDefaultLists(ctx, user.ID); err != nil {
		s.metrics.RecordAuthAttempt("login", metrics.AuthOutcomeError)
		return nil, fmt.Errorf("failed to ensure default lists: %w", err)
	}

	res, err := s.issue(user)
	if err != nil {
		s.metrics.RecordAuthAttempt("login", metrics.AuthOutcomeError)
		return nil, err
	}
	slog.Info("user logged in", slog.String("user_id", user.ID))
	s.metrics.RecordAuthAttempt("login", metrics.AuthOutcomeSuccess)
	return res, nil
}

// rehash は現行方式でハッシュし直して保存する。失敗してもログインは継続する。
func (s *Service) rehash(ctx context.Context, user *model.User, pw string) {
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		slog.Warn("failed to rehash password", slog.String("user_id", user.ID), slog.String("error", err.Error()))
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		slog.Warn("failed to store rehashed password", slog.String("user_id", user.ID), slog.String("error", err.Error()))
		return
	}
	user.PasswordHash = hash
	slog.Info("password hash upgraded", slog.String("user_id", user.ID))
}

// Authenticate はトークンを検証し、対応するユーザーを返す。
// トークンの欠落・不正・期限切れ・ユーザー不在はすべてUNAUTHENTICATEDとなる。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthenticatedError()
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, model.NewUnauthenticatedError()
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

func (s *Service) issue(user *model.User) (*Result, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Result{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
