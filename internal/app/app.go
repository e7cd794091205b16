// Package app はコマンドライン引数に応じてサーバー・マイグレーション・ヘルスチェックを起動する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/ticklist/internal/auth"
	"github.com/hitoshi/ticklist/internal/config"
	"github.com/hitoshi/ticklist/internal/database"
	"github.com/hitoshi/ticklist/internal/folder"
	"github.com/hitoshi/ticklist/internal/handler"
	"github.com/hitoshi/ticklist/internal/logger"
	"github.com/hitoshi/ticklist/internal/metrics"
	"github.com/hitoshi/ticklist/internal/middleware"
	"github.com/hitoshi/ticklist/internal/repository"
	"github.com/hitoshi/ticklist/internal/security"
	"github.com/hitoshi/ticklist/internal/task"
	"github.com/hitoshi/ticklist/internal/tasklist"
	"github.com/hitoshi/ticklist/internal/user"
)

// 起動時のDB接続待ち。テストでは短くする。
var (
	dbConnectAttempts = 10
	dbConnectInterval = 2 * time.Second
	dbConnectTimeout  = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck("http://localhost:" + port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("log_level", cfg.LogLevel),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// 必要に応じてマイグレーションを適用し、全依存関係をワイヤリングしてHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. マイグレーション
	if cfg.AutoMigrate {
		if err := runMigrate(cfg); err != nil {
			return err
		}
	}

	// 2. DB接続
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), dbConnectTimeout)
	db, err := database.Connect(connectCtx, cfg.DatabaseURL, dbConnectAttempts, dbConnectInterval)
	cancelConnect()
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mc := metrics.NewCollector(registry)

	// 4. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	folderRepo := repository.NewPostgresFolderRepo(db)
	listRepo := repository.NewPostgresListRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)

	// 5. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()

	authService := auth.NewService(userRepo, listRepo, auth.Config{
		Secret:         []byte(cfg.AuthSecret),
		TokenTTL:       cfg.TokenTTL,
		CookieName:     cfg.CookieName,
		FallbackHeader: cfg.FallbackHeader,
		CookieSecure:   cfg.CookieSecure,
		CookieDomain:   cfg.CookieDomain,
		BcryptCost:     cfg.BcryptCost,
	}, mc)
	folderService := folder.NewService(folderRepo, sanitizer)
	listService := tasklist.NewService(listRepo, folderRepo, sanitizer)
	taskService := task.NewService(taskRepo, listRepo, sanitizer, mc)
	userService := user.NewService(folderRepo, listRepo, taskRepo)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralPerMinute: cfg.RateLimitGeneral,
		AuthPerMinute:    cfg.RateLimitAuth,
		CleanupInterval:  middleware.DefaultRateLimiterConfig().CleanupInterval,
	})
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		Metrics:           mc,
		MetricsGatherer:   registry,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		HSTS:              cfg.CookieSecure,
		RateLimiter:       rateLimiter,

		Authenticator:    authService,
		CredentialSource: authService.Credentials(),
		AuthService:      authService,
		AuthConfig:       handler.NewAuthHandlerConfig(authService.Config()),
		FallbackHeader:   authService.Credentials().FallbackHeader(),

		FolderService: folderService,
		ListService:   listService,
		TaskService:   taskService,
		UserService:   userService,

		HealthChecker: db,
		StaticDir:     cfg.StaticDir,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("static_dir", cfg.StaticDir),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.Version(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// baseURLの/api/healthにHTTPリクエストを送り、200以外をエラーとする。
func runHealthcheck(baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// URLとして解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
