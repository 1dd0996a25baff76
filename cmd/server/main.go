package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	persistence "github.com/goliatone/go-persistence-bun"
	auth "github.com/tarifit/go-auth-service"
	"github.com/tarifit/go-auth-service/middleware/jwtware"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg := auth.NewConfigFromEnv()

	if err := cfg.ValidateStartup(nil); err != nil {
		log.Fatalf("startup check failed: %v", err)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("database bootstrap failed: %v", err)
	}

	store := auth.NewUsersRepository(db)
	auther := auth.NewAuthenticator(store, cfg).
		WithActivitySink(logSink{})

	app := fiber.New(fiber.Config{
		AppName:               "tarifit-auth",
		DisableStartupMessage: cfg.Environment == "production",
	})

	api := app.Group("/api/v1/auth")
	auth.RegisterAuthRoutes(api,
		auth.WithControllerAuthenticator(auther),
		auth.WithControllerStore(store),
		auth.WithControllerDebug(cfg.Debug),
	)

	// The profile route also works behind the middleware, which rejects
	// requests before the controller runs.
	protected := app.Group("/api/v1/account", jwtware.New(jwtware.Config{
		TokenValidator: tokenValidator{ts: auther.TokenService()},
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
	}))
	protected.Get("/profile", auth.NewAuthController(
		auth.WithControllerAuthenticator(auther),
		auth.WithControllerStore(store),
		auth.WithControllerContextKey(cfg.GetContextKey()),
	).MeGet)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	waitExitSignal()

	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openDatabase(ctx context.Context, cfg *auth.ServiceConfig) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*auth.User)(nil))

	client, err := persistence.New(persistenceConfig{dsn: cfg.DSN, debug: cfg.Debug}, sqldb, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	migrations, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}
	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return client.DB(), nil
}

type persistenceConfig struct {
	dsn   string
	debug bool
}

func (c persistenceConfig) GetServer() string             { return c.dsn }
func (c persistenceConfig) GetDriver() string             { return sqliteshim.ShimName }
func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c persistenceConfig) GetOtelIdentifier() string     { return "" }

// tokenValidator bridges the auth token service into the middleware's
// validator contract. The claim interfaces mirror each other, so the
// returned claims convert directly.
type tokenValidator struct {
	ts auth.TokenService
}

func (v tokenValidator) Validate(raw string) (jwtware.AuthClaims, error) {
	return v.ts.Validate(raw)
}

// logSink writes auth activity to the process log.
type logSink struct{}

func (logSink) Record(_ context.Context, event auth.ActivityEvent) error {
	log.Printf("activity %s user=%s", event.EventType, event.UserID)
	return nil
}

func waitExitSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
}
