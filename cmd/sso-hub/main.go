package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapterhandler "sso-hub/internal/adapter/handler"
	"sso-hub/internal/adapter/gateway"
	"sso-hub/internal/domain"
	infrastore "sso-hub/internal/infrastructure/store"
	infratoken "sso-hub/internal/infrastructure/token"
	"sso-hub/internal/usecase"

	"sso-hub/config"
	appmiddleware "sso-hub/middleware"
	"sso-hub/utils/logger"
	"sso-hub/utils/otel"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.Init(otelCfg.Enabled, cfg.LogLevel)

	log.InfoContext(ctx, "configuration loaded",
		"sso_url", cfg.SSOURL,
		"sso_team", cfg.SSOTeam,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"session_ttl", cfg.SessionTTL,
		"backend_token", cfg.BackendTokenEnabled())
	if cfg.CookieSecretGenerated {
		log.WarnContext(ctx, "COOKIE_SECRET not set, using a per-process secret; sessions will not survive a restart")
	}

	// Infrastructure
	tokens := infratoken.NewRandomSource()
	stores, err := newStores(ctx, cfg, tokens)
	if err != nil {
		log.ErrorContext(ctx, "failed to initialize session store", "error", err)
		os.Exit(1)
	}

	openIDGateway := gateway.NewOpenIDGateway(gateway.GatewayConfig{
		BaseURL:   cfg.SSOURL,
		Discovery: cfg.SSODiscovery,
		Timeout:   cfg.VerifyTimeout,
	})

	var backendTokens domain.TokenIssuer
	if cfg.BackendTokenEnabled() {
		jwtIssuer, err := infratoken.NewJWTIssuer(infratoken.JWTConfig{
			Secret:   cfg.BackendTokenSecret,
			Issuer:   cfg.BackendTokenIssuer,
			Audience: cfg.BackendTokenAudience,
			TTL:      cfg.BackendTokenTTL,
		})
		if err != nil {
			log.ErrorContext(ctx, "failed to initialize backend token issuer", "error", err)
			os.Exit(1)
		}
		backendTokens = jwtIssuer
	}

	cookie := adapterhandler.NewSessionCookie(infratoken.NewHMACCookieSigner(cfg.CookieSecret), adapterhandler.CookieConfig{
		Name:       cfg.CookieName,
		Domain:     cfg.CookieDomain,
		Secure:     cfg.CookieSecure,
		SessionTTL: cfg.SessionTTL,
		FlowTTL:    cfg.FlowTTL,
	})

	// Usecases
	engine := usecase.NewProtocolEngine(openIDGateway, tokens, cfg.SSOTeam, cfg.FlowTTL, log)
	policy := domain.TeamPolicy{RequiredTeam: cfg.SSOTeam}
	startLoginUC := usecase.NewStartLogin(stores.sessions, stores.flows, engine, log)
	completeLoginUC := usecase.NewCompleteLogin(stores.sessions, stores.flows, engine, policy, log)
	logoutUC := usecase.NewLogout(stores.sessions, stores.flows, log)
	validateUC := usecase.NewValidateSession(stores.sessions, log)
	authorizeUC := usecase.NewAuthorizeRequest(validateUC, backendTokens, log)

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(appmiddleware.RequestID())
	e.Use(appmiddleware.SecurityHeaders(cfg.CookieSecure))

	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/health", "/metrics", "/verify-and-inject":
				return true
			}
			return false
		},
		LogStatus:   true,
		LogURIPath:  true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				log.InfoContext(rctx, "request completed",
					"method", v.Method,
					"path", v.URIPath,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				log.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"path", v.URIPath,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	flowRL := appmiddleware.NewRateLimiter(appmiddleware.RateLimitConfig{
		Rate:  rate.Limit(30.0 / 60.0), // 30 req/min
		Burst: 10,
	})
	defer flowRL.Close()

	routes := adapterhandler.Routes{
		Login:     adapterhandler.NewLoginHandler(startLoginUC, cookie, cfg.PublicURL),
		Callback:  adapterhandler.NewCallbackHandler(completeLoginUC, cookie),
		Logout:    adapterhandler.NewLogoutHandler(logoutUC, cookie),
		Verify:    adapterhandler.NewVerifyHandler(authorizeUC, cookie, log),
		User:      adapterhandler.NewUserHandler(validateUC, cookie),
		Health:    adapterhandler.NewHealthHandler(stores.checks...),
		FlowLimit: flowRL.Middleware(),
		Metrics:   promhttp.Handler(),
	}
	if cfg.AuthSharedSecret != "" {
		routes.MetricsGuard = appmiddleware.InternalAuth(cfg.AuthSharedSecret, log)
	}
	adapterhandler.Register(e, routes)

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	log.InfoContext(ctx, "starting sso-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return stores.close()
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server exited properly")
}

// storeSet is the storage backend selected by STORE_BACKEND.
type storeSet struct {
	sessions domain.SessionStore
	flows    domain.FlowStore
	checks   []adapterhandler.HealthCheck
	close    func() error
}

// newStores builds the session and flow stores for the configured backend.
func newStores(ctx context.Context, cfg *config.Config, ids domain.TokenSource) (*storeSet, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := infrastore.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &storeSet{
			sessions: infrastore.NewRedisSessionStore(client, cfg.SessionTTL, ids),
			flows:    infrastore.NewRedisFlowStore(client, cfg.FlowTTL),
			checks: []adapterhandler.HealthCheck{func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}},
			close: client.Close,
		}, nil
	default:
		sessions := infrastore.NewMemorySessionStore(cfg.SessionTTL, ids)
		flows := infrastore.NewMemoryFlowStore(cfg.FlowMaxEntries, cfg.FlowTTL)
		return &storeSet{
			sessions: sessions,
			flows:    flows,
			close: func() error {
				return errors.Join(sessions.Close(), flows.Close())
			},
		}, nil
	}
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
