package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mmynk/lingostake/internal/auth"
	"github.com/mmynk/lingostake/internal/config"
	"github.com/mmynk/lingostake/internal/custody"
	"github.com/mmynk/lingostake/internal/ledger"
	"github.com/mmynk/lingostake/internal/middleware"
	"github.com/mmynk/lingostake/internal/oracle"
	"github.com/mmynk/lingostake/internal/service"
	"github.com/mmynk/lingostake/internal/storage/sqlite"
	"github.com/mmynk/lingostake/internal/vault"
	"github.com/mmynk/lingostake/pkg/api"
	"github.com/mmynk/lingostake/pkg/api/apiconnect"
	"github.com/mmynk/lingostake/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogFormat == "json"})

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	token := custody.NewLedger()
	pool := vault.NewPool(token, vault.PoolConfig{
		Account:   cfg.VaultAccount,
		Depositor: cfg.EscrowAccount,
		RateBps:   cfg.VaultRateBps,
		Clock:     clock,
	})
	l := ledger.New(store, token, vault.NewAdapter(pool, cfg.VaultTimeout), oracle.NewGate(cfg.AgentAccount), ledger.Config{
		Escrow:      cfg.EscrowAccount,
		GracePeriod: cfg.GracePeriod,
		Clock:       clock,
	})
	if err := l.VerifyBacking(ctx); err != nil {
		return fmt.Errorf("database %s holds funds the in-process token and vault do not: %w", cfg.DBPath, err)
	}

	authenticator := auth.NewPasswordAuthenticator(store, cfg.AgentAccount, ledger.SystemCaller)
	if cfg.AgentPassphrase != "" {
		if _, err := authenticator.Provision(ctx, cfg.AgentAccount, cfg.AgentPassphrase); err != nil {
			return fmt.Errorf("failed to provision agent: %w", err)
		}
		slog.Info("Agent account ready", "agent", cfg.AgentAccount)
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL, clock)

	var minter service.Minter
	faucetAmount, err := api.ParseAmount(cfg.FaucetAmount)
	if err != nil {
		return fmt.Errorf("FAUCET_AMOUNT: %w", err)
	}
	if cfg.FaucetEnabled {
		minter = token
		slog.Warn("Faucet enabled", "amount", faucetAmount.String())
	}

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	interceptors := connect.WithInterceptors(
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(),
		middleware.RateLimit(limiter),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, slog.Default()), interceptors))
	mux.Handle(apiconnect.NewStakingServiceHandler(service.NewStakingService(l), interceptors))
	mux.Handle(apiconnect.NewTokenServiceHandler(
		service.NewTokenService(token, cfg.EscrowAccount, minter, new(big.Int).Set(faucetAmount)), interceptors))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// h2c serves HTTP/2 without TLS, which Connect clients use.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Shutting down")
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return l.RunSweeper(gctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})

	return g.Wait()
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, Retry-After")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
