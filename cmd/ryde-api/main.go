// README: Entry point; loads config, wires stores, providers and services, and serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ryde/internal/config"
	httptransport "ryde/internal/http"
	"ryde/internal/infra"
	"ryde/internal/maps"
	"ryde/internal/modules/identity"
	"ryde/internal/modules/pricing"
	"ryde/internal/modules/ride"
	"ryde/internal/notify"
	"ryde/internal/ratelimit"
)

const otpAttemptPrefix = "otp:attempts"

type stores struct {
	rides    ride.Store
	accounts identity.Store
	close    func(context.Context)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Production())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("storage init", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}

	rdb := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable; cache, blacklist and attempt limits will degrade", zap.Error(err))
	}

	provider, err := newMapsProvider(cfg)
	if err != nil {
		logger.Fatal("maps init", zap.String("provider", cfg.Maps.Provider), zap.Error(err))
	}
	router := maps.NewCachedRouter(provider, rdb, cfg.Maps.QuoteCacheTTL, logger.Named("maps"))

	rates, err := pricing.RatesFromConfig(cfg.Pricing.Rates)
	if err != nil {
		logger.Fatal("pricing rates", zap.Error(err))
	}
	pricingSvc := pricing.NewService(router, rates, cfg.Pricing.UnitMeters, cfg.Pricing.Currency)

	otp, err := ride.NewOTP([]byte(cfg.OTP.Secret), ride.WithOTPLength(cfg.OTP.Length), ride.WithOTPTTL(cfg.OTP.TTL))
	if err != nil {
		logger.Fatal("otp init", zap.Error(err))
	}
	rideSvc := ride.NewService(st.rides, pricingSvc, otp,
		ride.WithLimiter(ratelimit.New(rdb, otpAttemptPrefix, cfg.OTP.MaxAttempts, cfg.OTP.Window)),
		ride.WithLogger(logger.Named("ride")),
	)

	identitySvc := identity.NewService(st.accounts,
		identity.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		identity.NewBlacklist(rdb),
		identity.WithLogger(logger.Named("identity")),
	)

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("notifier init", zap.String("provider", cfg.Notify.Provider), zap.Error(err))
	}

	handler, err := httptransport.NewRouter(httptransport.Deps{
		Accounts:     identitySvc,
		Rides:        rideSvc,
		OTP:          notify.NewOTPSender(identitySvc, notifier, logger.Named("notify")),
		Routes:       router,
		Places:       provider,
		Log:          logger.Named("http"),
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		SecureCookie: cfg.Production(),
	})
	if err != nil {
		logger.Fatal("http router", zap.Error(err))
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	st.close(shutdownCtx)
	_ = rdb.Close()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Storage.Driver {
	case "mongo":
		client, db, err := infra.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		rides := ride.NewMongoStore(db)
		accounts := identity.NewMongoStore(db)
		if err := rides.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if err := accounts.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return &stores{
			rides:    rides,
			accounts: accounts,
			close:    func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil
	default:
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		return &stores{
			rides:    ride.NewPostgresStore(pool),
			accounts: identity.NewPostgresStore(pool),
			close:    func(context.Context) { pool.Close() },
		}, nil
	}
}

func newMapsProvider(cfg config.Config) (maps.Provider, error) {
	if cfg.Maps.Provider == "google" {
		g, err := maps.NewGoogleClient(cfg.Maps.GoogleKey)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return maps.NewMapboxClient(cfg.Maps.MapboxToken), nil
}

// newNotifier builds the OTP channel. Push falls back to SMS when both are configured.
func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Notifier, error) {
	var ns notify.Fallback
	switch cfg.Notify.Provider {
	case "fcm":
		client, err := infra.NewFirebaseMessaging(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, err
		}
		ns = append(ns, notify.NewFCMNotifier(client))
		if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" && cfg.Twilio.From != "" {
			ns = append(ns, notify.NewTwilioNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From))
		}
	case "twilio":
		ns = append(ns, notify.NewTwilioNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From))
	default:
		return notify.NewLogNotifier(logger.Named("notify")), nil
	}
	return ns, nil
}
