package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"eden/internal/auth"
	"eden/internal/checkout"
	"eden/internal/config"
	mydb "eden/internal/db"
	"eden/internal/httpapi"
	"eden/internal/idempotency"
	"eden/internal/moderation"
	"eden/internal/notify"
	"eden/internal/payment"
	"eden/internal/store"
	"eden/internal/upload"
)

func newLogger(release bool) *slog.Logger {
	if release {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func main() {
	// .env from the current folder or its parents (when started from cmd/server)
	config.LoadDotenv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := newLogger(cfg.Release)
	slog.SetDefault(logger)
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := mydb.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := mydb.Migrate(db); err != nil {
		log.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal(err)
	}

	var sender notify.Sender = notify.LogSender{Log: logger}
	if cfg.MailEnabled() {
		smtp, err := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			log.Fatal(err)
		}
		sender = smtp
	} else {
		logger.Warn("SMTP_HOST not set; emails will only be logged")
	}
	mail := notify.NewDispatcher(sender, cfg.NotifyWait, logger)

	var guard checkout.Guard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable; idempotency keys will be checked once it is back", "addr", cfg.RedisAddr, "error", err)
		}
		guard = idempotency.NewRedisGuard(rdb, idempotency.DefaultTTL)
	}

	var payments *payment.Client
	if cfg.PayMongoSecretKey != "" {
		payments = payment.NewClient(cfg.PayMongoBaseURL, cfg.PayMongoSecretKey)
	}

	postings := store.NewPostings(db)
	users := store.NewUsers(db)

	router := httpapi.NewRouter(httpapi.Deps{
		SQL:           sqlDB,
		Postings:      moderation.NewEngine(postings, users, mail, logger),
		Applications:  moderation.NewApplications(store.NewApplications(db), postings, mail, logger),
		Checkout:      checkout.NewService(checkout.NewCalculator(postings), mail, guard, logger),
		Users:         users,
		Audit:         store.NewAudit(sqlDB, mydb.SQLDriverName(cfg.DBDriver)),
		Uploads:       upload.NewStore(cfg.UploadDir, cfg.MaxUploadBytes),
		Tokens:        auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Payments:      payments,
		SessionSecret: cfg.SessionSecret,
		PublicBaseURL: cfg.PublicBaseURL,
		Log:           logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	// let queued emails finish
	mail.Wait()
}
