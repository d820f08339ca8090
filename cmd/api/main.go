// Command api serves the HasakePlay CMS HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/adapters/repository/mongodb"
	"github.com/hasakeplay/cms-backend/internal/adapters/tokenstore"
	"github.com/hasakeplay/cms-backend/internal/config"
	"github.com/hasakeplay/cms-backend/internal/handlers"
	"github.com/hasakeplay/cms-backend/internal/logger"
	"github.com/hasakeplay/cms-backend/internal/middleware"
	"github.com/hasakeplay/cms-backend/internal/services/auth"
	"github.com/hasakeplay/cms-backend/internal/services/catalog"
	"github.com/hasakeplay/cms-backend/internal/services/contact"
	"github.com/hasakeplay/cms-backend/internal/services/news"
	"github.com/hasakeplay/cms-backend/internal/services/notify"
	"github.com/hasakeplay/cms-backend/internal/services/product"
	"github.com/hasakeplay/cms-backend/internal/services/project"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	closeLog, err := logger.Setup(logger.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.IsProduction(),
		File:  cfg.LogFile,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}
	defer closeLog()

	logrus.WithFields(logrus.Fields{
		"env":     cfg.AppEnv,
		"port":    cfg.Port,
		"apiBase": cfg.APIBase,
	}).Info("Starting HasakePlay API")

	startCtx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	client, err := mongodb.Connect(startCtx, cfg.MongoURI)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	db := client.Database(cfg.MongoDatabase)

	if err := repository.EnsureIndexes(startCtx, db); err != nil {
		// the API still serves without them; slug uniqueness falls back to lookups
		logrus.WithError(err).Error("Failed to ensure indexes")
	}

	usedTokens, closeTokens := tokenstore.New(startCtx, cfg.RedisURL)

	issuer, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create token issuer")
	}
	authService := auth.NewService(auth.Credentials{
		AdminEmail:   cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
	}, issuer, usedTokens)

	media, err := utils.NewMediaStore(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure Cloudinary")
	}
	if !media.Configured() {
		logrus.Warn("Cloudinary credentials missing; uploads are disabled")
	}

	notifier := notify.NewNotifier(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		Secure:   cfg.SMTP.Secure,
		FromName: cfg.Mail.FromName,
		FromAddr: cfg.Mail.FromAddr,
		To:       cfg.Mail.To,
	})

	contacts := contact.NewService(repository.NewContactRepository(db), notifier, contact.Options{
		EnforceDelivery: cfg.EnforceMailDelivery,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.Recovery(),
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.CORS(cfg.CORSOrigins),
	)

	handlers.SetupRoutes(router, handlers.Deps{
		APIBase:     cfg.APIBase,
		CSRFEnabled: cfg.CSRFEnabled,
		Cookies: handlers.CookieConfig{
			Domain:      cfg.CookieDomain,
			Secure:      cfg.CookieSecure,
			RefreshPath: cfg.APIBase + "/auth",
			ExpiresIn:   cfg.JWTExpires,
		},
		Auth:     authService,
		Products: product.NewService(repository.NewProductNodeRepository(db)),
		Catalogs: catalog.NewService(repository.NewCatalogRepository(db), media, cfg.Cloudinary.CatalogsFolder),
		News:     news.NewService(repository.NewNewsRepository(db)),
		Projects: project.NewService(repository.NewProjectRepository(db)),
		Contacts: contacts,
		Media:    media,
		System: handlers.NewSystemHandler(
			handlers.PingFunc(mongodb.Ping),
			cfg.AdminEmail,
			cfg.AdminPasswordHash,
			cfg.Redacted,
		),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("API listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logrus.WithField("signal", sig.String()).Info("Shutting down")
	case err := <-serverErr:
		logrus.WithError(err).Error("Server stopped unexpectedly")
	}

	ctx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("HTTP shutdown error")
	}
	contacts.Wait()
	if err := closeTokens(); err != nil {
		logrus.WithError(err).Warn("Redis close error")
	}
	if err := mongodb.Disconnect(ctx); err != nil {
		logrus.WithError(err).Warn("MongoDB disconnect error")
	}
	logrus.Info("Bye")
}
