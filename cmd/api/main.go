//	@title			Storefront Admin API
//	@version		1.0
//	@description	Admin backend for the storefront: catalog, orders, payments, notifications and image storage.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						sid
//	@description				Session cookie set by POST /auth/login.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/admin"
	"github.com/storefront/admin/internal/auth"
	"github.com/storefront/admin/internal/category"
	"github.com/storefront/admin/internal/cleanup"
	"github.com/storefront/admin/internal/config"
	"github.com/storefront/admin/internal/customer"
	"github.com/storefront/admin/internal/dashboard"
	"github.com/storefront/admin/internal/db"
	"github.com/storefront/admin/internal/email"
	"github.com/storefront/admin/internal/logger"
	appMiddleware "github.com/storefront/admin/internal/middleware"
	"github.com/storefront/admin/internal/notification"
	"github.com/storefront/admin/internal/order"
	"github.com/storefront/admin/internal/payment"
	"github.com/storefront/admin/internal/product"
	"github.com/storefront/admin/internal/session"
	"github.com/storefront/admin/internal/storage"

	_ "github.com/storefront/admin/docs/swagger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, log); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	objects, err := storage.NewMinioStorage(ctx, storage.MinioConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		log.Fatal("object storage init failed", zap.Error(err))
	}
	gateway := storage.NewGateway(objects, log.Named("storage"), storage.DefaultOptions())

	redisCfg := session.DefaultRedisConfig()
	redisCfg.Addr = cfg.RedisAddr
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB
	rdb, err := session.ConnectRedis(ctx, redisCfg)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()
	sessions := session.NewStore(rdb, cfg.SessionSecret, cfg.SessionTTL)

	var mailer email.Mailer = email.NewLogMailer(log.Named("mail"))
	if cfg.SendGridAPIKey != "" {
		sg, err := email.NewSendGridMailer(cfg.SendGridAPIKey)
		if err != nil {
			log.Fatal("mailer init failed", zap.Error(err))
		}
		mailer = sg
	} else {
		log.Warn("SENDGRID_API_KEY not set, emails are only logged")
	}

	// Wire dependencies: repository → service → handler
	cleanupSvc := cleanup.NewService(cleanup.NewRepository(pool), gateway, log.Named("cleanup"))
	cleanupHandler := cleanup.NewHandler(cleanupSvc, log)

	adminSvc := admin.NewService(admin.NewRepository(pool), sessions, log.Named("admin"))
	adminHandler := admin.NewHandler(adminSvc, log)

	authSvc := auth.NewService(adminSvc, sessions, log.Named("auth"))
	authHandler := auth.NewHandler(authSvc, log, cfg.IsProduction())

	notificationSvc := notification.NewService(notification.NewRepository(pool))
	notificationHandler := notification.NewHandler(notificationSvc, log)

	emailSvc := email.NewService(email.NewRepository(pool), mailer, email.Options{
		From:         email.Recipient{Email: cfg.MailFrom, Name: "Storefront"},
		AdminEmail:   cfg.AdminEmail,
		DashboardURL: cfg.FrontendURL,
	}, log.Named("email"))
	emailHandler := email.NewHandler(emailSvc, log)

	productSvc := product.NewService(product.NewRepository(pool), gateway, cleanupSvc, log.Named("product"))
	productHandler := product.NewHandler(productSvc, log, gateway.MaxFileSize())

	categoryHandler := category.NewHandler(category.NewService(category.NewRepository(pool)), log)

	customerSvc := customer.NewService(customer.NewRepository(pool))
	customerHandler := customer.NewHandler(customerSvc, log)

	orderSvc := order.NewService(order.NewRepository(pool), customerSvc, notificationSvc, emailSvc, log.Named("order"))
	orderHandler := order.NewHandler(orderSvc, log)

	paymentSvc := payment.NewService(payment.NewRepository(pool), orderSvc, notificationSvc, log.Named("payment"))
	paymentHandler := payment.NewHandler(paymentSvc, log)

	dashboardHandler := dashboard.NewHandler(dashboard.NewService(dashboard.NewRepository(pool)), log)

	scheduler := cleanup.NewScheduler(cleanupSvc, cfg.CleanupSchedule, cfg.CleanupBatchSize, log.Named("scheduler"))
	if err := scheduler.Start(); err != nil {
		log.Fatal("cleanup scheduler start failed", zap.Error(err))
	}
	defer scheduler.Stop()

	requireSession := appMiddleware.RequireSession(sessions, log)
	requireSuperAdmin := appMiddleware.RequireRole(string(admin.RoleSuperAdmin))

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Get("/check-super-admin", authHandler.CheckSuperAdmin)

			r.Group(func(r chi.Router) {
				r.Use(requireSession)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Route("/admin", func(r chi.Router) { adminHandler.Routes(r, requireSuperAdmin) })
			r.Route("/products", productHandler.Routes)
			r.Route("/categories", categoryHandler.Routes)
			r.Route("/customers", customerHandler.Routes)
			r.Route("/orders", orderHandler.Routes)
			r.Route("/payments", paymentHandler.Routes)
			r.Route("/emails", emailHandler.Routes)
			r.Route("/dashboard", dashboardHandler.Routes)
			r.Route("/notifications", notificationHandler.Routes)

			r.Route("/cleanup", func(r chi.Router) {
				r.Use(requireSuperAdmin)
				cleanupHandler.Routes(r)
			})
		})
	})

	// The feed is also served outside the versioned prefix.
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(requireSession)
		notificationHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		log.Info("swagger UI available", zap.String("url", "http://localhost:"+cfg.Port+"/swagger/"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
