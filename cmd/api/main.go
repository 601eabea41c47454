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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/background"
	"github.com/rcaluag/registrar/internal/config"
	"github.com/rcaluag/registrar/internal/database"
	"github.com/rcaluag/registrar/internal/handlers"
	middlewareCustom "github.com/rcaluag/registrar/internal/middleware"
	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/repositories"
	"github.com/rcaluag/registrar/internal/routes"
	"github.com/rcaluag/registrar/internal/services"
	pkgauth "github.com/rcaluag/registrar/pkg/auth"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
	pkglogger "github.com/rcaluag/registrar/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	attemptRepo := repositories.NewLoginAttemptRepository(db)
	profileRepo := repositories.NewTeacherProfileRepository(db)
	applicantRepo := repositories.NewApplicantRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)

	auditLogger := pkglogger.NewAuditLogger(logger)
	csrfManager := auth.NewCSRFTokenManager(cfg.Auth.SessionTTL)
	roleRouter := auth.NewRoleRouter(profileRepo)

	cookieCfg := auth.CookieConfig{
		SessionName: cfg.Auth.SessionCookieName,
		CSRFName:    cfg.Auth.CSRFCookieName,
		Domain:      cfg.Auth.CookieDomain,
		Secure:      cfg.Auth.CookieSecure,
		SameSite:    cfg.Auth.CookieSameSite,
	}

	// Outbound mail, or a logging stand-in outside production
	var emailService services.EmailService
	if cfg.Email.Enabled {
		emailService, err = services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		emailService = services.NewNoopEmailService(logger)
	}

	// Services
	authService := services.NewAuthService(
		userRepo, sessionRepo, attemptRepo,
		roleRouter, csrfManager,
		cfg.Auth.SessionTTL,
		logger, auditLogger,
	)
	userService := services.NewUserService(userRepo, profileRepo, sessionRepo, logger)
	resetService := services.NewPasswordResetService(
		userRepo, sessionRepo, emailService,
		cfg.Auth.ResetTokenTTL, cfg.Email.ResetURLBase, logger,
	)
	admissionService := services.NewAdmissionService(applicantRepo, studentRepo, emailService, logger)
	registryService := services.NewRegistryService(catalogRepo, studentRepo, profileRepo, logger)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, studentRepo, catalogRepo, logger)

	// Handlers
	ipConfig := &pkghttp.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, resetService, cookieCfg, cfg.Auth.SessionTTL, ipConfig, cfg.Auth.PasswordResets)
	userHandler := handlers.NewUserHandler(userService)
	admissionHandler := handlers.NewAdmissionHandler(admissionService)
	registryHandler := handlers.NewRegistryHandler(registryService)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)

	// Bootstrap first admin user if configured
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(bootCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	bootCancel()

	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(
		router,
		authHandler, userHandler, admissionHandler, registryHandler, enrollmentHandler,
		sessionRepo, userRepo, csrfManager, cookieCfg, logger,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Session and attempt-log cleanup
	cleanupManager := background.NewCleanupManager(
		sessionRepo, attemptRepo,
		cfg.Auth.AttemptRetention, cfg.Auth.CleanupInterval,
		logger,
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin account if ADMIN_EMAIL and
// ADMIN_PASSWORD are set. Without an admin nobody can reach the registry.
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if _, err := userRepo.Create(ctx, &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Name:         "Registrar Admin",
		Role:         models.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
