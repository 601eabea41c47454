package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/config"
	"github.com/rcaluag/registrar/internal/database"
	"github.com/rcaluag/registrar/internal/handlers"
	middlewareCustom "github.com/rcaluag/registrar/internal/middleware"
	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/repositories"
	"github.com/rcaluag/registrar/internal/routes"
	"github.com/rcaluag/registrar/internal/services"
	pkghttp "github.com/rcaluag/registrar/pkg/http"
	pkglogger "github.com/rcaluag/registrar/pkg/logger"
)

// SentEmail represents a captured outbound message
type SentEmail struct {
	To        string
	ResetLink string
	Applicant string
}

// RecordingEmailService captures sent mail for test assertions
type RecordingEmailService struct {
	SentEmails []SentEmail
	mu         sync.Mutex
}

func (m *RecordingEmailService) SendPasswordReset(ctx context.Context, email, resetLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentEmails = append(m.SentEmails, SentEmail{To: email, ResetLink: resetLink})
	return nil
}

func (m *RecordingEmailService) SendAdmissionDecision(ctx context.Context, applicant *models.Applicant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentEmails = append(m.SentEmails, SentEmail{To: applicant.Email, Applicant: applicant.ID})
	return nil
}

// LastEmail returns the most recent captured message, or nil
func (m *RecordingEmailService) LastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with the full production wiring against a
// real database and a recording email service.
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	EmailService *RecordingEmailService
	Config       *config.Config
	CSRFManager  *auth.CSRFTokenManager
}

// NewTestServer builds the complete HTTP stack the way cmd/api does, minus
// the rate limiter so tests can hammer the login endpoint.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: "0",
			Env:  "test",
		},
		Auth: config.AuthConfig{
			SessionTTL:        12 * time.Hour,
			SessionCookieName: "registrar_session",
			CSRFCookieName:    "csrf_token",
			CookieSameSite:    "lax",
			AttemptRetention:  90 * 24 * time.Hour,
			CleanupInterval:   1 * time.Hour,
			ResetTokenTTL:     1 * time.Hour,
			PasswordResets:    true,
		},
		Email: config.EmailConfig{
			FromAddress:  "registrar@test.local",
			ResetURLBase: "http://localhost:3000/reset-password",
		},
	}

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
		SameSite:    cfg.Auth.CookieSameSite,
	}

	emailService := &RecordingEmailService{}

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

	ipConfig := &pkghttp.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, resetService, cookieCfg, cfg.Auth.SessionTTL, ipConfig, cfg.Auth.PasswordResets)
	userHandler := handlers.NewUserHandler(userService)
	admissionHandler := handlers.NewAdmissionHandler(admissionService)
	registryHandler := handlers.NewRegistryHandler(registryService)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(
		r,
		authHandler, userHandler, admissionHandler, registryHandler, enrollmentHandler,
		sessionRepo, userRepo, csrfManager, cookieCfg, logger,
	)

	return &TestServer{
		Server:       httptest.NewServer(r),
		DB:           db,
		EmailService: emailService,
		Config:       cfg,
		CSRFManager:  csrfManager,
	}
}

func (ts *TestServer) serverURL() (*url.URL, error) {
	return url.Parse(ts.Server.URL)
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// TestClient is a cookie-carrying HTTP client bound to the test server. The
// CSRF token from the last successful login is attached to every mutation.
type TestClient struct {
	server    *TestServer
	http      *http.Client
	CSRFToken string
}

// NewClient creates a fresh client with its own cookie jar
func (ts *TestServer) NewClient() *TestClient {
	jar, _ := cookiejar.New(nil)
	return &TestClient{
		server: ts,
		http:   &http.Client{Jar: jar},
	}
}

// Request sends a JSON request, carrying cookies and the CSRF token
func (c *TestClient) Request(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.server.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.CSRFToken != "" {
		req.Header.Set("X-CSRF-Token", c.CSRFToken)
	}

	return c.http.Do(req)
}

// Login authenticates the client and remembers the CSRF token on success
func (c *TestClient) Login(email, password string) (*http.Response, error) {
	resp, err := c.Request(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		var loginResp struct {
			CSRFToken string `json:"csrf_token"`
		}

		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(bodyBytes, &loginResp); err != nil {
			return nil, fmt.Errorf("failed to parse login response: %w", err)
		}
		c.CSRFToken = loginResp.CSRFToken

		resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	return resp, nil
}

// SessionCookie returns the client's current session cookie, or nil
func (c *TestClient) SessionCookie() *http.Cookie {
	u, err := c.server.serverURL()
	if err != nil {
		return nil
	}
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == c.server.Config.Auth.SessionCookieName {
			return cookie
		}
	}
	return nil
}

// ParseJSONResponse decodes a JSON response body into target
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts the message field from an error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
