package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/rcaluag/registrar/internal/auth"
	"github.com/rcaluag/registrar/internal/handlers"
	"github.com/rcaluag/registrar/internal/middleware"
	"github.com/rcaluag/registrar/internal/models"
	"github.com/rcaluag/registrar/internal/repositories"
)

// RegisterRoutes registers all application routes.
//
// Layering, outermost first: session guard, then CSRF on mutations, then role
// checks. Login and logout stay outside the guard; logout must succeed even
// when the session is already gone.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	admissionHandler *handlers.AdmissionHandler,
	registryHandler *handlers.RegistryHandler,
	enrollmentHandler *handlers.EnrollmentHandler,
	sessionRepo *repositories.SessionRepository,
	userRepo *repositories.UserRepository,
	csrfManager *auth.CSRFTokenManager,
	cookieCfg auth.CookieConfig,
	logger *slog.Logger,
) {
	loginRateLimit := middleware.DefaultLoginRateLimit()

	// Public routes
	router.Get("/auth/login", authHandler.LoginPage)
	router.With(middleware.RateLimitByIP(loginRateLimit)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(loginRateLimit)).Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.With(middleware.RateLimitByIP(loginRateLimit)).Post("/auth/reset-password", authHandler.ResetPassword)
	router.Post("/auth/logout", authHandler.Logout)

	// Session-guarded routes
	router.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(sessionRepo, userRepo, cookieCfg, logger))
		r.Use(middleware.CSRFProtection(csrfManager, logger))

		// Any authenticated role
		r.Get("/auth/me", authHandler.Me)
		r.Post("/auth/change-password", userHandler.ChangePassword)

		// Teachers and admins share read access to the registry
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAnyRole(models.RoleAdmin, models.RoleTeacher))

			r.Get("/sections", registryHandler.ListSections)
			r.Get("/sections/{id}", registryHandler.GetSection)
			r.Get("/class-groups", registryHandler.ListClassGroups)
			r.Get("/subjects", registryHandler.ListSubjects)
			r.Get("/students", registryHandler.ListStudents)
			r.Get("/students/{id}", registryHandler.GetStudent)
			r.Get("/enrollments", enrollmentHandler.List)
			r.Get("/enrollments/{id}", enrollmentHandler.Get)
			r.Get("/enrollments/{id}/grades", enrollmentHandler.ListGrades)

			// Grade entry is the one registry mutation teachers may perform
			r.Put("/enrollments/{id}/grades", enrollmentHandler.RecordGrade)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Get("/users", userHandler.List)
			r.Post("/users", userHandler.Create)
			r.Get("/users/{id}", userHandler.Get)
			r.Put("/users/{id}", userHandler.Update)
			r.Delete("/users/{id}", userHandler.Archive)

			r.Get("/teacher-profiles", userHandler.ListTeacherProfiles)
			r.Post("/teacher-profiles", userHandler.CreateTeacherProfile)
			r.Put("/teacher-profiles/{id}/archive", userHandler.SetTeacherProfileArchived)

			r.Get("/applicants", admissionHandler.List)
			r.Post("/applicants", admissionHandler.Create)
			r.Get("/applicants/{id}", admissionHandler.Get)
			r.Put("/applicants/{id}", admissionHandler.Update)
			r.Delete("/applicants/{id}", admissionHandler.Delete)
			r.Post("/applicants/{id}/approve", admissionHandler.Approve)
			r.Post("/applicants/{id}/reject", admissionHandler.Reject)

			r.Post("/sections", registryHandler.CreateSection)
			r.Put("/sections/{id}", registryHandler.UpdateSection)
			r.Delete("/sections/{id}", registryHandler.DeleteSection)

			r.Post("/class-groups", registryHandler.CreateClassGroup)
			r.Delete("/class-groups/{id}", registryHandler.DeleteClassGroup)

			r.Post("/subjects", registryHandler.CreateSubject)
			r.Put("/subjects/{id}", registryHandler.UpdateSubject)
			r.Delete("/subjects/{id}", registryHandler.DeleteSubject)

			r.Put("/students/{id}", registryHandler.UpdateStudent)
			r.Post("/students/{id}/graduate", enrollmentHandler.Graduate)
			r.Get("/alumni", registryHandler.ListAlumni)

			r.Post("/enrollments", enrollmentHandler.Enroll)
			r.Post("/enrollments/{id}/drop", enrollmentHandler.Drop)
			r.Post("/enrollments/{id}/complete", enrollmentHandler.Complete)
		})
	})
}
