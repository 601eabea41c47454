package integration

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaluag/registrar/internal/handlers"
	"github.com/rcaluag/registrar/internal/models"
)

var (
	testDB     *TestDB
	testServer *TestServer
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = SetupTestDatabase(ctx)
	if err != nil {
		os.Exit(1)
	}

	testServer = NewTestServer(testDB.DB)

	code := m.Run()

	testServer.Close()
	testDB.Teardown(ctx)
	os.Exit(code)
}

func TestLogin_AdminSuccess(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("admin")
	user, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleAdmin)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp handlers.LoginResponse
	require.NoError(t, ParseJSONResponse(resp, &loginResp))
	assert.Equal(t, "/admin/dashboard", loginResp.Redirect)
	assert.Equal(t, "admin", loginResp.User.Role)
	assert.NotEmpty(t, loginResp.CSRFToken)

	cookie := client.SessionCookie()
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)

	// One session row, one settled attempt row
	sessions, err := CountSessions(ctx, testDB.Pool, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions)

	successful, err := CountLoginAttempts(ctx, testDB.Pool, email, "successful")
	require.NoError(t, err)
	assert.Equal(t, 1, successful)

	pending, err := CountLoginAttempts(ctx, testDB.Pool, email, "pending")
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("wrongpw")
	user, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleAdmin)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, "not-the-password")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	msg, err := GetErrorMessage(resp)
	require.NoError(t, err)
	assert.Equal(t, "Invalid credentials", msg)

	sessions, err := CountSessions(ctx, testDB.Pool, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sessions)

	failed, err := CountLoginAttempts(ctx, testDB.Pool, email, "failed")
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
}

func TestLogin_UnknownEmailStillAudited(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	client := testServer.NewClient()
	resp, err := client.Login("nobody@school.test", "whatever123!")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	msg, err := GetErrorMessage(resp)
	require.NoError(t, err)
	assert.Equal(t, "Invalid credentials", msg)

	failed, err := CountLoginAttempts(ctx, testDB.Pool, "nobody@school.test", "failed")
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
}

func TestLogin_ArchivedUser(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("archived")
	user, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleStudent)
	require.NoError(t, err)
	require.NoError(t, ArchiveUser(ctx, testDB.Pool, user.ID))

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Archived accounts are indistinguishable from bad credentials
	msg, err := GetErrorMessage(resp)
	require.NoError(t, err)
	assert.Equal(t, "Invalid credentials", msg)
}

func TestLogin_TeacherWithoutProfile(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("teacher-noprofile")
	user, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleTeacher)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	msg, err := GetErrorMessage(resp)
	require.NoError(t, err)
	assert.Equal(t, "Teacher profile not found", msg)

	// Credentials were valid, so the attempt settled successful even though
	// role routing rejected the login afterwards.
	successful, err := CountLoginAttempts(ctx, testDB.Pool, email, "successful")
	require.NoError(t, err)
	assert.Equal(t, 1, successful)

	// The rejected session must not survive
	sessions, err := CountSessions(ctx, testDB.Pool, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sessions)
}

func TestLogin_TeacherWithProfile(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("teacher")
	user, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleTeacher)
	require.NoError(t, err)
	_, err = SeedTeacherProfile(ctx, testDB.Pool, user.ID, false)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp handlers.LoginResponse
	require.NoError(t, ParseJSONResponse(resp, &loginResp))
	assert.Equal(t, "/teacher/dashboard", loginResp.Redirect)
}

func TestLogin_TeacherArchivedProfile(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("teacher-archived")
	user, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleTeacher)
	require.NoError(t, err)
	_, err = SeedTeacherProfile(ctx, testDB.Pool, user.ID, true)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	msg, err := GetErrorMessage(resp)
	require.NoError(t, err)
	assert.Equal(t, "Account archived", msg)
}

func TestSessionGuard(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("guard")
	_, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleStudent)
	require.NoError(t, err)

	client := testServer.NewClient()

	// Unauthenticated requests are rejected
	resp, err := client.Request(http.MethodGet, "/auth/me", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = client.Login(email, password)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Request(http.MethodGet, "/auth/me", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me handlers.UserResponse
	require.NoError(t, ParseJSONResponse(resp, &me))
	assert.Equal(t, email, me.Email)
}

func TestLogout_DestroysSessionAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("logout")
	user, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleAdmin)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Request(http.MethodPost, "/auth/logout", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logoutResp handlers.LogoutResponse
	require.NoError(t, ParseJSONResponse(resp, &logoutResp))
	assert.Equal(t, "/", logoutResp.Redirect)

	sessions, err := CountSessions(ctx, testDB.Pool, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sessions)

	// Repeat logout with the session already gone
	resp, err = client.Request(http.MethodPost, "/auth/logout", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The old session no longer opens the door
	resp, err = client.Request(http.MethodGet, "/auth/me", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCSRF_RequiredOnMutations(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("csrf")
	_, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleAdmin)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	section := map[string]interface{}{
		"name":        "Sampaguita",
		"grade_level": 7,
		"capacity":    40,
	}

	// Valid session, missing CSRF token
	goodToken := client.CSRFToken
	client.CSRFToken = ""
	resp, err = client.Request(http.MethodPost, "/sections", section)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Same request with the token succeeds
	client.CSRFToken = goodToken
	resp, err = client.Request(http.MethodPost, "/sections", section)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created handlers.SectionResponse
	require.NoError(t, ParseJSONResponse(resp, &created))
	assert.Equal(t, "Sampaguita", created.Name)
}

func TestRoleGates(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("student")
	_, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleStudent)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Students get neither the registry reads nor the admin surface
	resp, err = client.Request(http.MethodGet, "/students", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = client.Request(http.MethodGet, "/users", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("reset")
	user, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleStudent)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Request(http.MethodPost, "/auth/forgot-password", map[string]string{"email": email})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sent := testServer.EmailService.LastEmail()
	require.NotNil(t, sent)
	assert.Equal(t, email, sent.To)

	link, err := url.Parse(sent.ResetLink)
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, link.Query().Get("uid"))

	newPassword := "Fresh!Password456"
	resp, err = client.Request(http.MethodPost, "/auth/reset-password", map[string]string{
		"uid":      user.ID,
		"token":    token,
		"password": newPassword,
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password out, new password in
	resp, err = client.Login(email, password)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = client.Login(email, newPassword)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The token was keyed to the old hash and is now spent
	resp, err = client.Request(http.MethodPost, "/auth/reset-password", map[string]string{
		"uid":      user.ID,
		"token":    token,
		"password": "Another!Password789",
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdmissionToEnrollmentFlow(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	email, password := TestCredentials("registrar")
	_, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleAdmin)
	require.NoError(t, err)

	client := testServer.NewClient()
	resp, err := client.Login(email, password)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Apply
	resp, err = client.Request(http.MethodPost, "/applicants", map[string]interface{}{
		"first_name":  "Maria",
		"last_name":   "Cruz",
		"email":       "maria@family.test",
		"grade_level": 7,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var applicant handlers.ApplicantResponse
	require.NoError(t, ParseJSONResponse(resp, &applicant))
	assert.Equal(t, "pending", applicant.Status)

	// Approve into a student record
	resp, err = client.Request(http.MethodPost, "/applicants/"+applicant.ID+"/approve", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var student handlers.StudentResponse
	require.NoError(t, ParseJSONResponse(resp, &student))
	assert.NotEmpty(t, student.StudentNo)

	// Approving twice conflicts
	resp, err = client.Request(http.MethodPost, "/applicants/"+applicant.ID+"/approve", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Decision mail went out
	sent := testServer.EmailService.LastEmail()
	require.NotNil(t, sent)
	assert.Equal(t, "maria@family.test", sent.To)

	// A one-seat section fills after a single enrollment
	resp, err = client.Request(http.MethodPost, "/sections", map[string]interface{}{
		"name":        "Narra",
		"grade_level": 7,
		"capacity":    1,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var section handlers.SectionResponse
	require.NoError(t, ParseJSONResponse(resp, &section))

	resp, err = client.Request(http.MethodPost, "/enrollments", map[string]interface{}{
		"student_id":  student.ID,
		"section_id":  section.ID,
		"school_year": "2026-2027",
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Second student cannot take the filled seat
	resp, err = client.Request(http.MethodPost, "/applicants", map[string]interface{}{
		"first_name":  "Jose",
		"last_name":   "Reyes",
		"email":       "jose@family.test",
		"grade_level": 7,
	})
	require.NoError(t, err)
	var second handlers.ApplicantResponse
	require.NoError(t, ParseJSONResponse(resp, &second))

	resp, err = client.Request(http.MethodPost, "/applicants/"+second.ID+"/approve", nil)
	require.NoError(t, err)
	var secondStudent handlers.StudentResponse
	require.NoError(t, ParseJSONResponse(resp, &secondStudent))

	resp, err = client.Request(http.MethodPost, "/enrollments", map[string]interface{}{
		"student_id":  secondStudent.ID,
		"section_id":  section.ID,
		"school_year": "2026-2027",
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
