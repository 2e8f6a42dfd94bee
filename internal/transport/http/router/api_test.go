package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skillmentor/internal/core/auth"
	"skillmentor/internal/domain"
	"skillmentor/internal/repo"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

const (
	adminEmail    = "admin@edu.com"
	adminPassword = "admin123"
)

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Token   string           `json:"token"`
	User    *domain.Identity `json:"user"`
}

func (e envelope) into(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, v), string(e.Data))
}

type testAPI struct {
	t   *testing.T
	h   http.Handler
	dir string
}

// newTestAPI 每个测试独立的内存库 + 上传目录
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dsn := "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))

	j := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "skillmentor", TTL: time.Hour}
	require.NoError(t, service.NewAuthService(db, j, zap.NewNop()).
		EnsureAdmin(t.Context(), adminEmail, adminPassword, "Admin"))

	dir := t.TempDir()
	h := NewAPIEngine(Deps{DB: db, JWT: j, Mode: gin.TestMode, UploadDir: dir})
	return &testAPI{t: t, h: h, dir: dir}
}

func (a *testAPI) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, token)
}

func (a *testAPI) send(req *http.Request, token string) (int, envelope) {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)
	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *testAPI) register(name, email string) string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/auth/register", "", domain.Registration{Name: name, Email: email, Password: "secret1"})
	require.Equal(a.t, http.StatusCreated, code, env.Message)
	return env.Token
}

func (a *testAPI) adminToken() string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(a.t, http.StatusOK, code, env.Message)
	return env.Token
}

func (a *testAPI) createCourse(token, title, category string) domain.Course {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/courses", token, domain.CourseDraft{
		Title: title, Description: "d", Instructor: "Ada", Difficulty: domain.Beginner,
		Duration: "4 weeks", Category: category, Price: 10,
		Syllabus: []string{"intro", " ", "basics"},
	})
	require.Equal(a.t, http.StatusCreated, code, env.Message)
	var out struct {
		Course domain.Course `json:"course"`
	}
	env.into(a.t, &out)
	return out.Course
}

func TestAuthFlow(t *testing.T) {
	a := newTestAPI(t)

	code, env := a.do(http.MethodPost, "/api/auth/register", "", domain.Registration{Name: "Bo", Email: " Bo@X.io ", Password: "secret1"})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Token)
	require.NotNil(t, env.User)
	assert.Equal(t, "bo@x.io", env.User.Email)
	assert.Equal(t, domain.RoleStudent, env.User.Role)
	tok := env.Token

	code, env = a.do(http.MethodPost, "/api/auth/register", "", domain.Registration{Name: "Bo", Email: "bo@x.io", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Equal(t, "User already exists with this email", env.Message)

	code, env = a.do(http.MethodPost, "/api/auth/register", "", domain.Registration{Name: "Bo", Email: "nope", Password: "1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "bo@x.io", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", env.Message)

	code, env = a.do(http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.User)
	assert.Equal(t, "Bo", env.User.Name)

	code, _ = a.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = a.do(http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = a.do(http.MethodPut, "/api/auth/password", tok, domain.PasswordChange{CurrentPassword: "bad", NewPassword: "secret2"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Current password is incorrect", env.Message)
	code, _ = a.do(http.MethodPut, "/api/auth/password", tok, domain.PasswordChange{CurrentPassword: "secret1", NewPassword: "secret2"})
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "bo@x.io", "password": "secret2"})
	assert.Equal(t, http.StatusOK, code)

	code, env = a.do(http.MethodPost, "/api/auth/logout", tok, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestCourseEnrollmentReviewFlow(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken()
	stu := a.register("Cy", "cy@x.io")

	code, _ := a.do(http.MethodPost, "/api/courses", stu, domain.CourseDraft{Title: "x"})
	assert.Equal(t, http.StatusForbidden, code)

	c := a.createCourse(admin, "Go Basics", "Programming")
	assert.Equal(t, []string{"intro", "basics"}, c.Syllabus)
	assert.True(t, c.IsActive)

	code, env := a.do(http.MethodGet, "/api/courses?category=Programming", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Courses    []domain.Course   `json:"courses"`
		Pagination domain.Pagination `json:"pagination"`
	}
	env.into(t, &list)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, int64(1), list.Pagination.Total)

	code, env = a.do(http.MethodPost, "/api/enrollments", stu, map[string]string{"courseId": c.ID})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var eo struct {
		Enrollment domain.Enrollment `json:"enrollment"`
	}
	env.into(t, &eo)
	course, ok := eo.Enrollment.Course.Entity()
	require.True(t, ok)
	assert.Equal(t, 1, course.EnrolledStudents)
	eid := eo.Enrollment.ID

	code, env = a.do(http.MethodPost, "/api/enrollments", stu, map[string]string{"courseId": c.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Already enrolled in this course", env.Message)

	code, env = a.do(http.MethodPut, "/api/enrollments/"+eid+"/progress", stu, domain.ProgressUpdate{Progress: 50})
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = a.do(http.MethodPut, "/api/enrollments/"+eid+"/progress", stu, domain.ProgressUpdate{Progress: 30})
	require.Equal(t, http.StatusOK, code)
	env.into(t, &eo)
	assert.Equal(t, 50, eo.Enrollment.Progress)

	code, env = a.do(http.MethodPut, "/api/enrollments/"+eid+"/progress", stu, domain.ProgressUpdate{Progress: 100})
	require.Equal(t, http.StatusOK, code)
	env.into(t, &eo)
	assert.True(t, eo.Enrollment.Completed())
	assert.NotEmpty(t, eo.Enrollment.CertificateNumber)

	code, env = a.do(http.MethodGet, "/api/enrollments/course/"+c.ID, stu, nil)
	require.Equal(t, http.StatusOK, code)
	env.into(t, &eo)
	assert.Equal(t, eid, eo.Enrollment.ID)

	code, env = a.do(http.MethodPost, "/api/reviews", stu, domain.ReviewDraft{CourseID: c.ID, Rating: 4, Comment: "good"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, env = a.do(http.MethodPost, "/api/reviews", stu, domain.ReviewDraft{CourseID: c.ID, Rating: 5, Comment: "again"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = a.do(http.MethodGet, "/api/reviews/course/"+c.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	var rs struct {
		Reviews []domain.Review `json:"reviews"`
	}
	env.into(t, &rs)
	require.Len(t, rs.Reviews, 1)
	student, ok := rs.Reviews[0].Student.Entity()
	require.True(t, ok)
	assert.Equal(t, "Cy", student.Name)

	code, env = a.do(http.MethodGet, "/api/courses/"+c.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	var co struct {
		Course domain.Course `json:"course"`
	}
	env.into(t, &co)
	assert.InDelta(t, 4.0, co.Course.Rating, 0.001)
	assert.Equal(t, 1, co.Course.ReviewCount)

	code, env = a.do(http.MethodGet, "/api/admin/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var dash domain.Dashboard
	env.into(t, &dash)
	assert.Equal(t, int64(1), dash.TotalStudents)
	assert.Equal(t, int64(1), dash.CompletedEnrollments)
	assert.Equal(t, int64(1), dash.TotalReviews)

	code, _ = a.do(http.MethodDelete, "/api/enrollments/"+eid, stu, nil)
	require.Equal(t, http.StatusOK, code)
	code, env = a.do(http.MethodGet, "/api/courses/"+c.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	env.into(t, &co)
	assert.Equal(t, 0, co.Course.EnrolledStudents)
}

func TestInactiveCourseHiddenFromGuests(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken()
	c := a.createCourse(admin, "Hidden", "Design")

	off := false
	code, _ := a.do(http.MethodPut, "/api/courses/"+c.ID, admin, domain.CoursePatch{IsActive: &off})
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodGet, "/api/courses/"+c.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(http.MethodGet, "/api/courses/"+c.ID, admin, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	a := newTestAPI(t)
	stu := a.register("Di", "di@x.io")

	code, env := a.do(http.MethodGet, "/api/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Not authorized, no token", env.Message)

	code, env = a.do(http.MethodGet, "/api/admin/dashboard", stu, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied", env.Message)

	code, _ = a.do(http.MethodGet, "/api/users", stu, nil)
	assert.Equal(t, http.StatusForbidden, code)

	admin := a.adminToken()
	code, env = a.do(http.MethodGet, "/api/users?role=student", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Users []domain.Identity `json:"users"`
	}
	env.into(t, &page)
	require.Len(t, page.Users, 1)
	id := page.Users[0].ID

	code, env = a.do(http.MethodPatch, "/api/users/"+id+"/status", admin, map[string]bool{"isActive": false})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.User)
	assert.False(t, env.User.IsActive)

	code, env = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "di@x.io", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Account is deactivated", env.Message)
}

func TestNotesAreScopedToOwner(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken()
	c := a.createCourse(admin, "Notes 101", "Study")
	alice := a.register("Al", "al@x.io")
	bob := a.register("Bob", "bob@x.io")

	code, env := a.do(http.MethodPost, "/api/notes", alice, domain.NoteDraft{CourseID: c.ID, Title: "t", Content: "Go has goroutines. Channels connect goroutines. Select waits on channels."})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var no struct {
		Note domain.Note `json:"note"`
	}
	env.into(t, &no)
	id := no.Note.ID
	assert.Equal(t, c.ID, no.Note.Course.ID())

	code, _ = a.do(http.MethodPost, "/api/notes", alice, domain.NoteDraft{CourseID: c.ID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodGet, "/api/notes?courseId="+c.ID, alice, nil)
	require.Equal(t, http.StatusOK, code)
	var ns struct {
		Notes []domain.Note `json:"notes"`
	}
	env.into(t, &ns)
	assert.Len(t, ns.Notes, 1)

	code, env = a.do(http.MethodGet, "/api/notes", bob, nil)
	require.Equal(t, http.StatusOK, code)
	env.into(t, &ns)
	assert.Empty(t, ns.Notes)
	code, _ = a.do(http.MethodPut, "/api/notes/"+id, bob, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = a.do(http.MethodPut, "/api/notes/"+id, alice, map[string]string{"title": "renamed"})
	require.Equal(t, http.StatusOK, code)
	env.into(t, &no)
	assert.Equal(t, "renamed", no.Note.Title)

	code, env = a.do(http.MethodPost, "/api/notes/"+id+"/summary", alice, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var sum struct {
		Summary string `json:"summary"`
	}
	env.into(t, &sum)
	assert.NotEmpty(t, sum.Summary)

	code, _ = a.do(http.MethodDelete, "/api/notes/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(http.MethodDelete, "/api/notes/"+id, alice, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestGenerateSummary(t *testing.T) {
	a := newTestAPI(t)
	code, env := a.do(http.MethodPost, "/api/ai/generate-summary", "", map[string]string{"notes": "One. Two."})
	require.Equal(t, http.StatusOK, code)
	var sum struct {
		Summary string `json:"summary"`
	}
	env.into(t, &sum)
	assert.NotEmpty(t, sum.Summary)

	code, _ = a.do(http.MethodPost, "/api/ai/generate-summary", "", map[string]string{"notes": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func multipartReq(t *testing.T, path, field string, names ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, n := range names {
		fw, err := mw.CreateFormFile(field, n)
		require.NoError(t, err)
		_, err = fw.Write([]byte("hello"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploads(t *testing.T) {
	a := newTestAPI(t)
	tok := a.register("Ed", "ed@x.io")

	code, _ := a.send(multipartReq(t, "/api/upload", "file", "a.txt"), "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := a.send(multipartReq(t, "/api/upload", "file", "My Notes.txt"), tok)
	require.Equal(t, http.StatusOK, code, env.Message)
	var up domain.Upload
	env.into(t, &up)
	assert.True(t, strings.HasPrefix(up.URL, "/uploads/my-notes-"), up.URL)
	assert.Equal(t, int64(5), up.Size)
	_, err := os.Stat(filepath.Join(a.dir, filepath.Base(up.URL)))
	require.NoError(t, err)

	code, _ = a.send(multipartReq(t, "/api/upload", "file", "run.exe"), tok)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.send(multipartReq(t, "/api/upload/multiple", "files", "a.png", "b.pdf"), tok)
	require.Equal(t, http.StatusOK, code, env.Message)
	var many struct {
		Files []domain.Upload `json:"files"`
	}
	env.into(t, &many)
	assert.Len(t, many.Files, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestAPI(t)
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "skillmentor_http_requests_total")
	assert.Contains(t, w.Body.String(), `path="/healthz"`)
}

func TestRegistryOrdersByPriority(t *testing.T) {
	var order []string
	var reg Registry
	reg.Register(mod{name: "late", prio: 200, out: &order}, mod{name: "early", prio: 1, out: &order}, "not a module")
	reg.MountAllAPI(ezForTest())
	assert.Equal(t, []string{"early", "late"}, order)
}

type mod struct {
	name string
	prio int
	out  *[]string
}

func (m mod) MountAPI(ez.EZ) { *m.out = append(*m.out, m.name) }
func (m mod) Priority() int  { return m.prio }

func ezForTest() ez.EZ { return ez.New(gin.New().Group("/"), nil) }
