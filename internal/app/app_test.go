package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/testutil"
	"learnhub_backend/internal/util"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-test-secret-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t   *testing.T
	app *App
	db  *gorm.DB
}

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: "test"},
		JWT:       config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour, ResetExpire: time.Minute},
		Storage:   config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir(), MaxUploadMB: 5},
		Mail:      config.MailConfig{Provider: "log"},
		RateLimit: config.RateLimitConfig{MaxRequests: 100000, WindowMinutes: 1},
	}
	return &harness{t: t, app: New(cfg, db, nil), db: db}
}

func (h *harness) token(u *model.User) string {
	tok, err := util.GenerateJWT(u, testSecret, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body interface{}) (int, envelope) {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return h.send(req, token)
}

func (h *harness) multipart(method, path, token string, fields map[string]string, file string, data []byte) (int, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, w.WriteField(k, v))
	}
	if data != nil {
		part, err := w.CreateFormFile("file", file)
		require.NoError(h.t, err)
		_, err = part.Write(data)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return h.send(req, token)
}

func (h *harness) send(req *http.Request, token string) (int, envelope) {
	h.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.app.Router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

type contentRow struct {
	ID    uint   `json:"id"`
	Order int    `json:"order"`
	URL   string `json:"url"`
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegisterLoginProfile(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "password123", "role": "tutor",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"login": "alice", "password": "password123"})
	require.Equal(t, http.StatusOK, code, env.Message)
	auth := decode[struct {
		Token string `json:"token"`
	}](t, env)
	require.NotEmpty(t, auth.Token)

	code, env = h.do(http.MethodGet, "/api/profile", auth.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", decode[model.User](t, env).Username)

	code, _ = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"login": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = h.do(http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestTutorRoutesRequireTutorRole(t *testing.T) {
	h := newHarness(t)
	student := testutil.SeedUser(t, h.db, "stu", model.Student)

	code, _ := h.do(http.MethodGet, "/api/tutor/courses", h.token(student), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCourseLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	tutor := testutil.SeedUser(t, h.db, "tutor", model.Tutor)
	student := testutil.SeedUser(t, h.db, "student", model.Student)
	outsider := testutil.SeedUser(t, h.db, "outsider", model.Student)
	tt, st := h.token(tutor), h.token(student)

	// 封面图走 image 字段
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Go Basics"))
	require.NoError(t, w.WriteField("overview", "Learn Go"))
	require.NoError(t, w.WriteField("subject", "Programming"))
	part, err := w.CreateFormFile("image", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/tutor/courses", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, env := h.send(req, tt)
	require.Equal(t, http.StatusCreated, code, env.Message)
	course := decode[model.Course](t, env)
	assert.Equal(t, "go-basics", course.Slug)
	assert.NotEmpty(t, course.Image)

	for i := 0; i < 2; i++ {
		code, env = h.do(http.MethodPost, fmt.Sprintf("/api/tutor/courses/%d/modules", course.ID), tt,
			map[string]string{"title": fmt.Sprintf("Module %d", i)})
		require.Equal(t, http.StatusCreated, code, env.Message)
		assert.Equal(t, i, decode[model.Module](t, env).Order)
	}

	code, env = h.do(http.MethodGet, fmt.Sprintf("/api/courses/%d/modules", course.ID), "", nil)
	require.Equal(t, http.StatusOK, code)
	modules := decode[[]model.Module](t, env)
	require.Len(t, modules, 2)
	first := modules[0]

	code, env = h.multipart(http.MethodPost, fmt.Sprintf("/api/tutor/modules/%d/contents", first.ID), tt,
		map[string]string{"type": "text", "title": "Intro", "content": "hello"}, "", nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	text := decode[contentRow](t, env)
	assert.Equal(t, 0, text.Order)

	code, env = h.multipart(http.MethodPost, fmt.Sprintf("/api/tutor/modules/%d/contents", first.ID), tt,
		map[string]string{"type": "file", "title": "Slides"}, "slides.pdf", []byte("%PDF-1.4 fake"))
	require.Equal(t, http.StatusCreated, code, env.Message)
	file := decode[contentRow](t, env)
	assert.Equal(t, 1, file.Order)
	assert.Contains(t, file.URL, "/uploads/files/")

	code, _ = h.multipart(http.MethodPost, fmt.Sprintf("/api/tutor/modules/%d/contents", first.ID), tt,
		map[string]string{"type": "video", "title": "Clip", "url": "not a url"}, "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// 未选课不可查看内容
	contentsPath := fmt.Sprintf("/api/modules/%d/contents", first.ID)
	code, _ = h.do(http.MethodGet, contentsPath, st, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = h.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), st, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, _ = h.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), st, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = h.do(http.MethodGet, contentsPath, st, nil)
	require.Equal(t, http.StatusOK, code)
	contents := decode[[]contentRow](t, env)
	require.Len(t, contents, 2)
	assert.Equal(t, text.ID, contents[0].ID)

	code, _ = h.do(http.MethodGet, contentsPath, h.token(outsider), nil)
	assert.Equal(t, http.StatusForbidden, code)

	completePath := fmt.Sprintf("/api/courses/%d/modules/%d/complete", course.ID, first.ID)
	for i := 0; i < 2; i++ {
		code, env = h.do(http.MethodPost, completePath, st, nil)
		require.Equal(t, http.StatusOK, code, env.Message)
	}
	progress := decode[struct {
		CompletedModuleCount int64   `json:"completedModuleCount"`
		Percentage           float64 `json:"percentage"`
	}](t, env)
	assert.EqualValues(t, 1, progress.CompletedModuleCount)
	assert.InDelta(t, 50.0, progress.Percentage, 0.001)

	code, env = h.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/contents/%d/complete", course.ID, text.ID), st, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	mp := decode[struct {
		CompletedContents int64   `json:"completedContents"`
		Percentage        float64 `json:"percentage"`
	}](t, env)
	assert.EqualValues(t, 1, mp.CompletedContents)
	assert.InDelta(t, 50.0, mp.Percentage, 0.001)

	code, env = h.do(http.MethodGet, fmt.Sprintf("/api/tutor/courses/%d/progress", course.ID), tt, nil)
	require.Equal(t, http.StatusOK, code)
	rows := decode[[]struct {
		StudentID uint `json:"studentId"`
	}](t, env)
	require.Len(t, rows, 1)
	assert.Equal(t, student.ID, rows[0].StudentID)

	code, env = h.do(http.MethodPut, fmt.Sprintf("/api/tutor/courses/%d", course.ID), tt, map[string]string{
		"title": "Go Basics II", "overview": "More Go", "subject": "Programming",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Go Basics II", decode[model.Course](t, env).Title)

	// 非所有者不能删除
	code, _ = h.do(http.MethodDelete, fmt.Sprintf("/api/tutor/courses/%d", course.ID), h.token(testutil.SeedUser(t, h.db, "other", model.Tutor)), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(http.MethodDelete, fmt.Sprintf("/api/tutor/courses/%d", course.ID), tt, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubmitAnswersOverHTTP(t *testing.T) {
	h := newHarness(t)
	tutor := testutil.SeedUser(t, h.db, "tutor", model.Tutor)
	student := testutil.SeedUser(t, h.db, "student", model.Student)
	course := testutil.SeedCourse(t, h.db, tutor, "Quiz Course")
	module := testutil.SeedModules(t, h.db, course, 1)[0]
	now := time.Now()
	test := testutil.SeedTest(t, h.db, &module, now.Add(-time.Hour), now.Add(time.Hour))
	closed := testutil.SeedTest(t, h.db, &module, now.Add(-2*time.Hour), now.Add(-time.Hour))
	st := h.token(student)

	answers := map[string]interface{}{"answers": []map[string]interface{}{
		{"questionId": test.Questions[0].ID, "selectedOption": "B"},
	}}
	path := fmt.Sprintf("/api/tests/%d/answers", test.ID)

	code, _ := h.do(http.MethodPost, path, st, answers)
	assert.Equal(t, http.StatusForbidden, code)

	testutil.Enroll(t, h.db, course, student)
	code, env := h.do(http.MethodPost, path, st, answers)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, 1, decode[struct {
		Score int `json:"score"`
	}](t, env).Score)

	code, _ = h.do(http.MethodPost, fmt.Sprintf("/api/tests/%d/answers", closed.ID), st, map[string]interface{}{"answers": []map[string]interface{}{
		{"questionId": closed.Questions[0].ID, "selectedOption": "B"},
	}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = h.do(http.MethodGet, fmt.Sprintf("/api/tests/%d/results", test.ID), st, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[struct {
		Score int `json:"score"`
	}](t, env).Score)
}

func TestHealthAndContentTypes(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := h.do(http.MethodGet, "/api/content-types", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"text", "video", "image", "file"}, decode[[]string](t, env))
}

func TestSwaggerDocListsRoutes(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/", doc.BasePath)
	assert.Contains(t, doc.Paths, "/api/auth/register")
	assert.Contains(t, doc.Paths["/api/tutor/modules/{id}/contents"], "post")
	assert.Contains(t, doc.Paths["/api/tests/{id}/answers"], "post")
}
