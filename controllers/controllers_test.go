package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sosmed/middleware"
	"sosmed/models"
	"sosmed/storage"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	// Point Redis at a closed port so caching and the blacklist fall back to
	// their in-process paths.
	os.Setenv("REDIS_PORT", "63790")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Like{}, &models.Comment{}))
	return db
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	blobs, err := storage.NewLocalStorage(t.TempDir(), "/static/storage")
	require.NoError(t, err)

	auth := NewAuthController(db, blobs)
	profile := NewProfileController(db, blobs)
	posts := NewPostController(db, blobs)
	comments := NewCommentController(db)

	r := gin.New()
	r.POST("/register", auth.Register)
	r.POST("/login", auth.Login)

	protected := r.Group("/", middleware.AuthRequired())
	protected.POST("/logout", auth.Logout)
	protected.GET("/profile", profile.Show)
	protected.POST("/update-profile", profile.Update)
	protected.POST("/posts", posts.Create)
	protected.GET("/posts", posts.List)
	protected.POST("/posts/:id", posts.Update)
	protected.DELETE("/posts/:id", posts.Delete)
	protected.POST("/posts/:id/like", posts.ToggleLike)
	protected.POST("/posts/:id/comment", comments.Add)
	protected.GET("/posts/:id/comments", comments.List)
	protected.POST("/comments/:id/reply", comments.Reply)
	protected.DELETE("/comments/:id", comments.Delete)

	return r, db
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func doForm(t *testing.T, r http.Handler, method, path string, fields map[string]string, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func doMultipart(t *testing.T, r http.Handler, method, path string, fields map[string]string, photos map[string][]string, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, names := range photos {
		for _, name := range names {
			fw, err := mw.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = fw.Write([]byte("fake image bytes"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

type registeredUser struct {
	Token string
	User  map[string]any
}

func registerUser(t *testing.T, r http.Handler, name, email, province, city string) registeredUser {
	t.Helper()

	w, env := doJSON(t, r, http.MethodPost, "/register", gin.H{
		"name":          name,
		"email":         email,
		"password":      "secret123",
		"province_code": province,
		"city_code":     city,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, "register response: %s", w.Body.String())

	var data struct {
		AccessToken string         `json:"access_token"`
		TokenType   string         `json:"token_type"`
		User        map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	require.Equal(t, "Bearer", data.TokenType)
	return registeredUser{Token: data.AccessToken, User: data.User}
}

func TestRegisterAssignsRegistrantNumbers(t *testing.T) {
	r, _ := newTestRouter(t)

	for i := 1; i <= 3; i++ {
		u := registerUser(t, r, fmt.Sprintf("jakarta user %d", i), fmt.Sprintf("jk%d@example.com", i), "JK", "01")
		assert.EqualValues(t, i, u.User["register_number"])
		assert.Equal(t, fmt.Sprintf("JK01%04d", i), u.User["unique_number"])
	}

	other := registerUser(t, r, "bandung user", "jb1@example.com", "jb", "02")
	assert.EqualValues(t, 1, other.User["register_number"])
	assert.Equal(t, "JB020001", other.User["unique_number"])
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	r, _ := newTestRouter(t)

	registerUser(t, r, "original person", "taken@example.com", "JK", "01")

	w, _ := doJSON(t, r, http.MethodPost, "/register", gin.H{
		"name":          "copycat",
		"email":         "taken@example.com",
		"password":      "secret123",
		"province_code": "JB",
		"city_code":     "02",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/register", gin.H{
		"name":  "missing fields",
		"email": "not-an-email",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndProfile(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "login person", "login@example.com", "JK", "01")

	w, _ := doJSON(t, r, http.MethodPost, "/login", gin.H{
		"email":    "login@example.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/login", gin.H{
		"email":    "login@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)

	w, env = doJSON(t, r, http.MethodGet, "/profile", nil, data.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var user map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "login@example.com", user["email"])
	assert.Equal(t, "JK010001", user["unique_number"])

	w, _ = doJSON(t, r, http.MethodGet, "/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/profile", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	r, _ := newTestRouter(t)
	u := registerUser(t, r, "logout person", "logout@example.com", "JK", "01")

	w, _ := doJSON(t, r, http.MethodGet, "/profile", nil, u.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/logout", nil, u.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/profile", nil, u.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfileName(t *testing.T) {
	r, db := newTestRouter(t)
	u := registerUser(t, r, "old name", "rename@example.com", "JK", "01")

	w, env := doForm(t, r, http.MethodPost, "/update-profile", map[string]string{
		"name": "new name",
	}, u.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var user map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "new name", user["name"])

	var stored models.User
	require.NoError(t, db.Where("email = ?", "rename@example.com").First(&stored).Error)
	assert.Equal(t, "new name", stored.Name)
	assert.Equal(t, "JK010001", stored.UniqueNumber)
}

func TestUpdateProfilePhotoReplacesOld(t *testing.T) {
	r, db := newTestRouter(t)
	u := registerUser(t, r, "photo person", "photo@example.com", "JK", "01")

	w, _ := doMultipart(t, r, http.MethodPost, "/update-profile", nil,
		map[string][]string{"profile_photo": {"first.jpg"}}, u.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	require.NoError(t, db.Where("email = ?", "photo@example.com").First(&stored).Error)
	first := stored.ProfilePhoto
	require.NotEmpty(t, first)

	w, _ = doMultipart(t, r, http.MethodPost, "/update-profile", nil,
		map[string][]string{"profile_photo": {"second.png"}}, u.Token)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Where("email = ?", "photo@example.com").First(&stored).Error)
	assert.NotEmpty(t, stored.ProfilePhoto)
	assert.NotEqual(t, first, stored.ProfilePhoto)
}

func TestUpdateProfileRejectsBadPhotoType(t *testing.T) {
	r, _ := newTestRouter(t)
	u := registerUser(t, r, "exe person", "exe@example.com", "JK", "01")

	w, _ := doMultipart(t, r, http.MethodPost, "/update-profile", nil,
		map[string][]string{"profile_photo": {"malware.exe"}}, u.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
