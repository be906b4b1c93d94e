package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkazants/accounts-service/internal/handlers/middleware"
	"github.com/nkazants/accounts-service/internal/repository"
	"github.com/nkazants/accounts-service/internal/repository/postgres"
	"github.com/nkazants/accounts-service/internal/service/auth"
	"github.com/nkazants/accounts-service/internal/service/auth/tokencodec"
	"github.com/nkazants/accounts-service/internal/service/user"
)

// In-memory FileStorage for upload handlers
type fakeStorage struct {
	lastKey         string
	lastContentType string
}

func (f *fakeStorage) Upload(_ context.Context, key string, contentType string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}

	f.lastKey = key
	f.lastContentType = contentType

	return "https://media.example.com/" + key, nil
}

// Full handler stack over real services and a real repository
type testEnv struct {
	router   http.Handler
	userRepo repository.UserRepo
	storage  *fakeStorage
}

func newTestEnv(t *testing.T, db postgres.DBTX) *testEnv {
	t.Helper()

	codec, err := tokencodec.New(tokencodec.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	require.NoError(t, err)

	userRepo := &postgres.UserRepo{DB: db}

	authService, err := auth.NewService(auth.Config{}, codec, userRepo)
	require.NoError(t, err)

	storage := &fakeStorage{}
	userService := user.NewService(nil, userRepo, storage)

	router := NewRouter(
		NewAuth(authService, nil),
		NewAccount(userService, nil),
		middleware.AuthMiddleware(authService),
	)

	return &testEnv{
		router:   router,
		userRepo: userRepo,
		storage:  storage,
	}
}

func (e *testEnv) do(t *testing.T, method string, path string, body io.Reader, cookies []*http.Cookie) *http.Response {
	t.Helper()

	r := httptest.NewRequest(method, path, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		r.AddCookie(c)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, r)

	return recorder.Result()
}

func (e *testEnv) register(t *testing.T, username string) []*http.Cookie {
	t.Helper()

	response := e.do(t, http.MethodPost, "/api/user/register", strings.NewReader(`{
		"username": "`+username+`",
		"email": "`+username+`@example.com",
		"full_name": "Test User",
		"password": "correct horse battery staple"
	}`), nil)
	defer response.Body.Close() // nolint:errcheck

	require.Equal(t, http.StatusCreated, response.StatusCode, "registration should succeed")

	return response.Cookies()
}

func decodeBody[T any](t *testing.T, body io.Reader) T {
	t.Helper()

	var value T
	require.NoError(t, json.NewDecoder(body).Decode(&value))

	return value
}

func cookieByName(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()

	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}

	t.Fatalf("cookie %q not found in response", name)
	return nil
}

// multipartImage builds a multipart body with a single image file part
func multipartImage(t *testing.T, field string, contentType string) (io.Reader, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="image.png"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)

	_, err = part.Write([]byte("image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buf, writer.FormDataContentType()
}
