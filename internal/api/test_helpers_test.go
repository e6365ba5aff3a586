package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/i18n"
)

const testSecretKey = "test-secret-key-with-at-least-32-chars"

var testNow = time.Date(2024, time.January, 14, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	app      *fiber.App
	handler  *Handler
	database *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cyclecast-test.db"), nil)
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	manager, err := i18n.NewManager(i18n.LangEN, i18n.Locales())
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	handler, err := NewHandler(Options{
		Database:      database,
		SecretKey:     []byte(testSecretKey),
		Location:      time.UTC,
		TokenTTL:      365 * 24 * time.Hour,
		ForecastCount: 3,
		I18n:          manager,
		Logger:        logger,
	})
	require.NoError(t, err)
	handler.now = func() time.Time { return testNow }

	app := fiber.New()
	app.Use(RequestLogger(logger))
	RegisterRoutes(app, handler)
	return &testEnv{app: app, handler: handler, database: database}
}

type testResponse struct {
	status  int
	body    []byte
	cookies []*http.Cookie
	header  http.Header
}

func (response testResponse) json(t *testing.T) map[string]any {
	t.Helper()

	payload := map[string]any{}
	require.NoError(t, json.Unmarshal(response.body, &payload), string(response.body))
	return payload
}

func (env *testEnv) request(t *testing.T, method string, path string, body any, headers map[string]string) testResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch value := body.(type) {
		case string:
			reader = bytes.NewBufferString(value)
		default:
			encoded, err := json.Marshal(value)
			require.NoError(t, err)
			reader = bytes.NewReader(encoded)
		}
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	defer response.Body.Close()

	content, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return testResponse{status: response.StatusCode, body: content, cookies: response.Cookies(), header: response.Header}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// registerUser creates an account through the API and returns its bearer token.
func (env *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()

	response := env.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "StrongPass1",
	}, nil)
	require.Equal(t, http.StatusCreated, response.status, string(response.body))
	token, _ := response.json(t)["token"].(string)
	require.NotEmpty(t, token)
	return token
}
