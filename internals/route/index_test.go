package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"khatmaku_backend/internals/events"
	"khatmaku_backend/internals/metrics"
)

const testSecret = "route-test-secret"

func token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func call(t *testing.T, app *fiber.App, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func newMemoryApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	SetupRoutes(app, NewServices(nil, events.NopPublisher{}, metrics.Nop{}), testSecret)
	return app
}

func TestHealthInMemoryMode(t *testing.T) {
	app := newMemoryApp(t)
	code, body := call(t, app, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "OK", body["status"])
	require.Equal(t, "In-memory store", body["database"])
}

func TestPrivateGroupRequiresToken(t *testing.T) {
	app := newMemoryApp(t)

	code, _ := call(t, app, http.MethodGet, "/api/u/activities", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, app, http.MethodGet, "/api/u/activities", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, body := call(t, app, http.MethodGet, "/api/u/activities", token(t, uuid.New()), nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
}

func TestKhatmaAndActivityFlow(t *testing.T) {
	app := newMemoryApp(t)
	owner, reader := uuid.New(), uuid.New()
	deceased := uuid.New()

	code, body := call(t, app, http.MethodPost, "/api/u/khatmas", token(t, owner), map[string]any{
		"khatma_deceased_id": deceased,
		"khatma_is_shared":   true,
	})
	require.Equal(t, http.StatusCreated, code)
	juz := body["data"].(map[string]any)["juz"].([]any)
	require.Len(t, juz, 30)
	firstJuz := juz[0].(map[string]any)["khatma_juz_id"].(string)

	code, _ = call(t, app, http.MethodPost, "/api/u/khatmas/juz/"+firstJuz+"/claim", token(t, reader), nil)
	require.Equal(t, http.StatusOK, code)
	code, body = call(t, app, http.MethodPost, "/api/u/khatmas/juz/"+firstJuz+"/claim", token(t, owner), nil)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "ALREADY_CLAIMED", body["error_code"])

	code, _ = call(t, app, http.MethodPost, "/api/u/activities/quran", token(t, reader), map[string]any{
		"activity_log_deceased_id": deceased,
		"activity_log_juz_number":  1,
	})
	require.Equal(t, http.StatusCreated, code)
	code, _ = call(t, app, http.MethodPost, "/api/u/activities/dua", token(t, reader), map[string]any{
		"activity_log_deceased_id": deceased,
	})
	require.Equal(t, http.StatusCreated, code)

	code, body = call(t, app, http.MethodGet, "/api/u/activities/summary/weekly", token(t, reader), nil)
	require.Equal(t, http.StatusOK, code)
	sum := body["data"].(map[string]any)
	require.EqualValues(t, 1, sum["dua_count"])
	require.EqualValues(t, 0, sum["deed_count"])
	require.EqualValues(t, 1, sum["quran_sessions"])

	code, _ = call(t, app, http.MethodPost, "/api/u/activities/quran", token(t, reader), map[string]any{
		"activity_log_deceased_id": deceased,
		"activity_log_juz_number":  31,
	})
	require.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestDeceasedRoutesNotMountedWithoutDB(t *testing.T) {
	app := newMemoryApp(t)
	code, _ := call(t, app, http.MethodGet, "/api/public/deceased/slug/ahmad", "", nil)
	require.Equal(t, http.StatusNotFound, code)
}
