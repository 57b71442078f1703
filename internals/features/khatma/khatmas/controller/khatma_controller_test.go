package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"khatmaku_backend/internals/features/khatma/khatmas/model"
	"khatmaku_backend/internals/features/khatma/khatmas/repository"
	"khatmaku_backend/internals/features/khatma/khatmas/route"
	svc "khatmaku_backend/internals/features/khatma/khatmas/service"
)

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Refresh   bool            `json:"refresh"`
	Data      json.RawMessage `json:"data"`
}

type boardData struct {
	Khatma struct {
		KhatmaID     uuid.UUID `json:"khatma_id"`
		KhatmaStatus string    `json:"khatma_status"`
	} `json:"khatma"`
	Juz []struct {
		KhatmaJuzID     uuid.UUID `json:"khatma_juz_id"`
		KhatmaJuzNumber int       `json:"khatma_juz_number"`
		KhatmaJuzStatus string    `json:"khatma_juz_status"`
		KhatmaJuzIsMine bool      `json:"khatma_juz_is_mine"`
	} `json:"juz"`
}

func newTestApp() *fiber.App {
	return newTestAppWithStore(repository.NewMemoryKhatmaStore())
}

func newTestAppWithStore(store repository.KhatmaStore) *fiber.App {
	app := fiber.New()
	// pengganti AuthJWT: user_id langsung dari header
	api := app.Group("/api/u", func(c *fiber.Ctx) error {
		if uid := c.Get("X-Test-User"); uid != "" {
			c.Locals("user_id", uid)
		}
		return c.Next()
	})
	route.KhatmaUserRoutes(api, svc.NewKhatmaService(store), nil)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, user uuid.UUID, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func createBoard(t *testing.T, app *fiber.App, owner uuid.UUID, shared bool) boardData {
	t.Helper()
	code, env := do(t, app, http.MethodPost, "/api/u/khatmas", owner, map[string]any{
		"khatma_deceased_id": uuid.New(),
		"khatma_is_shared":   shared,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var b boardData
	require.NoError(t, json.Unmarshal(env.Data, &b))
	return b
}

func TestCreateAndGetBoard(t *testing.T) {
	app := newTestApp()
	owner := uuid.New()

	b := createBoard(t, app, owner, true)
	require.Len(t, b.Juz, 30)
	require.Equal(t, "active", b.Khatma.KhatmaStatus)

	code, env := do(t, app, http.MethodGet, "/api/u/khatmas/"+b.Khatma.KhatmaID.String(), owner, nil)
	require.Equal(t, http.StatusOK, code)
	var got boardData
	require.NoError(t, json.Unmarshal(env.Data, &got))
	for i, j := range got.Juz {
		require.Equal(t, i+1, j.KhatmaJuzNumber)
	}
}

func TestCreateValidation(t *testing.T) {
	app := newTestApp()

	code, env := do(t, app, http.MethodPost, "/api/u/khatmas", uuid.New(), map[string]any{"khatma_is_shared": true})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "VALIDATION_ERROR", env.ErrorCode)

	code, _ = do(t, app, http.MethodPost, "/api/u/khatmas", uuid.Nil, map[string]any{"khatma_deceased_id": uuid.New()})
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestJuzActionsErrorMapping(t *testing.T) {
	app := newTestApp()
	owner, a, b := uuid.New(), uuid.New(), uuid.New()
	board := createBoard(t, app, owner, true)
	juz5 := "/api/u/khatmas/juz/" + board.Juz[4].KhatmaJuzID.String()

	code, env := do(t, app, http.MethodPost, juz5+"/claim", a, nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)

	code, env = do(t, app, http.MethodPost, juz5+"/claim", b, nil)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "ALREADY_CLAIMED", env.ErrorCode)
	require.True(t, env.Refresh)

	code, env = do(t, app, http.MethodPost, juz5+"/complete", b, nil)
	require.Equal(t, http.StatusForbidden, code)
	require.False(t, env.Refresh)

	code, _ = do(t, app, http.MethodPost, juz5+"/complete", a, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, app, http.MethodPost, "/api/u/khatmas/juz/"+board.Juz[0].KhatmaJuzID.String()+"/complete", a, nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "INVALID_STATE", env.ErrorCode)

	code, env = do(t, app, http.MethodPost, "/api/u/khatmas/juz/"+uuid.NewString()+"/claim", a, nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "NOT_FOUND", env.ErrorCode)

	code, env = do(t, app, http.MethodPost, "/api/u/khatmas/juz/bukan-uuid/claim", a, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "BAD_REQUEST", env.ErrorCode)
}

func TestOwnerOnlyEndpoints(t *testing.T) {
	app := newTestApp()
	owner := uuid.New()
	board := createBoard(t, app, owner, false)
	base := "/api/u/khatmas/" + board.Khatma.KhatmaID.String()

	code, _ := do(t, app, http.MethodPost, base+"/force-complete", uuid.New(), nil)
	require.Equal(t, http.StatusForbidden, code)

	code, env := do(t, app, http.MethodPost, base+"/force-complete", owner, nil)
	require.Equal(t, http.StatusOK, code)
	var done boardData
	require.NoError(t, json.Unmarshal(env.Data, &done))
	require.Equal(t, "completed", done.Khatma.KhatmaStatus)
	for _, j := range done.Juz {
		require.Equal(t, "completed", j.KhatmaJuzStatus)
		require.True(t, j.KhatmaJuzIsMine)
	}

	code, _ = do(t, app, http.MethodDelete, base, uuid.New(), nil)
	require.Equal(t, http.StatusForbidden, code)
	code, _ = do(t, app, http.MethodDelete, base, owner, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, app, http.MethodGet, base, owner, nil)
	require.Equal(t, http.StatusNotFound, code)
}

// interleavingStore: setelah armed, pembaca lain mengklaim juz di antara GetJuz dan CAS.
type interleavingStore struct {
	*repository.MemoryKhatmaStore
	mu    sync.Mutex
	armed bool
}

func (s *interleavingStore) GetJuz(ctx context.Context, juzID uuid.UUID) (*model.KhatmaJuzModel, error) {
	j, err := s.MemoryKhatmaStore.GetJuz(ctx, juzID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		s.armed = false
		other := uuid.New()
		next := *j
		next.KhatmaJuzAssignedUserID = &other
		next.KhatmaJuzStatus = model.JuzStatusInProgress
		if _, err := s.MemoryKhatmaStore.CompareAndSwapJuz(ctx, *j, next); err != nil {
			return nil, err
		}
	}
	return j, nil
}

func TestClaimConflictAsksClientToRefresh(t *testing.T) {
	store := &interleavingStore{MemoryKhatmaStore: repository.NewMemoryKhatmaStore()}
	app := newTestAppWithStore(store)
	owner, reader := uuid.New(), uuid.New()
	board := createBoard(t, app, owner, true)

	store.mu.Lock()
	store.armed = true
	store.mu.Unlock()

	code, env := do(t, app, http.MethodPost, "/api/u/khatmas/juz/"+board.Juz[2].KhatmaJuzID.String()+"/claim", reader, nil)
	require.Equal(t, http.StatusConflict, code)
	require.False(t, env.Success)
	require.Equal(t, "CONFLICT", env.ErrorCode)
	require.True(t, env.Refresh)

	// board terbaru menunjukkan juz sudah dipegang orang lain
	code, env = do(t, app, http.MethodGet, "/api/u/khatmas/"+board.Khatma.KhatmaID.String(), reader, nil)
	require.Equal(t, http.StatusOK, code)
	var got boardData
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Equal(t, "in_progress", got.Juz[2].KhatmaJuzStatus)
	require.False(t, got.Juz[2].KhatmaJuzIsMine)
}
