package points

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointdash/pointdash/internal/auth"
	"github.com/pointdash/pointdash/internal/dataset"
)

// flakyStore fails every save while failing is set.
type flakyStore struct {
	*MemoryStore
	failing bool
}

func (f *flakyStore) SavePoints(ctx context.Context, userID string, points []dataset.Point) error {
	if f.failing {
		return errors.New("disk full")
	}
	return f.MemoryStore.SavePoints(ctx, userID, points)
}

func (f *flakyStore) saved(t *testing.T, userID string) []dataset.Point {
	t.Helper()
	points, err := f.LoadPoints(context.Background(), userID)
	require.NoError(t, err)
	return points
}

type testEnv struct {
	store   *flakyStore
	service *Service
	router  *mux.Router
	updates []Update
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{store: &flakyStore{MemoryStore: NewMemoryStore()}}
	env.service = NewService(env.store)
	env.service.Subscribe(func(u Update) { env.updates = append(env.updates, u) })

	env.router = mux.NewRouter()
	api := env.router.PathPrefix("/api").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), "user_1")))
		})
	})
	NewHandler(env.service).Register(api)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var res listResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func TestReplaceAndList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/points", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeList(t, rec).Points)

	pts := []dataset.Point{{ID: "pt_a", X: 1, Y: 2}, {ID: "pt_b", X: 3, Y: 4}}
	rec = env.do(t, http.MethodPut, "/api/points", replaceRequest{Points: pts})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeList(t, rec)
	assert.Equal(t, pts, res.Points)
	assert.Equal(t, int64(1), res.Seq)

	assert.Equal(t, pts, env.store.saved(t, "user_1"))
	require.Len(t, env.updates, 1)
	assert.Equal(t, "user_1", env.updates[0].UserID)

	rec = env.do(t, http.MethodPut, "/api/points", replaceRequest{Points: []dataset.Point{{ID: "x"}, {ID: "x"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUpdateDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/points", createRequest{X: 5, Y: 6})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dataset.Point
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)

	x := 50.0
	rec = env.do(t, http.MethodPatch, "/api/points/"+created.ID, updateRequest{X: &x})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated dataset.Point
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, dataset.Point{ID: created.ID, X: 50, Y: 6}, updated)

	rec = env.do(t, http.MethodPatch, "/api/points/missing", updateRequest{X: &x})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/points/"+created.ID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/points/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/points/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUndoRedoEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/points/undo", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env.do(t, http.MethodPost, "/api/points", createRequest{X: 1, Y: 1})

	rec = env.do(t, http.MethodPost, "/api/points/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeList(t, rec).Points)

	rec = env.do(t, http.MethodPost, "/api/points/redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec).Points, 1)
	assert.Len(t, env.store.saved(t, "user_1"), 1)
}

func TestFailedSaveRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/points", createRequest{X: 1, Y: 1})
	env.store.failing = true

	rec := env.do(t, http.MethodPost, "/api/points", createRequest{X: 2, Y: 2})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	points, _, err := env.service.List(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Len(t, env.updates, 1, "failed change is not published")
}

func TestSampleSeeding(t *testing.T) {
	svc := NewService(NewMemoryStore(), WithSampleData())
	points, _, err := svc.List(context.Background(), "user_new")
	require.NoError(t, err)
	assert.Len(t, points, len(dataset.NewSample()))
}
