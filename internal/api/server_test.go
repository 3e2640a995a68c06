package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arktecher/Micro-sub000/internal/catalog"
	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *favorites.Store, *testutil.TestDB) {
	t.Helper()

	db := testutil.SetupTestDB(t, model.Space{ID: "lobby", Name: "Lobby"})
	cat, err := catalog.Default()
	require.NoError(t, err)
	store := favorites.NewStore(db.Storage, favorites.NewBus())

	srv, err := New(context.Background(), Config{Store: store, Catalog: cat, Spaces: db.Storage})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv, store, db
}

func do(t *testing.T, srv *Server, method, target string) (int, []byte) {
	t.Helper()
	resp, err := srv.App().Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"alive"}`, string(body))

	code, _ = do(t, srv, http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
}

func TestCatalog(t *testing.T) {
	srv, _, _ := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/api/v1/catalog")
	require.Equal(t, http.StatusOK, code)
	var works []model.Artwork
	require.NoError(t, json.Unmarshal(body, &works))
	assert.Len(t, works, 12)

	code, body = do(t, srv, http.MethodGet, "/api/v1/catalog/7")
	require.Equal(t, http.StatusOK, code)
	var work model.Artwork
	require.NoError(t, json.Unmarshal(body, &work))
	assert.Equal(t, "WRK-007", work.ID)

	code, _ = do(t, srv, http.MethodGet, "/api/v1/catalog/WRK-999")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestToggle_VisibleOnEverySurface(t *testing.T) {
	srv, store, _ := newTestServer(t)

	code, body := do(t, srv, http.MethodPost, "/api/v1/favorites/wrk_7/toggle?surface=buyer_account")
	require.Equal(t, http.StatusOK, code)
	var toggled toggleResponse
	require.NoError(t, json.Unmarshal(body, &toggled))
	assert.Equal(t, toggleResponse{ID: "WRK-007", Favorite: true}, toggled)

	for _, surface := range []string{"venue_dashboard", "buyer_account"} {
		code, body = do(t, srv, http.MethodGet, "/api/v1/favorites?surface="+surface)
		require.Equal(t, http.StatusOK, code)
		var got favoritesResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, []string{"WRK-007"}, got.IDs, surface)
		require.Len(t, got.Artworks, 1)
		assert.Equal(t, "WRK-007", got.Artworks[0].ID)
	}

	// The same work in another shape removes it.
	code, _ = do(t, srv, http.MethodPost, "/api/v1/favorites/7/toggle")
	require.Equal(t, http.StatusOK, code)
	set, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestFavorites_ReadsWritesFromAnotherProcess(t *testing.T) {
	srv, _, db := newTestServer(t)

	// A second store with its own bus shares only the database, like a
	// workflow running in another process.
	other := favorites.NewStore(db.Storage, favorites.NewBus())
	on, err := other.Toggle(context.Background(), "WRK-003", favorites.SurfaceWorkflow)
	require.NoError(t, err)
	require.True(t, on)

	for _, surface := range []string{"venue_dashboard", "buyer_account"} {
		code, body := do(t, srv, http.MethodGet, "/api/v1/favorites?surface="+surface)
		require.Equal(t, http.StatusOK, code)
		var got favoritesResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Contains(t, got.IDs, "WRK-003", surface)
		require.Len(t, got.Artworks, 1, surface)
		assert.Equal(t, "WRK-003", got.Artworks[0].ID)
	}
}

func TestFavorites_CustomCatalogIDsRejoin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cat, err := catalog.New([]model.Artwork{{ID: "7", Title: "Seven"}, {ID: "wrk-8", Title: "Eight"}})
	require.NoError(t, err)
	srv, err := New(context.Background(), Config{
		Store:   favorites.NewStore(db.Storage, favorites.NewBus()),
		Catalog: cat,
		Spaces:  db.Storage,
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	code, _ := do(t, srv, http.MethodPost, "/api/v1/favorites/7/toggle")
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, srv, http.MethodGet, "/api/v1/favorites")
	require.Equal(t, http.StatusOK, code)
	var got favoritesResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []string{"WRK-007"}, got.IDs)
	require.Len(t, got.Artworks, 1)
	assert.Equal(t, "Seven", got.Artworks[0].Title)

	code, body = do(t, srv, http.MethodGet, "/api/v1/catalog/7")
	require.Equal(t, http.StatusOK, code)
	var work model.Artwork
	require.NoError(t, json.Unmarshal(body, &work))
	assert.Equal(t, "WRK-007", work.ID)
}

func TestToggle_UnparseableIsRejectedWithoutWrite(t *testing.T) {
	srv, store, _ := newTestServer(t)
	before, err := store.ReadAll(context.Background())
	require.NoError(t, err)

	code, body := do(t, srv, http.MethodPost, "/api/v1/favorites/sunflowers/toggle")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "unparseable")

	after, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.Revision, after.Revision)
}

func TestFavorites_UnknownSurface(t *testing.T) {
	srv, _, _ := newTestServer(t)
	code, _ := do(t, srv, http.MethodGet, "/api/v1/favorites?surface=kiosk")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSpacesAndExhibitions(t *testing.T) {
	srv, _, db := newTestServer(t)
	_, err := db.Storage.ConfirmExhibition(context.Background(), model.Exhibition{CandidateID: "WRK-003", SpaceID: "lobby"})
	require.NoError(t, err)

	code, body := do(t, srv, http.MethodGet, "/api/v1/spaces")
	require.Equal(t, http.StatusOK, code)
	var spaces []model.Space
	require.NoError(t, json.Unmarshal(body, &spaces))
	require.Len(t, spaces, 1)
	assert.Equal(t, "Lobby", spaces[0].Name)

	code, body = do(t, srv, http.MethodGet, "/api/v1/spaces/lobby/exhibitions")
	require.Equal(t, http.StatusOK, code)
	var list []model.Exhibition
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "WRK-003", list[0].CandidateID)
}

func TestNew_RequiresStoreAndCatalog(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
