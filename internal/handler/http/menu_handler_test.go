package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/vasiliy-maslov/spud-kitchen/internal/handler/http"
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

func newMenuRouter(t *testing.T) (chi.Router, menu.Service) {
	t.Helper()
	seed, err := menu.DefaultSeed()
	require.NoError(t, err)
	svc := menu.NewService(menu.NewMemoryRepository(seed))

	router := chi.NewRouter()
	handler.NewMenuHandler(svc).RegisterRoutes(router)
	return router, svc
}

func TestMenuHandler_handleListMenu(t *testing.T) {
	router, _ := newMenuRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/menu", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var items []menu.MenuItem
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&items))
	assert.Len(t, items, 9)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/menu?category=sides", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, json.NewDecoder(rr.Body).Decode(&items))
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, "sides", it.Category)
	}
}

func TestMenuHandler_handleGetItem(t *testing.T) {
	router, _ := newMenuRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/menu/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var item menu.MenuItem
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&item))
	assert.Equal(t, "Classic Cheesy Fries", item.Name)
	assert.Equal(t, money.MustParse("8.99"), item.Price)
	assert.Len(t, item.Customizations, 2)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/menu/404", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/menu/fries", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMenuHandler_handleGetSpecial(t *testing.T) {
	router, _ := newMenuRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/menu/special", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got handler.DailySpecialResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, int64(2), got.ItemID)
	assert.Equal(t, money.MustParse("9.99"), got.SpecialPrice)
	assert.Equal(t, "Spicy Volcano Fries", got.Item.Name)
}

func TestMenuHandler_AdminOperations(t *testing.T) {
	router, svc := newMenuRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/menu/8/availability", bytes.NewBufferString(`{"available": true}`)))
	require.Equal(t, http.StatusNoContent, rr.Code)

	item, err := svc.GetItem(t.Context(), 8)
	require.NoError(t, err)
	assert.True(t, item.Available)

	body := `{"name": "Truffle Fries", "price": 14.25, "category": "loaded-fries"}`
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/menu/10", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	item, err = svc.GetItem(t.Context(), 10)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1425), item.Price)
	assert.True(t, item.Available, "new items default to available")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/menu/11", bytes.NewBufferString(`{"price": 1}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/special", bytes.NewBufferString(`{"itemId": 10, "specialPrice": 11.00}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	special, err := svc.DailySpecial(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(10), special.ItemID)
	assert.Equal(t, money.Cents(1100), special.SpecialPrice)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/special", bytes.NewBufferString(`{"itemId": 77, "specialPrice": 1.00}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/admin/menu/10", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	_, err = svc.GetItem(t.Context(), 10)
	require.ErrorIs(t, err, menu.ErrItemNotFound)
}

func TestMenuHandler_handleListMenu_Filters(t *testing.T) {
	router, _ := newMenuRouter(t)

	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantIDs    []int64
	}{
		{name: "single dietary tag", url: "/menu?dietary=GF", wantStatus: http.StatusOK, wantIDs: []int64{5, 7, 9}},
		{name: "comma separated tags", url: "/menu?dietary=vg,gf", wantStatus: http.StatusOK, wantIDs: []int64{5, 7}},
		{name: "repeated tags", url: "/menu?dietary=V&dietary=VG", wantStatus: http.StatusOK, wantIDs: []int64{3, 5, 7}},
		{name: "text search", url: "/menu?q=potato", wantStatus: http.StatusOK, wantIDs: []int64{4, 5, 9}},
		{name: "search within category", url: "/menu?q=fries&category=loaded-fries&dietary=V", wantStatus: http.StatusOK, wantIDs: []int64{1, 3}},
		{name: "unknown dietary tag", url: "/menu?dietary=keto", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var items []menu.MenuItem
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&items))
			ids := make([]int64, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMenuHandler_handleAddReview(t *testing.T) {
	router, svc := newMenuRouter(t)

	post := func(url, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(body)))
		return rr
	}

	rr := post("/menu/3/reviews", `{"author": "Ada", "rating": 5, "comment": "Best vegan fries in town"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = post("/menu/3/reviews", `{"author": "Grace", "rating": 2}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var item menu.MenuItem
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&item))
	assert.Equal(t, 2, item.ReviewCount)
	assert.Equal(t, 3.5, item.AverageRating)
	require.Len(t, item.Reviews, 2)
	assert.Equal(t, "Grace", item.Reviews[0].Author)

	stored, err := svc.GetItem(t.Context(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ReviewCount)

	tests := []struct {
		name       string
		url        string
		body       string
		wantStatus int
	}{
		{name: "rating above five", url: "/menu/3/reviews", body: `{"author": "Ada", "rating": 6}`, wantStatus: http.StatusBadRequest},
		{name: "rating missing", url: "/menu/3/reviews", body: `{"author": "Ada"}`, wantStatus: http.StatusBadRequest},
		{name: "author missing", url: "/menu/3/reviews", body: `{"rating": 4}`, wantStatus: http.StatusBadRequest},
		{name: "blank author", url: "/menu/3/reviews", body: `{"author": "   ", "rating": 4}`, wantStatus: http.StatusBadRequest},
		{name: "unknown item", url: "/menu/404/reviews", body: `{"author": "Ada", "rating": 4}`, wantStatus: http.StatusNotFound},
		{name: "bad id", url: "/menu/fries/reviews", body: `{"author": "Ada", "rating": 4}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, post(tt.url, tt.body).Code)
		})
	}

	stored, err = svc.GetItem(t.Context(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ReviewCount)
}

func TestMenuHandler_handleSaveItem_Details(t *testing.T) {
	router, svc := newMenuRouter(t)

	body := `{"name": "Ghost Pepper Fries", "price": 12.50, "category": "loaded-fries", "spicyLevel": 3, "dietaryTags": ["V", "GF"]}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/menu/12", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	item, err := svc.GetItem(t.Context(), 12)
	require.NoError(t, err)
	assert.Equal(t, 3, item.SpicyLevel)
	assert.Equal(t, []menu.Dietary{menu.Vegetarian, menu.GlutenFree}, item.DietaryTags)

	for _, bad := range []string{
		`{"name": "Too Hot", "price": 1, "category": "sides", "spicyLevel": 4}`,
		`{"name": "Keto Fries", "price": 1, "category": "sides", "dietaryTags": ["KETO"]}`,
		`{"name": "Gold Fries", "price": 1000.01, "category": "sides"}`,
		`{"name": "Odd Fries", "price": 8.999, "category": "sides"}`,
	} {
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/menu/13", bytes.NewBufferString(bad)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, bad)
	}
}
