package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/models"
)

func newTestAPI(t *testing.T, h http.HandlerFunc) *StoreAPI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewStoreAPI(NewGatewayClient(srv.URL+"/", 2*time.Second))
}

func TestListProductsDecodesEnvelope(t *testing.T) {
	var gotQuery url.Values
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"data": [{"id": 7, "name": "Keripik", "price": 15000, "stock": 3, "category": "MAKANAN_RINGAN"}],
			"pagination": {"current_page": 2, "total_page": 4, "total_products": 31}
		}`)
	})

	params := url.Values{"page": {"2"}, "sortBy": {"name"}}
	products, page, err := api.ListProducts(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, models.ID("7"), products[0].ID)
	assert.Equal(t, "Keripik", products[0].Name)
	assert.Equal(t, "15000", products[0].Price.String())
	assert.Equal(t, 4, page.TotalPage)
	assert.Equal(t, 31, page.Total())
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Equal(t, "name", gotQuery.Get("sortBy"))
}

func TestProtectedCallsForwardBearer(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, `{"data": {"id": "u1", "name": "Sari", "email": "sari@example.com"}}`)
	})

	u, err := api.Me(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, models.ID("u1"), u.ID)
	assert.Equal(t, "Sari", u.Name)
}

func TestCreateOrderSendsBodyAndReadsSnapToken(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Jl. Melati 1", body["address"])
		assert.Equal(t, "ring twice", body["notes"])
		assert.Equal(t, float64(5000), body["other_costs"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data": {"order_id": 42, "snap_token": "snap-abc"}}`)
	})

	created, err := api.CreateOrder(context.Background(), "tok", models.CreateOrderRequest{
		Address:    "Jl. Melati 1",
		Notes:      "ring twice",
		OtherCosts: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ID("42"), created.Identifier())
	assert.Equal(t, "snap-abc", created.SnapToken)
}

func TestCreateOrderWithoutTokenIsFetchError(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": {"id": "9"}}`)
	})

	_, err := api.CreateOrder(context.Background(), "tok", models.CreateOrderRequest{Address: "a", Notes: "n"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindFetch, apperrors.KindOf(err))
}

func TestUpstreamErrorsBecomeFetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantMsg  string
	}{
		{"string errors", http.StatusBadRequest, `{"errors": "stock tidak cukup"}`, http.StatusBadRequest, "stock tidak cukup"},
		{"list errors", http.StatusUnprocessableEntity, `{"errors": ["a", "b"]}`, http.StatusUnprocessableEntity, "a; b"},
		{"field errors", http.StatusBadRequest, `{"errors": {"phone": "required", "email": "invalid"}}`, http.StatusBadRequest, "email: invalid; phone: required"},
		{"message only", http.StatusUnauthorized, `{"message": "token expired"}`, http.StatusUnauthorized, "token expired"},
		{"server failure", http.StatusInternalServerError, `oops`, http.StatusBadGateway, "Upstream request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := api.GetProduct(context.Background(), "1")
			require.Error(t, err)

			var appErr *apperrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.KindFetch, appErr.Kind)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestUnreachableAPIIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	api := NewStoreAPI(NewGatewayClient(srv.URL, time.Second))

	_, _, err := api.ListProducts(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFetch))
}

func TestIDsArePathEscaped(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/a%2Fb/status", r.URL.EscapedPath())
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SELESAI", body["status"])
		_, _ = io.WriteString(w, `{"message": "ok"}`)
	})

	require.NoError(t, api.UpdateOrderStatus(context.Background(), "tok", "a/b", models.StatusCompleted))
}

func TestCreateProductSendsMultipart(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Nastar", r.FormValue("name"))
		assert.Equal(t, "85000", r.FormValue("price"))
		assert.Equal(t, "12", r.FormValue("stock"))
		assert.Equal(t, models.CategoryCookies, r.FormValue("category"))

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "nastar.png", hdr.Filename)
		assert.Equal(t, "png-bytes", string(b))

		_, _ = io.WriteString(w, `{"data": {"id": "p9", "name": "Nastar", "price": 85000}}`)
	})

	p, err := api.CreateProduct(context.Background(), "tok", models.ProductForm{
		Name:     "Nastar",
		Price:    85000,
		Stock:    12,
		Category: models.CategoryCookies,
	}, &FilePart{FieldName: "image", FileName: "nastar.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")})
	require.NoError(t, err)
	assert.Equal(t, models.ID("p9"), p.ID)
}

func TestUpdateAdminProfileWithoutImage(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/admin/users/me", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Admin", r.FormValue("name"))
		_, _, err := r.FormFile("image")
		assert.ErrorIs(t, err, http.ErrMissingFile)
		_, _ = io.WriteString(w, `{"data": {"id": 1, "name": "Admin", "email": "a@b.co", "is_admin": true}}`)
	})

	u, err := api.UpdateAdminProfile(context.Background(), "tok", models.ProfileForm{Name: "Admin", Email: "a@b.co"}, nil)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestLoginReturnsToken(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		_, _ = io.WriteString(w, `{"data": {"token": "jwt-123"}}`)
	})

	tok, err := api.Login(context.Background(), models.LoginRequest{Email: "a@b.co", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-123", tok)
}
