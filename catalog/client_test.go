package catalog_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gofalre.io/storefront/catalog"
)

const productsJSON = `[
  {"id":1,"title":"Fjallraven - Foldsack No. 1 Backpack","price":109.95,"description":"Your perfect pack","category":"men's clothing","image":"https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg","rating":{"rate":3.9,"count":120}},
  {"id":2,"title":"Mens Casual Premium Slim Fit T-Shirts","price":22.3,"category":"men's clothing","image":"https://fakestoreapi.com/img/71-3HjGNDUL._AC_SY879._SX._UX._SY._UY_.jpg"}
]`

func TestClient_ListProducts(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLen   int
		wantError bool
	}{
		{name: "ok", status: http.StatusOK, body: productsJSON, wantLen: 2},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantError: true},
		{name: "not found", status: http.StatusNotFound, body: "", wantError: true},
		{name: "malformed body", status: http.StatusOK, body: `{"id":1}`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/products", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := catalog.NewClient(srv.URL+"/", srv.Client(), zaptest.NewLogger(t))
			got, err := client.ListProducts(t.Context())

			assert.EqualValues(t, 1, requests.Load(), "no retry expected")
			if tt.wantError {
				require.ErrorIs(t, err, catalog.ErrFetchFailed)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, 1, got[0].ID)
			assert.True(t, decimal.RequireFromString("109.95").Equal(got[0].Price))
			assert.NotEmpty(t, got[0].Image)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := catalog.NewClient(url, nil, zaptest.NewLogger(t)).ListProducts(t.Context())
	assert.ErrorIs(t, err, catalog.ErrFetchFailed)
}
