package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	md "github.com/sandeeptech8/library-api/pkg/middleware"
)

func TestAPIKeyAuth(t *testing.T) {
	const key = "secret-key"

	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	}, md.APIKeyAuth(key))

	tests := []struct {
		name     string
		key      string
		wantCode int
	}{
		{name: "valid key", key: key, wantCode: http.StatusOK},
		{name: "missing key", key: "", wantCode: http.StatusUnauthorized},
		{name: "wrong key", key: "nope", wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
			if tt.key != "" {
				r.Header.Set(md.APIKeyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)
			require.Equal(t, tt.wantCode, w.Code)
		})
	}
}
