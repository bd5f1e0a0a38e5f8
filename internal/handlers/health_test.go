package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"example.com/uxwriter/internal/storage"
)

type brokenStore struct {
	storage.Store
}

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("database is closed")
}

// TestHealth проверяет статус при доступном и недоступном хранилище.
func TestHealth(t *testing.T) {
	cases := []struct {
		name   string
		store  storage.Store
		status int
	}{
		{name: "ok", store: storage.NewMemoryStore(), status: http.StatusOK},
		{name: "broken", store: brokenStore{}, status: http.StatusServiceUnavailable},
	}

	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

		if err := NewHealthHandler(tc.store).Health(c); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
	}
}
