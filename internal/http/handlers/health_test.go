package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/accounthub/internal/http/handlers"
)

func TestReadyz(t *testing.T) {
	storeErr := error(nil)

	h := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"store": func(context.Context) error { return storeErr },
	})

	r := gin.New()
	r.GET("/readyz", h.Readyz)
	r.GET("/healthz", h.Healthz)

	if w := doJSON(r, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", w.Code)
	}

	storeErr = errors.New("dial tcp: refused")
	w := doJSON(r, http.MethodGet, "/readyz", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	if w := doJSON(r, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("liveness should not depend on the store, got %d", w.Code)
	}
}
