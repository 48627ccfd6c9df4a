package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/brandprompt-backend/internal/data/db"
)

type fixedState db.State

func (s fixedState) State() db.State { return db.State(s) }

func TestHealthCheckReportsStoreState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		store StoreState
		want  string
	}{
		{nil, `{"status":"ok","store":"disconnected"}`},
		{fixedState(db.StateConnected), `{"status":"ok","store":"connected"}`},
	} {
		r := gin.New()
		r.GET("/healthcheck", NewHealthHandler(tc.store).HealthCheck)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: want=200 got=%d", rec.Code)
		}
		if rec.Body.String() != tc.want {
			t.Fatalf("body: want=%s got=%s", tc.want, rec.Body.String())
		}
	}
}
