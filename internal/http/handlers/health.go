package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/brandprompt-backend/internal/data/db"
)

// StoreState reports the Record Store connection state.
type StoreState interface {
	State() db.State
}

type HealthHandler struct {
	store StoreState
}

func NewHealthHandler(store StoreState) *HealthHandler { return &HealthHandler{store: store} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	state := db.StateDisconnected
	if h.store != nil {
		state = h.store.State()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": state})
}
