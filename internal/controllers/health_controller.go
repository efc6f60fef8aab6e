package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/smartwaste/bin-registry/internal/dtos"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

// Pinger is satisfied by app.App.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController checks store connectivity.
type HealthController struct {
	store Pinger
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store}
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := c.store.Ping(ctx); err != nil {
		utils.Logger.WithError(err).Error("bins-service store unreachable")
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodePersistenceFailure, "Database unreachable", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK"})
}
