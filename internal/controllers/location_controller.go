package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/smartwaste/bin-registry/internal/dtos"
	"github.com/smartwaste/bin-registry/internal/services"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

const (
	sourceMapClick = "map"
	sourceDevice   = "device"
)

type LocationController struct {
	locationService *services.LocationService
}

func NewLocationController(ls *services.LocationService) *LocationController {
	return &LocationController{locationService: ls}
}

// ----------------------------------------------------------------
// POST /api/v1/location/map-click
// ----------------------------------------------------------------
func (c *LocationController) MapClickHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.MapClickRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidPayload(w, "Invalid JSON body", err)
		return
	}
	verr := utils.NewValidationError()
	if req.Lat == nil {
		verr.Add("coordinates.lat", "is required")
	}
	if req.Lng == nil {
		verr.Add("coordinates.lng", "is required")
	}
	if err := verr.OrNil(); err != nil {
		respondServiceError(w, err)
		return
	}

	coords, err := c.locationService.CaptureFromMapClick(*req.Lat, *req.Lng)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CoordinatesResponse{Coordinates: coords, Source: sourceMapClick})
}

// ----------------------------------------------------------------
// GET /api/v1/location/device
// ----------------------------------------------------------------
func (c *LocationController) DeviceLocationHandler(w http.ResponseWriter, r *http.Request) {
	coords, err := c.locationService.CaptureFromDevice(r.Context(), clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CoordinatesResponse{Coordinates: coords, Source: sourceDevice})
}

// clientIP prefers the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
