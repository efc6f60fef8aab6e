package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/smartwaste/bin-registry/internal/routes"
)

// RouterDeps collects what NewRouter mounts. Auth wraps mutating routes
// only; Metrics is optional.
type RouterDeps struct {
	Bins     *BinsController
	Location *LocationController
	Health   *HealthController
	Auth     mux.MiddlewareFunc
	Metrics  http.Handler
}

func NewRouter(d RouterDeps) *mux.Router {
	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, d.Health.HealthCheckHandler).Methods(http.MethodGet)
	if d.Metrics != nil {
		router.Handle(routes.Metrics, d.Metrics).Methods(http.MethodGet)
	}

	// Static paths are registered before {binId} so they are not captured.
	router.HandleFunc(routes.BinsScan, d.Bins.ScanHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.BinsNearby, d.Bins.NearbyHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.BinsBounds, d.Bins.BoundsHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.BinsBase, d.Bins.ListBinsHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.BinsByID, d.Bins.GetBinHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.BinsSticker, d.Bins.StickerHandler).Methods(http.MethodGet)

	router.HandleFunc(routes.LocationMapClick, d.Location.MapClickHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.LocationDevice, d.Location.DeviceLocationHandler).Methods(http.MethodGet)

	// Secured
	secured := router.NewRoute().Subrouter()
	if d.Auth != nil {
		secured.Use(d.Auth)
	}
	secured.HandleFunc(routes.BinsBase, d.Bins.RegisterBinHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BinsByID, d.Bins.UpdateBinHandler).Methods(http.MethodPatch)
	secured.HandleFunc(routes.BinsByID, d.Bins.DeleteBinHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.BinsLevel, d.Bins.UpdateLevelHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.BinsEmpty, d.Bins.MarkEmptiedHandler).Methods(http.MethodPut)

	return router
}
