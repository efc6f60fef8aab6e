package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/smartwaste/bin-registry/internal/dtos"
	"github.com/smartwaste/bin-registry/internal/services"
	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/internal/utils/sticker"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

type BinsController struct {
	binService     *services.BinService
	stickerService *services.StickerService
}

func NewBinsController(bs *services.BinService, ss *services.StickerService) *BinsController {
	return &BinsController{binService: bs, stickerService: ss}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ----------------------------------------------------------------
// GET /api/v1/bins
// ----------------------------------------------------------------
func (c *BinsController) ListBinsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.BinFilter{
		Search: q.Get("search"),
		Type:   q.Get("type"),
		Owner:  q.Get("owner"),
	}
	resp, err := c.binService.Project(r.Context(), filter, services.SortKey(q.Get("sort")))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// POST /api/v1/bins
// ----------------------------------------------------------------
func (c *BinsController) RegisterBinHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterBinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidPayload(w, "Invalid JSON body", err)
		return
	}
	bin, err := c.binService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, bin)
}

// ----------------------------------------------------------------
// GET /api/v1/bins/{binId}
// ----------------------------------------------------------------
func (c *BinsController) GetBinHandler(w http.ResponseWriter, r *http.Request) {
	bin, err := c.binService.Get(r.Context(), mux.Vars(r)["binId"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bin)
}

// ----------------------------------------------------------------
// PATCH /api/v1/bins/{binId}
// ----------------------------------------------------------------
func (c *BinsController) UpdateBinHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateBinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidPayload(w, "Invalid JSON body", err)
		return
	}
	bin, err := c.binService.Update(r.Context(), mux.Vars(r)["binId"], req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bin)
}

// ----------------------------------------------------------------
// DELETE /api/v1/bins/{binId}
// ----------------------------------------------------------------
func (c *BinsController) DeleteBinHandler(w http.ResponseWriter, r *http.Request) {
	if err := c.binService.Delete(r.Context(), mux.Vars(r)["binId"]); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// PUT /api/v1/bins/{binId}/level
// ----------------------------------------------------------------
func (c *BinsController) UpdateLevelHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateFillLevelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidPayload(w, "Invalid JSON body", err)
		return
	}
	if req.FillLevel == nil {
		respondServiceError(w, utils.NewValidationError().Add("fillLevel", "is required"))
		return
	}
	bin, err := c.binService.UpdateFillLevel(r.Context(), mux.Vars(r)["binId"], *req.FillLevel)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bin)
}

// ----------------------------------------------------------------
// PUT /api/v1/bins/{binId}/empty
// ----------------------------------------------------------------
func (c *BinsController) MarkEmptiedHandler(w http.ResponseWriter, r *http.Request) {
	bin, err := c.binService.MarkEmptied(r.Context(), mux.Vars(r)["binId"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bin)
}

// ----------------------------------------------------------------
// GET /api/v1/bins/scan?payload=
// ----------------------------------------------------------------
func (c *BinsController) ScanHandler(w http.ResponseWriter, r *http.Request) {
	payload := r.URL.Query().Get("payload")
	if payload == "" {
		respondServiceError(w, utils.NewValidationError().Add("payload", "is required"))
		return
	}
	res, err := c.binService.FindByQRPayload(r.Context(), payload)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// ----------------------------------------------------------------
// GET /api/v1/bins/nearby?lat&lng&radius_km
// ----------------------------------------------------------------
func (c *BinsController) NearbyHandler(w http.ResponseWriter, r *http.Request) {
	floats, err := parseFloatParams(r, []string{"lat", "lng"}, []string{"radius_km"})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	bins, err := c.binService.ListNearby(r.Context(),
		models.Coordinates{Lat: floats["lat"], Lng: floats["lng"]}, floats["radius_km"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bins)
}

// ----------------------------------------------------------------
// GET /api/v1/bins/bounds?lat_min&lat_max&lng_min&lng_max
// ----------------------------------------------------------------
func (c *BinsController) BoundsHandler(w http.ResponseWriter, r *http.Request) {
	floats, err := parseFloatParams(r, []string{"lat_min", "lat_max", "lng_min", "lng_max"}, nil)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	bins, err := c.binService.ListInBounds(r.Context(), internal_utils.Bounds{
		LatMin: floats["lat_min"], LatMax: floats["lat_max"],
		LngMin: floats["lng_min"], LngMax: floats["lng_max"],
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bins)
}

// ----------------------------------------------------------------
// GET /api/v1/bins/{binId}/sticker?format&hd&label&quotes
// ----------------------------------------------------------------
func (c *BinsController) StickerHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verr := utils.NewValidationError()

	format, err := sticker.ParseFormat(q.Get("format"))
	if err != nil {
		verr.Add("format", "must be png or jpg")
	}
	hd, err := parseBoolParam(q.Get("hd"), false)
	if err != nil {
		verr.Add("hd", "must be a boolean")
	}
	showQuotes, err := parseBoolParam(q.Get("quotes"), true)
	if err != nil {
		verr.Add("quotes", "must be a boolean")
	}
	if err := verr.OrNil(); err != nil {
		respondServiceError(w, err)
		return
	}

	art, err := c.stickerService.RenderByBinID(r.Context(), mux.Vars(r)["binId"], services.StickerRequest{
		Format:     format,
		HD:         hd,
		Label:      q.Get("label"),
		HideQuotes: !showQuotes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		utils.Logger.WithError(err).Warn("Failed to write sticker response")
	}
}

func parseBoolParam(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

// parseFloatParams reads finite float query parameters. Missing optional
// parameters are zero.
func parseFloatParams(r *http.Request, required, optional []string) (map[string]float64, error) {
	q := r.URL.Query()
	out := map[string]float64{}
	verr := utils.NewValidationError()
	read := func(name string, isRequired bool) {
		raw := q.Get(name)
		if raw == "" {
			if isRequired {
				verr.Add(name, "is required")
			}
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			verr.Add(name, "must be a finite number")
			return
		}
		out[name] = v
	}
	for _, n := range required {
		read(n, true)
	}
	for _, n := range optional {
		read(n, false)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
