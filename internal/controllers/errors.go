package controllers

import (
	"errors"
	"net/http"

	"github.com/smartwaste/bin-registry/internal/constants"
	"github.com/smartwaste/bin-registry/internal/services"
	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/internal/utils/sticker"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

// respondServiceError maps bins-service errors, then defers to the shared
// handler for the common ones.
func respondServiceError(w http.ResponseWriter, err error) {
	var (
		geoErr    *services.GeolocationError
		renderErr *sticker.RenderError
		qrErr     *internal_utils.QRParseError
	)
	switch {
	case errors.Is(err, utils.ErrBinIDImmutable):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, constants.ErrMsgBinIDImmutable,
			map[string]string{"binId": "cannot be changed"}, err)
	case errors.As(err, &qrErr):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, internal_utils.ErrCodeInvalidQRPayload, "Not a bin QR code",
			map[string]string{"reason": qrErr.Reason}, err)
	case errors.As(err, &geoErr):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodeGeolocationUnavailable,
			"Could not determine location, please pick it on the map", map[string]string{"reason": geoErr.Reason}, err)
	case errors.As(err, &renderErr) && errors.Is(err, sticker.ErrQRGlyphMissing):
		utils.RespondErrorWithCode(w, http.StatusConflict, internal_utils.ErrCodeQRGlyphMissing,
			"QR code is not available for this bin", nil, err)
	case errors.As(err, &renderErr):
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, internal_utils.ErrCodeStickerRender,
			"Failed to render sticker", nil, err)
	case errors.Is(err, utils.ErrRowVersionConflict):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeRowVersionConflict,
			constants.ErrMsgRowVersionConflictRefresh, nil, err)
	default:
		utils.HandleAppError(w, err)
	}
}

func respondInvalidPayload(w http.ResponseWriter, msg string, err error) {
	utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, msg, nil, err)
}
