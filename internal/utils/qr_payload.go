package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/smartwaste/bin-registry/shared/go-models"
)

const (
	QRScheme         = "SMARTWASTE"
	qrFieldSeparator = ":"
	qrFieldCount     = 5
	qrCoordPrecision = 6
)

// QRPayload is a decoded bin locator.
type QRPayload struct {
	Scheme  string         `json:"scheme"`
	BinID   string         `json:"binId"`
	BinType models.BinType `json:"binType"`
	Lat     float64        `json:"lat"`
	Lng     float64        `json:"lng"`
}

// EncodeQRPayload returns SMARTWASTE:<binId>:<binType>:<lat>:<lng> with
// both coordinates rounded to exactly six decimals.
func EncodeQRPayload(binID string, binType models.BinType, lat, lng float64) string {
	return strings.Join([]string{
		QRScheme,
		binID,
		string(binType),
		formatCoord(lat),
		formatCoord(lng),
	}, qrFieldSeparator)
}

// EncodeBinQRPayload encodes the payload for b. A bin without coordinates has
// no payload.
func EncodeBinQRPayload(b *models.Bin) string {
	if b == nil || b.Coordinates == nil {
		return ""
	}
	return EncodeQRPayload(b.BinID, b.BinType, b.Coordinates.Lat, b.Coordinates.Lng)
}

func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', qrCoordPrecision, 64)
	if s == "-0.000000" {
		return "0.000000"
	}
	return s
}

// DecodeQRPayload parses a payload produced by EncodeQRPayload.
func DecodeQRPayload(payload string) (QRPayload, error) {
	parts := strings.Split(payload, qrFieldSeparator)
	if len(parts) == 0 || parts[0] != QRScheme {
		return QRPayload{}, &QRParseError{Payload: payload, Reason: "scheme must be " + QRScheme}
	}
	if len(parts) != qrFieldCount {
		return QRPayload{}, &QRParseError{
			Payload: payload,
			Reason:  "expected " + strconv.Itoa(qrFieldCount) + " fields, got " + strconv.Itoa(len(parts)),
		}
	}
	lat, err := parseCoord(parts[3])
	if err != nil {
		return QRPayload{}, &QRParseError{Payload: payload, Reason: "latitude is not a number"}
	}
	lng, err := parseCoord(parts[4])
	if err != nil {
		return QRPayload{}, &QRParseError{Payload: payload, Reason: "longitude is not a number"}
	}
	return QRPayload{
		Scheme:  parts[0],
		BinID:   parts[1],
		BinType: models.BinType(parts[2]),
		Lat:     lat,
		Lng:     lng,
	}, nil
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrCoordinatesNotFinite
	}
	return v, nil
}
