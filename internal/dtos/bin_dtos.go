package dtos

import (
	"bytes"
	"encoding/json"

	"github.com/smartwaste/bin-registry/shared/go-models"
)

/*
CoordinatesInput keeps lat and lng optional so a half-filled pair can be
told apart from a pin at 0,0.
*/
type CoordinatesInput struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Complete reports whether both halves are present.
func (c *CoordinatesInput) Complete() bool {
	return c != nil && c.Lat != nil && c.Lng != nil
}

// Partial reports whether exactly one half is present.
func (c *CoordinatesInput) Partial() bool {
	return c != nil && (c.Lat == nil) != (c.Lng == nil)
}

func (c *CoordinatesInput) Value() models.Coordinates {
	return models.Coordinates{Lat: *c.Lat, Lng: *c.Lng}
}

/*
RegisterBinRequest is the body of POST /api/v1/bins. Enum fields left empty
take their defaults.
*/
type RegisterBinRequest struct {
	OwnerName           string                     `json:"ownerName"`
	ResidentName        string                     `json:"residentName"`
	ResidentType        models.ResidentType        `json:"residentType"`
	Contact             models.Contact             `json:"contact"`
	BinType             models.BinType             `json:"binType"`
	BinSize             models.BinSize             `json:"binSize"`
	Location            string                     `json:"location"`
	Address             string                     `json:"address"`
	Coordinates         *CoordinatesInput          `json:"coordinates"`
	CollectionFrequency models.CollectionFrequency `json:"collectionFrequency"`
	Status              models.BinStatus           `json:"status"`
	FillLevel           *float64                   `json:"fillLevel"`
}

/*
NullableCoordinates distinguishes an absent "coordinates" key (Set=false)
from an explicit null (Set=true, Value=nil).
*/
type NullableCoordinates struct {
	Set   bool
	Value *CoordinatesInput
}

func (n *NullableCoordinates) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var in CoordinatesInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	n.Value = &in
	return nil
}

/*
UpdateBinRequest is the body of PATCH /api/v1/bins/{binId}. Nil fields are
left as stored. BinID is accepted only so a changed value can be rejected.
*/
type UpdateBinRequest struct {
	BinID               *string                     `json:"binId"`
	OwnerName           *string                     `json:"ownerName"`
	ResidentName        *string                     `json:"residentName"`
	ResidentType        *models.ResidentType        `json:"residentType"`
	Contact             *ContactPatch               `json:"contact"`
	BinType             *models.BinType             `json:"binType"`
	BinSize             *models.BinSize             `json:"binSize"`
	Location            *string                     `json:"location"`
	Address             *string                     `json:"address"`
	Coordinates         NullableCoordinates         `json:"coordinates"`
	CollectionFrequency *models.CollectionFrequency `json:"collectionFrequency"`
	Status              *models.BinStatus           `json:"status"`
	FillLevel           *float64                    `json:"fillLevel"`
}

type ContactPatch struct {
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

// UpdateFillLevelRequest is the body of PUT /api/v1/bins/{binId}/level.
type UpdateFillLevelRequest struct {
	FillLevel *float64 `json:"fillLevel" validate:"required"`
}

// MapClickRequest is the body of POST /api/v1/location/map-click.
type MapClickRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type CoordinatesResponse struct {
	Coordinates models.Coordinates `json:"coordinates"`
	Source      string             `json:"source"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}
