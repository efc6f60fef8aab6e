// go-models/bin.go

package models

import (
	"time"

	"github.com/google/uuid"
)

/*
──────────────────────────────────────────────────────────────────────────────

	Enums

──────────────────────────────────────────────────────────────────────────────
*/
type ResidentType string

const (
	ResidentHouse     ResidentType = "House"
	ResidentShop      ResidentType = "Shop"
	ResidentApartment ResidentType = "Apartment"
	ResidentSchool    ResidentType = "School"
	ResidentOffice    ResidentType = "Office"
	ResidentOther     ResidentType = "Other"
)

type BinType string

const (
	BinTypeGeneral    BinType = "general"
	BinTypeRecyclable BinType = "recyclable"
	BinTypeOrganic    BinType = "organic"
	BinTypePlastic    BinType = "plastic"
	BinTypeElectronic BinType = "electronic"
	BinTypeHazardous  BinType = "hazardous"
)

// AllBinTypes is the display order used by statistics and theme lookups.
var AllBinTypes = []BinType{
	BinTypeGeneral, BinTypeRecyclable, BinTypeOrganic,
	BinTypePlastic, BinTypeElectronic, BinTypeHazardous,
}

type BinSize string

const (
	BinSizeSmall      BinSize = "small"
	BinSizeMedium     BinSize = "medium"
	BinSizeLarge      BinSize = "large"
	BinSizeCommercial BinSize = "commercial"
)

type CollectionFrequency string

const (
	CollectDaily    CollectionFrequency = "daily"
	CollectWeekly   CollectionFrequency = "weekly"
	CollectBiweekly CollectionFrequency = "biweekly"
	CollectMonthly  CollectionFrequency = "monthly"
)

type BinStatus string

const (
	BinStatusActive      BinStatus = "active"
	BinStatusInactive    BinStatus = "inactive"
	BinStatusMaintenance BinStatus = "maintenance"
)

type MonitorStatus string

const (
	MonitorEmpty MonitorStatus = "EMPTY"
	MonitorLow   MonitorStatus = "LOW"
	MonitorHalf  MonitorStatus = "HALF"
	MonitorFull  MonitorStatus = "FULL"
)

/*
──────────────────────────────────────────────────────────────────────────────

	Nested types

──────────────────────────────────────────────────────────────────────────────
*/
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

/*
──────────────────────────────────────────────────────────────────────────────

	Bin

──────────────────────────────────────────────────────────────────────────────
*/
type Bin struct {
	Versioned

	ID                  uuid.UUID           `json:"id"`
	BinID               string              `json:"binId"`
	OwnerName           string              `json:"ownerName"`
	ResidentName        string              `json:"residentName"`
	ResidentType        ResidentType        `json:"residentType"`
	Contact             Contact             `json:"contact"`
	BinType             BinType             `json:"binType"`
	BinSize             BinSize             `json:"binSize"`
	Location            string              `json:"location"`
	Address             string              `json:"address,omitempty"`
	Coordinates         *Coordinates        `json:"coordinates"`
	CollectionFrequency CollectionFrequency `json:"collectionFrequency"`
	Status              BinStatus           `json:"status"`
	FillLevel           float64             `json:"fillLevel"`
	MonitorStatus       MonitorStatus       `json:"monitorStatus"`
	RegistrationDate    time.Time           `json:"registrationDate"`
	NextCollection      *time.Time          `json:"nextCollection,omitempty"`
	LastCollected       *time.Time          `json:"lastCollected,omitempty"`
	TimeZone            string              `json:"timeZone,omitempty"`
	QRPayload           string              `json:"qrPayload"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// GetID satisfies the optimistic-locking helpers; bins are keyed by BinID.
func (b *Bin) GetID() string { return b.BinID }

// Clone returns a deep copy so a snapshot can be compared after mutation.
func (b *Bin) Clone() *Bin {
	if b == nil {
		return nil
	}
	c := *b
	if b.Coordinates != nil {
		coords := *b.Coordinates
		c.Coordinates = &coords
	}
	if b.NextCollection != nil {
		t := *b.NextCollection
		c.NextCollection = &t
	}
	if b.LastCollected != nil {
		t := *b.LastCollected
		c.LastCollected = &t
	}
	return &c
}

// ClampFill bounds a fill level to [0,100].
func ClampFill(level float64) float64 {
	switch {
	case level < 0:
		return 0
	case level > 100:
		return 100
	default:
		return level
	}
}

// MonitorStatusFor derives the sensor-style status from a fill level.
func MonitorStatusFor(level float64) MonitorStatus {
	switch {
	case level <= 0:
		return MonitorEmpty
	case level < 50:
		return MonitorLow
	case level < 80:
		return MonitorHalf
	default:
		return MonitorFull
	}
}

// SetFillLevel clamps the level and refreshes MonitorStatus.
func (b *Bin) SetFillLevel(level float64) {
	b.FillLevel = ClampFill(level)
	b.MonitorStatus = MonitorStatusFor(b.FillLevel)
}

// CoordinatesEqual reports whether two optional coordinate pairs are the same.
func CoordinatesEqual(a, b *Coordinates) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Lat == b.Lat && a.Lng == b.Lng
}
