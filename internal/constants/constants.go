package constants

import (
	"time"
)

// Nearby search radius, km
const (
	DefaultNearbyRadiusKm = 2.0
	MaxNearbyRadiusKm     = 50.0
)

// Timeouts for collaborators that may stall a request
const (
	GeolocationTimeout  = 5 * time.Second
	LogoLoadTimeout     = 2 * time.Second
	NotificationTimeout = 15 * time.Second
	StickerCacheTTL     = 24 * time.Hour
)

// Daily roll-over of overdue collection dates (local server time)
const (
	CollectionRollOverCron       = "5 0 * * *"
	CollectionRollOverJobTimeout = 5 * time.Minute
)

// Common concurrency conflict / row-version conflict messages
const (
	ErrMsgRowVersionConflictRefresh = "The bin has changed, please refresh"
	ErrMsgBinIDImmutable            = "binId cannot be changed"
)
