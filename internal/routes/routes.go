package routes

const (
	// Health
	Health  = "/health"
	Metrics = "/metrics"

	// Bin registry
	BinsBase    = "/api/v1/bins"
	BinsScan    = "/api/v1/bins/scan"
	BinsNearby  = "/api/v1/bins/nearby"
	BinsBounds  = "/api/v1/bins/bounds"
	BinsByID    = "/api/v1/bins/{binId}"
	BinsLevel   = "/api/v1/bins/{binId}/level"
	BinsEmpty   = "/api/v1/bins/{binId}/empty"
	BinsSticker = "/api/v1/bins/{binId}/sticker"

	// Location capture
	LocationMapClick = "/api/v1/location/map-click"
	LocationDevice   = "/api/v1/location/device"
)
