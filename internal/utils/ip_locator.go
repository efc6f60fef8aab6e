package utils

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/smartwaste/bin-registry/shared/go-models"
	shared "github.com/smartwaste/bin-registry/shared/go-utils"
)

// DefaultIPGeolocationURL speaks the ip-api.com JSON protocol.
const DefaultIPGeolocationURL = "http://ip-api.com"

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPGeoLocator approximates a device position from the caller's public IP.
type IPGeoLocator struct {
	httpClient *resty.Client
}

func NewIPGeoLocator(baseURL string, timeout time.Duration) *IPGeoLocator {
	if baseURL == "" {
		baseURL = DefaultIPGeolocationURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(1*time.Second).
		SetHeader("Accept", "application/json")

	return &IPGeoLocator{httpClient: client}
}

// Locate looks up clientIP. Private and loopback addresses are looked up as
// the server's own egress address (empty path segment).
func (l *IPGeoLocator) Locate(ctx context.Context, clientIP string) (models.Coordinates, error) {
	target := clientIP
	if ip := net.ParseIP(clientIP); ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		target = ""
	}

	var body ipLookupResponse
	resp, err := l.httpClient.R().
		SetContext(ctx).
		SetQueryParam("fields", "status,message,lat,lon").
		SetResult(&body).
		Get("/json/" + target)
	if err != nil {
		shared.Logger.WithError(err).WithField("ip", clientIP).Warn("[IPGeoLocator] lookup call failed")
		return models.Coordinates{}, fmt.Errorf("%w: %v", shared.ErrExternalServiceFailure, err)
	}
	if resp.IsError() {
		return models.Coordinates{}, fmt.Errorf("%w: ip lookup returned HTTP %d", shared.ErrExternalServiceFailure, resp.StatusCode())
	}
	if body.Status != "success" {
		return models.Coordinates{}, fmt.Errorf("ip lookup failed: %s", shared.FirstNonEmpty(body.Message, body.Status, "no status"))
	}
	return models.Coordinates{Lat: body.Lat, Lng: body.Lon}, nil
}
