package utils

import (
	"context"
	"errors"
	"sync"

	"github.com/smartwaste/bin-registry/shared/go-models"
	shared "github.com/smartwaste/bin-registry/shared/go-utils"
	"googlemaps.github.io/maps"
)

var ErrNoAddressFound = errors.New("no_address_found")

/*──────────── reusable, thread-safe Geocoding client ────────────*/

// GMapsAddressResolver turns coordinates into a formatted street address.
type GMapsAddressResolver struct {
	apiKey string

	once      sync.Once
	client    *maps.Client
	clientErr error
}

func NewGMapsAddressResolver(apiKey string) *GMapsAddressResolver {
	return &GMapsAddressResolver{apiKey: apiKey}
}

func (g *GMapsAddressResolver) getClient() (*maps.Client, error) {
	g.once.Do(func() {
		shared.Logger.Info("[GMapsClient] Initializing Google Maps Geocoding client...")
		g.client, g.clientErr = maps.NewClient(maps.WithAPIKey(g.apiKey))
		if g.clientErr != nil {
			shared.Logger.WithError(g.clientErr).Error("[GMapsClient] Failed to initialize Google Maps client")
		}
	})
	return g.client, g.clientErr
}

func (g *GMapsAddressResolver) ResolveAddress(ctx context.Context, c models.Coordinates) (string, error) {
	cli, err := g.getClient()
	if err != nil {
		return "", err
	}
	results, err := cli.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: c.Lat, Lng: c.Lng},
	})
	if err != nil {
		shared.Logger.WithError(err).WithField("lat", c.Lat).WithField("lng", c.Lng).
			Warn("[GMapsClient] ReverseGeocode call failed")
		return "", err
	}
	if len(results) == 0 || results[0].FormattedAddress == "" {
		return "", ErrNoAddressFound
	}
	return results[0].FormattedAddress, nil
}
