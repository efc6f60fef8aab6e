package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

// DeviceLocator resolves the position of the requesting device.
type DeviceLocator interface {
	Locate(ctx context.Context, clientIP string) (models.Coordinates, error)
}

// AddressResolver turns coordinates into a postal address.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, c models.Coordinates) (string, error)
}

// GeolocationError is recoverable; callers fall back to a map pin.
type GeolocationError struct {
	Reason string
	Err    error
}

func (e *GeolocationError) Error() string {
	if e.Err != nil {
		return "geolocation unavailable: " + e.Reason + ": " + e.Err.Error()
	}
	return "geolocation unavailable: " + e.Reason
}

func (e *GeolocationError) Unwrap() error { return e.Err }

const (
	DefaultGeolocationTimeout = 5 * time.Second
	autoLocationFormat        = "Auto-detected at %.5f, %.5f"
)

var autoLocationRegex = regexp.MustCompile(`^Auto-detected at -?\d+\.\d{5}, -?\d+\.\d{5}$`)

// IsAutoLocation reports whether s was written by ApplyCoordinates rather
// than typed by a user.
func IsAutoLocation(s string) bool {
	return autoLocationRegex.MatchString(s)
}

type LocationService struct {
	locator  DeviceLocator
	resolver AddressResolver
	timeout  time.Duration
}

// NewLocationService builds the capture service. locator and resolver may
// be nil; device capture then always fails and addresses stay empty.
func NewLocationService(locator DeviceLocator, resolver AddressResolver, timeout time.Duration) *LocationService {
	if timeout <= 0 {
		timeout = DefaultGeolocationTimeout
	}
	return &LocationService{locator: locator, resolver: resolver, timeout: timeout}
}

// CaptureFromDevice asks the device locator for a fix, waiting at most the
// configured timeout.
func (s *LocationService) CaptureFromDevice(ctx context.Context, clientIP string) (models.Coordinates, error) {
	if s.locator == nil {
		return models.Coordinates{}, &GeolocationError{Reason: "no device locator configured"}
	}
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()
	fix := utils.Go(lctx, func(ctx context.Context) (models.Coordinates, error) {
		return s.locator.Locate(ctx, clientIP)
	})
	c, err := fix.Await(ctx, s.timeout)
	if err != nil {
		reason := "lookup failed"
		if errors.Is(err, utils.ErrFutureTimeout) || errors.Is(err, context.DeadlineExceeded) {
			reason = "timed out"
		}
		utils.Logger.WithError(err).WithField("client_ip", clientIP).Warn("[Location] device capture failed")
		return models.Coordinates{}, &GeolocationError{Reason: reason, Err: err}
	}
	if err := internal_utils.ValidateCoordinates(c.Lat, c.Lng); err != nil {
		return models.Coordinates{}, &GeolocationError{Reason: "locator returned invalid coordinates", Err: err}
	}
	return c, nil
}

// CaptureFromMapClick accepts a map pin. Non-finite or out-of-range values
// are a field-scoped validation failure.
func (s *LocationService) CaptureFromMapClick(lat, lng float64) (models.Coordinates, error) {
	verr := utils.NewValidationError()
	if err := internal_utils.ValidateCoordinates(lat, 0); err != nil {
		verr.Add("coordinates.lat", coordinateMessage(err, "latitude", 90))
	}
	if err := internal_utils.ValidateCoordinates(0, lng); err != nil {
		verr.Add("coordinates.lng", coordinateMessage(err, "longitude", 180))
	}
	if err := verr.OrNil(); err != nil {
		return models.Coordinates{}, err
	}
	return models.Coordinates{Lat: lat, Lng: lng}, nil
}

func coordinateMessage(err error, name string, limit int) string {
	if errors.Is(err, internal_utils.ErrCoordinatesNotFinite) {
		return name + " must be a finite number"
	}
	return fmt.Sprintf("%s must be between -%d and %d", name, limit, limit)
}

// ApplyCoordinates stores c on bin and refreshes the derived location
// fields. A user-entered Location is never overwritten; Address is only
// filled when empty.
func (s *LocationService) ApplyCoordinates(ctx context.Context, bin *models.Bin, c models.Coordinates) {
	bin.Coordinates = &models.Coordinates{Lat: c.Lat, Lng: c.Lng}
	if bin.Location == "" || IsAutoLocation(bin.Location) {
		bin.Location = fmt.Sprintf(autoLocationFormat, c.Lat, c.Lng)
	}
	bin.TimeZone = internal_utils.TimeZoneFor(c)

	if s.resolver == nil || bin.Address != "" {
		return
	}
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	addr := utils.Go(rctx, func(ctx context.Context) (string, error) {
		return s.resolver.ResolveAddress(ctx, c)
	})
	a, err := addr.Await(ctx, s.timeout)
	if err != nil {
		utils.Logger.WithError(err).WithField("bin_id", bin.BinID).Warn("[Location] reverse geocoding failed, leaving address empty")
		return
	}
	bin.Address = a
}
