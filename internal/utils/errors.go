// bins-service/internal/utils/errors.go

package utils

import (
	"errors"
	"fmt"
)

/*
Sentinel errors for bin-registry domain logic.
The controller can do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	ErrCoordinatesOutOfRange = errors.New("coordinates_out_of_range")
	ErrCoordinatesNotFinite  = errors.New("coordinates_not_finite")
	ErrInvalidQRPayload      = errors.New("invalid_qr_payload")
)

// QRParseError reports why a scanned string is not a bin locator.
type QRParseError struct {
	Payload string
	Reason  string
}

func (e *QRParseError) Error() string {
	return fmt.Sprintf("invalid QR payload %q: %s", e.Payload, e.Reason)
}

func (e *QRParseError) Unwrap() error { return ErrInvalidQRPayload }
