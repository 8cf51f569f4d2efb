package registry

import "errors"

// Registry errors. Check them with errors.Is:
//
//	if errors.Is(err, registry.ErrDeviceNotFound) {
//	    // 404
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("registry: device not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("registry: device already exists")

	// ErrInvalidDevice is returned when device attributes fail validation.
	ErrInvalidDevice = errors.New("registry: invalid device")

	// ErrInvalidTimeframe is returned when a planning window violates its bounds.
	ErrInvalidTimeframe = errors.New("registry: invalid timeframe")

	// ErrInvalidHook is returned when a notification target is missing or malformed.
	ErrInvalidHook = errors.New("registry: invalid hook url")

	// ErrNoRecommendation is returned when a device has not received a control message yet.
	ErrNoRecommendation = errors.New("registry: no recommendation")
)
