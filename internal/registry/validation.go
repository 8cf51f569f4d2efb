package registry

import (
	"fmt"
	"net/url"
	"strings"

	"sempgateway/internal/models"
)

// ValidateDevice checks the attributes a device must carry before it is registered.
func ValidateDevice(d *models.Device) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: device id is required", ErrInvalidDevice)
	}
	if err := validateStatus(d.Status.Status); err != nil {
		return err
	}
	switch d.Info.MeasurementMethod {
	case models.MeasurementMeasured, models.MeasurementEstimated, models.MeasurementNone:
	default:
		return fmt.Errorf("%w: unknown measurement method %q", ErrInvalidDevice, d.Info.MeasurementMethod)
	}
	if d.Info.MaxPower < 0 {
		return fmt.Errorf("%w: max power must not be negative", ErrInvalidDevice)
	}
	if d.Info.MinOnTime != nil && *d.Info.MinOnTime < 0 {
		return fmt.Errorf("%w: min on time must not be negative", ErrInvalidDevice)
	}
	if d.Info.MinOffTime != nil && *d.Info.MinOffTime < 0 {
		return fmt.Errorf("%w: min off time must not be negative", ErrInvalidDevice)
	}
	return nil
}

// ValidateUpdate checks only the fields present in u.
func ValidateUpdate(u models.DeviceUpdate) error {
	if u.Status != nil {
		if err := validateStatus(*u.Status); err != nil {
			return err
		}
	}
	if u.MaxPower != nil && *u.MaxPower < 0 {
		return fmt.Errorf("%w: max power must not be negative", ErrInvalidDevice)
	}
	if u.MinOnTime != nil && *u.MinOnTime < 0 {
		return fmt.Errorf("%w: min on time must not be negative", ErrInvalidDevice)
	}
	if u.MinOffTime != nil && *u.MinOffTime < 0 {
		return fmt.Errorf("%w: min off time must not be negative", ErrInvalidDevice)
	}
	return nil
}

// ValidateTimeframe enforces EarliestStart <= LatestEnd, MinRunningTime <= MaxRunningTime
// and non-negative values.
func ValidateTimeframe(tf models.Timeframe) error {
	if tf.EarliestStart < 0 || tf.LatestEnd < 0 || tf.MinRunningTime < 0 || tf.MaxRunningTime < 0 {
		return fmt.Errorf("%w: values must not be negative", ErrInvalidTimeframe)
	}
	if tf.EarliestStart > tf.LatestEnd {
		return fmt.Errorf("%w: earliest start %d after latest end %d", ErrInvalidTimeframe, tf.EarliestStart, tf.LatestEnd)
	}
	if tf.MinRunningTime > tf.MaxRunningTime {
		return fmt.Errorf("%w: min running time %d exceeds max running time %d", ErrInvalidTimeframe, tf.MinRunningTime, tf.MaxRunningTime)
	}
	return nil
}

// ValidateHookURL accepts absolute http and https URLs only.
func ValidateHookURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidHook)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHook, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an http(s) url", ErrInvalidHook, raw)
	}
	return nil
}

func validateStatus(status string) error {
	switch status {
	case models.StatusOn, models.StatusOff, models.StatusOffline:
		return nil
	}
	return fmt.Errorf("%w: unknown status %q", ErrInvalidDevice, status)
}
