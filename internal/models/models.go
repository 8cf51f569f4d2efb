package models

import "time"

// Device status values as they appear on the SEMP wire.
const (
	StatusOn      = "On"
	StatusOff     = "Off"
	StatusOffline = "Offline"
)

// Measurement methods for the current power capability.
const (
	MeasurementMeasured  = "Measurement"
	MeasurementEstimated = "Estimation"
	MeasurementNone      = "None"
)

// DeviceInfo holds the static capabilities of a device
type DeviceInfo struct {
	Name                 string `json:"name"`
	Type                 string `json:"type"`
	MeasurementMethod    string `json:"measurementMethod"`
	InterruptionsAllowed bool   `json:"interruptionsAllowed"`
	MaxPower             int    `json:"maxPower"`
	Vendor               string `json:"vendor"`
	SerialNr             string `json:"serialNr"`
	AbsoluteTimestamps   bool   `json:"absoluteTimestamps"`
	OptionalEnergy       bool   `json:"optionalEnergy"`
	MinOnTime            *int   `json:"minOnTime,omitempty"`
	MinOffTime           *int   `json:"minOffTime,omitempty"`
	URL                  string `json:"url,omitempty"`
}

// DeviceStatus holds the mutable operational flags
type DeviceStatus struct {
	Status            string `json:"status"`
	EMSignalsAccepted bool   `json:"emSignalsAccepted"`
}

// Timeframe is one planning window. All values are seconds.
type Timeframe struct {
	EarliestStart  int `json:"EarliestStart"`
	LatestEnd      int `json:"LatestEnd"`
	MinRunningTime int `json:"MinRunningTime"`
	MaxRunningTime int `json:"MaxRunningTime"`

	AddedAt time.Time `json:"-"`
}

// PowerReading is the most recent measured power of a device
type PowerReading struct {
	Watts    int `json:"Watts"`
	MinPower int `json:"MinPower"`
	MaxPower int `json:"MaxPower"`

	MeasuredAt time.Time `json:"measuredAt"`
}

// ControlDirective is an inbound instruction from the energy manager
type ControlDirective struct {
	DeviceID         string
	On               bool
	RecommendedPower int
	Timestamp        int
}

// Recommendation is the stored outcome of the last control directive
type Recommendation struct {
	DeviceID         string    `json:"deviceId"`
	On               bool      `json:"on"`
	RecommendedPower int       `json:"recommendedPowerConsumption"`
	Timestamp        int       `json:"timestamp"`
	ReceivedAt       time.Time `json:"receivedAt"`
}

// Device represents a device model
type Device struct {
	ID                 string          `json:"deviceId"`
	Info               DeviceInfo      `json:"info"`
	Status             DeviceStatus    `json:"status"`
	PlanningWindows    []Timeframe     `json:"planningRequests"`
	LastRecommendation *Recommendation `json:"lastRecommendation,omitempty"`
	LastPower          *PowerReading   `json:"lastPower,omitempty"`
	HookURL            string          `json:"hookURL,omitempty"`
}

// DeviceUpdate is a partial update. Nil fields are left untouched.
type DeviceUpdate struct {
	Name                 *string `json:"name"`
	InterruptionsAllowed *bool   `json:"interruptionsAllowed"`
	MaxPower             *int    `json:"maxPower"`
	EMSignalsAccepted    *bool   `json:"emSignalsAccepted"`
	Status               *string `json:"status"`
	OptionalEnergy       *bool   `json:"optionalEnergy"`
	MinOnTime            *int    `json:"minOnTime"`
	MinOffTime           *int    `json:"minOffTime"`
}

// PlanningState is the derived planning/recommendation lifecycle of a device.
type PlanningState string

const (
	PlanningIdle        PlanningState = "idle"
	PlanningRequested   PlanningState = "requested"
	PlanningRecommended PlanningState = "recommended"
)

// PlanningState derives the lifecycle state from the windows and the last
// recommendation. It is never stored.
func (d *Device) PlanningState() PlanningState {
	if len(d.PlanningWindows) == 0 {
		return PlanningIdle
	}
	if d.LastRecommendation == nil {
		return PlanningRequested
	}
	newest := d.PlanningWindows[0].AddedAt
	for _, tf := range d.PlanningWindows[1:] {
		if tf.AddedAt.After(newest) {
			newest = tf.AddedAt
		}
	}
	if d.LastRecommendation.ReceivedAt.Before(newest) {
		return PlanningRequested
	}
	return PlanningRecommended
}

// DeepCopy returns a copy sharing no mutable memory with d.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Info.MinOnTime = copyInt(d.Info.MinOnTime)
	cp.Info.MinOffTime = copyInt(d.Info.MinOffTime)
	if d.PlanningWindows != nil {
		cp.PlanningWindows = make([]Timeframe, len(d.PlanningWindows))
		copy(cp.PlanningWindows, d.PlanningWindows)
	}
	if d.LastRecommendation != nil {
		rec := *d.LastRecommendation
		cp.LastRecommendation = &rec
	}
	if d.LastPower != nil {
		p := *d.LastPower
		cp.LastPower = &p
	}
	return &cp
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// Notification is handed to a notifier after a recommendation changed.
type Notification struct {
	DeviceID       string         `json:"deviceId"`
	HookURL        string         `json:"hookURL,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
}

// StatusSnapshot is the periodic per-device status published to the cache.
type StatusSnapshot struct {
	DeviceID           string          `json:"deviceId"`
	Status             string          `json:"status"`
	EMSignalsAccepted  bool            `json:"emSignalsAccepted"`
	PlanningState      PlanningState   `json:"planningState"`
	LastPower          *PowerReading   `json:"lastPower,omitempty"`
	LastRecommendation *Recommendation `json:"lastRecommendation,omitempty"`
	TakenAt            time.Time       `json:"takenAt"`
}

// Snapshot captures the current status of d.
func (d *Device) Snapshot(at time.Time) StatusSnapshot {
	cp := d.DeepCopy()
	return StatusSnapshot{
		DeviceID:           cp.ID,
		Status:             cp.Status.Status,
		EMSignalsAccepted:  cp.Status.EMSignalsAccepted,
		PlanningState:      cp.PlanningState(),
		LastPower:          cp.LastPower,
		LastRecommendation: cp.LastRecommendation,
		TakenAt:            at,
	}
}
