package models

import (
	core "sempgateway/internal/models"
)

// DevicePayload is the device shape accepted on create and returned on reads.
type DevicePayload struct {
	DeviceID             string `json:"deviceId" binding:"required"`
	Name                 string `json:"name"`
	Type                 string `json:"type"`
	MeasurementMethod    string `json:"measurementMethod"`
	InterruptionsAllowed bool   `json:"interruptionsAllowed"`
	MaxPower             int    `json:"maxPower"`
	EMSignalsAccepted    bool   `json:"emSignalsAccepted"`
	Status               string `json:"status"`
	Vendor               string `json:"vendor"`
	SerialNr             string `json:"serialNr"`
	AbsoluteTimestamps   bool   `json:"absoluteTimestamps"`
	OptionalEnergy       bool   `json:"optionalEnergy"`
	MinOnTime            *int   `json:"minOnTime,omitempty"`
	MinOffTime           *int   `json:"minOffTime,omitempty"`
	URL                  string `json:"url,omitempty"`
}

// ToDevice converts the payload to the registry model.
func (p DevicePayload) ToDevice() core.Device {
	return core.Device{
		ID: p.DeviceID,
		Info: core.DeviceInfo{
			Name:                 p.Name,
			Type:                 p.Type,
			MeasurementMethod:    p.MeasurementMethod,
			InterruptionsAllowed: p.InterruptionsAllowed,
			MaxPower:             p.MaxPower,
			Vendor:               p.Vendor,
			SerialNr:             p.SerialNr,
			AbsoluteTimestamps:   p.AbsoluteTimestamps,
			OptionalEnergy:       p.OptionalEnergy,
			MinOnTime:            p.MinOnTime,
			MinOffTime:           p.MinOffTime,
			URL:                  p.URL,
		},
		Status: core.DeviceStatus{
			Status:            p.Status,
			EMSignalsAccepted: p.EMSignalsAccepted,
		},
	}
}

type CreateDeviceRequest struct {
	Device *DevicePayload `json:"device" binding:"required"`
}

type UpdateDeviceRequest struct {
	Device *core.DeviceUpdate `json:"device" binding:"required"`
}

// PlanningPayload uses pointers so a missing bound is rejected instead of read as zero.
type PlanningPayload struct {
	EarliestStart  *int `json:"EarliestStart" binding:"required"`
	LatestEnd      *int `json:"LatestEnd" binding:"required"`
	MinRunningTime *int `json:"MinRunningTime" binding:"required"`
	MaxRunningTime *int `json:"MaxRunningTime" binding:"required"`
}

type AddPlanningRequest struct {
	Planning *PlanningPayload `json:"planning" binding:"required"`
}

type HookRequest struct {
	HookURL string `json:"hookURL"`
}

type PowerPayload struct {
	Watts    *int `json:"Watts" binding:"required"`
	MinPower *int `json:"MinPower" binding:"required"`
	MaxPower *int `json:"MaxPower" binding:"required"`
}

type LastPowerRequest struct {
	Power *PowerPayload `json:"power" binding:"required"`
}

// DeviceView is the device representation served by the management API.
type DeviceView struct {
	DevicePayload
	PlanningRequests   []core.Timeframe     `json:"planningRequests"`
	PlanningState      core.PlanningState   `json:"planningState"`
	LastRecommendation *core.Recommendation `json:"lastRecommendation,omitempty"`
	LastPower          *core.PowerReading   `json:"lastPower,omitempty"`
	HookURL            string               `json:"hookURL,omitempty"`
}

// NewDeviceView flattens a registry device for JSON output.
func NewDeviceView(d *core.Device) DeviceView {
	windows := d.PlanningWindows
	if windows == nil {
		windows = []core.Timeframe{}
	}
	return DeviceView{
		DevicePayload: DevicePayload{
			DeviceID:             d.ID,
			Name:                 d.Info.Name,
			Type:                 d.Info.Type,
			MeasurementMethod:    d.Info.MeasurementMethod,
			InterruptionsAllowed: d.Info.InterruptionsAllowed,
			MaxPower:             d.Info.MaxPower,
			EMSignalsAccepted:    d.Status.EMSignalsAccepted,
			Status:               d.Status.Status,
			Vendor:               d.Info.Vendor,
			SerialNr:             d.Info.SerialNr,
			AbsoluteTimestamps:   d.Info.AbsoluteTimestamps,
			OptionalEnergy:       d.Info.OptionalEnergy,
			MinOnTime:            d.Info.MinOnTime,
			MinOffTime:           d.Info.MinOffTime,
			URL:                  d.Info.URL,
		},
		PlanningRequests:   windows,
		PlanningState:      d.PlanningState(),
		LastRecommendation: d.LastRecommendation,
		LastPower:          d.LastPower,
		HookURL:            d.HookURL,
	}
}
