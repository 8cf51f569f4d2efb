package semp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"sempgateway/internal/models"
)

// ErrParse is returned for control messages that are malformed or incomplete.
var ErrParse = errors.New("semp: malformed control message")

// averagingInterval is the interval in seconds reported with every PowerInfo.
const averagingInterval = 60

// ToWireDocument converts registry devices to a Device2EM document. Devices keep
// their order. A PlanningRequest is emitted only for devices with planning windows.
func ToWireDocument(devices []models.Device) *Device2EM {
	doc := &Device2EM{
		DeviceInfo:   make([]DeviceInfo, 0, len(devices)),
		DeviceStatus: make([]DeviceStatus, 0, len(devices)),
	}
	for i := range devices {
		d := &devices[i]
		doc.DeviceInfo = append(doc.DeviceInfo, toDeviceInfo(d))
		doc.DeviceStatus = append(doc.DeviceStatus, toDeviceStatus(d))
		if len(d.PlanningWindows) > 0 {
			doc.PlanningRequest = append(doc.PlanningRequest, toPlanningRequest(d))
		}
	}
	return doc
}

func toDeviceInfo(d *models.Device) DeviceInfo {
	return DeviceInfo{
		Identification: Identification{
			DeviceID:     d.ID,
			DeviceName:   d.Info.Name,
			DeviceType:   d.Info.Type,
			DeviceSerial: d.Info.SerialNr,
			DeviceVendor: d.Info.Vendor,
			DeviceURL:    d.Info.URL,
		},
		Characteristics: Characteristics{
			MaxPowerConsumption: d.Info.MaxPower,
			MinOnTime:           d.Info.MinOnTime,
			MinOffTime:          d.Info.MinOffTime,
		},
		Capabilities: Capabilities{
			CurrentPower:  CurrentPower{Method: d.Info.MeasurementMethod},
			Timestamps:    Timestamps{AbsoluteTimestamps: d.Info.AbsoluteTimestamps},
			Interruptions: Interruptions{InterruptionsAllowed: d.Info.InterruptionsAllowed},
			Requests:      Requests{OptionalEnergy: d.Info.OptionalEnergy},
		},
	}
}

func toDeviceStatus(d *models.Device) DeviceStatus {
	s := DeviceStatus{
		DeviceID:          d.ID,
		EMSignalsAccepted: d.Status.EMSignalsAccepted,
		Status:            d.Status.Status,
	}
	if d.LastPower != nil {
		s.PowerConsumption = &PowerConsumption{PowerInfo: PowerInfo{
			AveragePower:      d.LastPower.Watts,
			MinPower:          d.LastPower.MinPower,
			MaxPower:          d.LastPower.MaxPower,
			AveragingInterval: averagingInterval,
		}}
	}
	return s
}

func toPlanningRequest(d *models.Device) PlanningRequest {
	pr := PlanningRequest{Timeframe: make([]Timeframe, 0, len(d.PlanningWindows))}
	for _, tf := range d.PlanningWindows {
		pr.Timeframe = append(pr.Timeframe, Timeframe{
			DeviceID:       d.ID,
			EarliestStart:  tf.EarliestStart,
			LatestEnd:      tf.LatestEnd,
			MinRunningTime: tf.MinRunningTime,
			MaxRunningTime: tf.MaxRunningTime,
		})
	}
	return pr
}

// FromControlMessage extracts the single control directive of msg. It never
// returns a partial directive.
func FromControlMessage(msg *EM2Device) (models.ControlDirective, error) {
	if msg == nil {
		return models.ControlDirective{}, fmt.Errorf("%w: empty message", ErrParse)
	}
	if len(msg.DeviceControl) != 1 {
		return models.ControlDirective{}, fmt.Errorf("%w: expected one DeviceControl, got %d", ErrParse, len(msg.DeviceControl))
	}

	dc := msg.DeviceControl[0]
	var missing []string
	if dc.DeviceID == nil || strings.TrimSpace(*dc.DeviceID) == "" {
		missing = append(missing, "DeviceId")
	}
	if dc.On == nil {
		missing = append(missing, "On")
	}
	if dc.RecommendedPowerConsumption == nil {
		missing = append(missing, "RecommendedPowerConsumption")
	}
	if dc.Timestamp == nil {
		missing = append(missing, "Timestamp")
	}
	if len(missing) > 0 {
		return models.ControlDirective{}, fmt.Errorf("%w: missing %s", ErrParse, strings.Join(missing, ", "))
	}

	return models.ControlDirective{
		DeviceID:         strings.TrimSpace(*dc.DeviceID),
		On:               *dc.On,
		RecommendedPower: *dc.RecommendedPowerConsumption,
		Timestamp:        *dc.Timestamp,
	}, nil
}

// DecodeControlMessage reads an EM2Device document and extracts its directive.
// Syntax and type errors are reported as ErrParse.
func DecodeControlMessage(r io.Reader) (models.ControlDirective, error) {
	var msg EM2Device
	if err := xml.NewDecoder(r).Decode(&msg); err != nil {
		return models.ControlDirective{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return FromControlMessage(&msg)
}

// Encode writes doc as an indented XML document with declaration.
func Encode(w io.Writer, doc *Device2EM) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding Device2EM: %w", err)
	}
	return enc.Close()
}
