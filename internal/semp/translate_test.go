package semp

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"sempgateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sampleDevices() []models.Device {
	return []models.Device{
		{
			ID: "F-11223344-112233445566-00",
			Info: models.DeviceInfo{
				Name:                 "Washer",
				Type:                 "WashingMachine",
				MeasurementMethod:    models.MeasurementMeasured,
				InterruptionsAllowed: true,
				MaxPower:             2200,
				Vendor:               "ACME",
				SerialNr:             "W-1",
				MinOnTime:            intPtr(600),
			},
			Status: models.DeviceStatus{Status: models.StatusOff, EMSignalsAccepted: true},
			PlanningWindows: []models.Timeframe{
				{EarliestStart: 0, LatestEnd: 3600, MinRunningTime: 1800, MaxRunningTime: 1800},
				{EarliestStart: 7200, LatestEnd: 10800, MinRunningTime: 600, MaxRunningTime: 900},
			},
			LastPower: &models.PowerReading{Watts: 150, MinPower: 120, MaxPower: 180},
		},
		{
			ID:     "F-11223344-112233445566-01",
			Info:   models.DeviceInfo{Name: "Heat pump", Type: "HeatPump", MeasurementMethod: models.MeasurementEstimated},
			Status: models.DeviceStatus{Status: models.StatusOn},
		},
		{
			ID:     "F-11223344-112233445566-02",
			Info:   models.DeviceInfo{Name: "Charger", Type: "EVCharger", MeasurementMethod: models.MeasurementNone},
			Status: models.DeviceStatus{Status: models.StatusOffline},
			PlanningWindows: []models.Timeframe{
				{EarliestStart: 0, LatestEnd: 600, MinRunningTime: 0, MaxRunningTime: 600},
			},
		},
	}
}

func TestToWireDocument(t *testing.T) {
	doc := ToWireDocument(sampleDevices())

	require.Len(t, doc.DeviceInfo, 3)
	require.Len(t, doc.DeviceStatus, 3)
	require.Len(t, doc.PlanningRequest, 2)

	assert.Equal(t, "F-11223344-112233445566-00", doc.DeviceInfo[0].Identification.DeviceID)
	assert.Equal(t, "F-11223344-112233445566-01", doc.DeviceInfo[1].Identification.DeviceID)
	assert.Equal(t, "F-11223344-112233445566-02", doc.DeviceInfo[2].Identification.DeviceID)
	assert.Equal(t, "Measurement", doc.DeviceInfo[0].Capabilities.CurrentPower.Method)
	assert.True(t, doc.DeviceInfo[0].Capabilities.Interruptions.InterruptionsAllowed)
	assert.Equal(t, 2200, doc.DeviceInfo[0].Characteristics.MaxPowerConsumption)

	assert.Equal(t, "F-11223344-112233445566-00", doc.PlanningRequest[0].Timeframe[0].DeviceID)
	assert.Len(t, doc.PlanningRequest[0].Timeframe, 2)
	assert.Equal(t, 7200, doc.PlanningRequest[0].Timeframe[1].EarliestStart)
	assert.Equal(t, "F-11223344-112233445566-02", doc.PlanningRequest[1].Timeframe[0].DeviceID)

	require.NotNil(t, doc.DeviceStatus[0].PowerConsumption)
	assert.Equal(t, 150, doc.DeviceStatus[0].PowerConsumption.PowerInfo.AveragePower)
	assert.Nil(t, doc.DeviceStatus[1].PowerConsumption)
}

func TestToWireDocumentNoWindows(t *testing.T) {
	devices := sampleDevices()
	for i := range devices {
		devices[i].PlanningWindows = nil
	}
	doc := ToWireDocument(devices)
	assert.Empty(t, doc.PlanningRequest)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.NotContains(t, buf.String(), "PlanningRequest")
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, ToWireDocument(sampleDevices())))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>"))
	assert.Contains(t, out, `<Device2EM xmlns="http://www.sma.de/communication/schema/SEMP/v1">`)
	assert.Contains(t, out, "<MinOnTime>600</MinOnTime>")
	assert.NotContains(t, out, "MinOffTime")
	assert.Equal(t, 2, strings.Count(out, "<PlanningRequest>"))
	assert.Equal(t, 3, strings.Count(out, "<Timeframe>"))

	var decoded Device2EM
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, Namespace, decoded.XMLName.Space)
	assert.Len(t, decoded.DeviceStatus, 3)
}

const validControl = `<?xml version="1.0" encoding="UTF-8"?>
<EM2Device xmlns="http://www.sma.de/communication/schema/SEMP/v1">
    <DeviceControl>
        <DeviceId>F-11223344-112233445566-00</DeviceId>
        <On>true</On>
        <RecommendedPowerConsumption>500</RecommendedPowerConsumption>
        <Timestamp>0</Timestamp>
    </DeviceControl>
</EM2Device>`

func TestDecodeControlMessage(t *testing.T) {
	d, err := DecodeControlMessage(strings.NewReader(validControl))
	require.NoError(t, err)
	assert.Equal(t, models.ControlDirective{
		DeviceID:         "F-11223344-112233445566-00",
		On:               true,
		RecommendedPower: 500,
		Timestamp:        0,
	}, d)
}

func TestDecodeControlMessageErrors(t *testing.T) {
	tests := map[string]string{
		"not xml":      "definitely not xml",
		"wrong root":   `<Device2EM><DeviceControl/></Device2EM>`,
		"no control":   `<EM2Device></EM2Device>`,
		"two controls": `<EM2Device>` + strings.Repeat(`<DeviceControl><DeviceId>a</DeviceId><On>true</On><RecommendedPowerConsumption>1</RecommendedPowerConsumption><Timestamp>0</Timestamp></DeviceControl>`, 2) + `</EM2Device>`,
		"missing on":   `<EM2Device><DeviceControl><DeviceId>a</DeviceId><RecommendedPowerConsumption>1</RecommendedPowerConsumption><Timestamp>0</Timestamp></DeviceControl></EM2Device>`,
		"empty id":     `<EM2Device><DeviceControl><DeviceId> </DeviceId><On>true</On><RecommendedPowerConsumption>1</RecommendedPowerConsumption><Timestamp>0</Timestamp></DeviceControl></EM2Device>`,
		"bad bool":     `<EM2Device><DeviceControl><DeviceId>a</DeviceId><On>maybe</On><RecommendedPowerConsumption>1</RecommendedPowerConsumption><Timestamp>0</Timestamp></DeviceControl></EM2Device>`,
		"bad power":    `<EM2Device><DeviceControl><DeviceId>a</DeviceId><On>true</On><RecommendedPowerConsumption>lots</RecommendedPowerConsumption><Timestamp>0</Timestamp></DeviceControl></EM2Device>`,
		"no timestamp": `<EM2Device><DeviceControl><DeviceId>a</DeviceId><On>false</On><RecommendedPowerConsumption>1</RecommendedPowerConsumption></DeviceControl></EM2Device>`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := DecodeControlMessage(strings.NewReader(body))
			assert.ErrorIs(t, err, ErrParse)
			assert.Equal(t, models.ControlDirective{}, d)
		})
	}
}

func TestFromControlMessageNil(t *testing.T) {
	_, err := FromControlMessage(nil)
	assert.ErrorIs(t, err, ErrParse)
}

func TestDescriptionRender(t *testing.T) {
	out, err := Description{
		UUID:         "2fac1234-31f8-11b4-a222-08002b34c003",
		FriendlyName: "Garage <gateway>",
		Manufacturer: "ACME",
		ModelName:    "sempgateway",
		ServerURL:    "http://192.168.1.10:8080",
	}.Render()
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "<UDN>uuid:2fac1234-31f8-11b4-a222-08002b34c003</UDN>")
	assert.Contains(t, s, "Garage &lt;gateway&gt;")
	assert.Contains(t, s, "<semp:basePath>/semp</semp:basePath>")
	assert.Contains(t, s, "<semp:server>http://192.168.1.10:8080</semp:server>")
}
