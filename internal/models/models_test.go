package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanningState(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	d := &Device{ID: "a"}
	assert.Equal(t, PlanningIdle, d.PlanningState())

	d.PlanningWindows = []Timeframe{{LatestEnd: 10, AddedAt: t0}}
	assert.Equal(t, PlanningRequested, d.PlanningState())

	d.LastRecommendation = &Recommendation{ReceivedAt: t0.Add(time.Second)}
	assert.Equal(t, PlanningRecommended, d.PlanningState())

	d.PlanningWindows = append(d.PlanningWindows, Timeframe{LatestEnd: 20, AddedAt: t0.Add(time.Minute)})
	assert.Equal(t, PlanningRequested, d.PlanningState())
}

func TestDeepCopyIsIndependent(t *testing.T) {
	on := 60
	d := &Device{
		ID:                 "a",
		Info:               DeviceInfo{MinOnTime: &on},
		PlanningWindows:    []Timeframe{{LatestEnd: 10}},
		LastRecommendation: &Recommendation{On: true},
		LastPower:          &PowerReading{Watts: 5},
	}
	cp := d.DeepCopy()

	*cp.Info.MinOnTime = 1
	cp.PlanningWindows[0].LatestEnd = 99
	cp.LastRecommendation.On = false
	cp.LastPower.Watts = 7

	assert.Equal(t, 60, *d.Info.MinOnTime)
	assert.Equal(t, 10, d.PlanningWindows[0].LatestEnd)
	assert.True(t, d.LastRecommendation.On)
	assert.Equal(t, 5, d.LastPower.Watts)

	var nilDevice *Device
	assert.Nil(t, nilDevice.DeepCopy())
}

func TestSnapshot(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d := &Device{
		ID:        "a",
		Status:    DeviceStatus{Status: StatusOn, EMSignalsAccepted: true},
		LastPower: &PowerReading{Watts: 80},
	}
	s := d.Snapshot(at)

	assert.Equal(t, "a", s.DeviceID)
	assert.Equal(t, StatusOn, s.Status)
	assert.True(t, s.EMSignalsAccepted)
	assert.Equal(t, PlanningIdle, s.PlanningState)
	assert.Equal(t, at, s.TakenAt)

	s.LastPower.Watts = 1
	assert.Equal(t, 80, d.LastPower.Watts)
}
