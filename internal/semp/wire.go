// Package semp implements the SMA Simple Energy Management Protocol surface of
// the gateway: the Device2EM and EM2Device XML documents, the translation from
// and to the registry model, and the HTTP listener an energy manager polls.
package semp

import "encoding/xml"

// Namespace identifies SEMP version 1 on the wire.
const Namespace = "http://www.sma.de/communication/schema/SEMP/v1"

// Device2EM is the document served to the energy manager.
type Device2EM struct {
	XMLName         xml.Name          `xml:"http://www.sma.de/communication/schema/SEMP/v1 Device2EM"`
	DeviceInfo      []DeviceInfo      `xml:"DeviceInfo"`
	DeviceStatus    []DeviceStatus    `xml:"DeviceStatus"`
	PlanningRequest []PlanningRequest `xml:"PlanningRequest"`
}

type DeviceInfo struct {
	Identification  Identification  `xml:"Identification"`
	Characteristics Characteristics `xml:"Characteristics"`
	Capabilities    Capabilities    `xml:"Capabilities"`
}

type Identification struct {
	DeviceID     string `xml:"DeviceId"`
	DeviceName   string `xml:"DeviceName"`
	DeviceType   string `xml:"DeviceType"`
	DeviceSerial string `xml:"DeviceSerial"`
	DeviceVendor string `xml:"DeviceVendor"`
	DeviceURL    string `xml:"DeviceURL,omitempty"`
}

type Characteristics struct {
	MaxPowerConsumption int  `xml:"MaxPowerConsumption"`
	MinOnTime           *int `xml:"MinOnTime,omitempty"`
	MinOffTime          *int `xml:"MinOffTime,omitempty"`
}

type Capabilities struct {
	CurrentPower  CurrentPower  `xml:"CurrentPower"`
	Timestamps    Timestamps    `xml:"Timestamps"`
	Interruptions Interruptions `xml:"Interruptions"`
	Requests      Requests      `xml:"Requests"`
}

type CurrentPower struct {
	Method string `xml:"Method"`
}

type Timestamps struct {
	AbsoluteTimestamps bool `xml:"AbsoluteTimestamps"`
}

type Interruptions struct {
	InterruptionsAllowed bool `xml:"InterruptionsAllowed"`
}

type Requests struct {
	OptionalEnergy bool `xml:"OptionalEnergy"`
}

type DeviceStatus struct {
	DeviceID          string            `xml:"DeviceId"`
	EMSignalsAccepted bool              `xml:"EMSignalsAccepted"`
	Status            string            `xml:"Status"`
	PowerConsumption  *PowerConsumption `xml:"PowerConsumption,omitempty"`
}

type PowerConsumption struct {
	PowerInfo PowerInfo `xml:"PowerInfo"`
}

// PowerInfo reports the last measured power. Timestamp 0 means "now".
type PowerInfo struct {
	AveragePower      int `xml:"AveragePower"`
	MinPower          int `xml:"MinPower"`
	MaxPower          int `xml:"MaxPower"`
	Timestamp         int `xml:"Timestamp"`
	AveragingInterval int `xml:"AveragingInterval"`
}

type PlanningRequest struct {
	Timeframe []Timeframe `xml:"Timeframe"`
}

type Timeframe struct {
	DeviceID       string `xml:"DeviceId"`
	EarliestStart  int    `xml:"EarliestStart"`
	LatestEnd      int    `xml:"LatestEnd"`
	MinRunningTime int    `xml:"MinRunningTime"`
	MaxRunningTime int    `xml:"MaxRunningTime"`
}

// EM2Device is the control document posted by the energy manager. Fields are
// pointers so that missing elements can be told apart from zero values.
type EM2Device struct {
	XMLName       xml.Name        `xml:"EM2Device"`
	DeviceControl []DeviceControl `xml:"DeviceControl"`
}

type DeviceControl struct {
	DeviceID                    *string `xml:"DeviceId"`
	On                          *bool   `xml:"On"`
	RecommendedPowerConsumption *int    `xml:"RecommendedPowerConsumption"`
	Timestamp                   *int    `xml:"Timestamp"`
}
