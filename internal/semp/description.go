package semp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"text/template"
)

// Description carries the values of the UPnP device description an energy
// manager reads before polling /semp/.
type Description struct {
	UUID         string
	FriendlyName string
	Manufacturer string
	ModelName    string
	ServerURL    string
	BasePath     string
}

var descriptionTemplate = template.Must(template.New("description").Funcs(template.FuncMap{
	"esc": xmlEscape,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
    <specVersion>
        <major>1</major>
        <minor>0</minor>
    </specVersion>
    <device>
        <deviceType>urn:schemas-simple-energy-management-protocol:device:Gateway:1</deviceType>
        <friendlyName>{{esc .FriendlyName}}</friendlyName>
        <manufacturer>{{esc .Manufacturer}}</manufacturer>
        <modelName>{{esc .ModelName}}</modelName>
        <UDN>uuid:{{esc .UUID}}</UDN>
        <serviceList>
            <service>
                <serviceType>urn:schemas-simple-energy-management-protocol:service:NULL:1</serviceType>
                <serviceId>urn:schemas-simple-energy-management-protocol:serviceId:NULL</serviceId>
                <SCPDURL>/XD/NULL.xml</SCPDURL>
                <controlURL>/UD/?0</controlURL>
                <eventSubURL></eventSubURL>
            </service>
        </serviceList>
        <semp:X_SEMPSERVICE xmlns:semp="urn:schemas-simple-energy-management-protocol:service-1-0">
            <semp:server>{{esc .ServerURL}}</semp:server>
            <semp:basePath>{{esc .BasePath}}</semp:basePath>
            <semp:transport>HTTP/Pull</semp:transport>
            <semp:exchangeFormat>XML</semp:exchangeFormat>
            <semp:wsVersion>1.1.0</semp:wsVersion>
        </semp:X_SEMPSERVICE>
    </device>
</root>
`))

// Render produces the description XML.
func (d Description) Render() ([]byte, error) {
	if d.BasePath == "" {
		d.BasePath = "/semp"
	}
	var buf bytes.Buffer
	if err := descriptionTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("rendering description: %w", err)
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
