package lutron

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/sweeney/lutron-bridge/internal/logic"
)

// KeypadButton is a keypad button found in the integration database.
type KeypadButton struct {
	logic.Button
	// DeviceID is the keypad's integration id.
	DeviceID int
	// Component is the button's component number on the keypad.
	Component int
}

// keypadTypes are the device types whose BUTTON components are keypad buttons.
var keypadTypes = map[string]bool{
	"SEETOUCH_KEYPAD":          true,
	"SEETOUCH_TABLETOP_KEYPAD": true,
	"PICO_KEYPAD":              true,
	"HYBRID_SEETOUCH_KEYPAD":   true,
	"VISOR_CONTROL_RECEIVER":   true,
	"MAIN_REPEATER":            true,
	"HOMEOWNER_KEYPAD":         true,
	"PALLADIOM_KEYPAD":         true,
}

type xmlProject struct {
	XMLName xml.Name  `xml:"Project"`
	Areas   []xmlArea `xml:"Areas>Area"`
}

type xmlArea struct {
	Name         string          `xml:"Name,attr"`
	DeviceGroups xmlDeviceGroups `xml:"DeviceGroups"`
	Areas        []xmlArea       `xml:"Areas>Area"`
}

// xmlDeviceGroups holds both grouped and ungrouped devices; the database
// mixes DeviceGroup and Device children under DeviceGroups.
type xmlDeviceGroups struct {
	Groups  []xmlDeviceGroup `xml:"DeviceGroup"`
	Devices []xmlDevice      `xml:"Device"`
}

type xmlDeviceGroup struct {
	Name    string      `xml:"Name,attr"`
	Devices []xmlDevice `xml:"Devices>Device"`
}

type xmlDevice struct {
	Name          string         `xml:"Name,attr"`
	IntegrationID int            `xml:"IntegrationID,attr"`
	DeviceType    string         `xml:"DeviceType,attr"`
	Components    []xmlComponent `xml:"Components>Component"`
}

type xmlComponent struct {
	Number int        `xml:"ComponentNumber,attr"`
	Type   string     `xml:"ComponentType,attr"`
	Button *xmlButton `xml:"Button"`
}

type xmlButton struct {
	Engraving  string `xml:"Engraving,attr"`
	ButtonType string `xml:"ButtonType,attr"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseButtons reads an integration database and returns every keypad
// button, in document order.
func ParseButtons(r io.Reader) ([]KeypadButton, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read integration database: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var project xmlProject
	if err := xml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDatabase, err)
	}

	var buttons []KeypadButton
	for _, area := range project.Areas {
		buttons = appendAreaButtons(buttons, area)
	}
	return buttons, nil
}

func appendAreaButtons(buttons []KeypadButton, area xmlArea) []KeypadButton {
	for _, dev := range area.DeviceGroups.Devices {
		buttons = appendDeviceButtons(buttons, area.Name, dev)
	}
	for _, group := range area.DeviceGroups.Groups {
		for _, dev := range group.Devices {
			buttons = appendDeviceButtons(buttons, area.Name, dev)
		}
	}
	for _, child := range area.Areas {
		buttons = appendAreaButtons(buttons, child)
	}
	return buttons
}

func appendDeviceButtons(buttons []KeypadButton, areaName string, dev xmlDevice) []KeypadButton {
	if !keypadTypes[dev.DeviceType] {
		return buttons
	}
	for _, comp := range dev.Components {
		if comp.Type != "BUTTON" || comp.Button == nil {
			continue
		}
		name := comp.Button.Engraving
		if name == "" {
			name = logic.UnknownButtonName
		}
		buttons = append(buttons, KeypadButton{
			Button: logic.Button{
				AreaName:   areaName,
				KeypadName: dev.Name,
				Name:       name,
				Number:     comp.Number,
				Type:       comp.Button.ButtonType,
				Release:    logic.ReleaseCapable(comp.Button.ButtonType),
			},
			DeviceID:  dev.IntegrationID,
			Component: comp.Number,
		})
	}
	return buttons
}

// FetchButtons downloads the integration database from url and parses it.
func FetchButtons(ctx context.Context, client *http.Client, url string) ([]KeypadButton, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch integration database: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch integration database: status %d", resp.StatusCode)
	}

	return ParseButtons(resp.Body)
}
