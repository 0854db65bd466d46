package analytics

import (
	"strings"

	"github.com/mssola/useragent"
)

// Device is the coarse client description derived from a User-Agent.
type Device struct {
	Browser string
	OS      string
	Type    string
}

// ParseUserAgent derives browser, OS and device type from a User-Agent
// string. Unresolved browser and OS fields are Unknown; the device type
// falls back to desktop when no mobile or tablet marker is present.
func ParseUserAgent(raw string) Device {
	device := Device{Browser: Unknown, OS: Unknown, Type: DeviceDesktop}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return device
	}

	ua := useragent.New(raw)

	if name, _ := ua.Browser(); name != "" {
		device.Browser = name
	}

	if os := ua.OSInfo().Name; os != "" {
		device.OS = os
	}

	switch {
	case isTablet(raw):
		device.Type = DeviceTablet
	case ua.Mobile():
		device.Type = DeviceMobile
	}

	return device
}

func isTablet(raw string) bool {
	lower := strings.ToLower(raw)

	if strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet") {
		return true
	}

	// Android tablets omit the "Mobile" token that phones carry.
	return strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")
}
