package analytics_test

import (
	"testing"

	"github.com/serroba/brandlink/internal/analytics"
	"github.com/stretchr/testify/assert"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		browser string
		os      string
		device  string
	}{
		{
			name:    "desktop chrome on windows",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			browser: "Chrome",
			device:  analytics.DeviceDesktop,
		},
		{
			name:    "iphone safari",
			ua:      iphoneUA,
			browser: "Safari",
			os:      "iPhone OS",
			device:  analytics.DeviceMobile,
		},
		{
			name:    "ipad",
			ua:      "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
			browser: "Safari",
			device:  analytics.DeviceTablet,
		},
		{
			name:    "android tablet without mobile token",
			ua:      "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			browser: "Chrome",
			os:      "Android",
			device:  analytics.DeviceTablet,
		},
		{
			name:    "empty",
			ua:      "",
			browser: analytics.Unknown,
			os:      analytics.Unknown,
			device:  analytics.DeviceDesktop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := analytics.ParseUserAgent(tt.ua)

			assert.Equal(t, tt.browser, device.Browser)
			assert.Equal(t, tt.device, device.Type)

			if tt.os != "" {
				assert.Equal(t, tt.os, device.OS)
			}
		})
	}
}
