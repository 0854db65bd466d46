package analytics

import "time"

const (
	// Unknown is stored for any field that could not be derived.
	Unknown = "unknown"
	// DirectReferrer is stored when the request carried no Referer header.
	DirectReferrer = "direct"

	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Click is one recorded visit of a link. Clicks are append-only.
type Click struct {
	ID         string    `json:"id"`
	LinkID     string    `json:"linkId"`
	ClickedAt  time.Time `json:"clickedAt"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	DeviceType string    `json:"deviceType"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
}

// Visit is the raw request metadata a click is built from.
type Visit struct {
	LinkID    string
	At        time.Time
	ClientIP  string
	UserAgent string
	Referrer  string
}
