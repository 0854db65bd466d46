package analytics

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer is notified about recording outcomes.
type Observer interface {
	ClickRecorded()
	ClickFailed()
}

type nopObserver struct{}

func (nopObserver) ClickRecorded() {}
func (nopObserver) ClickFailed()   {}

// Recorder turns a visit into a Click and persists it.
type Recorder struct {
	sink     Store
	locator  Locator
	observer Observer
	logger   *zap.Logger
}

// NewRecorder creates a recorder writing to sink. A nil locator resolves
// nothing and a nil observer is ignored.
func NewRecorder(sink Store, locator Locator, observer Observer, logger *zap.Logger) *Recorder {
	if locator == nil {
		locator = UnknownLocator{}
	}

	if observer == nil {
		observer = nopObserver{}
	}

	return &Recorder{
		sink:     sink,
		locator:  locator,
		observer: observer,
		logger:   logger,
	}
}

// Record builds and stores exactly one click for the visit. Geolocation
// failures are logged and leave the location unknown; a storage failure is
// returned to the caller, which is expected to log it.
func (r *Recorder) Record(ctx context.Context, visit Visit) error {
	click := BuildClick(visit)

	loc, err := r.locator.Locate(ctx, click.IP)
	if err != nil {
		r.logger.Debug("geolocation failed",
			zap.String("linkId", visit.LinkID),
			zap.String("ip", click.IP),
			zap.Error(err),
		)

		loc = UnknownLocation
	}

	click.Country = orUnknown(loc.Country)
	click.City = orUnknown(loc.City)
	click.Region = orUnknown(loc.Region)

	if err := r.sink.SaveClick(ctx, click); err != nil {
		r.observer.ClickFailed()

		return err
	}

	r.observer.ClickRecorded()

	return nil
}

// BuildClick derives a click from request metadata without geolocation.
func BuildClick(visit Visit) *Click {
	device := ParseUserAgent(visit.UserAgent)

	at := visit.At
	if at.IsZero() {
		at = time.Now()
	}

	ip := strings.TrimSpace(visit.ClientIP)
	if ip == "" {
		ip = Unknown
	}

	referrer := strings.TrimSpace(visit.Referrer)
	if referrer == "" {
		referrer = DirectReferrer
	}

	return &Click{
		ID:         uuid.NewString(),
		LinkID:     visit.LinkID,
		ClickedAt:  at.UTC(),
		IP:         ip,
		UserAgent:  visit.UserAgent,
		Referrer:   referrer,
		Browser:    device.Browser,
		OS:         device.OS,
		DeviceType: device.Type,
		Country:    Unknown,
		City:       Unknown,
		Region:     Unknown,
	}
}
