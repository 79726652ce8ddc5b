package pagination

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_requests_total",
			Help: "Paginated listing requests by resource, status and page range",
		},
		[]string{"resource", "status", "page_range"},
	)

	listDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_duration_seconds",
			Help:    "Paginated listing duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2},
		},
		[]string{"resource"},
	)

	listTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "listing_last_total",
			Help: "Row count of the last listing per resource",
		},
		[]string{"resource"},
	)
)

// Listing observes one paginated request. It logs and records metrics
// when the request fails or completes.
//
//	l := pagination.Observe(logger, "images", reqID)
//	...
//	l.Done(params, len(dtos), total)
type Listing struct {
	logger   *slog.Logger
	resource string
	reqID    string
	start    time.Time
}

func Observe(logger *slog.Logger, resource, reqID string) *Listing {
	return &Listing{logger: logger, resource: resource, reqID: reqID, start: time.Now()}
}

// Invalid records a rejected query.
func (l *Listing) Invalid(err error) {
	listRequests.WithLabelValues(l.resource, "400", "").Inc()
	l.logger.Debug("listing rejected",
		slog.String("resource", l.resource),
		slog.String("request_id", l.reqID),
		slog.Any("error", err))
}

// Failed records a listing the store could not serve.
func (l *Listing) Failed(p Params, err error) {
	listRequests.WithLabelValues(l.resource, "500", pageRange(p.Page)).Inc()
	l.logger.Error("listing failed",
		slog.String("resource", l.resource),
		slog.String("request_id", l.reqID),
		slog.Int("page", p.Page),
		slog.Int("limit", p.Limit),
		slog.Any("error", err))
}

// Done records a served page.
func (l *Listing) Done(p Params, returned int, total int64) {
	d := time.Since(l.start)
	listRequests.WithLabelValues(l.resource, strconv.Itoa(200), pageRange(p.Page)).Inc()
	listDuration.WithLabelValues(l.resource).Observe(d.Seconds())
	listTotal.WithLabelValues(l.resource).Set(float64(total))
	l.logger.Info("listing served",
		slog.String("resource", l.resource),
		slog.String("request_id", l.reqID),
		slog.Int("page", p.Page),
		slog.Int("limit", p.Limit),
		slog.Int("returned", returned),
		slog.Int64("duration_ms", d.Milliseconds()))
}

func pageRange(page int) string {
	switch {
	case page <= 10:
		return "1-10"
	case page <= 50:
		return "11-50"
	case page <= 100:
		return "51-100"
	default:
		return "100+"
	}
}
