package metrics

import (
	"database/sql"
	"time"
)

// RecordImageUpload counts a stored upload. size is ignored when err is set.
func RecordImageUpload(category string, size int64, err error) {
	if err != nil {
		ImageUploadsTotal.WithLabelValues(category, "failure").Inc()
		return
	}
	ImageUploadsTotal.WithLabelValues(category, "success").Inc()
	ImageUploadBytes.Observe(float64(size))
}

// RecordAutocrop counts an autocrop run by the label of the chosen method.
func RecordAutocrop(method string, duration time.Duration) {
	AutocropTotal.WithLabelValues(method).Inc()
	AutocropDuration.Observe(duration.Seconds())
}

// RecordThumbnails records the time spent on one image's thumbnails.
func RecordThumbnails(duration time.Duration) {
	ThumbnailDuration.Observe(duration.Seconds())
}

// RecordDuplicates records how many duplicates a fingerprint search kept.
func RecordDuplicates(n int) {
	DuplicateCandidates.Observe(float64(n))
}

// Story visit outcomes.
const (
	VisitCounted     = "counted"
	VisitRepeat      = "repeat"
	VisitBot         = "bot"
	VisitUnpublished = "unpublished"
)

// RecordStoryVisit counts a visit by outcome.
func RecordStoryVisit(outcome string) {
	StoryVisitsTotal.WithLabelValues(outcome).Inc()
}

// RecordHotnessDevalued adds the rows touched by a decay run.
func RecordHotnessDevalued(rows int64) {
	if rows > 0 {
		StoriesDevaluedTotal.Add(float64(rows))
	}
}

// RecordStagingImport counts one staging file by action.
func RecordStagingImport(action string) {
	StagingImportsTotal.WithLabelValues(action).Inc()
}

// RecordDBQuery records the duration of a repository operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats copies pool statistics into the gauges.
func UpdateDBConnectionStats(stats sql.DBStats) {
	DBConnectionsActive.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}
