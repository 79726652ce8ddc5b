// Package metrics holds the Prometheus collectors of the api and worker.
//
// All collectors are registered with the default registry through promauto
// and served on /metrics.
//
// Example usage:
//
//	start := time.Now()
//	// ... run autocrop ...
//	metrics.RecordAutocrop(entity.CropFaces.Label(), time.Since(start))
package metrics
