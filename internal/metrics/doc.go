// Package metrics defines the Prometheus collectors for the media librarian.
//
// All collectors are registered with the default registry via promauto at
// package init and exposed by the metrics HTTP endpoint configured in main.
// Metric names are prefixed with media_librarian_.
package metrics
