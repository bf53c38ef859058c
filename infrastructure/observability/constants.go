package observability

// Metric name prefixes
const (
	MetricPrefix = "pcbank"
)

// Metric names
const (
	OperationsTotal   = MetricPrefix + ".operations.total"
	OperationDuration = MetricPrefix + ".operations.duration"

	EventsPublishedTotal = MetricPrefix + ".events.published_total"

	AuditEntriesDroppedTotal = MetricPrefix + ".audit.entries_dropped_total"

	StatsCacheLookupsTotal = MetricPrefix + ".stats_cache.lookups_total"

	SweepRemovedTotal = MetricPrefix + ".sweep.removed_total"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelReason    = "reason"
	LabelEventType = "event_type"
	LabelResult    = "result"
	LabelKind      = "kind"
)

// Outcome values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
