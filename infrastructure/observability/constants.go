package observability

// Metric name prefixes
const (
	MetricPrefix = "peerbets"
)

// Metric names
const (
	EventsCreatedTotal      = MetricPrefix + ".events.created_total"
	EventsResolvedTotal     = MetricPrefix + ".events.resolved_total"
	PlacementsAcceptedTotal = MetricPrefix + ".placements.accepted_total"
	PlacementsRejectedTotal = MetricPrefix + ".placements.rejected_total"
	PlacementConflictsTotal = MetricPrefix + ".placements.conflicts_total"
	StakedCentsTotal        = MetricPrefix + ".placements.staked_cents_total"
	DebtRecordsTotal        = MetricPrefix + ".settlement.debt_records_total"
	NATSMessagesPublished   = MetricPrefix + ".nats.messages_published_total"
	HTTPRequestDuration     = MetricPrefix + ".http.request_duration"
)

// Label keys
const (
	LabelKind      = "kind"
	LabelReason    = "reason"
	LabelCurrency  = "currency"
	LabelEventType = "event_type"
	LabelRoute     = "route"
	LabelMethod    = "method"
	LabelStatus    = "status"
)
