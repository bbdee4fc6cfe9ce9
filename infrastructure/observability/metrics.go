package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"peerbets/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the betting service.
// A nil or disabled provider silently drops every recording.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	eventsCreatedCounter      metric.Int64Counter
	eventsResolvedCounter     metric.Int64Counter
	placementsAcceptedCounter metric.Int64Counter
	placementsRejectedCounter metric.Int64Counter
	placementConflictsCounter metric.Int64Counter
	stakedCentsCounter        metric.Int64Counter
	debtRecordsCounter        metric.Int64Counter
	natsMessagesPublished     metric.Int64Counter
	httpRequestDurationHist   metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the OpenTelemetry meter provider and instruments
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.start(res, reader); err != nil {
		return err
	}
	otel.SetMeterProvider(mp.meterProvider)

	log.Info("Metrics provider initialized")
	return nil
}

// start builds the meter provider around reader. Caller holds mp.mu.
func (mp *MetricsProvider) start(res *resource.Resource, reader sdkmetric.Reader) error {
	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("peerbets")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.eventsCreatedCounter, EventsCreatedTotal, "Total number of wagers and dares opened"},
		{&mp.eventsResolvedCounter, EventsResolvedTotal, "Total number of events resolved"},
		{&mp.placementsAcceptedCounter, PlacementsAcceptedTotal, "Total number of accepted placements"},
		{&mp.placementsRejectedCounter, PlacementsRejectedTotal, "Total number of rejected placements"},
		{&mp.placementConflictsCounter, PlacementConflictsTotal, "Total number of placements that lost a race and must be retried"},
		{&mp.stakedCentsCounter, StakedCentsTotal, "Total amount staked on wagers in minor currency units"},
		{&mp.debtRecordsCounter, DebtRecordsTotal, "Total number of debt records produced by settlement"},
		{&mp.natsMessagesPublished, NATSMessagesPublished, "Total number of NATS messages published"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	mp.httpRequestDurationHist, err = mp.meter.Float64Histogram(
		HTTPRequestDuration,
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordEventCreated records a newly opened event
func (mp *MetricsProvider) RecordEventCreated(kind string) {
	if !mp.isEnabled() {
		return
	}
	mp.eventsCreatedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelKind, kind)))
}

// RecordEventResolved records a resolution and the debt records it produced
func (mp *MetricsProvider) RecordEventResolved(kind string, debtRecords int) {
	if !mp.isEnabled() {
		return
	}
	attrs := metric.WithAttributes(attribute.String(LabelKind, kind))
	mp.eventsResolvedCounter.Add(context.Background(), 1, attrs)
	mp.debtRecordsCounter.Add(context.Background(), int64(debtRecords), attrs)
}

// RecordPlacementAccepted records an accepted placement and, for wagers, its stake
func (mp *MetricsProvider) RecordPlacementAccepted(kind, currency string, amount int64) {
	if !mp.isEnabled() {
		return
	}
	mp.placementsAcceptedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelKind, kind)))
	if amount > 0 {
		mp.stakedCentsCounter.Add(context.Background(), amount,
			metric.WithAttributes(attribute.String(LabelCurrency, currency)))
	}
}

// RecordPlacementRejected records a rejected placement by reason
func (mp *MetricsProvider) RecordPlacementRejected(reason string) {
	if !mp.isEnabled() {
		return
	}
	mp.placementsRejectedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelReason, reason)))
}

// RecordPlacementConflict records a placement that lost a concurrency race
func (mp *MetricsProvider) RecordPlacementConflict() {
	if !mp.isEnabled() {
		return
	}
	mp.placementConflictsCounter.Add(context.Background(), 1)
}

// RecordEventPublished records a message published to NATS
func (mp *MetricsProvider) RecordEventPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsMessagesPublished.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)))
}

// RecordHTTPRequest records the duration of a served request
func (mp *MetricsProvider) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	mp.httpRequestDurationHist.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(
			attribute.String(LabelRoute, route),
			attribute.String(LabelMethod, method),
			attribute.String(LabelStatus, strconv.Itoa(status)),
		),
	)
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}
