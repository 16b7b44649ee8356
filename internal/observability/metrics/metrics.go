package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	settingsUpdates metric.Int64Counter
	feedRequests    metric.Int64Counter
	carryOverRuns   metric.Int64Counter
	auditRecords    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "timeoff"
	}
	meter := provider.Meter(name)

	settingsUpdates, err := meter.Int64Counter("timeoff_settings_updates_total")
	if err != nil {
		return nil, err
	}
	feedRequests, err := meter.Int64Counter("timeoff_feed_requests_total")
	if err != nil {
		return nil, err
	}
	carryOverRuns, err := meter.Int64Counter("timeoff_carry_over_runs_total")
	if err != nil {
		return nil, err
	}
	auditRecords, err := meter.Int64Counter("timeoff_audit_records_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		settingsUpdates: settingsUpdates,
		feedRequests:    feedRequests,
		carryOverRuns:   carryOverRuns,
		auditRecords:    auditRecords,
	}, nil
}

// RecordSettingsUpdate counts settings pipeline runs by operation and final state.
func (m *Metrics) RecordSettingsUpdate(ctx context.Context, operation, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.settingsUpdates.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordFeedRequest counts served calendar feeds.
func (m *Metrics) RecordFeedRequest(ctx context.Context, feedType, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("feed_type", strings.TrimSpace(feedType)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.feedRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCarryOver counts carry-over runs.
func (m *Metrics) RecordCarryOver(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.carryOverRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuditRecords counts persisted audit rows.
func (m *Metrics) RecordAuditRecords(ctx context.Context, entityType string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("entity_type", strings.TrimSpace(entityType)))
	m.auditRecords.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"operation":   {},
	"outcome":     {},
	"feed_type":   {},
	"entity_type": {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
