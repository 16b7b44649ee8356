package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("operation", "update_company"),
		attribute.String("user_id", "456"),
		attribute.String("outcome", "success"),
	)
	require.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("operation"))
	assert.Contains(t, keys, attribute.Key("outcome"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSettingsUpdate(context.Background(), "update_company", "success")
		m.RecordFeedRequest(context.Background(), "calendar", "ok")
	})
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "timeoff"}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordCarryOver(context.Background(), "success")
	m.RecordAuditRecords(context.Background(), "COMPANY", 3)
}
