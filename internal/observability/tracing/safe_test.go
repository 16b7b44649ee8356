package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCredentials(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/settings/company/authentication/"),
		attribute.String("bindcredentials", "secret"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorKeepsOutermostMessage(t *testing.T) {
	err := SafeError(errors.New("persist company: pq: password authentication failed"))
	assert.EqualError(t, err, "persist company")
	assert.Nil(t, SafeError(nil))
}
