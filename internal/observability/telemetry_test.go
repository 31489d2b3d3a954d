package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestOptionsSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Options{}.sampler().Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Options{SampleRatio: 1}.sampler().Description())
	assert.Contains(t, Options{SampleRatio: 0.25}.sampler().Description(), "TraceIDRatioBased{0.25}")
}
