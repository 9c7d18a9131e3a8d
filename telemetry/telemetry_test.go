/* telemetry_test.go
 * Contains unit tests for telemetry.go
 */

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_ExportsToWriter(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(&buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "interaction register")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "interaction register")
	assert.Contains(t, buf.String(), ServiceName)
}

func TestSetup_NoExporter(t *testing.T) {
	shutdown, err := Setup(nil)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "interaction cancel")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}
