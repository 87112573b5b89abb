package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
)

type failingExporter struct{}

func (failingExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (failingExporter) Shutdown(ctx context.Context) error {
	return errors.New("collector unreachable")
}

func captureSlog(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestProvidersClose(t *testing.T) {
	table := []struct {
		name      string
		providers func() Providers
		warned    bool
	}{
		{
			name:      "no-op providers",
			providers: func() Providers { return Providers{} },
		},
		{
			name: "failed flush",
			providers: func() Providers {
				return Providers{TracerProvider: trace.NewTracerProvider(trace.WithSyncer(failingExporter{}))}
			},
			warned: true,
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			logs := captureSlog(t)
			test.providers().Close(time.Second)

			if test.warned {
				require.Contains(t, logs.String(), "failed to flush telemetry")
				require.Contains(t, logs.String(), "collector unreachable")
			} else {
				require.Empty(t, logs.String())
			}
		})
	}
}
