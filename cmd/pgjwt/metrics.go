package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrEthical07/pgjwt"
	"github.com/MrEthical07/pgjwt/metrics/export/otel"
	"github.com/MrEthical07/pgjwt/metrics/export/prometheus"
)

const (
	metricsPrometheus = "prometheus"
	metricsOTel       = "otel"
)

func dumpMetrics(w io.Writer, v *pgjwt.Validator, format string) error {
	switch format {
	case "":
		return nil
	case metricsPrometheus:
		_, err := io.WriteString(w, prometheus.NewPrometheusExporter(v).Render())
		return err
	case metricsOTel:
		return dumpOTel(w, v)
	default:
		return fmt.Errorf("unknown metrics format %q", format)
	}
}

// dumpOTel collects once through a manual reader and prints name=value lines sorted by name.
func dumpOTel(w io.Writer, v *pgjwt.Validator) error {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	exp, err := otel.NewOTelExporter(provider.Meter("github.com/MrEthical07/pgjwt/cmd/pgjwt"), v)
	if err != nil {
		return err
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	values := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			}
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s=%d\n", name, values[name]); err != nil {
			return err
		}
	}
	return nil
}
