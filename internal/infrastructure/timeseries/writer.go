// Package timeseries writes engine measurements (anomalies, bills) to a
// time-series store for dashboards.
package timeseries

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
)

// Point is one measurement sample
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]any
	Time        time.Time
}

// PointWriter stores points
type PointWriter interface {
	Write(ctx context.Context, points ...Point) error
	Close()
}

// InfluxConfig holds InfluxDB v2 connection settings
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxWriter writes points synchronously through the blocking write API,
// so a failed write surfaces to the caller instead of being dropped.
type InfluxWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   *zap.Logger
}

// NewInfluxWriter creates the client and verifies the server is healthy
func NewInfluxWriter(ctx context.Context, cfg InfluxConfig, logger *zap.Logger) (*InfluxWriter, error) {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(10))

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB at %s: %w", cfg.URL, err)
	}

	logger.Info("InfluxDB writer ready",
		zap.String("url", cfg.URL),
		zap.String("org", cfg.Org),
		zap.String("bucket", cfg.Bucket),
	)
	return &InfluxWriter{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger:   logger,
	}, nil
}

// Write sends the points in one request
func (w *InfluxWriter) Write(ctx context.Context, points ...Point) error {
	if len(points) == 0 {
		return nil
	}
	pts := make([]*write.Point, len(points))
	for i, p := range points {
		pts[i] = write.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time)
	}
	if err := w.writeAPI.WritePoint(ctx, pts...); err != nil {
		return fmt.Errorf("influx write of %d points: %w", len(points), err)
	}
	return nil
}

// Close releases the client
func (w *InfluxWriter) Close() {
	w.client.Close()
}

// NopWriter discards points; used when no time-series store is configured
type NopWriter struct{}

func (NopWriter) Write(context.Context, ...Point) error { return nil }
func (NopWriter) Close()                                {}

var (
	_ PointWriter = (*InfluxWriter)(nil)
	_ PointWriter = NopWriter{}
)
