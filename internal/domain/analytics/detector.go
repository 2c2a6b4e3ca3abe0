package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/domain/usage"
)

// minStdDev treats smaller deviations as zero: the baseline is flat and no
// reading can be judged against it.
const minStdDev = 1e-9

// DetectorConfig holds the anomaly detection parameters
type DetectorConfig struct {
	// SigmaThreshold is k in usage > mean + k*std
	SigmaThreshold float64
	// MinHistory is the minimum number of readings, including the evaluated
	// one, before a reading can be judged
	MinHistory int
}

// DefaultDetectorConfig returns default configuration
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		SigmaThreshold: 2.0,
		MinHistory:     5,
	}
}

// Validate checks the configuration
func (c DetectorConfig) Validate() error {
	if c.SigmaThreshold <= 0 {
		return shared.NewDomainError(shared.CodeValidation, "Sigma threshold must be positive")
	}
	if c.MinHistory < 2 {
		return shared.NewDomainError(shared.CodeValidation, "Minimum history must be at least 2 readings")
	}
	return nil
}

// Detector flags readings that exceed their trailing baseline
type Detector struct {
	config DetectorConfig
}

// NewDetector creates a detector, falling back to defaults for an invalid config
func NewDetector(config DetectorConfig) *Detector {
	if config.Validate() != nil {
		config = DefaultDetectorConfig()
	}
	return &Detector{config: config}
}

// Config returns the detector configuration
func (d *Detector) Config() DetectorConfig {
	return d.config
}

// Detect evaluates every reading against the mean and population standard
// deviation of the readings up to and including its own date. Only excess
// usage is flagged. Readings with too little history or a flat baseline are
// skipped. The result is ordered by date; duplicates against already stored
// anomalies are resolved by the repository.
func (d *Detector) Detect(customerID uuid.UUID, records []usage.UsageRecord, detectedAt time.Time) []*Anomaly {
	ordered := make([]usage.UsageRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	var (
		trailing RunningStats
		found    []*Anomaly
	)
	for i := range ordered {
		x := ordered[i].UsageCCF
		trailing.Add(x)
		if trailing.Count() < d.config.MinHistory {
			continue
		}
		mean, std := trailing.Mean(), trailing.StdDev()
		if std < minStdDev {
			continue
		}
		if x > mean+d.config.SigmaThreshold*std {
			found = append(found, NewAnomaly(customerID, ordered[i].Date, x, mean, std, detectedAt))
		}
	}
	return found
}
