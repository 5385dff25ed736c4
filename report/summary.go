package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/arimagrid/arima"
	"github.com/sartorproj/arimagrid/grid"
	"github.com/sartorproj/arimagrid/metric"
	"github.com/sartorproj/arimagrid/timeseries"
)

// Summary describes one search run. Undefined scores are encoded as null.
type Summary struct {
	RunID        uuid.UUID       `json:"run_id"`
	Dataset      string          `json:"dataset"`
	Column       string          `json:"column"`
	Observations int             `json:"observations"`
	TrainSize    int             `json:"train_size"`
	TrainRatio   float64         `json:"train_ratio"`
	Series       SeriesStats     `json:"series"`
	Candidates   grid.Candidates `json:"candidates"`
	Attempted    int             `json:"attempted"`
	Failed       int             `json:"failed"`
	Records      []SummaryRecord `json:"records"`
	Best         *SummaryRecord  `json:"best"`
	BestModel    *ModelSummary   `json:"best_model,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	ElapsedMS    int64           `json:"elapsed_ms"`
}

// SummaryRecord is one evaluated order.
type SummaryRecord struct {
	P    int      `json:"p"`
	D    int      `json:"d"`
	Q    int      `json:"q"`
	MAPE *float64 `json:"mape"`
}

// SeriesStats describes the searched observations.
type SeriesStats struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// DescribeSeries summarizes s. An empty series gives zero stats.
func DescribeSeries(s *timeseries.Series) SeriesStats {
	if s.Len() == 0 {
		return SeriesStats{}
	}
	return SeriesStats{
		Mean:     s.Mean(),
		Variance: s.Variance(),
		Min:      s.Min(),
		Max:      s.Max(),
	}
}

// ModelSummary describes the best order refit on the whole series.
type ModelSummary struct {
	Order        string    `json:"order"`
	Observations int       `json:"observations"`
	AR           []float64 `json:"ar"`
	MA           []float64 `json:"ma"`
	Intercept    float64   `json:"intercept"`
	Variance     float64   `json:"variance"`
	ResidualRMS  float64   `json:"residual_rms"`
	NextForecast float64   `json:"next_forecast"`
}

// DescribeModel summarizes a fitted model, including its one-step forecast
// past the end of the fitted series.
func DescribeModel(m *arima.Model) (*ModelSummary, error) {
	next, err := m.Forecast()
	if err != nil {
		return nil, fmt.Errorf("describe ARIMA%s: %w", m.Order, err)
	}

	ms := &ModelSummary{
		Order:        m.Order.String(),
		Observations: m.NObs(),
		AR:           slices.Clone(m.ARCoeffs),
		MA:           slices.Clone(m.MACoeffs),
		Intercept:    m.Intercept,
		Variance:     m.Variance,
		NextForecast: next,
	}
	if r := m.Residuals(); len(r) > 0 {
		ms.ResidualRMS = math.Sqrt(floats.Dot(r, r) / float64(len(r)))
	}
	return ms, nil
}

// RunInfo identifies the data a search ran on.
type RunInfo struct {
	RunID        uuid.UUID
	Dataset      string
	Column       string
	Observations int
	TrainSize    int
	TrainRatio   float64
	Series       SeriesStats
	Candidates   grid.Candidates
	StartedAt    time.Time
}

// NewSummary builds the summary of res.
func NewSummary(info RunInfo, res *grid.Result) *Summary {
	s := &Summary{
		RunID:        info.RunID,
		Dataset:      info.Dataset,
		Column:       info.Column,
		Observations: info.Observations,
		TrainSize:    info.TrainSize,
		TrainRatio:   info.TrainRatio,
		Series:       info.Series,
		Candidates:   info.Candidates,
		Attempted:    res.Attempted,
		Failed:       res.Failed,
		Records:      make([]SummaryRecord, 0, len(res.Records)),
		StartedAt:    info.StartedAt,
		ElapsedMS:    res.Elapsed.Milliseconds(),
	}
	for _, r := range res.Records {
		s.Records = append(s.Records, summaryRecord(r))
	}
	if res.Best.Found() {
		best := summaryRecord(grid.Record{Order: res.Best.Order, Score: res.Best.Score})
		s.Best = &best
	}
	return s
}

func summaryRecord(r grid.Record) SummaryRecord {
	sr := SummaryRecord{P: r.Order.P, D: r.Order.D, Q: r.Order.Q}
	if !metric.IsUndefined(r.Score) {
		score := r.Score
		sr.MAPE = &score
	}
	return sr
}

// WriteFile writes the summary as indented JSON, creating parent directories.
func (s *Summary) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
