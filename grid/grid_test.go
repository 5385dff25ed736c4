package grid

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sartorproj/arimagrid/arima"
	"github.com/sartorproj/arimagrid/metric"
	"github.com/sartorproj/arimagrid/timeseries"
	"github.com/sartorproj/arimagrid/walkforward"
)

var errDiverged = errors.New("did not converge")

// scripted returns preset scores per order and records every call.
type scripted struct {
	mu     sync.Mutex
	calls  []arima.Order
	scores map[arima.Order]float64
	errs   map[arima.Order]error
}

func (s *scripted) Evaluate(_ context.Context, _ *timeseries.Series, order arima.Order) (*walkforward.Evaluation, error) {
	s.mu.Lock()
	s.calls = append(s.calls, order)
	s.mu.Unlock()

	if err, ok := s.errs[order]; ok {
		return nil, err
	}
	return &walkforward.Evaluation{Order: order, Score: s.scores[order]}, nil
}

type collector struct {
	outcomes []Outcome
}

func (c *collector) Attempt(o Outcome) error {
	c.outcomes = append(c.outcomes, o)
	return nil
}

func (c *collector) orders() []arima.Order {
	out := make([]arima.Order, len(c.outcomes))
	for i, o := range c.outcomes {
		out[i] = o.Order
	}
	return out
}

func order(p, d, q int) arima.Order {
	return arima.Order{P: p, D: d, Q: q}
}

func series() *timeseries.Series {
	return timeseries.NewNamed("test", []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100})
}

func TestCandidatesOrders(t *testing.T) {
	c := Candidates{P: []int{0, 1}, D: []int{0}, Q: []int{0, 1}}

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []arima.Order{order(0, 0, 0), order(0, 0, 1), order(1, 0, 0), order(1, 0, 1)}, c.Orders())
}

func TestCandidatesKeepGivenOrder(t *testing.T) {
	c := Candidates{P: []int{2, 0}, D: []int{1}, Q: []int{3, 1}}
	assert.Equal(t, []arima.Order{order(2, 1, 3), order(2, 1, 1), order(0, 1, 3), order(0, 1, 1)}, c.Orders())
}

func TestReferenceCandidates(t *testing.T) {
	c := ReferenceCandidates()
	require.NoError(t, c.Validate())
	assert.Equal(t, 112, c.Len())
	assert.Len(t, c.Orders(), 112)
	assert.Equal(t, order(0, 0, 0), c.Orders()[0])
	assert.Equal(t, order(10, 3, 3), c.Orders()[111])
}

func TestCandidatesValidate(t *testing.T) {
	testData := []struct {
		name string
		c    Candidates
		is   error
	}{
		{"empty p", Candidates{D: []int{0}, Q: []int{0}}, ErrNoCandidates},
		{"empty q", Candidates{P: []int{0}, D: []int{0}, Q: []int{}}, ErrNoCandidates},
		{"negative d", Candidates{P: []int{0}, D: []int{-1}, Q: []int{0}}, ErrInvalidCandidate},
	}

	for _, td := range testData {
		t.Run(td.name, func(t *testing.T) {
			assert.ErrorIs(t, td.c.Validate(), td.is)

			_, err := New(nil, &scripted{}).Search(context.Background(), series(), td.c)
			assert.ErrorIs(t, err, td.is)
		})
	}
}

func TestBestOffer(t *testing.T) {
	b := NewBest()
	assert.False(t, b.Found())
	assert.True(t, math.IsInf(b.Score, 1))

	assert.False(t, b.Offer(order(9, 9, 9), metric.Undefined()))
	assert.False(t, b.Found())

	assert.True(t, b.Offer(order(1, 0, 0), 5))
	assert.False(t, b.Offer(order(2, 0, 0), 5))
	assert.True(t, b.Offer(order(3, 0, 0), 4))
	assert.Equal(t, order(3, 0, 0), b.Order)
	assert.Equal(t, 4.0, b.Score)
}

func TestSearchIterationOrder(t *testing.T) {
	eval := &scripted{}
	obs := &collector{}
	c := Candidates{P: []int{0, 1}, D: []int{0}, Q: []int{0, 1}}

	res, err := New(zaptest.NewLogger(t), eval, WithObserver(obs)).Search(context.Background(), series(), c)
	require.NoError(t, err)

	want := []arima.Order{order(0, 0, 0), order(0, 0, 1), order(1, 0, 0), order(1, 0, 1)}
	assert.Equal(t, want, eval.calls)
	assert.Equal(t, want, obs.orders())
	assert.Equal(t, 4, res.Attempted)
	for i, o := range obs.outcomes {
		assert.Equal(t, i, o.Index)
	}
}

func TestSearchTieKeepsEarliest(t *testing.T) {
	c := Candidates{P: []int{0, 1, 2, 3}, D: []int{0}, Q: []int{0}}
	eval := &scripted{scores: map[arima.Order]float64{
		order(0, 0, 0): 5.0,
		order(1, 0, 0): 3.0,
		order(2, 0, 0): 3.0,
		order(3, 0, 0): 4.0,
	}}

	res, err := New(zaptest.NewLogger(t), eval).Search(context.Background(), series(), c)
	require.NoError(t, err)

	require.True(t, res.Best.Found())
	assert.Equal(t, order(1, 0, 0), res.Best.Order)
	assert.Equal(t, 3.0, res.Best.Score)
	assert.Len(t, res.Records, 4)
}

func TestSearchSkipsFailures(t *testing.T) {
	c := Candidates{P: []int{0, 1, 2}, D: []int{0}, Q: []int{0}}
	eval := &scripted{
		scores: map[arima.Order]float64{order(0, 0, 0): 8, order(2, 0, 0): 6},
		errs:   map[arima.Order]error{order(1, 0, 0): errDiverged},
	}
	obs := &collector{}

	res, err := New(zaptest.NewLogger(t), eval, WithObserver(obs)).Search(context.Background(), series(), c)
	require.NoError(t, err)

	assert.Equal(t, []Record{{order(0, 0, 0), 8}, {order(2, 0, 0), 6}}, res.Records)
	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, order(2, 0, 0), res.Best.Order)

	require.Len(t, obs.outcomes, 3)
	assert.False(t, obs.outcomes[1].OK())
	assert.ErrorIs(t, obs.outcomes[1].Err, errDiverged)
	assert.True(t, metric.IsUndefined(obs.outcomes[1].Score))
}

func TestSearchAllFail(t *testing.T) {
	c := Candidates{P: []int{0, 1}, D: []int{0}, Q: []int{0, 1}}
	errs := map[arima.Order]error{}
	for _, o := range c.Orders() {
		errs[o] = errDiverged
	}

	res, err := New(zaptest.NewLogger(t), &scripted{errs: errs}).Search(context.Background(), series(), c)
	require.NoError(t, err)

	assert.False(t, res.Best.Found())
	assert.True(t, math.IsInf(res.Best.Score, 1))
	assert.Empty(t, res.Records)
	assert.Equal(t, 4, res.Failed)
}

func TestSearchUndefinedScoreNeverBest(t *testing.T) {
	c := Candidates{P: []int{0, 1}, D: []int{0}, Q: []int{0}}
	eval := &scripted{scores: map[arima.Order]float64{
		order(0, 0, 0): metric.Undefined(),
		order(1, 0, 0): 12.5,
	}}

	res, err := New(nil, eval).Search(context.Background(), series(), c)
	require.NoError(t, err)

	assert.Len(t, res.Records, 2, "undefined scores are still logged")
	assert.Equal(t, order(1, 0, 0), res.Best.Order)

	only := Candidates{P: []int{0}, D: []int{0}, Q: []int{0}}
	res, err = New(nil, eval).Search(context.Background(), series(), only)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.False(t, res.Best.Found())
}

func TestSearchObserverErrorAborts(t *testing.T) {
	errDisk := errors.New("disk full")
	eval := &scripted{}
	calls := 0
	obs := ObserverFunc(func(Outcome) error {
		calls++
		if calls == 2 {
			return errDisk
		}
		return nil
	})

	_, err := New(nil, eval, WithObserver(obs)).Search(context.Background(), series(), ReferenceCandidates())
	assert.ErrorIs(t, err, errDisk)
	assert.Len(t, eval.calls, 2)
}

func TestSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	eval := &scripted{}
	obs := ObserverFunc(func(o Outcome) error {
		if o.Index == 1 {
			cancel()
		}
		return nil
	})

	_, err := New(nil, eval, WithObserver(obs)).Search(ctx, series(), ReferenceCandidates())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, eval.calls, 2)
}

func TestSearchCanceledDuringEvaluation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := Candidates{P: []int{0}, D: []int{0}, Q: []int{0}}

	_, err := New(nil, walkforward.NewEvaluator()).Search(ctx, series(), c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchParallelMatchesSequential(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i)
	}
	s := timeseries.New(values)
	c := Candidates{P: []int{0, 1, 2}, D: []int{0, 1}, Q: []int{0, 1}}
	evaluator := walkforward.NewEvaluator()

	seqObs := &collector{}
	seq, err := New(nil, evaluator, WithObserver(seqObs)).Search(context.Background(), s, c)
	require.NoError(t, err)

	parObs := &collector{}
	par, err := New(zaptest.NewLogger(t), evaluator, WithWorkers(4), WithObserver(parObs)).Search(context.Background(), s, c)
	require.NoError(t, err)

	assert.Equal(t, seq.Records, par.Records)
	assert.Equal(t, seq.Best, par.Best)
	assert.Equal(t, seq.Failed, par.Failed)
	assert.Equal(t, seqObs.orders(), parObs.orders())
}

func TestSearchEndToEnd(t *testing.T) {
	c := Candidates{P: []int{0}, D: []int{0}, Q: []int{0}}

	res, err := New(zaptest.NewLogger(t), walkforward.NewEvaluator()).Search(context.Background(), series(), c)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, order(0, 0, 0), res.Records[0].Order)
	assert.False(t, math.IsNaN(res.Records[0].Score))
	assert.InDelta(t, 50.0, res.Records[0].Score, 1e-9)

	require.True(t, res.Best.Found())
	assert.Equal(t, order(0, 0, 0), res.Best.Order)
}

func TestWithWorkersFloor(t *testing.T) {
	s := New(nil, &scripted{}, WithWorkers(0))
	assert.Equal(t, 1, s.workers)
}
