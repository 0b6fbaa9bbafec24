package optimizer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/ngtgo"
	"github.com/hupe1980/ngtgo/model"
)

// ErrAccuracyNotReached is returned by Execute when the rewritten graph
// loses more accuracy than RateAccuracyFrom allows.
var ErrAccuracyNotReached = errors.New("optimized graph does not reach the accuracy floor")

// resultSize is the number of neighbors measured per query.
const resultSize = 10

// measureEpsilon is the search epsilon used for all measurements.
const measureEpsilon = 0.1

// candidateEdgeSizes are the EdgeSizeForSearch values tried by
// AdjustSearchCoefficients. Values at or above the stored edge bound are
// replaced by 0 (all edges).
var candidateEdgeSizes = []int{5, 10, 20, 40, 60, 80, 120}

// Params configures the optimizer.
type Params struct {
	// Outgoing is the number of closest edges each node keeps in Execute.
	Outgoing int
	// Incoming is the number of edges per node mirrored as reverse edges
	// in Execute.
	Incoming int
	// NumQueries is the number of stored objects sampled as queries.
	NumQueries int

	// BaseAccuracyFrom and BaseAccuracyTo are the recall window targeted by
	// AdjustSearchCoefficients. The fastest edge size reaching
	// BaseAccuracyTo wins; failing that, the fastest reaching
	// BaseAccuracyFrom; failing that, the most accurate.
	BaseAccuracyFrom float64
	BaseAccuracyTo   float64

	// RateAccuracyFrom and RateAccuracyTo bound the recall ratio of the
	// rewritten to the original graph in Execute. Below From the rewrite
	// is rejected, below To it is accepted with a warning.
	RateAccuracyFrom float64
	RateAccuracyTo   float64

	// QueryTimeExpansion lets a more accurate edge size win when its mean
	// query time is within (1+QueryTimeExpansion) of the fastest one.
	QueryTimeExpansion float64
	// Margin enlarges the chosen edge size by this fraction as headroom.
	Margin float64
}

// DefaultParams returns the default optimizer parameters.
func DefaultParams() Params {
	return Params{
		Outgoing:           10,
		Incoming:           120,
		NumQueries:         100,
		BaseAccuracyFrom:   0.30,
		BaseAccuracyTo:     0.50,
		RateAccuracyFrom:   0.80,
		RateAccuracyTo:     0.90,
		QueryTimeExpansion: 0.2,
		Margin:             0.2,
	}
}

func (p Params) validate() error {
	switch {
	case p.Outgoing <= 0 || p.Incoming < 0:
		return fmt.Errorf("%w: outgoing %d, incoming %d", ngtgo.ErrInvalidArgument, p.Outgoing, p.Incoming)
	case p.NumQueries <= 0:
		return fmt.Errorf("%w: number of queries %d", ngtgo.ErrInvalidArgument, p.NumQueries)
	case !validRange(p.BaseAccuracyFrom, p.BaseAccuracyTo):
		return fmt.Errorf("%w: base accuracy range [%v, %v]", ngtgo.ErrInvalidArgument, p.BaseAccuracyFrom, p.BaseAccuracyTo)
	case !validRange(p.RateAccuracyFrom, p.RateAccuracyTo):
		return fmt.Errorf("%w: rate accuracy range [%v, %v]", ngtgo.ErrInvalidArgument, p.RateAccuracyFrom, p.RateAccuracyTo)
	case p.QueryTimeExpansion < 0 || p.Margin < 0:
		return fmt.Errorf("%w: query time expansion %v, margin %v", ngtgo.ErrInvalidArgument, p.QueryTimeExpansion, p.Margin)
	}
	return nil
}

func validRange(from, to float64) bool {
	return from > 0 && from <= to && to <= 1
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger enables logging. Optimizers are silent by default.
func WithLogger(l *ngtgo.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIndexOptions passes options to every index the optimizer opens.
func WithIndexOptions(opts ...ngtgo.Option) Option {
	return func(o *Optimizer) {
		o.indexOpts = append(o.indexOpts, opts...)
	}
}

// Optimizer tunes the graph and search parameters of saved indexes.
type Optimizer struct {
	params    Params
	logger    *ngtgo.Logger
	indexOpts []ngtgo.Option
}

// New creates an optimizer with DefaultParams.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		params: DefaultParams(),
		logger: ngtgo.NoopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Params returns the current parameters.
func (o *Optimizer) Params() Params { return o.params }

// Set validates and stores p for later calls.
func (o *Optimizer) Set(p Params) error {
	if err := p.validate(); err != nil {
		return err
	}
	o.params = p
	return nil
}

// Measurement is the accuracy and speed of one search configuration.
type Measurement struct {
	EdgeSize  int
	Recall    float64
	QueryTime time.Duration
}

// Adjustment is the outcome of AdjustSearchCoefficients.
type Adjustment struct {
	EdgeSizeForSearch int
	Measurements      []Measurement
}

// AdjustSearchCoefficients measures the index at path for a range of
// EdgeSizeForSearch values, picks one and persists it in the index.
func (o *Optimizer) AdjustSearchCoefficients(ctx context.Context, path string) (Adjustment, error) {
	idx, err := ngtgo.Open(ctx, path, o.indexOpts...)
	if err != nil {
		return Adjustment{}, err
	}
	defer idx.Close()

	w, err := o.workload(idx)
	if err != nil {
		return Adjustment{}, err
	}

	limit := idx.Property().EdgeSizeLimit()
	var ms []Measurement
	for _, size := range candidates(limit) {
		if err := ctx.Err(); err != nil {
			return Adjustment{}, err
		}
		if err := idx.SetEdgeSizeForSearch(size); err != nil {
			return Adjustment{}, err
		}
		m, err := w.measure(idx)
		if err != nil {
			return Adjustment{}, err
		}
		m.EdgeSize = size
		ms = append(ms, m)
		o.logger.Debug("measured edge size", "edge_size", size, "recall", m.Recall, "query_time", m.QueryTime)
	}

	chosen := withMargin(choose(ms, o.params), o.params.Margin, limit)
	if err := idx.SetEdgeSizeForSearch(chosen); err != nil {
		return Adjustment{}, err
	}
	if err := idx.Save(ctx, path); err != nil {
		return Adjustment{}, err
	}
	o.logger.Info("search coefficients adjusted", "index", path, "edge_size_for_search", chosen)
	return Adjustment{EdgeSizeForSearch: chosen, Measurements: ms}, nil
}

// Execute rewrites the graph of the index at inPath with the configured
// outgoing and incoming edge counts and saves the result as a new index at
// outPath. The input index is never written.
func (o *Optimizer) Execute(ctx context.Context, inPath, outPath string) (before, after Measurement, err error) {
	if err := ngtgo.CheckVacant(outPath, o.indexOpts...); err != nil {
		return before, after, err
	}
	idx, err := ngtgo.Open(ctx, inPath, o.indexOpts...)
	if err != nil {
		return before, after, err
	}
	defer idx.Close()

	w, err := o.workload(idx)
	if err != nil {
		return before, after, err
	}
	if before, err = w.measure(idx); err != nil {
		return before, after, err
	}
	if err := idx.ReconstructGraph(o.params.Outgoing, o.params.Incoming); err != nil {
		return before, after, err
	}
	if after, err = w.measure(idx); err != nil {
		return before, after, err
	}
	before.EdgeSize = idx.Property().EdgeSizeForSearch()
	after.EdgeSize = before.EdgeSize

	rate := recallRate(before.Recall, after.Recall)
	if rate < o.params.RateAccuracyFrom {
		return before, after, fmt.Errorf("%w: recall %.3f -> %.3f", ErrAccuracyNotReached, before.Recall, after.Recall)
	}
	if rate < o.params.RateAccuracyTo {
		o.logger.Warn("optimized graph lost accuracy", "before", before.Recall, "after", after.Recall)
	}

	if err := idx.Save(ctx, outPath); err != nil {
		return before, after, err
	}
	o.logger.Info("graph optimized",
		"in", inPath,
		"out", outPath,
		"outgoing", o.params.Outgoing,
		"incoming", o.params.Incoming,
		"recall_before", before.Recall,
		"recall_after", after.Recall,
	)
	return before, after, nil
}

// workload is a fixed set of queries with their exact neighbors.
type workload struct {
	queries [][]float32
	truth   [][]model.ObjectID
}

// workload samples up to NumQueries linked objects, evenly spread over
// the ID range, and computes their ground truth by linear search.
func (o *Optimizer) workload(idx *ngtgo.Index) (*workload, error) {
	g, err := idx.ExtractGraph()
	if err != nil {
		return nil, err
	}
	if g.Len() == 0 {
		return nil, fmt.Errorf("%w: index has no linked objects", ngtgo.ErrInvalidArgument)
	}

	n := min(o.params.NumQueries, g.Len())
	w := &workload{}
	for i := range n {
		id := g.Nodes[i*g.Len()/n].ID
		v, err := idx.Object(id)
		if err != nil {
			return nil, err
		}
		q := v.AsFloat32()
		res, err := idx.LinearSearch(q, resultSize, -1)
		if err != nil {
			return nil, err
		}
		truth := make([]model.ObjectID, len(res))
		for j, r := range res {
			truth[j] = r.ID
		}
		w.queries = append(w.queries, q)
		w.truth = append(w.truth, truth)
	}
	return w, nil
}

func (w *workload) measure(idx *ngtgo.Index) (Measurement, error) {
	recalls := make([]float64, len(w.queries))
	times := make([]float64, len(w.queries))
	for i, q := range w.queries {
		start := time.Now()
		res, err := idx.Search(q, resultSize, measureEpsilon, -1)
		if err != nil {
			return Measurement{}, err
		}
		times[i] = float64(time.Since(start))
		recalls[i] = recall(w.truth[i], res)
	}
	return Measurement{
		Recall:    stat.Mean(recalls, nil),
		QueryTime: time.Duration(stat.Mean(times, nil)),
	}, nil
}

func recall(truth []model.ObjectID, res []ngtgo.Result) float64 {
	if len(truth) == 0 {
		return 1
	}
	hits := 0
	for _, r := range res {
		if slices.Contains(truth, r.ID) {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

func recallRate(before, after float64) float64 {
	if before == 0 {
		return 1
	}
	return after / before
}

// candidates lists the distinct edge sizes worth measuring for a graph
// whose edge lists hold at most limit edges. 0 stands for all edges.
func candidates(limit int) []int {
	var out []int
	for _, c := range candidateEdgeSizes {
		if c < limit {
			out = append(out, c)
		}
	}
	return append(out, 0)
}

// choose picks the edge size of a measurement set.
func choose(ms []Measurement, p Params) int {
	if len(ms) == 0 {
		return 0
	}
	for _, floor := range []float64{p.BaseAccuracyTo, p.BaseAccuracyFrom} {
		var pass []Measurement
		for _, m := range ms {
			if m.Recall >= floor {
				pass = append(pass, m)
			}
		}
		if len(pass) == 0 {
			continue
		}
		fastest := slices.MinFunc(pass, func(a, b Measurement) int { return cmp.Compare(a.QueryTime, b.QueryTime) })
		bound := time.Duration(float64(fastest.QueryTime) * (1 + p.QueryTimeExpansion))
		best := fastest
		for _, m := range pass {
			if m.QueryTime <= bound && m.Recall > best.Recall {
				best = m
			}
		}
		return best.EdgeSize
	}
	return slices.MaxFunc(ms, func(a, b Measurement) int {
		if c := cmp.Compare(a.Recall, b.Recall); c != 0 {
			return c
		}
		return cmp.Compare(b.QueryTime, a.QueryTime)
	}).EdgeSize
}

// withMargin enlarges size by margin. Sizes reaching limit expand all edges.
func withMargin(size int, margin float64, limit int) int {
	if size == 0 {
		return 0
	}
	n := int(math.Ceil(float64(size) * (1 + margin)))
	if n >= limit {
		return 0
	}
	return n
}
