// Package rouge implements the ROUGE summary-quality metric as an
// incremental accumulator: predictions and references are added batch by
// batch and scored once with bootstrap confidence intervals.
package rouge

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

// Score types
const (
	Rouge1    = "rouge1"
	Rouge2    = "rouge2"
	RougeL    = "rougeL"
	RougeLsum = "rougeLsum"
)

// DefaultTypes are the four sub-scores reported for a summarizer.
var DefaultTypes = []string{Rouge1, Rouge2, RougeL, RougeLsum}

// Bootstrap settings
const (
	DefaultSamples = 1000
	lowPercentile  = 2.5
	midPercentile  = 50
	highPercentile = 97.5
)

// Score is the precision/recall/f-measure triple for one pair or aggregate.
type Score struct {
	Precision float64
	Recall    float64
	FMeasure  float64
}

// AggregateScore is the bootstrap confidence interval of a score type.
type AggregateScore struct {
	Low  Score
	Mid  Score
	High Score
}

// Metric accumulates per-pair scores for a set of score types.
type Metric struct {
	types   []string
	samples int
	seed    uint64

	mu     sync.Mutex
	scores map[string][]Score
}

// Option configures a Metric.
type Option func(*Metric)

// WithSamples sets the number of bootstrap resamples.
func WithSamples(n int) Option {
	return func(m *Metric) {
		if n > 0 {
			m.samples = n
		}
	}
}

// WithSeed sets the resampling seed.
func WithSeed(seed uint64) Option {
	return func(m *Metric) { m.seed = seed }
}

// NewMetric creates a metric for the given score types (DefaultTypes when empty).
func NewMetric(types []string, opts ...Option) (*Metric, error) {
	if len(types) == 0 {
		types = DefaultTypes
	}
	for _, t := range types {
		if !validType(t) {
			return nil, errortypes.ValidationError(fmt.Errorf("unknown rouge type %q", t), "invalid metric")
		}
	}

	m := &Metric{
		types:   append([]string(nil), types...),
		samples: DefaultSamples,
		seed:    42,
		scores:  make(map[string][]Score, len(types)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AddBatch scores every (prediction, reference) pair and keeps the result.
func (m *Metric) AddBatch(predictions, references []string) error {
	if len(predictions) != len(references) {
		return errortypes.ValidationError(
			fmt.Errorf("%d predictions for %d references", len(predictions), len(references)),
			"misaligned metric batch")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range predictions {
		for _, t := range m.types {
			m.scores[t] = append(m.scores[t], ScorePair(t, references[i], predictions[i]))
		}
	}
	return nil
}

// Compute aggregates everything added so far and resets the accumulator.
func (m *Metric) Compute() (map[string]AggregateScore, error) {
	m.mu.Lock()
	scores := m.scores
	m.scores = make(map[string][]Score, len(m.types))
	m.mu.Unlock()

	if len(scores[m.types[0]]) == 0 {
		return nil, errortypes.ValidationError(errors.New("no predictions added"), "cannot compute metric")
	}

	rng := rand.New(rand.NewPCG(m.seed, m.seed^0x9e3779b97f4a7c15))
	result := make(map[string]AggregateScore, len(m.types))
	for _, t := range m.types {
		result[t] = bootstrap(scores[t], m.samples, rng)
	}
	return result, nil
}

// ScorePair scores one prediction against its reference.
func ScorePair(scoreType, reference, prediction string) Score {
	switch scoreType {
	case Rouge1:
		return scoreNgrams(Tokenize(reference), Tokenize(prediction), 1)
	case Rouge2:
		return scoreNgrams(Tokenize(reference), Tokenize(prediction), 2)
	case RougeL:
		return scoreLCS(Tokenize(reference), Tokenize(prediction))
	case RougeLsum:
		return scoreSummaryLCS(sentences(reference), sentences(prediction))
	}
	return Score{}
}

func validType(t string) bool {
	switch t {
	case Rouge1, Rouge2, RougeL, RougeLsum:
		return true
	}
	return false
}

// Tokenize lowercases text, replaces everything outside [a-z0-9] with
// spaces and splits on whitespace.
func Tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, strings.ToLower(text))
	return strings.Fields(mapped)
}

func sentences(text string) [][]string {
	var out [][]string
	for _, line := range strings.Split(text, "\n") {
		if tokens := Tokenize(line); len(tokens) > 0 {
			out = append(out, tokens)
		}
	}
	return out
}

func fmeasure(precision, recall float64) float64 {
	if precision+recall > 0 {
		return 2 * precision * recall / (precision + recall)
	}
	return 0
}

func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

func scoreNgrams(target, prediction []string, n int) Score {
	targetNgrams := ngrams(target, n)
	predictionNgrams := ngrams(prediction, n)

	overlap, targetCount, predictionCount := 0, 0, 0
	for gram, count := range targetNgrams {
		overlap += min(count, predictionNgrams[gram])
		targetCount += count
	}
	for _, count := range predictionNgrams {
		predictionCount += count
	}

	precision := float64(overlap) / float64(max(predictionCount, 1))
	recall := float64(overlap) / float64(max(targetCount, 1))
	return Score{Precision: precision, Recall: recall, FMeasure: fmeasure(precision, recall)}
}

func lcsTable(ref, can []string) [][]int {
	table := make([][]int, len(ref)+1)
	for i := range table {
		table[i] = make([]int, len(can)+1)
	}
	for i := 1; i <= len(ref); i++ {
		for j := 1; j <= len(can); j++ {
			if ref[i-1] == can[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else {
				table[i][j] = max(table[i-1][j], table[i][j-1])
			}
		}
	}
	return table
}

func scoreLCS(target, prediction []string) Score {
	if len(target) == 0 || len(prediction) == 0 {
		return Score{}
	}
	lcs := lcsTable(target, prediction)[len(target)][len(prediction)]
	precision := float64(lcs) / float64(len(prediction))
	recall := float64(lcs) / float64(len(target))
	return Score{Precision: precision, Recall: recall, FMeasure: fmeasure(precision, recall)}
}

// lcsIndices returns the indices into ref of one longest common subsequence.
func lcsIndices(ref, can []string) []int {
	table := lcsTable(ref, can)
	var indices []int
	i, j := len(ref), len(can)
	for i > 0 && j > 0 {
		switch {
		case ref[i-1] == can[j-1]:
			indices = append(indices, i-1)
			i--
			j--
		case table[i][j-1] > table[i-1][j]:
			j--
		default:
			i--
		}
	}
	return indices
}

// unionLCS returns the ref tokens covered by the LCS with any candidate sentence, in ref order.
func unionLCS(ref []string, candidates [][]string) []string {
	seen := make(map[int]struct{})
	for _, can := range candidates {
		for _, idx := range lcsIndices(ref, can) {
			seen[idx] = struct{}{}
		}
	}
	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = ref[idx]
	}
	return out
}

func scoreSummaryLCS(target, prediction [][]string) Score {
	refCounts := make(map[string]int)
	canCounts := make(map[string]int)
	m, n := 0, 0
	for _, s := range target {
		m += len(s)
		for _, tok := range s {
			refCounts[tok]++
		}
	}
	for _, s := range prediction {
		n += len(s)
		for _, tok := range s {
			canCounts[tok]++
		}
	}
	if m == 0 || n == 0 {
		return Score{}
	}

	hits := 0
	for _, ref := range target {
		for _, tok := range unionLCS(ref, prediction) {
			if canCounts[tok] > 0 && refCounts[tok] > 0 {
				hits++
				canCounts[tok]--
				refCounts[tok]--
			}
		}
	}

	precision := float64(hits) / float64(n)
	recall := float64(hits) / float64(m)
	return Score{Precision: precision, Recall: recall, FMeasure: fmeasure(precision, recall)}
}

// bootstrap resamples the per-pair scores with replacement and reports the
// 2.5th, 50th and 97.5th percentiles of the resampled means.
func bootstrap(scores []Score, samples int, rng *rand.Rand) AggregateScore {
	n := len(scores)
	precision := make([]float64, samples)
	recall := make([]float64, samples)
	fm := make([]float64, samples)

	for s := 0; s < samples; s++ {
		var sum Score
		for i := 0; i < n; i++ {
			pick := scores[rng.IntN(n)]
			sum.Precision += pick.Precision
			sum.Recall += pick.Recall
			sum.FMeasure += pick.FMeasure
		}
		precision[s] = sum.Precision / float64(n)
		recall[s] = sum.Recall / float64(n)
		fm[s] = sum.FMeasure / float64(n)
	}

	sort.Float64s(precision)
	sort.Float64s(recall)
	sort.Float64s(fm)

	at := func(p float64) Score {
		return Score{
			Precision: percentile(precision, p),
			Recall:    percentile(recall, p),
			FMeasure:  percentile(fm, p),
		}
	}
	return AggregateScore{Low: at(lowPercentile), Mid: at(midPercentile), High: at(highPercentile)}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
