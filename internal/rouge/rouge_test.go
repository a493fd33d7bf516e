package rouge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

const eps = 1e-9

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "it", "s", "2024"}, Tokenize("Hello, World! It's 2024"))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestScorePair(t *testing.T) {
	tests := []struct {
		name       string
		scoreType  string
		reference  string
		prediction string
		want       Score
	}{
		{"identical", Rouge1, "the cat sat", "The cat sat.", Score{1, 1, 1}},
		{"rouge1 partial", Rouge1, "the cat sat on the mat", "the cat sat", Score{1, 0.5, 2.0 / 3}},
		{"rouge2 partial", Rouge2, "the cat sat on the mat", "the cat sat", Score{1, 0.4, 2 * 0.4 / 1.4}},
		{"rougeL", RougeL, "a b c d", "b a d", Score{2.0 / 3, 0.5, 2 * (2.0 / 3) * 0.5 / (2.0/3 + 0.5)}},
		{"rougeL order sensitive", RougeL, "c d a b", "a b\nc d", Score{0.5, 0.5, 0.5}},
		{"rougeLsum union", RougeLsum, "c d a b", "a b\nc d", Score{1, 1, 1}},
		{"no overlap", Rouge1, "alpha", "beta", Score{}},
		{"empty prediction", RougeL, "alpha", "", Score{}},
		{"empty both", Rouge2, "", "", Score{}},
		{"empty lsum", RougeLsum, "a\n\n", "\n", Score{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ScorePair(test.scoreType, test.reference, test.prediction)
			assert.InDelta(t, test.want.Precision, got.Precision, eps)
			assert.InDelta(t, test.want.Recall, got.Recall, eps)
			assert.InDelta(t, test.want.FMeasure, got.FMeasure, eps)
		})
	}
}

func TestSummaryLCSCountsTokensOnce(t *testing.T) {
	// "a" appears once in the prediction, so only one reference "a" can hit.
	got := ScorePair(RougeLsum, "a b\na c", "a")
	assert.InDelta(t, 1.0, got.Precision, eps)
	assert.InDelta(t, 0.25, got.Recall, eps)
}

func TestMetricCompute(t *testing.T) {
	m, err := NewMetric(nil)
	require.NoError(t, err)

	require.NoError(t, m.AddBatch([]string{"the cat sat", "a dog ran"}, []string{"the cat sat", "a dog ran"}))
	require.NoError(t, m.AddBatch([]string{"the cat sat"}, []string{"the cat sat"}))

	scores, err := m.Compute()
	require.NoError(t, err)
	require.Len(t, scores, 4)
	for _, name := range DefaultTypes {
		agg := scores[name]
		assert.InDelta(t, 1.0, agg.Low.FMeasure, eps, name)
		assert.InDelta(t, 1.0, agg.Mid.FMeasure, eps, name)
		assert.InDelta(t, 1.0, agg.High.FMeasure, eps, name)
	}

	// Compute resets the accumulator.
	_, err = m.Compute()
	assert.True(t, errortypes.IsValidationError(err))
}

func TestMetricBootstrapInterval(t *testing.T) {
	predictions := []string{"the cat sat", "a dog", "birds fly south", "nothing in common", "the mat"}
	references := []string{"the cat sat on the mat", "a dog barked", "birds fly south", "something else", "on the mat"}

	run := func() map[string]AggregateScore {
		m, err := NewMetric([]string{Rouge1, RougeL}, WithSamples(200), WithSeed(7))
		require.NoError(t, err)
		require.NoError(t, m.AddBatch(predictions, references))
		scores, err := m.Compute()
		require.NoError(t, err)
		return scores
	}

	first, second := run(), run()
	assert.Equal(t, first, second, "same seed must give same intervals")

	agg := first[Rouge1]
	assert.LessOrEqual(t, agg.Low.FMeasure, agg.Mid.FMeasure)
	assert.LessOrEqual(t, agg.Mid.FMeasure, agg.High.FMeasure)
	assert.Less(t, agg.Low.FMeasure, agg.High.FMeasure)

	var mean float64
	for i := range predictions {
		mean += ScorePair(Rouge1, references[i], predictions[i]).FMeasure
	}
	mean /= float64(len(predictions))
	assert.InDelta(t, mean, agg.Mid.FMeasure, 0.1)
}

func TestMetricCommutativeOverBatches(t *testing.T) {
	m1, _ := NewMetric([]string{Rouge2}, WithSamples(1))
	m2, _ := NewMetric([]string{Rouge2}, WithSamples(1))

	require.NoError(t, m1.AddBatch([]string{"a b c", "x y"}, []string{"a b d", "x y"}))
	require.NoError(t, m2.AddBatch([]string{"a b c"}, []string{"a b d"}))
	require.NoError(t, m2.AddBatch([]string{"x y"}, []string{"x y"}))

	s1, err := m1.Compute()
	require.NoError(t, err)
	s2, err := m2.Compute()
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestMetricErrors(t *testing.T) {
	_, err := NewMetric([]string{"bleu"})
	assert.True(t, errortypes.IsValidationError(err))

	m, err := NewMetric(nil)
	require.NoError(t, err)
	assert.True(t, errortypes.IsValidationError(m.AddBatch([]string{"a"}, nil)))

	_, err = m.Compute()
	assert.True(t, errortypes.IsValidationError(err))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, percentile(sorted, 0), eps)
	assert.InDelta(t, 2.5, percentile(sorted, 50), eps)
	assert.InDelta(t, 4.0, percentile(sorted, 100), eps)
	assert.InDelta(t, 1.075, percentile(sorted, 2.5), eps)
	assert.True(t, math.Abs(percentile(nil, 50)) < eps)
}
