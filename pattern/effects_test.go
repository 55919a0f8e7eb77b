package pattern

import (
	"errors"
	"strings"
	"testing"

	tt "github.com/gnolang/tgrit/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var effectSource = "0123456789abcdefghij"

func rewriteOf(start, end uint32) Effect {
	return Effect{Binding: bind(effectSource, start, end), Pattern: fakePattern("rewrite")}
}

func rangesOf(t *testing.T, effects []Effect) []tt.ByteRange {
	t.Helper()
	out := make([]tt.ByteRange, 0, len(effects))
	for _, e := range effects {
		r, ok := e.Binding.ByteRange(fakeLanguage{})
		require.True(t, ok)
		out = append(out, r)
	}
	return out
}

func TestGetTopLevelEffects(t *testing.T) {
	t.Parallel()
	whole := tt.NewCodeRange(0, uint32(len(effectSource)), effectSource)

	tests := []struct {
		name    string
		effects []Effect
		want    []tt.ByteRange
		wantErr error
	}{
		{
			name:    "disjoint effects are both kept in start order",
			effects: []Effect{rewriteOf(10, 15), rewriteOf(0, 5)},
			want:    []tt.ByteRange{{Start: 0, End: 5}, {Start: 10, End: 15}},
		},
		{
			name:    "nested effect is dropped",
			effects: []Effect{rewriteOf(0, 10), rewriteOf(2, 5)},
			want:    []tt.ByteRange{{Start: 0, End: 10}},
		},
		{
			name:    "nested effect with shared end is dropped",
			effects: []Effect{rewriteOf(0, 10), rewriteOf(4, 10)},
			want:    []tt.ByteRange{{Start: 0, End: 10}},
		},
		{
			name:    "adjacent effects do not overlap",
			effects: []Effect{rewriteOf(0, 5), rewriteOf(5, 8)},
			want:    []tt.ByteRange{{Start: 0, End: 5}, {Start: 5, End: 8}},
		},
		{
			name:    "partial overlap fails",
			effects: []Effect{rewriteOf(0, 5), rewriteOf(3, 8)},
			wantErr: ErrOverlappingEffects,
		},
		{
			name:    "partial overlap with a nested interval fails",
			effects: []Effect{rewriteOf(0, 3), rewriteOf(5, 8), rewriteOf(2, 10)},
			wantErr: ErrOverlappingEffects,
		},
		{
			name:    "no effects",
			effects: nil,
			want:    []tt.ByteRange{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logs tt.AnalysisLogs
			got, err := GetTopLevelEffects(tc.effects, nil, whole, fakeLanguage{}, &logs)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, rangesOf(t, got))
		})
	}
}

func TestGetTopLevelEffectsSkipsSuppressedMemo(t *testing.T) {
	t.Parallel()
	whole := tt.NewCodeRange(0, uint32(len(effectSource)), effectSource)
	replacement := "done"

	memo := map[tt.CodeRange]*string{
		tt.NewCodeRange(0, 5, effectSource):   nil,
		tt.NewCodeRange(10, 15, effectSource): &replacement,
	}
	effects := []Effect{rewriteOf(0, 5), rewriteOf(10, 15), rewriteOf(16, 18)}

	var logs tt.AnalysisLogs
	got, err := GetTopLevelEffects(effects, memo, whole, fakeLanguage{}, &logs)
	require.NoError(t, err)
	assert.Equal(t, []tt.ByteRange{{Start: 10, End: 15}, {Start: 16, End: 18}}, rangesOf(t, got))
}

func TestGetTopLevelEffectsDropsEmptyFieldRewrite(t *testing.T) {
	t.Parallel()
	whole := tt.NewCodeRange(0, uint32(len(effectSource)), effectSource)
	missing := fakeBinding{src: effectSource, start: 4, noRange: true}

	effects := []Effect{rewriteOf(0, 3), {Binding: missing, Pattern: fakePattern("rewrite")}}

	var logs tt.AnalysisLogs
	got, err := GetTopLevelEffects(effects, nil, whole, fakeLanguage{}, &logs)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.Entries()[0].Message, "empty field rewrite")
}

func TestGetTopLevelEffectsRestrictsToRange(t *testing.T) {
	t.Parallel()
	other := strings.Clone(effectSource)

	effects := []Effect{
		rewriteOf(0, 3),
		rewriteOf(4, 8),
		rewriteOf(12, 18),
		{Binding: bind(other, 5, 7), Pattern: fakePattern("elsewhere")},
	}
	bounds := tt.NewCodeRange(4, 10, effectSource)

	var logs tt.AnalysisLogs
	got, err := GetTopLevelEffects(effects, nil, bounds, fakeLanguage{}, &logs)
	require.NoError(t, err)
	assert.Equal(t, []tt.ByteRange{{Start: 4, End: 8}}, rangesOf(t, got))
}

type span struct{ start, end uint32 }

func (s span) Interval() (uint32, uint32) { return s.start, s.end }

func TestEarliestDeadlineSort(t *testing.T) {
	t.Parallel()

	items := []span{{10, 15}, {2, 5}, {0, 10}, {5, 5}}
	require.True(t, EarliestDeadlineSort(items))
	assert.Equal(t, []span{{5, 5}, {2, 5}, {0, 10}, {10, 15}}, items)

	assert.Equal(t, []span{{0, 10}, {10, 15}}, TopLevelIntervalsInRange(items, 0, 20))
	assert.Equal(t, []span{{2, 5}}, TopLevelIntervalsInRange(items, 1, 9))

	assert.False(t, EarliestDeadlineSort([]span{{0, 5}, {3, 8}}))
	assert.True(t, EarliestDeadlineSort([]span{{0, 5}, {0, 5}}))
}
