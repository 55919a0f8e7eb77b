package pattern

import (
	"fmt"

	tt "github.com/gnolang/tgrit/types"
)

type fakeLanguage struct{}

func (fakeLanguage) Name() string { return "fake" }

type fakeBinding struct {
	src        string
	start, end uint32
	noRange    bool
	suppressed bool
}

var _ Binding = fakeBinding{}

func bind(src string, start, end uint32) fakeBinding {
	return fakeBinding{src: src, start: start, end: end}
}

func (b fakeBinding) Source() (string, bool) { return b.src, true }

func (b fakeBinding) CodeRange(Language) (tt.CodeRange, bool) {
	if b.noRange {
		return tt.CodeRange{}, false
	}
	return tt.NewCodeRange(b.start, b.end, b.src), true
}

func (b fakeBinding) ByteRange(Language) (tt.ByteRange, bool) {
	if b.noRange {
		return tt.ByteRange{}, false
	}
	return tt.NewByteRange(b.start, b.end), true
}

func (b fakeBinding) Position(Language) (tt.Range, bool) {
	if b.noRange {
		return tt.Range{}, false
	}
	return tt.Range{
		Start:     tt.Position{Line: 1, Column: b.start + 1},
		End:       tt.Position{Line: 1, Column: b.end + 1},
		StartByte: b.start,
		EndByte:   b.end,
	}, true
}

func (b fakeBinding) Text(Language) (string, bool) {
	if b.noRange {
		return "", false
	}
	return b.src[b.start:b.end], true
}

func (b fakeBinding) IsSuppressed(Language, string) bool { return b.suppressed }

func (b fakeBinding) LogEmptyFieldRewriteError(_ Language, logs *tt.AnalysisLogs) error {
	logs.Add(tt.AnalysisLog{
		Level:   tt.LevelWarn,
		Message: fmt.Sprintf("empty field rewrite at %d", b.start),
	})
	return nil
}

type fakeTree struct{ src string }

func (t fakeTree) Source() string { return t.src }

type fakePattern string

func (p fakePattern) Name() string { return string(p) }
