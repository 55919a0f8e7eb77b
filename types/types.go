package types

import "strings"

// VariableMatch is the report of every location a pattern variable bound to.
type VariableMatch struct {
	Name       string
	ScopedName string
	Ranges     []Range
}

func NewVariableMatch(name, scopedName string, ranges []Range) VariableMatch {
	return VariableMatch{
		Name:       name,
		ScopedName: scopedName,
		Ranges:     ranges,
	}
}

// LogLevel is the severity of an AnalysisLog.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// AnalysisLog is a non-fatal diagnostic produced while matching.
type AnalysisLog struct {
	Level    LogLevel
	Message  string
	File     string
	Position *Position
	Syntax   string
}

// AnalysisLogs collects diagnostics. The zero value is ready to use.
type AnalysisLogs struct {
	entries []AnalysisLog
}

func (l *AnalysisLogs) Add(entry AnalysisLog) {
	l.entries = append(l.entries, entry)
}

func (l *AnalysisLogs) Entries() []AnalysisLog {
	return l.entries
}

func (l *AnalysisLogs) Len() int {
	return len(l.entries)
}

func (l *AnalysisLogs) String() string {
	var sb strings.Builder
	for i, e := range l.entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Level.String())
		sb.WriteString(": ")
		if e.File != "" {
			sb.WriteString(e.File)
			if e.Position != nil {
				sb.WriteByte(':')
				sb.WriteString(e.Position.String())
			}
			sb.WriteString(": ")
		}
		sb.WriteString(e.Message)
	}
	return sb.String()
}
