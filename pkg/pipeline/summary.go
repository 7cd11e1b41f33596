package pipeline

import (
	"log/slog"
)

// Summarizer is implemented by large values (tables) that must not be logged in full.
type Summarizer interface {
	Summary() string
}

// LogValue summarizes every value in p, sorted by key.
func (p Params) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(p))
	for _, k := range p.Keys() {
		attrs = append(attrs, slog.Any(k, summarize(p[k])))
	}

	return slog.GroupValue(attrs...)
}

func summarize(v any) any {
	if s, ok := v.(Summarizer); ok {
		return s.Summary()
	}

	return v
}

var _ slog.LogValuer = Params(nil)
