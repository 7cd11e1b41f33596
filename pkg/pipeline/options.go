package pipeline

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/askiada/xmletl/pkg/pipeline/model"
)

type Option func(p *Pipeline)

// WithLogger sets the handle used for the diagnostic stream. Units receive it scoped to their name.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock sets the clock used to time units.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithOptions attaches pipeline options such as the measure or the drawer.
func WithOptions(opts ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, opts...)
	}
}
