package pipeline

import "go.uber.org/zap"

// ProgressFunc is reported after every processed item: how many are done,
// how many there are in total, and the identifier of the last one.
type ProgressFunc func(done, total int, last string)

type settings struct {
	logger   *zap.Logger
	progress ProgressFunc
}

// Option configures a pipeline.
type Option func(*settings)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithProgress sets a progress callback.
func WithProgress(p ProgressFunc) Option {
	return func(s *settings) { s.progress = p }
}

func applyOptions(opts []Option) settings {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
