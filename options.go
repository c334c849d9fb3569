package framecore

import "github.com/hupe1980/framecore/resource"

type options struct {
	logger    *Logger
	observer  MetricsObserver
	resources *resource.Controller
}

// Option configures New.
type Option func(*options)

// WithLogger sets the engine logger. The worker pool logs through it as
// well. If nil, a text logger at the configured level is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsObserver registers an observer for frame, drain, and rejection
// events. If nil, NoopMetricsObserver is used.
func WithMetricsObserver(mo MetricsObserver) Option {
	return func(o *options) {
		o.observer = mo
	}
}

// WithResourceController charges the engine's memory reservation against rc
// instead of a controller built from Config.MemoryLimitBytes.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}
	if o.observer == nil {
		o.observer = NoopMetricsObserver{}
	}
	return o
}
