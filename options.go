package notifier

// options holds configuration resolved at New.
//
// Grounded on eventloop/options.go's LoopOption/resolveLoopOptions
// functional-options pattern.
type options struct {
	logger        Logger
	pollBatchSize int
}

// Option configures a Notifier instance.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithLogger sets the structured logger used for the notifier's slow-path
// diagnostics. The default is a disabled (no-op) Logger.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithPollBatchSize sets the capacity of the readiness-event batch buffer
// used by each pollCore.poll call. Larger batches amortize syscall
// overhead at the cost of more memory per Notifier; the default is 128.
func WithPollBatchSize(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.pollBatchSize = n
		}
	})
}

const defaultPollBatchSize = 128

func resolveOptions(opts []Option) *options {
	cfg := &options{
		logger:        defaultLogger(),
		pollBatchSize: defaultPollBatchSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
