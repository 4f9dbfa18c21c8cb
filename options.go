package fatfs

import "log/slog"

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	executable       bool
	autoFormat       bool
}

// Option configures a file system opened with Open.
type Option func(*options)

// WithMetricsCollector sets a metrics collector for operation statistics.
//
//	metrics := &fatfs.BasicMetricsCollector{}
//	fsys, _ := fatfs.Open(ctx, dev, fatfs.WithMetricsCollector(metrics))
//	// ... use fsys ...
//	stats := metrics.GetStats()
//	fmt.Printf("ops: %d, errors: %d\n", stats.OpCount, stats.OpErrors)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
//	logger := fatfs.NewJSONLogger(slog.LevelDebug)
//	fsys, _ := fatfs.Open(ctx, dev, fatfs.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithExecutableFiles gives newly created files the execute bit in addition to
// read and write.
func WithExecutableFiles() Option {
	return func(o *options) {
		o.executable = true
	}
}

// WithAutoFormat formats the device on Open when it holds no valid allocation table.
func WithAutoFormat() Option {
	return func(o *options) {
		o.autoFormat = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
