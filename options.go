package mdstream

import (
	"github.com/pion/logging"
)

// Options configure a Session.
type Options struct {
	Config   *Config
	Registry Registry
	OnError  ErrorHandler
	Logger   logging.LeveledLogger

	html     *bool
	document *bool
}

// Option is a function that configures Options.
type Option func(*Options)

// WithConfig sets a custom Config.
func WithConfig(config *Config) Option {
	return func(opts *Options) {
		opts.Config = config
	}
}

// WithRegistry sets the component registry. Without one every invocation
// is reported as unknown and left in the markdown.
func WithRegistry(reg Registry) Option {
	return func(opts *Options) {
		opts.Registry = reg
	}
}

// WithErrorHandler observes invocations dropped by extraction.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(opts *Options) {
		opts.OnError = fn
	}
}

// WithLogger overrides the package Logger for one Session.
func WithLogger(logger logging.LeveledLogger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithHTML sets whether frames carry rendered HTML.
func WithHTML(enable bool) Option {
	return func(opts *Options) {
		opts.html = &enable
	}
}

// WithDocument sets whether frames carry a flattened Document.
func WithDocument(enable bool) Option {
	return func(opts *Options) {
		opts.document = &enable
	}
}

// applyOptions applies opts to the defaults. The resulting Config is a
// private copy.
func applyOptions(opts ...Option) *Options {
	options := &Options{
		Config: DefaultConfig(),
		Logger: Logger,
	}
	for _, opt := range opts {
		opt(options)
	}
	cfg := *DefaultConfig()
	if options.Config != nil {
		cfg = *options.Config
	}
	if options.html != nil {
		cfg.RenderHTML = *options.html
	}
	if options.document != nil {
		cfg.BuildDocument = *options.document
	}
	options.Config = &cfg
	return options
}
