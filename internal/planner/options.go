package planner

import "github.com/jensneuse/abstractlogger"

const defaultCacheSize = 1024

type options struct {
	cacheSize int
	maxFields int
	log       abstractlogger.Logger
}

type Option func(*options)

// WithCacheSize bounds the number of cached plans. Defaults to 1024.
func WithCacheSize(n int) Option { return func(o *options) { o.cacheSize = n } }

// WithMaxFields rejects operations selecting more than n fields before
// solving. 0 means unlimited.
func WithMaxFields(n int) Option { return func(o *options) { o.maxFields = n } }

func WithLogger(l abstractlogger.Logger) Option { return func(o *options) { o.log = l } }
