package entity

// FetchOptions are the per-request options of a fetch
type FetchOptions struct {
	// Include lists relationship paths to resolve from included data.
	Include []string

	// WithMeta lists extra meta fields to request.
	WithMeta []string

	// Params are passed through as query parameters and win on collision.
	Params map[string]string
}

// FetchOption configures a fetch
type FetchOption func(*FetchOptions)

// WithInclude adds relationship paths to the include parameter
func WithInclude(paths ...string) FetchOption {
	return func(o *FetchOptions) {
		o.Include = append(o.Include, paths...)
	}
}

// WithMeta adds fields to the with_meta parameter
func WithMeta(fields ...string) FetchOption {
	return func(o *FetchOptions) {
		o.WithMeta = append(o.WithMeta, fields...)
	}
}

// WithParams adds opaque query parameters. Later calls override earlier ones
// key by key.
func WithParams(params map[string]string) FetchOption {
	return func(o *FetchOptions) {
		if o.Params == nil {
			o.Params = make(map[string]string, len(params))
		}
		for k, v := range params {
			o.Params[k] = v
		}
	}
}

// Apply folds options into a FetchOptions value
func Apply(opts ...FetchOption) FetchOptions {
	var o FetchOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
