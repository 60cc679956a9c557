package api

import (
	"github.com/beyond-api/beyond-cli/internal/config"
	"github.com/beyond-api/beyond-cli/internal/keycase"
)

// NormalizeOptions control how a successful response body is reshaped.
type NormalizeOptions struct {
	// RespondWithTrue turns an empty 2xx body into true.
	RespondWithTrue bool
	// RemoveLinks drops "_links" at every level.
	RemoveLinks bool
	// UnderscoreKeys converts keys to snake_case.
	UnderscoreKeys bool
	// StripKeyPrefix removes leading underscores from keys.
	StripKeyPrefix bool
}

// Option overrides a single NormalizeOptions field for one call.
type Option func(*NormalizeOptions)

func WithRespondWithTrue(v bool) Option {
	return func(o *NormalizeOptions) { o.RespondWithTrue = v }
}

func WithRemoveLinks(v bool) Option {
	return func(o *NormalizeOptions) { o.RemoveLinks = v }
}

func WithUnderscoreKeys(v bool) Option {
	return func(o *NormalizeOptions) { o.UnderscoreKeys = v }
}

func WithStripKeyPrefix(v bool) Option {
	return func(o *NormalizeOptions) { o.StripKeyPrefix = v }
}

// With returns a copy of o with opts applied.
func (o NormalizeOptions) With(opts ...Option) NormalizeOptions {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// OptionsFromConfig reads the response defaults from cfg.
func OptionsFromConfig(cfg config.Config) NormalizeOptions {
	return NormalizeOptions{
		RespondWithTrue: cfg.RespondWithTrue,
		RemoveLinks:     cfg.RemoveResponseLinks,
		UnderscoreKeys:  cfg.UnderscoreResponseKeys,
		StripKeyPrefix:  cfg.RemoveResponseKeyUnderscores,
	}
}

// Normalize converts an executed response into its final form. 2xx bodies
// are reshaped according to opts; any other status becomes a Failure
// carrying the untouched body as payload. Results that already failed are
// returned unchanged.
func Normalize(res Result, opts NormalizeOptions) Result {
	if res.Failure != nil {
		return res
	}

	if !isSuccess(res.StatusCode) {
		res.Failure = &Failure{
			Kind:       Classify(res.StatusCode),
			StatusCode: res.StatusCode,
			Payload:    res.Value,
		}
		res.Value = nil
		return res
	}

	if res.Value == nil {
		if opts.RespondWithTrue {
			res.Value = true
		}
		return res
	}

	value := res.Value
	if opts.RemoveLinks {
		value = keycase.StripLinks(value)
	}
	if opts.UnderscoreKeys {
		value = keycase.ToInner(value)
	}
	if opts.StripKeyPrefix {
		value = keycase.StripKeyPrefix(value)
	}
	res.Value = value
	return res
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
