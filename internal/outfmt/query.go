package outfmt

import (
	"context"

	"github.com/beyond-api/beyond-cli/internal/filter"
)

// applyQuery runs opts.Query over v. Without a query v is returned as is.
func (opts Options) applyQuery(ctx context.Context, v any) (any, error) {
	if opts.Query == "" {
		return v, nil
	}
	return filter.ApplyContext(ctx, v, opts.Query)
}
