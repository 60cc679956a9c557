package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/beyond-api/beyond-cli/internal/api"
	"github.com/beyond-api/beyond-cli/internal/cache"
	"github.com/beyond-api/beyond-cli/internal/dryrun"
	"github.com/beyond-api/beyond-cli/internal/urlparse"
)

// DefaultConcurrency is the default number of parallel GETs.
const DefaultConcurrency = 4

// getResult is the outcome for one path of a multi-path get.
type getResult struct {
	Path   string
	Value  any
	Err    error
	Cached bool
}

func (r getResult) payload() map[string]any {
	out := map[string]any{"path": r.Path, "ok": r.Err == nil}
	if r.Err != nil {
		if structured := api.StructuredErrorFromError(r.Err); structured != nil {
			out["error"] = structured
		}
		return out
	}
	out["value"] = r.Value
	if r.Cached {
		out["cached"] = true
	}
	return out
}

func newGetCmd() *cobra.Command {
	var (
		concurrency int64
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "get <path>...",
		Short: "GET one or more paths",
		Long: strings.TrimSpace(`
GET each path and print the normalized response.

Several paths are fetched in parallel (bounded by --concurrency) and printed
as a list of {path, ok, value|error} in argument order. Successful responses
are cached for cache_ttl (default 5m) unless --no-cache or BEYOND_NO_CACHE
is set.

Full URLs below the API URL, such as _links hrefs from a response, are
accepted as paths.`),
		Example: strings.TrimSpace(`
  beyond get /shop
  beyond get /products/1 /products/2 /products/3 --concurrency 2 -o json
  beyond get /orders/42 --no-cache
  beyond get https://shop.example.com/api/products/1`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if concurrency <= 0 {
				return fmt.Errorf("--concurrency must be > 0")
			}

			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}

			ctx := cmdContext(cmd)
			var store *cache.Cache
			if !noCache && !dryrun.IsEnabled(ctx) {
				store, err = cache.Open(ac.Config)
				if err != nil {
					slog.Warn("response cache unavailable", "error", err)
				} else {
					defer func() { _ = store.Close() }()
				}
			}

			targets := make([]urlparse.Target, len(args))
			for i, arg := range args {
				if targets[i], err = urlparse.Parse(ac.Session.APIURL, arg); err != nil {
					return err
				}
			}

			results := fetchPaths(ctx, ac, store, args, targets, concurrency)
			if previews := collectPreviews(results); previews != nil {
				return printPreviews(cmd, previews...)
			}

			if len(results) == 1 {
				if results[0].Err != nil {
					return results[0].Err
				}
				return printResult(cmd, results[0].Value)
			}

			out := make([]any, len(results))
			failed := 0
			for i, r := range results {
				out[i] = r.payload()
				if r.Err != nil {
					failed++
				}
			}
			if err := printResult(cmd, out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d requests failed", failed, len(results))
			}
			return nil
		}),
	}

	cmd.Flags().Int64VarP(&concurrency, "concurrency", "c", DefaultConcurrency, "Maximum parallel requests")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the response cache")
	flagAlias(cmd.Flags(), "concurrency", "conc")

	return cmd
}

// fetchPaths GETs every target with at most concurrency requests in flight.
// Results keep the order of paths, the arguments targets were parsed from.
// A nil store disables caching.
func fetchPaths(ctx context.Context, ac *apiContext, store *cache.Cache, paths []string, targets []urlparse.Target, concurrency int64) []getResult {
	results := make([]getResult, len(paths))
	sem := semaphore.NewWeighted(concurrency)
	g, ctx := errgroup.WithContext(ctx)

	// Entries are per token: scopes decide what a response contains.
	scope := ac.Session.APIURL + "\x00" + ac.Session.AccessToken()
	for i, path := range paths {
		i := i
		results[i].Path = path
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i].Err = err
				return nil
			}
			defer sem.Release(1)

			target := targets[i]
			key := cache.Key("get", scope, target.String())
			if store != nil {
				var cached any
				if store.Get(ctx, key, &cached) {
					results[i].Value = cached
					results[i].Cached = true
					return nil
				}
			}

			res, err := ac.Client.Do(ctx, ac.Session, api.Request{
				Method:       api.MethodGet,
				Path:         target.Path,
				Query:        target.QueryMap(),
				PreserveKeys: target.Absolute,
			})
			if err == nil {
				err = failureErr(res)
			}
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value = res.Value
			if store != nil {
				store.Put(ctx, key, res.Value)
			}
			return nil
		})
	}

	// Workers record their own errors; Wait only synchronizes.
	_ = g.Wait()
	return results
}

// collectPreviews returns the dry-run previews of results, or nil unless every
// result is one.
func collectPreviews(results []getResult) []*dryrun.Preview {
	previews := make([]*dryrun.Preview, 0, len(results))
	for _, r := range results {
		p, ok := dryrun.As(r.Err)
		if !ok {
			return nil
		}
		previews = append(previews, p)
	}
	return previews
}
