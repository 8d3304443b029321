package poller

import "context"

// Optimistic applies a local change, then calls the server. On success the
// server's result is folded back in with reconcile (which may be nil). On
// failure the poller re-fetches to drop the local change and the call's
// error is returned.
func Optimistic[T, R any](
	ctx context.Context,
	p *Poller[T],
	apply func(items []T) []T,
	call func(ctx context.Context) (R, error),
	reconcile func(items []T, result R) []T,
) (R, error) {
	p.Mutate(apply)
	res, err := call(ctx)
	if err != nil {
		if rerr := p.Refresh(ctx); rerr != nil {
			p.log.WithError(rerr).Warn("re-fetch after failed update")
		}
		return res, err
	}
	if reconcile != nil {
		p.Mutate(func(items []T) []T { return reconcile(items, res) })
	}
	return res, nil
}

// Replace returns items with the first element matching match swapped for v.
func Replace[T any](items []T, match func(T) bool, v T) []T {
	for i := range items {
		if match(items[i]) {
			items[i] = v
			return items
		}
	}
	return items
}

// Remove returns items without the elements matching match.
func Remove[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
		}
	}
	return out
}
