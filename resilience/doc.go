// Package resilience provides bounded retry with exponential backoff.
//
// The retry decision hook runs only when another attempt will follow, so a
// hook with side effects (such as asking the user for new credentials) is
// never invoked for an attempt that cannot happen.
//
//	v, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context, attempt int) (T, error) {
//	    return fetch(ctx)
//	})
package resilience
