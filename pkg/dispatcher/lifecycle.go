package dispatcher

import "context"

// Lifecycle is an optional startup/teardown hook pair for a sub-application
// mounted onto the Dispatcher. Either field may be nil.
type Lifecycle struct {
	Start func(ctx context.Context) error
	Stop  func(ctx context.Context) error
}

// ComposeLifecycle chains hooks so Start runs outer-first (the order given)
// and Stop runs inner-first (the reverse order), skipping any hook whose
// Start or Stop is nil. Stop runs every hook regardless of earlier errors
// and reports the first one encountered.
func ComposeLifecycle(hooks ...Lifecycle) Lifecycle {
	return Lifecycle{
		Start: func(ctx context.Context) error {
			for _, h := range hooks {
				if h.Start == nil {
					continue
				}
				if err := h.Start(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		Stop: func(ctx context.Context) error {
			var firstErr error
			for i := len(hooks) - 1; i >= 0; i-- {
				h := hooks[i]
				if h.Stop == nil {
					continue
				}
				if err := h.Stop(ctx); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}
}
