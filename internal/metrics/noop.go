package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncSignup(outcome string)                           {}
func (n *NoopRecorder) IncLogin(outcome string)                            {}
func (n *NoopRecorder) IncAuthFailure(reason string)                       {}
func (n *NoopRecorder) IncCartMutation(op string)                          {}
func (n *NoopRecorder) ObserveCartMutationDuration(duration time.Duration) {}
func (n *NoopRecorder) IncProductCreated()                                 {}
func (n *NoopRecorder) IncProductDeleted()                                 {}
func (n *NoopRecorder) IncCatalogCacheHit()                                {}
func (n *NoopRecorder) IncCatalogCacheMiss()                               {}
func (n *NoopRecorder) IncRateLimited(scope string)                        {}
