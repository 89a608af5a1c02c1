// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by recorders.
const (
	OutcomeSuccess       = "success"
	OutcomeDuplicate     = "duplicate"
	OutcomeInvalid       = "invalid"
	OutcomeWrongEmail    = "wrong_email"
	OutcomeWrongPassword = "wrong_password"
	OutcomeError         = "error"
)

// Cart operation labels.
const (
	CartOpAdd    = "add"
	CartOpRemove = "remove"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Account metrics
	IncSignup(outcome string)
	IncLogin(outcome string)
	IncAuthFailure(reason string)

	// Cart metrics
	IncCartMutation(op string)
	ObserveCartMutationDuration(duration time.Duration)

	// Catalog metrics
	IncProductCreated()
	IncProductDeleted()
	IncCatalogCacheHit()
	IncCatalogCacheMiss()

	// Rate limiting
	IncRateLimited(scope string)
}
