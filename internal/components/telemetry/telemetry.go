package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics so that the migration workflows can be
// asserted against in tests.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed in a way that should be looked at.
	//
	// `id` names the component that broke, not the line that broke. If the product
	// creation request in the storefront session fails, the id is
	// `session.create-product`, the http error goes in the params.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use underscores for large components
	// 3) use dashes for methods part of a larger component
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is not necessarily broken but is worth a look,
	// ex. a category slug that could not be resolved.
	ReportWarning(id string, params ...any)

	// ReportDebug reports debug information that is dropped unless verbose logging is on.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the value of a counter at the current time.
	ReportCount(id string, count int64)
}

// ScopedAPI attaches a namespace to every id reported through it, similar to a
// prefixed sub-logger.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
