package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics so that components can be tested for what they
// report and not just for what they return.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed in a way that should be looked at.
	//
	// `id` names the component that broke, not the line that broke. A request failing inside
	// the shutterstock strategy is `shutterstock.extract`, the fact that it was an HTTP 403 goes
	// into the params. Combined with ScopedAPI, ids end up as `<scope>: <struct>.<method>`.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use underscores for large components
	// 3) use dashes for methods part of a larger component
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is expected to happen now and then (a marketplace
	// changed its markup, trends had no data) but may be worth investigating when frequent.
	ReportWarning(id string, params ...any)

	// ReportDebug reports information that is dropped outside of debug logging.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the value of a counter at the current time. Reports are points in
	// time, they should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, like a sub-logger.
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

// NoopAPI drops every report.
type NoopAPI struct{}

func (NoopAPI) ReportBroken(string, ...any)  {}
func (NoopAPI) ReportWarning(string, ...any) {}
func (NoopAPI) ReportDebug(string, ...any)   {}
func (NoopAPI) ReportCount(string, int64)    {}
