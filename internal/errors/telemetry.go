// Package errors - optional Sentry telemetry integration.
package errors

import (
	"regexp"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

var hasActiveReporting atomic.Bool

func init() {
	hasActiveReporting.Store(false)
}

// apiKeyRegexes scrub obvious secrets out of error context before it leaves
// the process, mirroring the privacy scrubbing the teacher applies before
// any telemetry call.
var apiKeyRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)api[_-]?key[=:]\S+`),
	regexp.MustCompile(`(?i)token[=:]\S+`),
	regexp.MustCompile(`(?i)auth[=:]\S+`),
	regexp.MustCompile(`\b[0-9a-fA-F]{32}\b`),
}

func scrub(s string) string {
	for _, re := range apiKeyRegexes {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// InitTelemetry configures the Sentry client and enables reporting for
// errors built after this call. Passing an empty dsn disables telemetry.
func InitTelemetry(dsn, environment, release string) error {
	if dsn == "" {
		hasActiveReporting.Store(false)
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	}); err != nil {
		return Newf("failed to initialize telemetry: %w", err).
			Category(CategoryConfig).
			Build()
	}
	hasActiveReporting.Store(true)
	return nil
}

// DisableTelemetry turns off reporting without tearing down the client.
func DisableTelemetry() {
	hasActiveReporting.Store(false)
}

func getErrorLevel(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryTopology, CategoryProcessing, CategoryState:
		return sentry.LevelError
	case CategoryValidation, CategoryConfig, CategoryHotReloadReject:
		return sentry.LevelWarning
	case CategoryIO, CategoryDriver, CategoryTimeout, CategoryCancellation:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}

// reportToTelemetry sends a scrubbed summary of the error to Sentry. It
// never blocks processing: failures here are swallowed, since telemetry must
// not become a new source of outages for a real-time pipeline.
func reportToTelemetry(ee *EnhancedError) {
	if !hasActiveReporting.Load() || ee.IsReported() {
		return
	}
	defer ee.MarkReported()

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		for k, v := range ee.GetContext() {
			scope.SetExtra(k, scrubValue(v))
		}
		scope.SetLevel(getErrorLevel(ee.Category))
		sentry.CaptureException(stderrorsNew(scrub(ee.Error())))
	})
}

func scrubValue(v any) any {
	if s, ok := v.(string); ok {
		return scrub(s)
	}
	return v
}

// stderrorsNew avoids importing the stdlib errors package under a second
// alias purely for this one call site.
func stderrorsNew(msg string) error { return NewStd(msg) }
