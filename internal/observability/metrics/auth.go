package metrics

import (
	"time"

	domainauth "github.com/target/campus-auth/internal/domain/auth"
	obserrors "github.com/target/campus-auth/internal/observability/errors"
	"github.com/target/campus-auth/internal/observability/statsd"
)

// Outcome constants for metric tagging.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeNone     = "none"
	OutcomeExpired  = "expired"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// LoginMetric captures one login attempt for metric emission.
type LoginMetric struct {
	Outcome  string
	Kind     domainauth.ErrorKind
	Role     domainauth.Role
	Duration time.Duration
	Err      error
}

// EmitLogin emits the standard login attempt metrics.
func EmitLogin(sink statsd.Sink, in LoginMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"outcome": in.Outcome}
	if in.Kind != "" {
		tags["kind"] = string(in.Kind)
	}
	if in.Role.Valid() {
		tags["role"] = in.Role.String()
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.login", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.gateway.latency", in.Duration, CloneTags(tags))
	}
}

// EmitStaleResponse counts a gateway response discarded because it was superseded.
func EmitStaleResponse(sink statsd.Sink) {
	if sink == nil {
		return
	}
	sink.Count("auth.login.stale", 1, nil)
}

// EmitRestore counts a startup restoration attempt.
func EmitRestore(sink statsd.Sink, outcome string) {
	if sink == nil {
		return
	}
	sink.Count("auth.session.restore", 1, map[string]string{"outcome": outcome})
}

// SessionGauge returns a listener reporting whether a session is currently authenticated.
func SessionGauge(sink statsd.Sink) func(domainauth.SessionState) {
	return func(st domainauth.SessionState) {
		if sink == nil {
			return
		}
		v := 0.0
		if st.IsAuthenticated() {
			v = 1
		}
		sink.Gauge("auth.session.active", v, map[string]string{"status": st.Status.String()})
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
