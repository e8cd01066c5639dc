package sessionkit

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint8

const (
	// MetricLoginSuccess counts logins that reached LoggedIn.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or failed logins.
	MetricLoginFailure
	// MetricMFARequired counts logins that produced an MFA challenge.
	MetricMFARequired
	// MetricMFASuccess counts completed MFA challenges.
	MetricMFASuccess
	// MetricMFAFailure counts failed MFA confirmations.
	MetricMFAFailure
	// MetricRegisterSuccess counts successful registrations.
	MetricRegisterSuccess
	// MetricRegisterFailure counts failed registrations.
	MetricRegisterFailure
	// MetricLogout counts logouts (local clear always happens).
	MetricLogout
	// MetricLogoutRemoteFailure counts logouts whose remote call failed
	// and was swallowed.
	MetricLogoutRemoteFailure
	// MetricRefreshSuccess counts successful token refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts failed token refreshes.
	MetricRefreshFailure
	// MetricResetRequest counts password-reset code requests.
	MetricResetRequest
	// MetricResetVerifySuccess counts successful reset-code checks.
	MetricResetVerifySuccess
	// MetricResetVerifyFailure counts failed reset-code checks.
	MetricResetVerifyFailure
	// MetricResetConfirmSuccess counts completed password resets.
	MetricResetConfirmSuccess
	// MetricResetConfirmFailure counts failed password resets.
	MetricResetConfirmFailure

	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:        "sessionkit_login_success_total",
	MetricLoginFailure:        "sessionkit_login_failure_total",
	MetricMFARequired:         "sessionkit_mfa_required_total",
	MetricMFASuccess:          "sessionkit_mfa_success_total",
	MetricMFAFailure:          "sessionkit_mfa_failure_total",
	MetricRegisterSuccess:     "sessionkit_register_success_total",
	MetricRegisterFailure:     "sessionkit_register_failure_total",
	MetricLogout:              "sessionkit_logout_total",
	MetricLogoutRemoteFailure: "sessionkit_logout_remote_failure_total",
	MetricRefreshSuccess:      "sessionkit_refresh_success_total",
	MetricRefreshFailure:      "sessionkit_refresh_failure_total",
	MetricResetRequest:        "sessionkit_reset_request_total",
	MetricResetVerifySuccess:  "sessionkit_reset_verify_success_total",
	MetricResetVerifyFailure:  "sessionkit_reset_verify_failure_total",
	MetricResetConfirmSuccess: "sessionkit_reset_confirm_success_total",
	MetricResetConfirmFailure: "sessionkit_reset_confirm_failure_total",
}

// Name returns the exporter-facing metric name.
func (id MetricID) Name() string {
	if id >= metricIDCount {
		return "sessionkit_unknown"
	}
	return metricNames[id]
}

// MetricIDs lists every counter, in export order.
func MetricIDs() []MetricID {
	out := make([]MetricID, 0, metricIDCount)
	for id := MetricID(0); id < metricIDCount; id++ {
		out = append(out, id)
	}
	return out
}

// Metrics holds atomic counters. A disabled instance is a no-op, so
// callers never branch.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a Metrics instance.
func NewMetrics(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot returns a point-in-time copy of every counter.
func (m *Metrics) Snapshot() map[MetricID]uint64 {
	out := make(map[MetricID]uint64, metricIDCount)
	if m == nil {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id] = m.counters[id].Load()
	}
	return out
}
