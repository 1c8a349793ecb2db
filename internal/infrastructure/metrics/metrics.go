package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Values of the "result" label.
const (
	AppRequests = "app_requests_total"

	LoginPasswordOK = "login_password_ok_total"
	LoginTokenOK    = "login_token_ok_total"
	LoginFailed     = "login_failed_total"

	UsersRegistered = "users_registered_total"

	TokensIssued  = "tokens_issued_total"
	TokensRevoked = "tokens_revoked_total"

	IDsAllocated  = "ids_allocated_total"
	IDCollisions  = "id_collisions_total"
	IDCheckErrors = "id_check_errors_total"

	ResourcesCreated       = "resources_created_total"
	ResourcesReclaimed     = "resources_reclaimed_total"
	ResourcesReclaimFailed = "resources_reclaim_failed_total"
	ReclaimCyclesRecovered = "reclaim_cycles_recovered_total"
)

func NewCounter() *prometheus.CounterVec {
	return NewCounterWith(prometheus.DefaultRegisterer)
}

// NewCounterWith registers the counter on reg instead of the global registry.
func NewCounterWith(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tempfiles",
			Name:      "general_counters",
		},
		[]string{"result"})
}
