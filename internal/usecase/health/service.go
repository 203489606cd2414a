package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer queries.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Items  int
}

// Service coordinates health checks.
type Service struct {
	catalog  SnapshotLoader
	db       DBPinger
	provider ProviderChecker
}

// New creates a Service. db and provider can be nil: the memory cache backend
// has nothing to ping and a missing API key disables the provider.
func New(catalog SnapshotLoader, db DBPinger, provider ProviderChecker) *Service {
	return &Service{catalog: catalog, db: db, provider: provider}
}

// Check runs health checks against all components.
// No catalog is Unhealthy; a failing dependency is Degraded since lexical
// retrieval keeps working without it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	report := Report{Status: Healthy, Checks: checks}

	if snap, err := s.catalog.Load(); err != nil {
		checks["catalog"] = CheckError
		report.Status = Unhealthy
	} else {
		checks["catalog"] = CheckOK
		report.Items = snap.Index.Len()
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
		} else {
			checks["database"] = CheckOK
		}
	}

	if s.provider != nil {
		if err := s.provider.HealthCheck(ctx); err != nil {
			checks["provider"] = CheckError
		} else {
			checks["provider"] = CheckOK
		}
	}

	if report.Status == Healthy {
		for _, v := range checks {
			if v == CheckError {
				report.Status = Degraded
				break
			}
		}
	}

	return report
}
