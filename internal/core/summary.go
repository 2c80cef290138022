package core

// Read-side summary shapes consumed by the dashboard and analytics
// endpoints.
type (
	DashboardMetrics struct {
		ActiveInterns  int
		ActiveProjects int
		TotalRevenue   Money
		Outstanding    Money
	}

	MonthBucket struct {
		Year    int
		Month   int
		Revenue Money
		// Unaccounted is entity paid-amount the ledger does not explain,
		// attributed to the entity's creation or start month. Zero when the
		// ledger and entities are in sync.
		Unaccounted Money
	}

	DomainStat struct {
		Domain  string
		Interns int
		Revenue Money
	}
)
