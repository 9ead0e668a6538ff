// Package accounts manages account and plan lifecycle: opening accounts
// against a product contract, running activation, and serving the balance,
// parameter and derived-value read surfaces.
package accounts

import "time"

// Account is one customer account bound to a product contract. Parameters
// holds the instance-level parameter values supplied at opening.
type Account struct {
	ID          string
	ProductCode string
	PlanID      string
	CreatedAt   time.Time
	Parameters  map[string]string
}

// Plan groups sibling accounts under one supervisor contract.
type Plan struct {
	ID             string
	SupervisorCode string
	CreatedAt      time.Time
}
