package shared

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
)

var hundred = decimal.NewFromInt(100)

// DefaultCeiling is the planner-wide allocation ceiling in percent
var DefaultCeiling = hundred

// BudgetEntry holds the allocation budget of one employee
type BudgetEntry struct {
	Ceiling   decimal.Decimal
	Allocated decimal.Decimal
}

// Remaining returns the unallocated percentage, never below zero
func (b *BudgetEntry) Remaining() decimal.Decimal {
	r := b.Ceiling.Sub(b.Allocated)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// CapacityBudget tracks percentage budgets by employee id
type CapacityBudget map[string]*BudgetEntry

// EffectiveCeiling returns the employee's own ceiling when configured,
// otherwise the global one
func EffectiveCeiling(employee *entities.Employee, global decimal.Decimal) decimal.Decimal {
	if employee.MaxAllocationPercent.IsPositive() {
		return employee.MaxAllocationPercent
	}
	return global
}

// NewCapacityBudget creates a full budget for every employee
func NewCapacityBudget(employees []*entities.Employee, ceiling decimal.Decimal) CapacityBudget {
	budget := make(CapacityBudget, len(employees))
	for _, e := range employees {
		budget[e.ID] = &BudgetEntry{Ceiling: EffectiveCeiling(e, ceiling)}
	}
	return budget
}

// Remaining returns an employee's remaining percentage; unknown employees have none
func (cb CapacityBudget) Remaining(employeeID string) decimal.Decimal {
	entry, ok := cb[employeeID]
	if !ok {
		return decimal.Zero
	}
	return entry.Remaining()
}

// Consume deducts a percentage from an employee's budget
func (cb CapacityBudget) Consume(employeeID string, pct decimal.Decimal) error {
	entry, ok := cb[employeeID]
	if !ok {
		return errs.NotFound("employee", employeeID)
	}
	if pct.IsNegative() {
		return errs.Validation("percentage", "cannot consume a negative percentage %s", pct)
	}
	if pct.GreaterThan(entry.Remaining()) {
		return errs.Validation("percentage", "%s%% exceeds the remaining %s%% of employee %s",
			pct, entry.Remaining(), employeeID)
	}
	entry.Allocated = entry.Allocated.Add(pct)
	return nil
}

// TotalAllocated returns the allocated percentage summed over employees
func (cb CapacityBudget) TotalAllocated() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range cb {
		total = total.Add(entry.Allocated)
	}
	return total
}

// Utilization returns allocated over ceiling across all employees, in percent
func (cb CapacityBudget) Utilization() decimal.Decimal {
	ceiling := decimal.Zero
	for _, entry := range cb {
		ceiling = ceiling.Add(entry.Ceiling)
	}
	if ceiling.IsZero() {
		return decimal.Zero
	}
	return cb.TotalAllocated().Mul(hundred).Div(ceiling)
}
