package memory

import (
	"context"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// EmployeeRepository provides in-memory employee storage
type EmployeeRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.EmployeeRepository = (*EmployeeRepository)(nil)

// GetEmployee returns an employee by id
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (*entities.Employee, error) {
	var (
		e  entities.Employee
		ok bool
	)
	r.store.read(func(st *state) { e, ok = st.employees.get(id) })
	if !ok {
		return nil, errs.NotFound("employee", id)
	}
	c := e.Clone()
	return &c, nil
}

// ListEmployees returns matching employees in insertion order
func (r *EmployeeRepository) ListEmployees(ctx context.Context, filter repositories.EmployeeFilter) ([]*entities.Employee, error) {
	orgUnits := toSet(filter.OrgUnitIDs)
	ids := toSet(filter.IDs)

	var employees []*entities.Employee
	r.store.read(func(st *state) {
		for _, e := range st.employees.rows {
			if filter.ActiveOnly && !e.Active {
				continue
			}
			if orgUnits != nil && !orgUnits[e.OrgUnitID] {
				continue
			}
			if ids != nil && !ids[e.ID] {
				continue
			}
			c := e.Clone()
			employees = append(employees, &c)
		}
	})
	return employees, nil
}

// SaveEmployee stores an employee, keeping its original insertion position on update
func (r *EmployeeRepository) SaveEmployee(ctx context.Context, employee *entities.Employee) error {
	if err := employee.Validate(); err != nil {
		return err
	}
	return r.store.write(func(st *state) error {
		st.employees.put(employee.ID, employee.Clone())
		return nil
	})
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
