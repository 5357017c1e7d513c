package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/models"
)

type CustomerParams struct {
	Name         string
	ContactEmail string
	ContactPhone string
	Notes        string
}

func (s *Service) CreateCustomer(ctx context.Context, p CustomerParams) (*models.Customer, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperr.Validation("customer name is required")
	}
	if email := strings.TrimSpace(p.ContactEmail); email != "" && !strings.Contains(email, "@") {
		return nil, apperr.Validation("invalid contact email %q", email)
	}

	var c models.Customer
	err := s.db.QueryRow(ctx, `
		INSERT INTO customers (name, contact_email, contact_phone, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, name, contact_email, contact_phone, notes, created_at`,
		name, optional(p.ContactEmail), optional(p.ContactPhone), optional(p.Notes)).
		Scan(&c.ID, &c.Name, &c.ContactEmail, &c.ContactPhone, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, dbError(err, "create customer")
	}

	s.log.Info("customer created", "customer_id", c.ID, "name", c.Name)
	s.record(ctx, Change{
		Table:       "customers",
		RecordID:    c.ID,
		Action:      ActionInsert,
		Changes:     map[string]any{"after": map[string]any{"name": c.Name}},
		Description: fmt.Sprintf("Customer %s created", c.Name),
	})
	return &c, nil
}

const customerSelect = "SELECT id::text, name, contact_email, contact_phone, notes, created_at FROM customers"

func scanCustomer(row pgx.Row) (models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.ContactEmail, &c.ContactPhone, &c.Notes, &c.CreatedAt)
	return c, err
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	if err := checkID("customer", id); err != nil {
		return nil, err
	}
	c, err := scanCustomer(s.db.QueryRow(ctx, customerSelect+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("customer", id)
		}
		return nil, dbError(err, "get customer")
	}
	return &c, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.db.Query(ctx, customerSelect+" ORDER BY name")
	if err != nil {
		return nil, dbError(err, "list customers")
	}
	customers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Customer, error) {
		return scanCustomer(row)
	})
	if err != nil {
		return nil, dbError(err, "list customers")
	}
	return customers, nil
}

type ProjectParams struct {
	Name        string
	CustomerID  string
	Status      string
	Description string
}

func (s *Service) CreateProject(ctx context.Context, p ProjectParams) (*models.Project, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperr.Validation("project name is required")
	}
	if p.CustomerID != "" {
		if err := checkID("customer", p.CustomerID); err != nil {
			return nil, err
		}
	}
	status := strings.TrimSpace(p.Status)
	if status == "" {
		status = "active"
	}

	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO projects (name, customer_id, status, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text`,
		name, optional(p.CustomerID), status, optional(p.Description)).Scan(&id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return nil, apperr.NotFound("customer", p.CustomerID)
		}
		return nil, dbError(err, "create project")
	}

	s.log.Info("project created", "project_id", id, "name", name)
	s.record(ctx, Change{
		Table:       "projects",
		RecordID:    id,
		Action:      ActionInsert,
		Changes:     map[string]any{"after": map[string]any{"name": name, "customer_id": p.CustomerID, "status": status}},
		Description: fmt.Sprintf("Project %s created", name),
	})

	projects, err := s.listProjects(ctx, id, "")
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, apperr.NotFound("project", id)
	}
	return &projects[0], nil
}

// ListProjects returns every project with its customer's name.
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.listProjects(ctx, "", "")
}

// CustomerProjects returns the projects of one customer.
func (s *Service) CustomerProjects(ctx context.Context, customerID string) ([]models.Project, error) {
	if err := checkID("customer", customerID); err != nil {
		return nil, err
	}
	return s.listProjects(ctx, "", customerID)
}

func (s *Service) listProjects(ctx context.Context, id, customerID string) ([]models.Project, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id::text, p.name, p.customer_id::text, c.name, p.status, p.description, p.created_at
		FROM projects p
		LEFT JOIN customers c ON c.id = p.customer_id
		WHERE ($1 = '' OR p.id::text = $1)
			AND ($2 = '' OR p.customer_id::text = $2)
		ORDER BY p.name`, id, customerID)
	if err != nil {
		return nil, dbError(err, "list projects")
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Project, error) {
		var p models.Project
		err := row.Scan(&p.ID, &p.Name, &p.CustomerID, &p.CustomerName, &p.Status, &p.Description, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, dbError(err, "list projects")
	}
	return projects, nil
}
