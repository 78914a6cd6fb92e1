package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/pdmvault/internal/domain/machine"
	"github.com/rpggio/pdmvault/internal/repository"
)

// MachineRepository implements machine.Repository for SQLite
type MachineRepository struct {
	db *DB
}

// NewMachineRepository creates a new MachineRepository
func NewMachineRepository(db *DB) *MachineRepository {
	return &MachineRepository{db: db}
}

// CreateMachine inserts a machine.
func (r *MachineRepository) CreateMachine(ctx context.Context, m *machine.Machine) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO machines (mmm, name, created_at) VALUES (?, ?, ?)",
		m.MMM, m.Name, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create machine: %w", err)
	}
	return nil
}

// ListMachines returns every machine ordered by code.
func (r *MachineRepository) ListMachines(ctx context.Context) ([]machine.Machine, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT mmm, name, created_at FROM machines ORDER BY mmm")
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	var out []machine.Machine
	for rows.Next() {
		var m machine.Machine
		if err := rows.Scan(&m.MMM, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMachine deletes a machine; its groups cascade.
func (r *MachineRepository) DeleteMachine(ctx context.Context, mmm string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM machines WHERE mmm = ?", mmm)
	if err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateGroup inserts a group under an existing machine.
func (r *MachineRepository) CreateGroup(ctx context.Context, g *machine.Group) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO groups (mmm, gggg, name, created_at) VALUES (?, ?, ?, ?)",
		g.MMM, g.GGGG, g.Name, g.CreatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return repository.ErrForeignKeyViolation
		case isUniqueViolation(err):
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create group: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		g.ID = id
	}
	return nil
}

// ListGroups returns the groups of mmm, or all groups when mmm is empty.
func (r *MachineRepository) ListGroups(ctx context.Context, mmm string) ([]machine.Group, error) {
	query := "SELECT id, mmm, gggg, name, created_at FROM groups"
	var args []any
	if mmm != "" {
		query += " WHERE mmm = ?"
		args = append(args, mmm)
	}
	query += " ORDER BY mmm, gggg"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var out []machine.Group
	for rows.Next() {
		var g machine.Group
		if err := rows.Scan(&g.ID, &g.MMM, &g.GGGG, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteGroup deletes one group.
func (r *MachineRepository) DeleteGroup(ctx context.Context, mmm, gggg string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM groups WHERE mmm = ? AND gggg = ?", mmm, gggg)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ machine.Repository = (*MachineRepository)(nil)
