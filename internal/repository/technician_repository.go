package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civifix-service/internal/domain"
)

// TechnicianRepository handles persistence for technician records.
type TechnicianRepository interface {
	Create(ctx context.Context, tech *domain.Technician) error
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Technician, error)
	List(ctx context.Context) ([]domain.Technician, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Technician, error)
	SetAvailability(ctx context.Context, userID string, available bool) error
	SetSpecialty(ctx context.Context, userID, specialty string) error
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `id, user_id, name, phone, specialty, available, created_at, updated_at`

func (r *technicianRepository) Create(ctx context.Context, tech *domain.Technician) error {
	const query = `
        INSERT INTO technicians (user_id, name, phone, specialty, available)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		tech.UserID,
		tech.Name,
		tech.Phone,
		tech.Specialty,
		tech.Available,
	).Scan(&tech.ID, &tech.CreatedAt, &tech.UpdatedAt)
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	return r.fetchSingle(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE id=$1`, id)
}

func (r *technicianRepository) GetByUserID(ctx context.Context, userID string) (*domain.Technician, error) {
	return r.fetchSingle(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE user_id=$1`, userID)
}

func (r *technicianRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Technician, error) {
	var tech domain.Technician
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&tech.ID,
		&tech.UserID,
		&tech.Name,
		&tech.Phone,
		&tech.Specialty,
		&tech.Available,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tech, nil
}

func (r *technicianRepository) List(ctx context.Context) ([]domain.Technician, error) {
	const query = `SELECT ` + technicianColumns + ` FROM technicians ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func (r *technicianRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Technician, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + technicianColumns + ` FROM technicians WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func (r *technicianRepository) SetAvailability(ctx context.Context, userID string, available bool) error {
	const query = `UPDATE technicians SET available=$1, updated_at=NOW() WHERE user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, available, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) SetSpecialty(ctx context.Context, userID, specialty string) error {
	const query = `UPDATE technicians SET specialty=$1, updated_at=NOW() WHERE user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, specialty, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTechnicians(rows pgx.Rows) ([]domain.Technician, error) {
	var result []domain.Technician
	for rows.Next() {
		var tech domain.Technician
		if err := rows.Scan(
			&tech.ID,
			&tech.UserID,
			&tech.Name,
			&tech.Phone,
			&tech.Specialty,
			&tech.Available,
			&tech.CreatedAt,
			&tech.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tech)
	}
	return result, rows.Err()
}
