package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civifix-service/internal/domain"
)

// ProfileRepository handles persistence for user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.UserProfile) error
	Update(ctx context.Context, profile *domain.UserProfile) error
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error)
	ListAdmins(ctx context.Context, status *domain.AdminStatus) ([]domain.UserProfile, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]domain.UserProfile, error)
	UpdateAdminStatus(ctx context.Context, profileID string, status domain.AdminStatus) error
	CountsByRole(ctx context.Context) (map[domain.Role]int64, error)
	CountAdminsByStatus(ctx context.Context) (map[domain.AdminStatus]int64, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, user_id, full_name, phone, role, admin_status, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	const query = `
        INSERT INTO user_profiles (user_id, full_name, phone, role, admin_status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.FullName,
		profile.Phone,
		profile.Role,
		profile.AdminStatus,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.UserProfile) error {
	const query = `
        UPDATE user_profiles
        SET full_name=$1, phone=$2, role=$3, admin_status=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		profile.FullName,
		profile.Phone,
		profile.Role,
		profile.AdminStatus,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id=$1`, id)
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id=$1`, userID)
}

func (r *profileRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.Role,
		&profile.AdminStatus,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) ListAdmins(ctx context.Context, status *domain.AdminStatus) ([]domain.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE role=$1`
	args := []any{domain.RoleAdmin}
	if status != nil {
		args = append(args, *status)
		query += ` AND admin_status=$2`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (r *profileRepository) ListByUserIDs(ctx context.Context, userIDs []string) ([]domain.UserProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (r *profileRepository) UpdateAdminStatus(ctx context.Context, profileID string, status domain.AdminStatus) error {
	const query = `
        UPDATE user_profiles SET admin_status=$1, updated_at=NOW()
        WHERE id=$2 AND role=$3`

	cmd, err := r.pool.Exec(ctx, query, status, profileID, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) CountsByRole(ctx context.Context) (map[domain.Role]int64, error) {
	const query = `SELECT role, COUNT(*) FROM user_profiles GROUP BY role`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Role]int64)
	for rows.Next() {
		var role domain.Role
		var count int64
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, rows.Err()
}

func (r *profileRepository) CountAdminsByStatus(ctx context.Context) (map[domain.AdminStatus]int64, error) {
	const query = `
        SELECT admin_status, COUNT(*) FROM user_profiles
        WHERE role=$1 GROUP BY admin_status`
	rows, err := r.pool.Query(ctx, query, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.AdminStatus]int64)
	for rows.Next() {
		var status domain.AdminStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanProfiles(rows pgx.Rows) ([]domain.UserProfile, error) {
	var result []domain.UserProfile
	for rows.Next() {
		var profile domain.UserProfile
		if err := rows.Scan(
			&profile.ID,
			&profile.UserID,
			&profile.FullName,
			&profile.Phone,
			&profile.Role,
			&profile.AdminStatus,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	return result, rows.Err()
}
