package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civifix-service/internal/domain"
)

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	Delete(ctx context.Context, id string) error
	ListByReporter(ctx context.Context, userID string) ([]domain.Issue, error)
	ListByAssignee(ctx context.Context, technicianID string) ([]domain.Issue, error)
	ListAll(ctx context.Context) ([]domain.Issue, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Issue, error)
	ExistsUnresolvedNear(ctx context.Context, lat, lng, threshold float64) (bool, error)
	CountsByStatus(ctx context.Context) (map[domain.IssueStatus]int64, error)
	CountsByCategory(ctx context.Context) (map[domain.IssueCategory]int64, error)
	CountUnresolvedHighPriority(ctx context.Context) (int64, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates the repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, external_key, title, description, category, photo, latitude, longitude,
               status, priority, reported_by, assigned_to, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (external_key, title, description, category, photo, latitude, longitude, status, priority, reported_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		issue.ExternalKey,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Photo,
		issue.Latitude,
		issue.Longitude,
		issue.Status,
		issue.Priority,
		issue.ReportedBy,
		issue.AssignedTo,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

// Update persists the mutable lifecycle fields. Title, description, category
// and location are immutable after submission.
func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET status=$1, priority=$2, assigned_to=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query,
		issue.Status,
		issue.Priority,
		issue.AssignedTo,
		issue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	const query = `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`

	var issue domain.Issue
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&issue.ID,
		&issue.ExternalKey,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Photo,
		&issue.Latitude,
		&issue.Longitude,
		&issue.Status,
		&issue.Priority,
		&issue.ReportedBy,
		&issue.AssignedTo,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) ListByReporter(ctx context.Context, userID string) ([]domain.Issue, error) {
	const query = `SELECT ` + issueColumns + ` FROM issues
        WHERE reported_by=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// ListByAssignee sorts by urgency first, then recency.
func (r *issueRepository) ListByAssignee(ctx context.Context, technicianID string) ([]domain.Issue, error) {
	const query = `SELECT ` + issueColumns + ` FROM issues
        WHERE assigned_to=$1
        ORDER BY CASE priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END DESC,
                 created_at DESC`
	rows, err := r.pool.Query(ctx, query, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListAll(ctx context.Context) ([]domain.Issue, error) {
	const query = `SELECT ` + issueColumns + ` FROM issues ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListRecent(ctx context.Context, limit int) ([]domain.Issue, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT ` + issueColumns + ` FROM issues ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// ExistsUnresolvedNear runs the fixed-size bounding-box scan used for
// priority escalation. Not a great-circle distance.
func (r *issueRepository) ExistsUnresolvedNear(ctx context.Context, lat, lng, threshold float64) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM issues
            WHERE status <> $1
              AND latitude BETWEEN $2 AND $3
              AND longitude BETWEEN $4 AND $5
        )`

	var exists bool
	err := r.pool.QueryRow(ctx, query,
		domain.IssueStatusFixed,
		lat-threshold, lat+threshold,
		lng-threshold, lng+threshold,
	).Scan(&exists)
	return exists, err
}

func (r *issueRepository) CountsByStatus(ctx context.Context) (map[domain.IssueStatus]int64, error) {
	const query = `SELECT status, COUNT(*) FROM issues GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.IssueStatus]int64)
	for rows.Next() {
		var status domain.IssueStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *issueRepository) CountsByCategory(ctx context.Context) (map[domain.IssueCategory]int64, error) {
	const query = `SELECT category, COUNT(*) FROM issues GROUP BY category`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.IssueCategory]int64)
	for rows.Next() {
		var category domain.IssueCategory
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

func (r *issueRepository) CountUnresolvedHighPriority(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM issues WHERE priority=$1 AND status <> $2`
	var count int64
	err := r.pool.QueryRow(ctx, query, domain.PriorityHigh, domain.IssueStatusFixed).Scan(&count)
	return count, err
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.ExternalKey,
			&issue.Title,
			&issue.Description,
			&issue.Category,
			&issue.Photo,
			&issue.Latitude,
			&issue.Longitude,
			&issue.Status,
			&issue.Priority,
			&issue.ReportedBy,
			&issue.AssignedTo,
			&issue.CreatedAt,
			&issue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
