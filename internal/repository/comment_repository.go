package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civifix-service/internal/domain"
)

// CommentRepository manages issue comment threads.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.Comment, error)
	DeleteByIssue(ctx context.Context, issueID string) (int64, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (issue_id, author_user_id, message)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.IssueID,
		comment.AuthorUserID,
		comment.Message,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, issue_id, author_user_id, message, created_at
        FROM comments WHERE issue_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.IssueID,
			&comment.AuthorUserID,
			&comment.Message,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

// DeleteByIssue removes the whole thread; used only by the issue delete cascade.
func (r *commentRepository) DeleteByIssue(ctx context.Context, issueID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE issue_id=$1`, issueID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
