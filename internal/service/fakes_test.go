package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civifix-service/internal/domain"
)

// In-memory repository fakes. They mirror the SQL behavior the services
// depend on, including pgx.ErrNoRows on missing rows.

type fakeIDSource struct{ next int }

func (f *fakeIDSource) id(prefix string) string {
	f.next++
	return fmt.Sprintf("%s-%d", prefix, f.next)
}

type fakeProfileRepo struct {
	ids      fakeIDSource
	profiles map[string]*domain.UserProfile // keyed by profile id
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.UserProfile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *domain.UserProfile) error {
	profile.ID = r.ids.id("profile")
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *domain.UserProfile) error {
	if _, ok := r.profiles[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	profile.UpdatedAt = time.Now()
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id string) (*domain.UserProfile, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (*domain.UserProfile, error) {
	for _, profile := range r.profiles {
		if profile.UserID == userID {
			clone := *profile
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProfileRepo) ListAdmins(_ context.Context, status *domain.AdminStatus) ([]domain.UserProfile, error) {
	var result []domain.UserProfile
	for _, profile := range r.profiles {
		if profile.Role != domain.RoleAdmin {
			continue
		}
		if status != nil && profile.AdminStatus != *status {
			continue
		}
		result = append(result, *profile)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeProfileRepo) ListByUserIDs(_ context.Context, userIDs []string) ([]domain.UserProfile, error) {
	var result []domain.UserProfile
	for _, id := range userIDs {
		for _, profile := range r.profiles {
			if profile.UserID == id {
				result = append(result, *profile)
			}
		}
	}
	return result, nil
}

func (r *fakeProfileRepo) UpdateAdminStatus(_ context.Context, profileID string, status domain.AdminStatus) error {
	profile, ok := r.profiles[profileID]
	if !ok || profile.Role != domain.RoleAdmin {
		return pgx.ErrNoRows
	}
	profile.AdminStatus = status
	return nil
}

func (r *fakeProfileRepo) CountsByRole(_ context.Context) (map[domain.Role]int64, error) {
	counts := make(map[domain.Role]int64)
	for _, profile := range r.profiles {
		counts[profile.Role]++
	}
	return counts, nil
}

func (r *fakeProfileRepo) CountAdminsByStatus(_ context.Context) (map[domain.AdminStatus]int64, error) {
	counts := make(map[domain.AdminStatus]int64)
	for _, profile := range r.profiles {
		if profile.Role == domain.RoleAdmin {
			counts[profile.AdminStatus]++
		}
	}
	return counts, nil
}

// addProfile seeds a profile directly, bypassing upsert logic.
func (r *fakeProfileRepo) addProfile(userID string, role domain.Role, status domain.AdminStatus, name string) *domain.UserProfile {
	profile := &domain.UserProfile{
		ID:          r.ids.id("profile"),
		UserID:      userID,
		FullName:    name,
		Phone:       "555-0100",
		Role:        role,
		AdminStatus: status,
	}
	r.profiles[profile.ID] = profile
	return profile
}

type fakeTechnicianRepo struct {
	ids   fakeIDSource
	techs map[string]*domain.Technician // keyed by technician id
}

func newFakeTechnicianRepo() *fakeTechnicianRepo {
	return &fakeTechnicianRepo{techs: make(map[string]*domain.Technician)}
}

func (r *fakeTechnicianRepo) Create(_ context.Context, tech *domain.Technician) error {
	tech.ID = r.ids.id("tech")
	tech.CreatedAt = time.Now()
	tech.UpdatedAt = tech.CreatedAt
	clone := *tech
	r.techs[tech.ID] = &clone
	return nil
}

func (r *fakeTechnicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	tech, ok := r.techs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *tech
	return &clone, nil
}

func (r *fakeTechnicianRepo) GetByUserID(_ context.Context, userID string) (*domain.Technician, error) {
	for _, tech := range r.techs {
		if tech.UserID == userID {
			clone := *tech
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTechnicianRepo) List(_ context.Context) ([]domain.Technician, error) {
	var result []domain.Technician
	for _, tech := range r.techs {
		result = append(result, *tech)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeTechnicianRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Technician, error) {
	var result []domain.Technician
	for _, id := range ids {
		if tech, ok := r.techs[id]; ok {
			result = append(result, *tech)
		}
	}
	return result, nil
}

func (r *fakeTechnicianRepo) SetAvailability(_ context.Context, userID string, available bool) error {
	for _, tech := range r.techs {
		if tech.UserID == userID {
			tech.Available = available
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeTechnicianRepo) SetSpecialty(_ context.Context, userID, specialty string) error {
	for _, tech := range r.techs {
		if tech.UserID == userID {
			tech.Specialty = specialty
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeIssueRepo struct {
	ids    fakeIDSource
	issues map[string]*domain.Issue
	order  []string
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[string]*domain.Issue)}
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	issue.ID = r.ids.id("issue")
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	clone := *issue
	r.issues[issue.ID] = &clone
	r.order = append(r.order, issue.ID)
	return nil
}

func (r *fakeIssueRepo) Update(_ context.Context, issue *domain.Issue) error {
	stored, ok := r.issues[issue.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = issue.Status
	stored.Priority = issue.Priority
	stored.AssignedTo = issue.AssignedTo
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *issue
	return &clone, nil
}

func (r *fakeIssueRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.issues, id)
	return nil
}

func (r *fakeIssueRepo) ListByReporter(_ context.Context, userID string) ([]domain.Issue, error) {
	var result []domain.Issue
	for i := len(r.order) - 1; i >= 0; i-- {
		if issue, ok := r.issues[r.order[i]]; ok && issue.ReportedBy == userID {
			result = append(result, *issue)
		}
	}
	return result, nil
}

func (r *fakeIssueRepo) ListByAssignee(_ context.Context, technicianID string) ([]domain.Issue, error) {
	var result []domain.Issue
	for i := len(r.order) - 1; i >= 0; i-- {
		issue, ok := r.issues[r.order[i]]
		if ok && issue.AssignedTo != nil && *issue.AssignedTo == technicianID {
			result = append(result, *issue)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority.Rank() > result[j].Priority.Rank()
	})
	return result, nil
}

func (r *fakeIssueRepo) ListAll(_ context.Context) ([]domain.Issue, error) {
	var result []domain.Issue
	for i := len(r.order) - 1; i >= 0; i-- {
		if issue, ok := r.issues[r.order[i]]; ok {
			result = append(result, *issue)
		}
	}
	return result, nil
}

func (r *fakeIssueRepo) ListRecent(ctx context.Context, limit int) ([]domain.Issue, error) {
	all, _ := r.ListAll(ctx)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeIssueRepo) ExistsUnresolvedNear(_ context.Context, lat, lng, threshold float64) (bool, error) {
	for _, issue := range r.issues {
		if issue.Status == domain.IssueStatusFixed {
			continue
		}
		if math.Abs(issue.Latitude-lat) <= threshold && math.Abs(issue.Longitude-lng) <= threshold {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeIssueRepo) CountsByStatus(_ context.Context) (map[domain.IssueStatus]int64, error) {
	counts := make(map[domain.IssueStatus]int64)
	for _, issue := range r.issues {
		counts[issue.Status]++
	}
	return counts, nil
}

func (r *fakeIssueRepo) CountsByCategory(_ context.Context) (map[domain.IssueCategory]int64, error) {
	counts := make(map[domain.IssueCategory]int64)
	for _, issue := range r.issues {
		counts[issue.Category]++
	}
	return counts, nil
}

func (r *fakeIssueRepo) CountUnresolvedHighPriority(_ context.Context) (int64, error) {
	var count int64
	for _, issue := range r.issues {
		if issue.Priority == domain.PriorityHigh && issue.Status != domain.IssueStatusFixed {
			count++
		}
	}
	return count, nil
}

type fakeCommentRepo struct {
	ids      fakeIDSource
	comments []domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.ID = r.ids.id("comment")
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByIssue(_ context.Context, issueID string) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.IssueID == issueID {
			result = append(result, comment)
		}
	}
	return result, nil
}

func (r *fakeCommentRepo) DeleteByIssue(_ context.Context, issueID string) (int64, error) {
	var kept []domain.Comment
	var removed int64
	for _, comment := range r.comments {
		if comment.IssueID == issueID {
			removed++
			continue
		}
		kept = append(kept, comment)
	}
	r.comments = kept
	return removed, nil
}

type fakeUserRepo struct {
	ids   fakeIDSource
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.ids.id("user")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}
