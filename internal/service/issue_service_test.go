package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/civifix-service/internal/domain"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

type issueFixture struct {
	svc         *IssueService
	issues      *fakeIssueRepo
	comments    *fakeCommentRepo
	profiles    *fakeProfileRepo
	technicians *fakeTechnicianRepo
}

func newIssueFixture() *issueFixture {
	fx := &issueFixture{
		issues:      newFakeIssueRepo(),
		comments:    newFakeCommentRepo(),
		profiles:    newFakeProfileRepo(),
		technicians: newFakeTechnicianRepo(),
	}
	fx.svc = NewIssueService(IssueDependencies{
		IssueRepo:      fx.issues,
		CommentRepo:    fx.comments,
		ProfileRepo:    fx.profiles,
		TechnicianRepo: fx.technicians,
	})
	return fx
}

func (fx *issueFixture) seedIssue(t *testing.T, reportedBy string, status domain.IssueStatus, priority domain.IssuePriority, lat, lng float64) *domain.Issue {
	t.Helper()
	issue := &domain.Issue{
		ExternalKey: generateIssueKey(),
		Title:       "seeded",
		Description: "seeded",
		Category:    domain.CategoryRoad,
		Latitude:    lat,
		Longitude:   lng,
		Status:      status,
		Priority:    priority,
		ReportedBy:  reportedBy,
	}
	if err := fx.issues.Create(context.Background(), issue); err != nil {
		t.Fatalf("seed issue: %v", err)
	}
	return issue
}

func (fx *issueFixture) seedTechnician(t *testing.T, userID, name string) *domain.Technician {
	t.Helper()
	tech := &domain.Technician{UserID: userID, Name: name, Specialty: domain.DefaultSpecialty, Available: true}
	if err := fx.technicians.Create(context.Background(), tech); err != nil {
		t.Fatalf("seed technician: %v", err)
	}
	return tech
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, domainErr.Code, err)
	}
}

func TestCreateIssuePriority(t *testing.T) {
	tests := []struct {
		name     string
		seed     func(fx *issueFixture)
		lat, lng float64
		want     domain.IssuePriority
	}{
		{
			name: "no nearby issues",
			seed: func(fx *issueFixture) {},
			lat:  40.0, lng: -74.0,
			want: domain.PriorityMedium,
		},
		{
			name: "unresolved issue within box escalates",
			seed: func(fx *issueFixture) {
				fx.seedIssue(t, "user-9", domain.IssueStatusPending, domain.PriorityMedium, 40.0005, -74.0005)
			},
			lat: 40.0, lng: -74.0,
			want: domain.PriorityHigh,
		},
		{
			name: "fixed issue nearby does not escalate",
			seed: func(fx *issueFixture) {
				fx.seedIssue(t, "user-9", domain.IssueStatusFixed, domain.PriorityHigh, 40.0005, -74.0005)
			},
			lat: 40.0, lng: -74.0,
			want: domain.PriorityMedium,
		},
		{
			name: "unresolved issue outside box does not escalate",
			seed: func(fx *issueFixture) {
				fx.seedIssue(t, "user-9", domain.IssueStatusPending, domain.PriorityMedium, 40.005, -74.0)
			},
			lat: 40.0, lng: -74.0,
			want: domain.PriorityMedium,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := newIssueFixture()
			tc.seed(fx)
			issue, err := fx.svc.Create(context.Background(), "reporter", IssueCreateInput{
				Title:       "pothole",
				Description: "deep pothole",
				Category:    domain.CategoryRoad,
				Latitude:    tc.lat,
				Longitude:   tc.lng,
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if issue.Priority != tc.want {
				t.Fatalf("priority = %s, want %s", issue.Priority, tc.want)
			}
			if issue.Status != domain.IssueStatusPending {
				t.Fatalf("status = %s, want Pending", issue.Status)
			}
			if issue.ExternalKey == "" {
				t.Fatal("external key not set")
			}
		})
	}
}

func TestCreateIssueSecondReporterEscalates(t *testing.T) {
	fx := newIssueFixture()

	first, err := fx.svc.Create(context.Background(), "citizen-a", IssueCreateInput{
		Title: "streetlight out", Description: "dark corner",
		Category: domain.CategoryPower, Latitude: 51.5, Longitude: -0.12,
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.Priority != domain.PriorityMedium {
		t.Fatalf("first priority = %s, want Medium", first.Priority)
	}

	second, err := fx.svc.Create(context.Background(), "citizen-b", IssueCreateInput{
		Title: "same streetlight", Description: "still dark",
		Category: domain.CategoryPower, Latitude: 51.5004, Longitude: -0.1204,
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Priority != domain.PriorityHigh {
		t.Fatalf("second priority = %s, want High", second.Priority)
	}
}

func TestCreateIssueValidation(t *testing.T) {
	fx := newIssueFixture()
	tests := []struct {
		name  string
		input IssueCreateInput
	}{
		{"empty title", IssueCreateInput{Description: "d", Category: domain.CategoryRoad}},
		{"blank description", IssueCreateInput{Title: "t", Description: "   ", Category: domain.CategoryRoad}},
		{"unknown category", IssueCreateInput{Title: "t", Description: "d", Category: "Bridges"}},
		{"latitude out of range", IssueCreateInput{Title: "t", Description: "d", Category: domain.CategoryRoad, Latitude: 91}},
		{"longitude out of range", IssueCreateInput{Title: "t", Description: "d", Category: domain.CategoryRoad, Longitude: -181}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Create(context.Background(), "reporter", tc.input)
			assertCode(t, err, "VALIDATION_FAILED")
		})
	}
}

func TestAssignTechnician(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("admin-user", domain.RoleAdmin, domain.AdminStatusApproved, "Ada Admin")
	fx.profiles.addProfile("citizen-user", domain.RoleCitizen, domain.AdminStatusNone, "Carl Citizen")
	tech := fx.seedTechnician(t, "tech-user", "Tina Tech")
	issue := fx.seedIssue(t, "citizen-user", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)

	if _, err := fx.svc.AssignTechnician(context.Background(), "citizen-user", issue.ID, tech.ID); err == nil {
		t.Fatal("expected forbidden for citizen caller")
	} else {
		assertCode(t, err, "FORBIDDEN")
	}

	_, err := fx.svc.AssignTechnician(context.Background(), "admin-user", issue.ID, "missing-tech")
	assertCode(t, err, "NOT_FOUND")

	updated, err := fx.svc.AssignTechnician(context.Background(), "admin-user", issue.ID, tech.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.Status != domain.IssueStatusAssigned {
		t.Fatalf("status = %s, want Assigned", updated.Status)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != tech.ID {
		t.Fatal("assignee not recorded")
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("admin-user", domain.RoleAdmin, domain.AdminStatusApproved, "Ada Admin")
	tech := fx.seedTechnician(t, "tech-user", "Tina Tech")

	pending := fx.seedIssue(t, "citizen", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)
	_, err := fx.svc.UpdateStatus(context.Background(), "admin-user", pending.ID, domain.IssueStatusFixed)
	assertCode(t, err, "VALIDATION_FAILED")

	// Pending -> Assigned requires a technician already attached.
	_, err = fx.svc.UpdateStatus(context.Background(), "admin-user", pending.ID, domain.IssueStatusAssigned)
	assertCode(t, err, "VALIDATION_FAILED")

	assigned := fx.seedIssue(t, "citizen", domain.IssueStatusAssigned, domain.PriorityHigh, 2, 2)
	assigned.AssignedTo = &tech.ID
	if err := fx.issues.Update(context.Background(), assigned); err != nil {
		t.Fatalf("seed update: %v", err)
	}

	reverted, err := fx.svc.UpdateStatus(context.Background(), "admin-user", assigned.ID, domain.IssueStatusPending)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.AssignedTo != nil {
		t.Fatal("moving back to Pending should detach the technician")
	}
}

func TestMarkFixed(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("tech-user", domain.RoleTechnician, domain.AdminStatusNone, "Tina Tech")
	fx.profiles.addProfile("other-tech-user", domain.RoleTechnician, domain.AdminStatusNone, "Omar Other")
	tech := fx.seedTechnician(t, "tech-user", "Tina Tech")
	fx.seedTechnician(t, "other-tech-user", "Omar Other")

	issue := fx.seedIssue(t, "citizen", domain.IssueStatusAssigned, domain.PriorityHigh, 1, 1)
	issue.AssignedTo = &tech.ID
	if err := fx.issues.Update(context.Background(), issue); err != nil {
		t.Fatalf("seed update: %v", err)
	}

	_, err := fx.svc.MarkFixed(context.Background(), "other-tech-user", issue.ID, "")
	assertCode(t, err, "FORBIDDEN")

	fixed, err := fx.svc.MarkFixed(context.Background(), "tech-user", issue.ID, "proof.jpg")
	if err != nil {
		t.Fatalf("mark fixed: %v", err)
	}
	if fixed.Status != domain.IssueStatusFixed {
		t.Fatalf("status = %s, want Fixed", fixed.Status)
	}

	comments, _ := fx.comments.ListByIssue(context.Background(), issue.ID)
	if len(comments) != 1 || comments[0].Message != fixedProofMessage {
		t.Fatalf("expected single proof comment, got %v", comments)
	}
}

func TestMarkFixedWithoutProofAddsNoComment(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("tech-user", domain.RoleTechnician, domain.AdminStatusNone, "Tina Tech")
	tech := fx.seedTechnician(t, "tech-user", "Tina Tech")

	issue := fx.seedIssue(t, "citizen", domain.IssueStatusAssigned, domain.PriorityHigh, 1, 1)
	issue.AssignedTo = &tech.ID
	if err := fx.issues.Update(context.Background(), issue); err != nil {
		t.Fatalf("seed update: %v", err)
	}

	if _, err := fx.svc.MarkFixed(context.Background(), "tech-user", issue.ID, "   "); err != nil {
		t.Fatalf("mark fixed: %v", err)
	}
	comments, _ := fx.comments.ListByIssue(context.Background(), issue.ID)
	if len(comments) != 0 {
		t.Fatalf("expected no comments, got %d", len(comments))
	}
}

func TestDeleteIssueCascades(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("admin-user", domain.RoleAdmin, domain.AdminStatusApproved, "Ada Admin")
	fx.profiles.addProfile("citizen-user", domain.RoleCitizen, domain.AdminStatusNone, "Carl Citizen")

	issue := fx.seedIssue(t, "citizen-user", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)
	if _, err := fx.svc.AddComment(context.Background(), "citizen-user", issue.ID, "any update?"); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	err := fx.svc.Delete(context.Background(), "citizen-user", issue.ID)
	assertCode(t, err, "FORBIDDEN")

	if err := fx.svc.Delete(context.Background(), "admin-user", issue.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := fx.issues.GetByID(context.Background(), issue.ID); err == nil {
		t.Fatal("issue still present after delete")
	}
	comments, _ := fx.comments.ListByIssue(context.Background(), issue.ID)
	if len(comments) != 0 {
		t.Fatal("comments not cascaded")
	}

	err = fx.svc.Delete(context.Background(), "admin-user", issue.ID)
	assertCode(t, err, "NOT_FOUND")
}

func TestAddComment(t *testing.T) {
	fx := newIssueFixture()
	issue := fx.seedIssue(t, "citizen", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)

	_, err := fx.svc.AddComment(context.Background(), "citizen", issue.ID, "  ")
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = fx.svc.AddComment(context.Background(), "citizen", "missing-issue", "hello")
	assertCode(t, err, "NOT_FOUND")

	comment, err := fx.svc.AddComment(context.Background(), "citizen", issue.ID, "hello")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.IssueID != issue.ID || comment.Message != "hello" {
		t.Fatalf("unexpected comment: %+v", comment)
	}
}

func TestListMineScopedToCaller(t *testing.T) {
	fx := newIssueFixture()
	mine1 := fx.seedIssue(t, "citizen-a", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)
	fx.seedIssue(t, "citizen-b", domain.IssueStatusPending, domain.PriorityMedium, 2, 2)
	mine2 := fx.seedIssue(t, "citizen-a", domain.IssueStatusFixed, domain.PriorityHigh, 3, 3)

	issues, err := fx.svc.ListMine(context.Background(), "citizen-a")
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	for _, issue := range issues {
		if issue.ReportedBy != "citizen-a" {
			t.Fatalf("listing leaked issue %s reported by %s", issue.ID, issue.ReportedBy)
		}
	}
	// Newest first.
	if issues[0].ID != mine2.ID || issues[1].ID != mine1.ID {
		t.Fatalf("unexpected order: %s, %s", issues[0].ID, issues[1].ID)
	}

	issues, err = fx.svc.ListMine(context.Background(), "citizen-c")
	if err != nil {
		t.Fatalf("list mine for empty reporter: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %d", len(issues))
	}
}

func TestUpdatePriority(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("admin-user", domain.RoleAdmin, domain.AdminStatusApproved, "Ada Admin")
	fx.profiles.addProfile("citizen-user", domain.RoleCitizen, domain.AdminStatusNone, "Carl Citizen")
	issue := fx.seedIssue(t, "citizen-user", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)

	_, err := fx.svc.UpdatePriority(context.Background(), "citizen-user", issue.ID, domain.PriorityLow)
	assertCode(t, err, "FORBIDDEN")

	_, err = fx.svc.UpdatePriority(context.Background(), "admin-user", issue.ID, "Urgent")
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = fx.svc.UpdatePriority(context.Background(), "admin-user", "missing-issue", domain.PriorityLow)
	assertCode(t, err, "NOT_FOUND")

	// Low is only reachable through this override; submission derives Medium or High.
	updated, err := fx.svc.UpdatePriority(context.Background(), "admin-user", issue.ID, domain.PriorityLow)
	if err != nil {
		t.Fatalf("update priority: %v", err)
	}
	if updated.Priority != domain.PriorityLow {
		t.Fatalf("priority = %s, want Low", updated.Priority)
	}
	if updated.Status != domain.IssueStatusPending {
		t.Fatalf("status changed by priority override: %s", updated.Status)
	}

	stored, err := fx.issues.GetByID(context.Background(), issue.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Priority != domain.PriorityLow {
		t.Fatalf("stored priority = %s, want Low", stored.Priority)
	}
}

func TestListAllAdminApprovalGate(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("pending-admin", domain.RoleAdmin, domain.AdminStatusPending, "Pat Pending")
	fx.profiles.addProfile("approved-admin", domain.RoleAdmin, domain.AdminStatusApproved, "Ada Admin")
	fx.profiles.addProfile("super", domain.RoleSuperAdmin, domain.AdminStatusNone, "Sam Super")
	fx.profiles.addProfile("citizen-user", domain.RoleCitizen, domain.AdminStatusNone, "Carl Citizen")
	fx.seedIssue(t, "citizen-user", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)
	fx.seedIssue(t, "ghost-user", domain.IssueStatusPending, domain.PriorityMedium, 2, 2)

	_, err := fx.svc.ListAll(context.Background(), "pending-admin")
	assertCode(t, err, "FORBIDDEN")

	_, err = fx.svc.ListAll(context.Background(), "citizen-user")
	assertCode(t, err, "FORBIDDEN")

	for _, caller := range []string{"approved-admin", "super"} {
		issues, err := fx.svc.ListAll(context.Background(), caller)
		if err != nil {
			t.Fatalf("list all as %s: %v", caller, err)
		}
		if len(issues) != 2 {
			t.Fatalf("expected 2 issues, got %d", len(issues))
		}
	}

	issues, _ := fx.svc.ListAll(context.Background(), "approved-admin")
	names := map[string]string{}
	for _, issue := range issues {
		names[issue.ReportedBy] = issue.ReporterName
	}
	if names["citizen-user"] != "Carl Citizen" {
		t.Fatalf("reporter name = %q, want Carl Citizen", names["citizen-user"])
	}
	if names["ghost-user"] != "Unknown" {
		t.Fatalf("missing profile should map to Unknown, got %q", names["ghost-user"])
	}
}

func TestListAssignedOrdersByPriority(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("tech-user", domain.RoleTechnician, domain.AdminStatusNone, "Tina Tech")
	fx.profiles.addProfile("citizen-user", domain.RoleCitizen, domain.AdminStatusNone, "Carl Citizen")
	tech := fx.seedTechnician(t, "tech-user", "Tina Tech")

	low := fx.seedIssue(t, "citizen-user", domain.IssueStatusAssigned, domain.PriorityLow, 1, 1)
	high := fx.seedIssue(t, "citizen-user", domain.IssueStatusAssigned, domain.PriorityHigh, 2, 2)
	for _, issue := range []*domain.Issue{low, high} {
		issue.AssignedTo = &tech.ID
		if err := fx.issues.Update(context.Background(), issue); err != nil {
			t.Fatalf("seed update: %v", err)
		}
	}

	issues, err := fx.svc.ListAssigned(context.Background(), "tech-user")
	if err != nil {
		t.Fatalf("list assigned: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	if issues[0].Priority != domain.PriorityHigh {
		t.Fatalf("first issue priority = %s, want High", issues[0].Priority)
	}
	if issues[0].ReporterName != "Carl Citizen" {
		t.Fatalf("reporter name = %q", issues[0].ReporterName)
	}
}

func TestGetIssueDetail(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("citizen-user", domain.RoleCitizen, domain.AdminStatusNone, "Carl Citizen")
	issue := fx.seedIssue(t, "citizen-user", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)
	if _, err := fx.svc.AddComment(context.Background(), "citizen-user", issue.ID, "first"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := fx.svc.AddComment(context.Background(), "ghost-user", issue.ID, "second"); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	detail, err := fx.svc.Get(context.Background(), issue.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.ReporterName != "Carl Citizen" {
		t.Fatalf("reporter name = %q", detail.ReporterName)
	}
	if len(detail.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(detail.Comments))
	}
	if detail.Comments[0].AuthorName != "Carl Citizen" || detail.Comments[1].AuthorName != "Unknown" {
		t.Fatalf("unexpected author names: %q, %q", detail.Comments[0].AuthorName, detail.Comments[1].AuthorName)
	}
}

func TestDashboardStats(t *testing.T) {
	fx := newIssueFixture()
	fx.profiles.addProfile("pending-admin", domain.RoleAdmin, domain.AdminStatusPending, "Pat Pending")
	fx.profiles.addProfile("approved-admin", domain.RoleAdmin, domain.AdminStatusApproved, "Ada Admin")
	fx.seedIssue(t, "c", domain.IssueStatusPending, domain.PriorityHigh, 1, 1)
	fx.seedIssue(t, "c", domain.IssueStatusAssigned, domain.PriorityHigh, 2, 2)
	fx.seedIssue(t, "c", domain.IssueStatusFixed, domain.PriorityHigh, 3, 3)

	_, err := fx.svc.DashboardStats(context.Background(), "pending-admin")
	assertCode(t, err, "FORBIDDEN")

	stats, err := fx.svc.DashboardStats(context.Background(), "approved-admin")
	if err != nil {
		t.Fatalf("dashboard stats: %v", err)
	}
	if stats.TotalIssues != 3 || stats.PendingIssues != 1 || stats.AssignedIssues != 1 || stats.FixedIssues != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.HighPriority != 2 {
		t.Fatalf("high priority = %d, want 2 (fixed issues excluded)", stats.HighPriority)
	}
}

func TestPublicStats(t *testing.T) {
	fx := newIssueFixture()
	fx.seedIssue(t, "c", domain.IssueStatusPending, domain.PriorityMedium, 1, 1)
	fx.seedIssue(t, "c", domain.IssueStatusFixed, domain.PriorityMedium, 2, 2)

	stats, err := fx.svc.PublicStats(context.Background())
	if err != nil {
		t.Fatalf("public stats: %v", err)
	}
	if stats.TotalIssues != 2 || stats.PendingIssues != 1 || stats.FixedIssues != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.ByCategory[domain.CategoryRoad] != 2 {
		t.Fatalf("road count = %d, want 2", stats.ByCategory[domain.CategoryRoad])
	}
	if stats.ByCategory[domain.CategoryWater] != 0 {
		t.Fatal("absent categories should still be present with zero counts")
	}
	if len(stats.RecentIssues) != 2 {
		t.Fatalf("recent = %d, want 2", len(stats.RecentIssues))
	}
}
