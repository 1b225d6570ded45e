package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to IssueStatus
		want     bool
	}{
		{IssueStatusPending, IssueStatusAssigned, true},
		{IssueStatusPending, IssueStatusFixed, false},
		{IssueStatusPending, IssueStatusPending, false},
		{IssueStatusAssigned, IssueStatusPending, true},
		{IssueStatusAssigned, IssueStatusFixed, true},
		{IssueStatusAssigned, IssueStatusAssigned, false},
		{IssueStatusFixed, IssueStatusPending, true},
		{IssueStatusFixed, IssueStatusAssigned, false},
		{IssueStatusFixed, IssueStatusFixed, false},
	}
	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestClearsAssignee(t *testing.T) {
	if !ClearsAssignee(IssueStatusPending) {
		t.Error("entering Pending must detach the technician")
	}
	if ClearsAssignee(IssueStatusFixed) {
		t.Error("entering Fixed must keep the technician for the record")
	}
}

func TestCategoryValid(t *testing.T) {
	for _, category := range IssueCategories {
		if !category.Valid() {
			t.Errorf("%s should be valid", category)
		}
	}
	if IssueCategory("Bridges").Valid() {
		t.Error("unknown category accepted")
	}
	if IssueCategory("road").Valid() {
		t.Error("category matching must be case sensitive")
	}
}

func TestPriorityRank(t *testing.T) {
	if PriorityHigh.Rank() <= PriorityMedium.Rank() || PriorityMedium.Rank() <= PriorityLow.Rank() {
		t.Error("priority ranks out of order")
	}
	if IssuePriority("Urgent").Rank() != 0 {
		t.Error("unknown priority should rank lowest")
	}
}

func TestRoleSelectable(t *testing.T) {
	for _, role := range SelectableRoles {
		if !role.Selectable() {
			t.Errorf("%s should be selectable", role)
		}
	}
	if RoleSuperAdmin.Selectable() {
		t.Error("SuperAdmin must not be selectable")
	}
}
