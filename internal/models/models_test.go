package models

import (
	"reflect"
	"testing"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"open", StatusOpen},
		{"in_progress", StatusInProgress},
		{"progress", StatusInProgress},
		{"wip", StatusInProgress},
		{"done", StatusCompleted},
		{"completed", StatusCompleted},
		{"rejected", StatusRejected},
		{"bogus", Status("bogus")},
	}
	for _, tt := range tests {
		if got := NormalizeStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		if !IsValidStatus(s) {
			t.Errorf("IsValidStatus(%q) = false", s)
		}
	}
	if IsValidStatus("archived") {
		t.Error("IsValidStatus accepted unknown status")
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"ui", []string{"ui"}},
		{"ui, dark-mode,api", []string{"ui", "dark-mode", "api"}},
		{" , ,ui, ", []string{"ui"}},
	}
	for _, tt := range tests {
		if got := ParseTags(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEffectiveTagsPrefersList(t *testing.T) {
	f := Feedback{Tags: "a,b", TagsList: []string{"x"}}
	if got := f.EffectiveTags(); len(got) != 1 || got[0] != "x" {
		t.Errorf("EffectiveTags = %v, want tags_list to win", got)
	}
	f = Feedback{Tags: "a,b"}
	if got := f.EffectiveTags(); len(got) != 2 {
		t.Errorf("EffectiveTags = %v, want parsed fallback", got)
	}
}

func TestBoardRef(t *testing.T) {
	f := Feedback{BoardID: 5}
	if f.BoardRef() != 5 {
		t.Errorf("BoardRef = %d, want 5", f.BoardRef())
	}
	f.Board = &Board{ID: 9}
	if f.BoardRef() != 9 {
		t.Errorf("BoardRef = %d, want nested board to win", f.BoardRef())
	}
}

func TestCanEditComment(t *testing.T) {
	author := &User{ID: 1, Role: RoleContributor}
	other := &User{ID: 2, Role: RoleContributor}
	mod := &User{ID: 3, Role: RoleModerator}
	admin := &User{ID: 4, Role: RoleAdmin}
	comment := &Comment{ID: 10, User: author}

	tests := []struct {
		name string
		user *User
		c    *Comment
		want bool
	}{
		{"author", author, comment, true},
		{"other contributor", other, comment, false},
		{"moderator", mod, comment, true},
		{"admin", admin, comment, true},
		{"nil user", nil, comment, false},
		{"nil comment", author, nil, false},
		{"comment without user", other, &Comment{ID: 11}, false},
	}
	for _, tt := range tests {
		if got := CanEditComment(tt.user, tt.c); got != tt.want {
			t.Errorf("%s: CanEditComment = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCommentKey(t *testing.T) {
	c := Comment{ID: 42}
	if c.Key() != "42" {
		t.Errorf("Key = %q, want 42", c.Key())
	}
	c = Comment{ClientID: "abc", Pending: true}
	if c.Key() != "pending:abc" {
		t.Errorf("Key = %q, want pending:abc", c.Key())
	}
	// A confirmed id never hides behind a leftover client id.
	c = Comment{ID: 42, ClientID: "abc"}
	if c.Key() != "pending:abc" {
		t.Errorf("Key = %q; client id keys until the entry is replaced", c.Key())
	}
}

func TestIsStaff(t *testing.T) {
	if (&User{Role: RoleContributor}).IsStaff() {
		t.Error("contributor reported as staff")
	}
	if !(&User{Role: RoleModerator}).IsStaff() || !(&User{Role: RoleAdmin}).IsStaff() {
		t.Error("moderator/admin not reported as staff")
	}
	var nilUser *User
	if nilUser.IsStaff() {
		t.Error("nil user reported as staff")
	}
}
