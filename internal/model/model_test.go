package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleUser, true},
		{RoleManager, RoleAdmin, false},
		{RoleManager, RoleManager, true},
		{RoleManager, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleManager, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail-closed.
		{"unknown", RoleUser, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestActorCanApprove(t *testing.T) {
	if (Actor{Role: RoleUser}).CanApprove() {
		t.Error("user must not approve")
	}
	if !(Actor{Role: RoleManager}).CanApprove() {
		t.Error("manager must approve")
	}
	if !(Actor{Role: RoleAdmin}).CanApprove() {
		t.Error("admin must approve")
	}
}

func TestEntryItemFlatEvidenceJSON(t *testing.T) {
	item := EntryItem{ID: "i1", ProductID: "1", ProductCode: "SKL350ML", Quantity: 2,
		Evidence: &Evidence{Ref: "db:abc", MIME: "image/jpeg", Size: 10}}

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	json.Unmarshal(data, &raw)
	if raw["photoUrl"] != "db:abc" {
		t.Errorf("expected flat photoUrl, got %v", raw)
	}

	bare, _ := json.Marshal(EntryItem{ID: "i2", Quantity: 1})
	var back EntryItem
	if err := json.Unmarshal(bare, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.HasEvidence() {
		t.Error("item without photo must not report evidence")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := &EntryGroup{ID: "g", Date: time.Now(), Items: []EntryItem{
		{ID: "a", Quantity: 1, Evidence: &Evidence{Ref: "db:1"}},
	}}
	c := g.Clone()
	c.Items[0].Quantity = 5
	c.Items[0].Evidence.Ref = "db:2"
	c.Items = append(c.Items, EntryItem{ID: "b"})

	if g.Items[0].Quantity != 1 || g.Items[0].Evidence.Ref != "db:1" || len(g.Items) != 1 {
		t.Errorf("clone shares state with original: %+v", g.Items)
	}
}

func TestEvidenceItemsKeepsOrder(t *testing.T) {
	g := &EntryGroup{Items: []EntryItem{
		{ID: "a", Evidence: &Evidence{Ref: "db:1"}},
		{ID: "b"},
		{ID: "c", Evidence: &Evidence{Ref: "db:3"}},
	}}
	got := g.EvidenceItems()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("unexpected evidence items: %+v", got)
	}
	if g.ItemIndex("b") != 1 || g.ItemIndex("zzz") != -1 {
		t.Error("ItemIndex mismatch")
	}
}

func TestErrorMessages(t *testing.T) {
	var verr *ValidationError
	if !errors.As(Invalid("name", "required"), &verr) || verr.Field != "name" {
		t.Error("Invalid should build a ValidationError")
	}

	cause := errors.New("bad json")
	err := &StoreCorruptedError{ID: "g1", Reason: "decoding", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("StoreCorruptedError should unwrap its cause")
	}

	w := &EmptyExportWarning{GroupID: "g1"}
	if w.Error() == "" {
		t.Error("expected message")
	}
}
