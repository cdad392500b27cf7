package model

import (
	"slices"
	"time"
)

// EntryType is the incident category of an entry group.
type EntryType string

// Entry types.
const (
	EntryTypeExchange EntryType = "exchange"
	EntryTypeBreakage EntryType = "breakage"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == EntryTypeExchange || t == EntryTypeBreakage
}

// EntryStatus is the lifecycle state of an entry group.
type EntryStatus string

// Entry statuses. Approved and rejected are terminal.
const (
	StatusDraft    EntryStatus = "draft"
	StatusPending  EntryStatus = "pending"
	StatusApproved EntryStatus = "approved"
	StatusRejected EntryStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are defined from s.
func (s EntryStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Evidence is the photographic proof attached to an item. The payload itself
// lives in an evidence backend and is retrieved through Ref. It is embedded in
// EntryItem so the persisted item keeps the flat photoUrl field.
type Evidence struct {
	Ref  string `json:"photoUrl"`
	MIME string `json:"photoMime,omitempty"`
	Size int64  `json:"photoSize,omitempty"`
}

// Present reports whether the evidence carries a resolvable reference.
func (e *Evidence) Present() bool {
	return e != nil && e.Ref != ""
}

// EntryItem is one reported product line. Product fields are a snapshot taken
// when the item was added.
type EntryItem struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	ProductCode string    `json:"productCode"`
	ProductSize string    `json:"productSize"`
	Quantity    int       `json:"quantity"`
	*Evidence
}

// HasEvidence reports whether the item has a photo reference.
func (i EntryItem) HasEvidence() bool {
	return i.Evidence.Present()
}

// EntryGroup is one submission unit bundling items.
type EntryGroup struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      EntryType   `json:"type"`
	Items     []EntryItem `json:"items"`
	Date      time.Time   `json:"date"`
	Status    EntryStatus `json:"status"`
	OwnerID   string      `json:"ownerId"`
	OwnerName string      `json:"ownerName"`
}

// Clone returns a deep copy so callers never share item slices or evidence.
func (g *EntryGroup) Clone() *EntryGroup {
	if g == nil {
		return nil
	}
	c := *g
	c.Items = make([]EntryItem, len(g.Items))
	for i, it := range g.Items {
		if it.Evidence != nil {
			ev := *it.Evidence
			it.Evidence = &ev
		}
		c.Items[i] = it
	}
	return &c
}

// ItemIndex returns the position of the item with the given id, or -1.
func (g *EntryGroup) ItemIndex(itemID string) int {
	return slices.IndexFunc(g.Items, func(it EntryItem) bool { return it.ID == itemID })
}

// EvidenceItems returns the items that carry evidence, in group order.
func (g *EntryGroup) EvidenceItems() []EntryItem {
	var out []EntryItem
	for _, it := range g.Items {
		if it.HasEvidence() {
			out = append(out, it)
		}
	}
	return out
}
