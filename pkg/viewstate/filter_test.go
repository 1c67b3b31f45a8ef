package viewstate

import (
	"reflect"
	"testing"
	"time"
)

type resourceRow struct {
	ID       string
	Name     string
	Status   string
	Quantity float64
	DueDate  *time.Time
}

func resourceName(r resourceRow) string   { return r.Name }
func resourceID(r resourceRow) string     { return r.ID }
func resourceStatus(r resourceRow) string { return r.Status }

func sampleResources() []resourceRow {
	return []resourceRow{
		{ID: "r1", Name: "Semen Portland", Status: "available", Quantity: 120},
		{ID: "r2", Name: "Besi Beton 10mm", Status: "allocated", Quantity: 40},
		{ID: "r3", Name: "Pasir", Status: "available", Quantity: 8},
		{ID: "r4", Name: "Concrete Mixer", Status: "depleted", Quantity: 0},
	}
}

func TestApplyEmptyFilterIsIdentity(t *testing.T) {
	records := sampleResources()
	got := Apply(records)
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("empty filter must return same elements in order")
	}
	got = Apply(records, nil, nil)
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("nil predicates must be inactive")
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	records := sampleResources()
	got := Apply(records, Facet(resourceStatus, "available"))
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r3" {
		t.Fatalf("unexpected filtered order %v", got)
	}
}

func TestApplyANDComposition(t *testing.T) {
	records := sampleResources()
	p1 := Facet(resourceStatus, "available")
	p2 := Search("pasir", resourceName, resourceID)

	sequential := Apply(Apply(records, p1), p2)
	combined := Apply(records, And(p1, p2))
	if !reflect.DeepEqual(sequential, combined) {
		t.Fatalf("filter(filter(R,P1),P2) = %v, filter(R,P1 AND P2) = %v", sequential, combined)
	}
	if len(combined) != 1 || combined[0].ID != "r3" {
		t.Fatalf("unexpected AND result %v", combined)
	}
}

func TestAndOfNothingIsInactive(t *testing.T) {
	if And[resourceRow]() != nil {
		t.Fatalf("And with no active members must be inactive")
	}
	if And[resourceRow](nil, nil) != nil {
		t.Fatalf("And of nil members must be inactive")
	}
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	records := sampleResources()
	byName := Apply(records, Search("BESI", resourceName, resourceID))
	if len(byName) != 1 || byName[0].ID != "r2" {
		t.Fatalf("name search failed: %v", byName)
	}
	byID := Apply(records, Search("r4", resourceName, resourceID))
	if len(byID) != 1 || byID[0].ID != "r4" {
		t.Fatalf("id search failed: %v", byID)
	}
}

func TestSearchBlankQueryInactive(t *testing.T) {
	if Search[resourceRow]("   ", resourceName) != nil {
		t.Fatalf("blank query must deactivate the search dimension")
	}
}

func TestFacetSentinels(t *testing.T) {
	if Facet(resourceStatus, "") != nil {
		t.Fatalf("empty facet must be inactive")
	}
	if Facet(resourceStatus, FacetAll) != nil {
		t.Fatalf("'all' facet must be inactive")
	}
	if Facet(resourceStatus, "available") == nil {
		t.Fatalf("concrete facet must be active")
	}
}

func TestWithinInclusiveBounds(t *testing.T) {
	records := sampleResources()
	got := Apply(records, Within(func(r resourceRow) float64 { return r.Quantity }, 8, 40))
	if len(got) != 2 || got[0].ID != "r2" || got[1].ID != "r3" {
		t.Fatalf("inclusive range failed: %v", got)
	}
}

func TestBeforeIsStrict(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	records := []resourceRow{
		{ID: "due-past", DueDate: &past},
		{ID: "due-now", DueDate: &now},
		{ID: "due-none"},
	}
	got := Apply(records, Before(func(r resourceRow) *time.Time { return r.DueDate }, now))
	if len(got) != 1 || got[0].ID != "due-past" {
		t.Fatalf("strictly-before failed: %v", got)
	}
}
