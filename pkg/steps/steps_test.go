package steps

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/model"
)

func TestDefaultOrder(t *testing.T) {
	dir := Default()
	var ids []ID
	for _, step := range dir.Steps() {
		ids = append(ids, step.ID)
	}
	if diff := cmp.Diff([]ID{Personal, Location, Payment, Summary}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if dir.First().ID != Personal {
		t.Fatalf("first step should be personal")
	}
}

func TestTraversal(t *testing.T) {
	dir := Default()
	if next, ok := dir.Next(Location); !ok || next.ID != Payment {
		t.Fatalf("next(location) = %v, %v", next.ID, ok)
	}
	if _, ok := dir.Next(Summary); ok {
		t.Fatalf("summary has no successor")
	}
	if prev, ok := dir.Prev(Payment); !ok || prev.ID != Location {
		t.Fatalf("prev(payment) = %v, %v", prev.ID, ok)
	}
	if _, ok := dir.Prev(Personal); ok {
		t.Fatalf("personal has no predecessor")
	}
}

func TestByRouteAndSection(t *testing.T) {
	dir := Default()
	cases := map[string]ID{"/": Personal, "/location/": Location, "/payment": Payment, "/summary": Summary}
	for route, want := range cases {
		step, ok := dir.ByRoute(route)
		if !ok || step.ID != want {
			t.Fatalf("route %q resolved to %v (%v)", route, step.ID, ok)
		}
	}
	if step, ok := dir.ForSection(model.SectionPayment); !ok || step.ID != Payment {
		t.Fatalf("payment section resolved to %v", step.ID)
	}
	if summary := dir.MustGet(Summary); summary.IsForm() {
		t.Fatalf("summary should not collect input")
	}
}
