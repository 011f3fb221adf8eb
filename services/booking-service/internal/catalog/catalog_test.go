package catalog

import "testing"

func TestResolve_Totals(t *testing.T) {
	sel, err := Resolve([]string{"premium-haircut", "hot-towel-shave"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.TotalDuration != 85 {
		t.Fatalf("expected duration 85, got %d", sel.TotalDuration)
	}
	if sel.TotalPrice != 75 {
		t.Fatalf("expected price 75, got %d", sel.TotalPrice)
	}
}

func TestResolve_Rejects(t *testing.T) {
	cases := [][]string{
		nil,
		{"unknown"},
		{"beard-trim", "beard-trim"},
		{"premium-haircut", "head-shave"},
		{"haircut-beard-package", "beard-trim"},
	}
	for _, ids := range cases {
		if _, err := Resolve(ids); err == nil {
			t.Fatalf("expected error for %v", ids)
		}
	}
}

func TestSuggestPackage(t *testing.T) {
	pkg, ok := SuggestPackage([]string{"beard-trim", "premium-haircut"})
	if !ok {
		t.Fatal("expected package suggestion for haircut + beard trim")
	}
	if pkg.ID != "haircut-beard-package" || pkg.Price != 50 {
		t.Fatalf("unexpected package %+v", pkg)
	}
	if _, ok := SuggestPackage([]string{"premium-haircut"}); ok {
		t.Fatal("single service must not suggest the package")
	}
}
