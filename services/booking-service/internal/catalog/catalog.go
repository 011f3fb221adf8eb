// Package catalog holds the shop's service menu: durations, prices, and the
// rules for which services can be combined in one appointment.
package catalog

import "fmt"

type Service struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"` // minutes
	Price    int    `json:"price"`    // whole dollars
}

// Selection is a validated set of services for one appointment.
type Selection struct {
	Services      []Service `json:"services"`
	TotalDuration int       `json:"totalDuration"`
	TotalPrice    int       `json:"totalPrice"`
}

var services = []Service{
	{ID: "premium-haircut", Name: "Premium Haircut", Duration: 45, Price: 35},
	{ID: "beard-trim", Name: "Beard Trim & Style", Duration: 30, Price: 25},
	{ID: "hot-towel-shave", Name: "Hot Towel Shave", Duration: 40, Price: 40},
	{ID: "head-shave", Name: "Head Shave", Duration: 35, Price: 30},
	{ID: "mustache-trim", Name: "Mustache Trim", Duration: 15, Price: 15},
	{ID: "haircut-beard-package", Name: "Haircut + Beard Trim Package", Duration: 80, Price: 50},
}

// conflicts lists service ids that cannot share an appointment. The package
// subsumes its components, and haircut and head shave are mutually exclusive.
var conflicts = map[string][]string{
	"haircut-beard-package": {"premium-haircut", "beard-trim", "head-shave"},
	"premium-haircut":       {"head-shave", "haircut-beard-package"},
	"beard-trim":            {"haircut-beard-package"},
	"head-shave":            {"premium-haircut", "haircut-beard-package"},
}

var byID = func() map[string]Service {
	m := make(map[string]Service, len(services))
	for _, s := range services {
		m[s.ID] = s
	}
	return m
}()

// All returns the full menu in display order.
func All() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// Get looks up one service by id.
func Get(id string) (Service, bool) {
	s, ok := byID[id]
	return s, ok
}

// Resolve validates a set of service ids and totals their duration and
// price. Unknown ids, duplicates, empty selections, and conflicting
// combinations are rejected.
func Resolve(ids []string) (Selection, error) {
	if len(ids) == 0 {
		return Selection{}, fmt.Errorf("no services selected")
	}
	seen := make(map[string]bool, len(ids))
	var sel Selection
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return Selection{}, fmt.Errorf("unknown service %q", id)
		}
		if seen[id] {
			return Selection{}, fmt.Errorf("duplicate service %q", id)
		}
		seen[id] = true
		sel.Services = append(sel.Services, s)
		sel.TotalDuration += s.Duration
		sel.TotalPrice += s.Price
	}
	for id := range seen {
		for _, other := range conflicts[id] {
			if seen[other] {
				return Selection{}, fmt.Errorf("services %q and %q cannot be combined", id, other)
			}
		}
	}
	return sel, nil
}

// SuggestPackage reports whether the selection is exactly the haircut and
// beard trim pair, which the package covers for ten dollars less.
func SuggestPackage(ids []string) (Service, bool) {
	if len(ids) != 2 {
		return Service{}, false
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if seen["premium-haircut"] && seen["beard-trim"] {
		return byID["haircut-beard-package"], true
	}
	return Service{}, false
}
