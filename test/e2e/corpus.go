// Package e2e provides end-to-end tests over a generated set of API specs and questions.
package e2e

import (
	"fmt"
	"strings"
)

// E2EOperation is one operation of a generated spec.
type E2EOperation struct {
	Method      string
	Path        string
	Summary     string
	OperationID string
	Tag         string
}

// E2ESpec is one generated API spec (source id, title, server, operations).
type E2ESpec struct {
	SourceID   string
	Title      string
	Version    string
	ServerURL  string
	Operations []E2EOperation
}

// QueryTestCase defines a question and the operation that must appear among the matches.
type QueryTestCase struct {
	Query       string
	Source      string
	Method      string
	Path        string
	Exact       bool
	Description string
}

// Corpus holds specs and query test cases for E2E tests.
type Corpus struct {
	Specs          []E2ESpec
	TestCases      []QueryTestCase
	TotalSpecs     int
	TotalQueries   int
	TotalOperation int
}

// resources have pairwise distinct names so an exact summary names exactly one operation.
var resources = []struct {
	plural, singular, domain string
}{
	{"invoices", "invoice", "Billing"},
	{"customers", "customer", "CRM"},
	{"shipments", "shipment", "Logistics"},
	{"warehouses", "warehouse", "Inventory"},
	{"tickets", "ticket", "Helpdesk"},
	{"subscriptions", "subscription", "Recurring"},
	{"webhooks", "webhook", "Events"},
	{"playlists", "playlist", "Music"},
	{"vehicles", "vehicle", "Fleet"},
	{"patients", "patient", "Clinic"},
	{"courses", "course", "Learning"},
	{"recipes", "recipe", "Kitchen"},
	{"flights", "flight", "Travel"},
	{"tenants", "tenant", "Property"},
	{"payouts", "payout", "Payments"},
	{"campaigns", "campaign", "Marketing"},
	{"sensors", "sensor", "Telemetry"},
	{"contracts", "contract", "Legal"},
	{"libraries", "library", "Catalog"},
	{"gardens", "garden", "Outdoor"},
}

// BuildCorpus returns one spec per resource with five CRUD operations each,
// and exact plus misspelled questions targeting single operations.
func BuildCorpus() *Corpus {
	specs := buildSpecs()
	cases := buildQueryTestCases(specs)
	ops := 0
	for _, s := range specs {
		ops += len(s.Operations)
	}
	return &Corpus{
		Specs:          specs,
		TestCases:      cases,
		TotalSpecs:     len(specs),
		TotalQueries:   len(cases),
		TotalOperation: ops,
	}
}

func buildSpecs() []E2ESpec {
	out := make([]E2ESpec, 0, len(resources))
	for i, r := range resources {
		id := fmt.Sprintf("e2e-%02d-%s", i+1, strings.ToLower(r.domain))
		title := strings.ToUpper(r.singular[:1]) + r.singular[1:]
		out = append(out, E2ESpec{
			SourceID:  id,
			Title:     r.domain + " API",
			Version:   fmt.Sprintf("1.%d.0", i),
			ServerURL: fmt.Sprintf("https://%s.example.com/v1", strings.ToLower(r.domain)),
			Operations: []E2EOperation{
				{"GET", "/" + r.plural, "List all " + r.plural, "list" + capitalize(r.plural), r.plural},
				{"POST", "/" + r.plural, "Create a " + r.singular, "create" + title, r.plural},
				{"GET", "/" + r.plural + "/{id}", "Get a " + r.singular + " by ID", "get" + title, r.plural},
				{"PUT", "/" + r.plural + "/{id}", "Update a " + r.singular, "update" + title, r.plural},
				{"DELETE", "/" + r.plural + "/{id}", "Delete a " + r.singular, "delete" + title, r.plural},
			},
		})
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildQueryTestCases(specs []E2ESpec) []QueryTestCase {
	var cases []QueryTestCase
	for _, s := range specs {
		list, create := s.Operations[0], s.Operations[1]
		cases = append(cases,
			QueryTestCase{
				Query:       list.Summary,
				Source:      s.SourceID,
				Method:      list.Method,
				Path:        list.Path,
				Exact:       true,
				Description: fmt.Sprintf("exact %q", list.Summary),
			},
			QueryTestCase{
				Query:       strings.ToLower(create.Summary),
				Source:      s.SourceID,
				Method:      create.Method,
				Path:        create.Path,
				Exact:       true,
				Description: fmt.Sprintf("lower-case %q", create.Summary),
			},
			QueryTestCase{
				Query:       misspell(list.Summary),
				Source:      s.SourceID,
				Method:      list.Method,
				Path:        list.Path,
				Description: fmt.Sprintf("misspelled %q", list.Summary),
			},
		)
	}
	return cases
}

// misspell drops the second-to-last letter, one edit away from s.
func misspell(s string) string {
	if len(s) < 3 {
		return s
	}
	return s[:len(s)-2] + s[len(s)-1:]
}

// Operation finds the generated operation for a test case.
func (c *Corpus) Operation(tc QueryTestCase) (E2EOperation, bool) {
	for _, s := range c.Specs {
		if s.SourceID != tc.Source {
			continue
		}
		for _, op := range s.Operations {
			if op.Method == tc.Method && op.Path == tc.Path {
				return op, true
			}
		}
	}
	return E2EOperation{}, false
}
