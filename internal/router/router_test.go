package router

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goel7054/swagger-bot/internal/knowledge"
	"github.com/goel7054/swagger-bot/internal/models"
	"github.com/goel7054/swagger-bot/internal/search"
)

func bankCorpus() *models.Corpus {
	return &models.Corpus{
		Entries: []models.OperationEntry{
			{Method: "GET", Path: "/accounts", Summary: "List accounts", SourceID: "bank"},
			{Method: "POST", Path: "/greetings", Summary: "hello", Description: "Says hello to the caller.", SourceID: "bank"},
			{Method: "GET", Path: "/plans", Summary: "List plans", SourceID: "billing"},
		},
		Metadata: []models.DocumentMetadata{
			{SourceID: "bank", Title: "Bank API", Version: "1.0", Description: "Accounts.", Servers: []string{"https://a.example"}},
			{SourceID: "billing", Title: "Billing API", Version: "2.3", Description: "Plans and invoices.", Servers: []string{"https://b.example"}},
		},
	}
}

func newRouter(c *models.Corpus, opts ...Option) *Router {
	return New(StaticCorpus{C: c}, knowledge.Default(), search.NewEngine(search.DefaultOptions()), opts...)
}

func TestResolve_ExactSummary(t *testing.T) {
	c := &models.Corpus{Entries: []models.OperationEntry{
		{Method: "GET", Path: "/accounts", Summary: "List accounts", SourceID: "bank"},
	}}
	res, err := newRouter(c).Resolve("list accounts")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Tier != TierSearch {
		t.Fatalf("Tier = %v, want search", res.Tier)
	}
	if len(res.Matches) != 1 || res.Matches[0].Score != 0 || res.Matches[0].Entry.SourceID != "bank" {
		t.Errorf("unexpected matches: %+v", res.Matches)
	}
}

func TestResolve_FAQIsCaseInsensitive(t *testing.T) {
	res, err := newRouter(bankCorpus()).Resolve("What Are Plans?")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want, _ := knowledge.Default().FAQ("what are plans?")
	if res.Tier != TierFAQ || res.Answer != want.Answer {
		t.Errorf("got %v %q, want the plans paragraph", res.Tier, res.Answer)
	}
}

func TestResolve_BaseURLInLoadOrder(t *testing.T) {
	c := &models.Corpus{Metadata: []models.DocumentMetadata{
		{SourceID: "a", Servers: []string{"https://a.example"}},
		{SourceID: "b", Servers: []string{"https://b.example"}},
	}}
	res, err := newRouter(c).Resolve("what is the base url of the api?")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "The base URL(s) of the API:\n- https://a.example\n- https://b.example"
	if res.Tier != TierFAQ || res.Answer != want {
		t.Errorf("got %v %q, want %q", res.Tier, res.Answer, want)
	}
}

func TestResolve_NoBaseURL(t *testing.T) {
	c := &models.Corpus{Metadata: []models.DocumentMetadata{{SourceID: "a", Title: "A"}}}
	res, err := newRouter(c).Resolve("what is the base url of the api?")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Tier != TierFAQ || res.Answer != NoBaseURLMessage {
		t.Errorf("got %v %q", res.Tier, res.Answer)
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	r := newRouter(bankCorpus())
	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := r.Resolve(q); !errors.Is(err, ErrQueryRequired) {
			t.Errorf("Resolve(%q) err = %v, want ErrQueryRequired", q, err)
		}
	}
	if ErrQueryRequired.Error() != "Query string is required." {
		t.Errorf("message = %q", ErrQueryRequired.Error())
	}
}

func TestResolve_GenericFallback(t *testing.T) {
	res, err := newRouter(bankCorpus()).Resolve("xyzxyz-not-in-docs")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Tier != TierFallback || res.Answer != NoMatchMessage {
		t.Errorf("got %v %q", res.Tier, res.Answer)
	}
}

func TestResolve_GreetingPrecedence(t *testing.T) {
	r := newRouter(bankCorpus())
	for _, q := range []string{"hello", "Hello", "  HI ", "good morning", "greetings"} {
		res, err := r.Resolve(q)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", q, err)
		}
		if res.Tier != TierGreeting {
			t.Errorf("Resolve(%q) tier = %v, want greeting even though the corpus mentions it", q, res.Tier)
		}
		if res.Matches != nil {
			t.Errorf("greeting must not carry matches")
		}
	}
	if res, _ := r.Resolve("hello there"); res.Tier == TierGreeting {
		t.Error("greeting must be an exact match")
	}
}

func TestResolve_Menu(t *testing.T) {
	r := newRouter(bankCorpus())
	res, err := r.Resolve("How to get started?")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Tier != TierMenu || res.Answer != knowledge.Default().MenuText() {
		t.Errorf("got %v %q", res.Tier, res.Answer)
	}

	for i := 1; i <= 7; i++ {
		key := string(rune('0' + i))
		res, err := r.Resolve(" " + key + " ")
		if err != nil {
			t.Fatalf("Resolve(%q): %v", key, err)
		}
		want, _ := knowledge.Default().MenuDetail(key)
		if res.Tier != TierMenuDetail || res.Answer != want {
			t.Errorf("Resolve(%q) = %v %q", key, res.Tier, res.Answer)
		}
	}

	for _, q := range []string{"0", "8", "12"} {
		res, err := r.Resolve(q)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", q, err)
		}
		if res.Tier == TierMenuDetail {
			t.Errorf("Resolve(%q) should not be a menu detail", q)
		}
	}
}

func TestResolve_MetadataInLoadOrder(t *testing.T) {
	c := bankCorpus()
	// reverse alphabetical load order
	c.Metadata[0], c.Metadata[1] = c.Metadata[1], c.Metadata[0]
	r := newRouter(c)

	tests := []struct {
		q    string
		want string
	}{
		{"what is the api title", "billing: Billing API\nbank: Bank API"},
		{"tell me the api name please", "billing: Billing API\nbank: Bank API"},
		{"which api version is live", "billing: 2.3\nbank: 1.0"},
		{"show the api description", "billing: Plans and invoices.\n\nbank: Accounts."},
		{"api title and api version", "billing: Billing API\nbank: Bank API"},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			res, err := r.Resolve(tt.q)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if res.Tier != TierMetadata {
				t.Fatalf("Tier = %v, want metadata (matches %+v)", res.Tier, res.Matches)
			}
			if diff := cmp.Diff(tt.want, res.Answer); diff != "" {
				t.Errorf("answer (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_MetadataWithoutRecords(t *testing.T) {
	res, err := newRouter(&models.Corpus{}).Resolve("what is the api title")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Tier != TierMetadata || res.Answer != NoMetadataMessage {
		t.Errorf("got %v %q", res.Tier, res.Answer)
	}
}

func TestResolve_EmptyCorpusFallsThrough(t *testing.T) {
	r := newRouter(&models.Corpus{})
	res, err := r.Resolve("list accounts")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Tier != TierFallback {
		t.Errorf("Tier = %v, want fallback", res.Tier)
	}

	nilSource := New(nil, nil, nil)
	if res, err := nilSource.Resolve("list accounts"); err != nil || res.Tier != TierFallback {
		t.Errorf("nil source: %v %v", res.Tier, err)
	}
}

func TestResolve_SearchUsesOriginalQuery(t *testing.T) {
	res, err := newRouter(bankCorpus()).Resolve("  LIST Plans ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Tier != TierSearch || res.Matches[0].Entry.Path != "/plans" {
		t.Errorf("got %v %+v", res.Tier, res.Matches)
	}
}

func TestResolve_Observer(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []Tier
	)
	r := newRouter(bankCorpus(), WithObserver(func(t Tier) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, t)
	}))
	for _, q := range []string{"hi", "how to get started?", "3", "what are plans?", "list accounts", "api version", "xyzxyz-not-in-docs"} {
		if _, err := r.Resolve(q); err != nil {
			t.Fatalf("Resolve(%q): %v", q, err)
		}
	}
	if _, err := r.Resolve(""); err == nil {
		t.Fatal("expected error")
	}
	if diff := cmp.Diff(Tiers(), seen); diff != "" {
		t.Errorf("observed tiers (-want +got):\n%s", diff)
	}
}

func TestResolve_ConcurrentUse(t *testing.T) {
	r := newRouter(bankCorpus())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				res, err := r.Resolve("list accounts")
				if err != nil || res.Tier != TierSearch {
					t.Errorf("unexpected result %v %v", res.Tier, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestTierString(t *testing.T) {
	var names []string
	for _, tier := range Tiers() {
		names = append(names, tier.String())
	}
	want := "greeting menu menu_detail faq search metadata fallback"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("names = %q, want %q", got, want)
	}
	if Tier(42).String() != "tier(42)" {
		t.Errorf("unknown tier = %q", Tier(42).String())
	}
}
