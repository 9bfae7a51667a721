// Package router resolves a free-text question by trying an ordered list of
// answer tiers and stopping at the first one that produces a result.
package router

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/knowledge"
	"github.com/goel7054/swagger-bot/internal/models"
	"github.com/goel7054/swagger-bot/internal/search"
)

// ErrQueryRequired is returned for empty or blank questions.
var ErrQueryRequired = models.ErrQueryRequired

// Fixed answer texts.
const (
	NoMatchMessage    = "No matching endpoint or metadata found."
	NoBaseURLMessage  = "No base URL found in the loaded API specifications."
	BaseURLHeader     = "The base URL(s) of the API:"
	NoMetadataMessage = "No API metadata loaded."
)

// Tier identifies which stage answered a question.
type Tier int

const (
	TierGreeting Tier = iota + 1
	TierMenu
	TierMenuDetail
	TierFAQ
	TierSearch
	TierMetadata
	TierFallback
)

var tierNames = map[Tier]string{
	TierGreeting:   "greeting",
	TierMenu:       "menu",
	TierMenuDetail: "menu_detail",
	TierFAQ:        "faq",
	TierSearch:     "search",
	TierMetadata:   "metadata",
	TierFallback:   "fallback",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Tiers returns every tier in evaluation order.
func Tiers() []Tier {
	return []Tier{TierGreeting, TierMenu, TierMenuDetail, TierFAQ, TierSearch, TierMetadata, TierFallback}
}

// Result is the outcome of one resolution. Search results carry Matches;
// every other tier carries Answer.
type Result struct {
	Tier    Tier
	Answer  string
	Matches []models.MatchResult
}

// CorpusSource supplies the corpus to resolve against. It is read once per
// question so a concurrent reload never changes the corpus mid-resolution.
type CorpusSource interface {
	Corpus() *models.Corpus
}

// StaticCorpus is a CorpusSource that always returns the same corpus.
type StaticCorpus struct {
	C *models.Corpus
}

// Corpus implements CorpusSource.
func (s StaticCorpus) Corpus() *models.Corpus {
	return s.C
}

// query is the per-question state shared by the stages.
type query struct {
	original   string
	normalized string
	corpus     *models.Corpus
}

// stage is one guarded tier: it either answers (ok) or passes.
type stage struct {
	tier    Tier
	resolve func(q *query) (Result, bool)
}

// Router resolves questions. It holds no per-request state and is safe for
// concurrent use.
type Router struct {
	source   CorpusSource
	tables   *knowledge.Tables
	engine   *search.Engine
	stages   []stage
	observer func(Tier)
	logger   *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithObserver registers fn to be called with the answering tier of every
// resolved question.
func WithObserver(fn func(Tier)) Option {
	return func(r *Router) { r.observer = fn }
}

// New creates a router. Nil tables or engine fall back to the built-in
// tables and the default engine options.
func New(source CorpusSource, tables *knowledge.Tables, engine *search.Engine, opts ...Option) *Router {
	if tables == nil {
		tables = knowledge.Default()
	}
	if engine == nil {
		engine = search.NewEngine(search.DefaultOptions())
	}
	r := &Router{
		source: source,
		tables: tables,
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	r.stages = []stage{
		{TierGreeting, r.greeting},
		{TierMenu, r.menu},
		{TierMenuDetail, r.menuDetail},
		{TierFAQ, r.faq},
		{TierSearch, r.search},
		{TierMetadata, r.metadata},
		{TierFallback, fallback},
	}
	return r
}

// Engine returns the fuzzy engine used by the search tier.
func (r *Router) Engine() *search.Engine {
	return r.engine
}

// Resolve answers question. Blank questions return ErrQueryRequired.
func (r *Router) Resolve(question string) (Result, error) {
	normalized := search.Normalize(question)
	if normalized == "" {
		return Result{}, ErrQueryRequired
	}
	q := &query{
		original:   question,
		normalized: normalized,
		corpus:     r.corpus(),
	}
	for _, st := range r.stages {
		res, ok := st.resolve(q)
		if !ok {
			continue
		}
		res.Tier = st.tier
		r.logger.Debug("question resolved",
			zap.String("question", normalized),
			zap.Stringer("tier", st.tier),
			zap.Int("matches", len(res.Matches)))
		if r.observer != nil {
			r.observer(st.tier)
		}
		return res, nil
	}
	// fallback always answers
	panic("router: no tier answered")
}

func (r *Router) corpus() *models.Corpus {
	if r.source != nil {
		if c := r.source.Corpus(); c != nil {
			return c
		}
	}
	return &models.Corpus{}
}

func (r *Router) greeting(q *query) (Result, bool) {
	if !r.tables.IsGreeting(q.normalized) {
		return Result{}, false
	}
	return Result{Answer: r.tables.GreetingAnswer()}, true
}

func (r *Router) menu(q *query) (Result, bool) {
	if !r.tables.IsMenuTrigger(q.normalized) {
		return Result{}, false
	}
	return Result{Answer: r.tables.MenuText()}, true
}

func (r *Router) menuDetail(q *query) (Result, bool) {
	if len(q.normalized) != 1 {
		return Result{}, false
	}
	detail, ok := r.tables.MenuDetail(q.normalized)
	if !ok {
		return Result{}, false
	}
	return Result{Answer: detail}, true
}

func (r *Router) faq(q *query) (Result, bool) {
	entry, ok := r.tables.FAQ(q.normalized)
	if !ok {
		return Result{}, false
	}
	if entry.Dynamic == knowledge.DynamicBaseURL {
		return Result{Answer: baseURLAnswer(q.corpus)}, true
	}
	return Result{Answer: entry.Answer}, true
}

func baseURLAnswer(c *models.Corpus) string {
	urls := c.ServerURLs()
	if len(urls) == 0 {
		return NoBaseURLMessage
	}
	var b strings.Builder
	b.WriteString(BaseURLHeader)
	for _, u := range urls {
		b.WriteString("\n- ")
		b.WriteString(u)
	}
	return b.String()
}

func (r *Router) search(q *query) (Result, bool) {
	matches := r.engine.Search(q.original, q.corpus.Entries)
	if len(matches) == 0 {
		return Result{}, false
	}
	return Result{Matches: matches}, true
}

// metadataField picks one DocumentMetadata field for a metadata answer.
type metadataField struct {
	triggers []string
	value    func(models.DocumentMetadata) string
	sep      string
}

var metadataFields = []metadataField{
	{[]string{"api title", "api name"}, func(m models.DocumentMetadata) string { return m.Title }, "\n"},
	{[]string{"api version"}, func(m models.DocumentMetadata) string { return m.Version }, "\n"},
	{[]string{"api description"}, func(m models.DocumentMetadata) string { return m.Description }, "\n\n"},
}

func (r *Router) metadata(q *query) (Result, bool) {
	for _, f := range metadataFields {
		if !containsAny(q.normalized, f.triggers) {
			continue
		}
		if len(q.corpus.Metadata) == 0 {
			return Result{Answer: NoMetadataMessage}, true
		}
		lines := make([]string, 0, len(q.corpus.Metadata))
		for _, md := range q.corpus.Metadata {
			lines = append(lines, strings.TrimRight(md.SourceID+": "+f.value(md), " "))
		}
		return Result{Answer: strings.Join(lines, f.sep)}, true
	}
	return Result{}, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func fallback(*query) (Result, bool) {
	return Result{Answer: NoMatchMessage}, true
}
