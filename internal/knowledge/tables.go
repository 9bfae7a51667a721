// Package knowledge holds the static answer tables consulted before fuzzy
// search: greetings, the onboarding menu and exact-match FAQ answers.
package knowledge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DynamicBaseURL marks an FAQ entry whose answer is built from the server
// URLs of the loaded documents.
const DynamicBaseURL = "base_url"

// MaxMenuSteps is the largest menu size addressable with one digit.
const MaxMenuSteps = 9

var (
	ErrNoGreetingAnswer = errors.New("greeting answer is required")
	ErrNoMenuTrigger    = errors.New("menu trigger is required")
	ErrMenuSize         = fmt.Errorf("menu must have between 1 and %d steps", MaxMenuSteps)
)

// FAQEntry is an exact-match answer. Dynamic, when set, names a computed
// answer and Answer is ignored.
type FAQEntry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer,omitempty"`
	Dynamic  string `yaml:"dynamic,omitempty"`
}

// MenuStep is one numbered onboarding step.
type MenuStep struct {
	Title  string `yaml:"title"`
	Detail string `yaml:"detail"`
}

// Menu is the guided onboarding menu. An empty Instruction is generated from
// the number of steps.
type Menu struct {
	Trigger     string     `yaml:"trigger"`
	Instruction string     `yaml:"instruction"`
	Steps       []MenuStep `yaml:"steps"`
}

// Content is the authored form of the tables, as read from YAML.
type Content struct {
	Greetings      []string   `yaml:"greetings"`
	GreetingAnswer string     `yaml:"greeting_answer"`
	Menu           Menu       `yaml:"menu"`
	FAQ            []FAQEntry `yaml:"faq"`
}

// Tables are the compiled, read-only lookup tables. Keys are normalized
// (trimmed, lower-cased) so lookups take normalized queries.
type Tables struct {
	greetings      map[string]bool
	greetingAnswer string
	menuTrigger    string
	menuText       string
	details        map[string]string
	faq            map[string]FAQEntry
	content        Content
}

// Compile validates content and builds lookup tables from it.
func Compile(c Content) (*Tables, error) {
	if strings.TrimSpace(c.GreetingAnswer) == "" {
		return nil, ErrNoGreetingAnswer
	}
	if normalize(c.Menu.Trigger) == "" {
		return nil, ErrNoMenuTrigger
	}
	if n := len(c.Menu.Steps); n == 0 || n > MaxMenuSteps {
		return nil, ErrMenuSize
	}

	t := &Tables{
		greetings:      make(map[string]bool, len(c.Greetings)),
		greetingAnswer: c.GreetingAnswer,
		menuTrigger:    normalize(c.Menu.Trigger),
		details:        make(map[string]string, len(c.Menu.Steps)),
		faq:            make(map[string]FAQEntry, len(c.FAQ)),
		content:        c,
	}
	for _, g := range c.Greetings {
		if g = normalize(g); g != "" {
			t.greetings[g] = true
		}
	}

	var b strings.Builder
	for i, step := range c.Menu.Steps {
		if strings.TrimSpace(step.Title) == "" {
			return nil, fmt.Errorf("menu step %d: title is required", i+1)
		}
		key := strconv.Itoa(i + 1)
		t.details[key] = step.Detail
		fmt.Fprintf(&b, "%s. %s\n", key, step.Title)
	}
	instruction := c.Menu.Instruction
	if instruction == "" {
		instruction = fmt.Sprintf("Reply with a number (1-%d) to see the details of a step.", len(c.Menu.Steps))
	}
	b.WriteString("\n")
	b.WriteString(instruction)
	t.menuText = b.String()

	for i, e := range c.FAQ {
		q := normalize(e.Question)
		if q == "" {
			return nil, fmt.Errorf("faq entry %d: question is required", i+1)
		}
		if e.Dynamic != "" && e.Dynamic != DynamicBaseURL {
			return nil, fmt.Errorf("faq entry %q: unknown dynamic answer %q", e.Question, e.Dynamic)
		}
		if e.Dynamic == "" && strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("faq entry %q: answer is required", e.Question)
		}
		e.Question = q
		t.faq[q] = e
	}
	return t, nil
}

// IsGreeting reports whether q is a greeting token.
func (t *Tables) IsGreeting(q string) bool {
	return t.greetings[q]
}

// GreetingAnswer returns the canned greeting reply.
func (t *Tables) GreetingAnswer() string {
	return t.greetingAnswer
}

// IsMenuTrigger reports whether q opens the onboarding menu.
func (t *Tables) IsMenuTrigger(q string) bool {
	return q == t.menuTrigger
}

// MenuText returns the numbered step titles followed by the instruction.
func (t *Tables) MenuText() string {
	return t.menuText
}

// MenuDetail returns the detail text for a digit key such as "3".
func (t *Tables) MenuDetail(key string) (string, bool) {
	d, ok := t.details[key]
	return d, ok
}

// MenuSize returns the number of menu steps.
func (t *Tables) MenuSize() int {
	return len(t.details)
}

// FAQ returns the entry for a normalized question.
func (t *Tables) FAQ(q string) (FAQEntry, bool) {
	e, ok := t.faq[q]
	return e, ok
}

// Content returns the content the tables were compiled from.
func (t *Tables) Content() Content {
	return t.content
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
