package uniqueid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/scoring"

	"github.com/google/uuid"
)

// counterKey is the template field carrying the collision counter.
const counterKey = "counter"

// TemplateError reports a template that rendered to an empty identifier.
type TemplateError struct {
	Attribute string
	Detail    string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("unique attribute %q: %s", e.Attribute, e.Detail)
}

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"first": func(s string, n int) string {
		runes := []rune(s)
		if n > len(runes) {
			n = len(runes)
		}
		return string(runes[:n])
	},
}

// Generator produces values for one attribute definition. The per-base-ID
// max-counter cache is owned by the generator instance, never shared across
// runs.
type Generator struct {
	def Definition
	tpl *template.Template

	// ledger holds every value issued for this attribute, loaded at run
	// start and extended as values are issued.
	ledger map[string]struct{}
	// maxCounters caches the highest counter already suffixed to each base
	// ID, so repeated generation against one base is O(1) amortized.
	maxCounters map[string]int
}

// NewGenerator parses the definition's template and seeds the issued-value
// ledger with existing values.
func NewGenerator(def Definition, existing []string) (*Generator, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	var tpl *template.Template
	if def.Expression != "" {
		var err error
		tpl, err = template.New(def.Name).Funcs(templateFuncs).Option("missingkey=zero").Parse(def.Expression)
		if err != nil {
			return nil, fmt.Errorf("parse expression for attribute %q: %w", def.Name, err)
		}
	}

	ledger := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		ledger[v] = struct{}{}
	}

	return &Generator{
		def:         def,
		tpl:         tpl,
		ledger:      ledger,
		maxCounters: make(map[string]int),
	}, nil
}

// Definition returns the generator's attribute definition.
func (g *Generator) Definition() Definition {
	return g.def
}

// Values returns every value in the issued-value ledger, for persisting at
// run end.
func (g *Generator) Values() []string {
	out := make([]string, 0, len(g.ledger))
	for v := range g.ledger {
		out = append(out, v)
	}
	return out
}

// Generate produces the attribute value for an account. For unique
// attributes the returned value is guaranteed absent from the ledger prior
// to the call, and is recorded in it before returning. The optional context
// bag supplies derived merge attributes layered over the account's own.
func (g *Generator) Generate(account attr.Attributes, context attr.Attributes) (string, error) {
	switch g.def.Type {
	case TypeUUID:
		id := uuid.NewString()
		g.ledger[id] = struct{}{}
		return id, nil
	case TypeCounter:
		return g.nextCounterValue(), nil
	case TypeNormal:
		base, err := g.renderBase(account, context)
		if err != nil {
			return "", err
		}
		return base, nil
	case TypeUnique:
		return g.generateUnique(account, context)
	default:
		return "", fmt.Errorf("attribute definition %q has unknown type %q", g.def.Name, g.def.Type)
	}
}

// generateUnique renders the base ID and resolves collisions by finding the
// maximum counter already suffixed to that base, not the first free slot, so
// N generations against M existing collisions cost O(M) total.
func (g *Generator) generateUnique(account, context attr.Attributes) (string, error) {
	base, err := g.renderBase(account, context)
	if err != nil {
		return "", err
	}

	if _, taken := g.ledger[base]; !taken {
		g.ledger[base] = struct{}{}
		return base, nil
	}

	next := g.nextCounter(base)
	id, err := g.renderWithCounter(account, context, base, g.padCounter(next))
	if err != nil {
		return "", err
	}

	g.maxCounters[base] = next
	g.ledger[id] = struct{}{}
	return id, nil
}

// renderBase renders the template with an empty counter, normalizes and
// truncates it, and rejects empty results.
func (g *Generator) renderBase(account, context attr.Attributes) (string, error) {
	rendered, err := g.render(account, context, "")
	if err != nil {
		return "", err
	}
	base := g.normalize(rendered)
	if g.def.MaxLength > 0 {
		runes := []rune(base)
		if len(runes) > g.def.MaxLength {
			base = string(runes[:g.def.MaxLength])
		}
	}
	if base == "" {
		return "", &TemplateError{Attribute: g.def.Name, Detail: "template rendered an empty identifier"}
	}
	return base, nil
}

// renderWithCounter re-renders the template with the counter substituted.
// When the template does not reference the counter, it is appended as a
// suffix to the (possibly truncated) base instead.
func (g *Generator) renderWithCounter(account, context attr.Attributes, base, counter string) (string, error) {
	plain, err := g.render(account, context, "")
	if err != nil {
		return "", err
	}
	withCounter, err := g.render(account, context, counter)
	if err != nil {
		return "", err
	}

	if withCounter == plain {
		// Template ignores the counter.
		return base + counter, nil
	}

	id := g.normalize(withCounter)
	if id == "" {
		return "", &TemplateError{Attribute: g.def.Name, Detail: "template rendered an empty identifier"}
	}
	return id, nil
}

func (g *Generator) render(account, context attr.Attributes, counter string) (string, error) {
	data := make(map[string]string, len(account)+len(context)+1)
	for name, v := range account {
		data[name] = v.AsString()
	}
	for name, v := range context {
		data[name] = v.AsString()
	}
	data[counterKey] = counter

	var sb strings.Builder
	if err := g.tpl.Execute(&sb, data); err != nil {
		return "", &TemplateError{Attribute: g.def.Name, Detail: err.Error()}
	}
	return sb.String(), nil
}

// normalize applies the definition's transliteration, space/quote stripping
// and case folding.
func (g *Generator) normalize(s string) string {
	s = strings.TrimSpace(s)
	if g.def.Normalize {
		s = scoring.StripDiacritics(s)
	}
	if g.def.RemoveSpaces {
		s = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) || r == '\'' || r == '"' || r == '`' {
				return -1
			}
			return r
		}, s)
	}
	switch g.def.Case {
	case CaseLower:
		s = strings.ToLower(s)
	case CaseUpper:
		s = strings.ToUpper(s)
	}
	return s
}

// nextCounter returns the counter to issue for base: one past the maximum
// counter already present in the ledger. The scan over the ledger happens at
// most once per distinct base ID; later calls hit the cache.
func (g *Generator) nextCounter(base string) int {
	if max, ok := g.maxCounters[base]; ok {
		return max + 1
	}

	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `(\d+)$`)
	max := 0
	for existing := range g.ledger {
		m := pattern.FindStringSubmatch(existing)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	g.maxCounters[base] = max
	return max + 1
}

// nextCounterValue implements the plain counter attribute type: one past the
// highest purely numeric value in the ledger.
func (g *Generator) nextCounterValue() string {
	max := 0
	for existing := range g.ledger {
		if n, err := strconv.Atoi(existing); err == nil && n > max {
			max = n
		}
	}
	value := g.padCounter(max + 1)
	g.ledger[value] = struct{}{}
	return value
}

func (g *Generator) padCounter(n int) string {
	if g.def.Digits > 0 {
		return fmt.Sprintf("%0*d", g.def.Digits, n)
	}
	return strconv.Itoa(n)
}
