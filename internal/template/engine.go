// Package template evaluates field templates against a row's variables.
//
// A template is literal text that may contain function calls such as
// LOWERCASE(firstname) or RANDOM(2,1,3) and references to variables, either
// braced ({username}) or bare (username). Function calls are evaluated first,
// from the last one in the template to the first, then variable names left
// in the literal text are replaced with their values.
//
// Evaluation never fails: a malformed call is replaced by an inline
// diagnostic such as [RANDOM error: missing ")"].
package template

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Keywords lists the recognised function names
var Keywords = []string{
	"LOWERCASE", "PROPERCASE", "UPPERCASE", "EXTRACT",
	"FULLWIDTH", "HALFWIDTH", "RANDOM", "REPLACE", "SUBSTRING",
}

var keywordPattern = regexp.MustCompile(`\b(` + strings.Join(Keywords, "|") + `)\b`)

// EvalError describes a malformed function call
type EvalError struct {
	Func   string
	Offset int
	Reason string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Func, e.Offset, e.Reason)
}

// Inline is the text substituted for the failed call
func (e *EvalError) Inline() string {
	return fmt.Sprintf("[%s error: %s]", e.Func, e.Reason)
}

// Engine evaluates templates. It is not safe for concurrent use because it
// owns a random source; create one per import run.
type Engine struct {
	lang language.Tag
	rng  *rand.Rand
}

// Option configures an Engine
type Option func(*Engine)

// WithLanguage sets the locale used for case mapping
func WithLanguage(tag language.Tag) Option {
	return func(e *Engine) {
		e.lang = tag
	}
}

// WithRand replaces the random source used by RANDOM
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// New creates an Engine. The default random source is ChaCha8 seeded from
// crypto/rand, since RANDOM is used to generate passwords.
func New(opts ...Option) *Engine {
	e := &Engine{lang: language.Und}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		var seed [32]byte
		if _, err := crand.Read(seed[:]); err != nil {
			panic(fmt.Sprintf("template: cannot seed random source: %v", err))
		}
		e.rng = rand.New(rand.NewChaCha8(seed))
	}
	return e
}

// ParseLanguage converts a language code such as "en" or "pt_br" to a tag,
// falling back to the undetermined language.
func ParseLanguage(code string) language.Tag {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return language.Und
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und
	}
	return tag
}

// Evaluate renders one template against vars
func (e *Engine) Evaluate(tpl string, vars map[string]string) string {
	return e.NewScope(vars).Evaluate(tpl)
}

// Scope binds an Engine to one row's variables so that several templates can
// share the variable lookup tables.
type Scope struct {
	engine   *Engine
	vars     map[string]string
	replacer *strings.Replacer
}

// NewScope prepares evaluation against vars
func (e *Engine) NewScope(vars map[string]string) *Scope {
	return &Scope{engine: e, vars: vars, replacer: newVarReplacer(vars)}
}

// Evaluate renders tpl
func (s *Scope) Evaluate(tpl string) string {
	out, _ := s.EvaluateWithDiagnostics(tpl)
	return out
}

// EvaluateWithDiagnostics renders tpl and reports malformed calls in source order
func (s *Scope) EvaluateWithDiagnostics(tpl string) (string, []*EvalError) {
	p := newParser(tpl)
	top := p.parse()

	// Calls run from the last one in the template to the first, so a nested
	// call always runs before the call that takes its output.
	var diags []*EvalError
	for i := len(p.calls) - 1; i >= 0; i-- {
		c := p.calls[i]
		if c.fail != nil {
			diag := &EvalError{Func: c.name, Offset: c.offset, Reason: c.fail.reason}
			diags = append(diags, diag)
			c.out = diag.Inline()
			continue
		}
		c.out = s.engine.call(c.name, s.resolve(c.args))
	}
	slices.Reverse(diags)

	var b strings.Builder
	pos := 0
	for _, c := range top {
		b.WriteString(s.substitute(tpl[pos:c.offset]))
		b.WriteString(c.out)
		pos = c.end
	}
	b.WriteString(s.substitute(tpl[pos:]))
	return b.String(), diags
}

// resolve maps bare arguments that name a variable to the variable's value.
// Quoted arguments and the output of nested calls are taken as is.
func (s *Scope) resolve(args []arg) []string {
	values := make([]string, len(args))
	for i, a := range args {
		switch {
		case a.quoted:
			values[i] = a.text
		case a.pieces != nil:
			values[i] = a.join()
		default:
			values[i] = s.lookup(a.text)
		}
	}
	return values
}

func (s *Scope) lookup(name string) string {
	if v, ok := s.vars[name]; ok {
		return v
	}
	if inner, braced := strings.CutPrefix(name, "{"); braced && strings.HasSuffix(inner, "}") {
		if v, ok := s.vars[strings.TrimSuffix(inner, "}")]; ok {
			return v
		}
	}
	return name
}

// substitute replaces variable names in literal template text
func (s *Scope) substitute(text string) string {
	if s.replacer == nil {
		return text
	}
	return s.replacer.Replace(text)
}

// newVarReplacer builds a single-pass replacer. Braced names are tried first,
// then bare names longest first so that "username" wins over "user".
func newVarReplacer(vars map[string]string) *strings.Replacer {
	names := make([]string, 0, len(vars))
	for name := range vars {
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	slices.SortFunc(names, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})

	pairs := make([]string, 0, len(names)*4)
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", vars[name])
	}
	for _, name := range names {
		pairs = append(pairs, name, vars[name])
	}
	return strings.NewReplacer(pairs...)
}
