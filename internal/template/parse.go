package template

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// call is one function call found in a template. end is the offset just past
// the text that belongs to the call, whether it parsed or not.
type call struct {
	name   string
	offset int
	end    int
	args   []arg
	fail   *parseFailure
	out    string
}

// arg is one parsed function argument. A bare argument that holds nested
// calls keeps its literal text and the calls as separate pieces.
type arg struct {
	text   string
	quoted bool
	pieces []piece
}

// piece is literal text or a nested call inside a bare argument
type piece struct {
	text string
	call *call
}

// join concatenates the pieces of a bare argument with nested calls
func (a arg) join() string {
	var b strings.Builder
	for _, p := range a.pieces {
		if p.call != nil {
			b.WriteString(p.call.out)
		} else {
			b.WriteString(p.text)
		}
	}
	return b.String()
}

// parseFailure describes a malformed call. end is the offset just past the
// text that belongs to the failed call.
type parseFailure struct {
	reason string
	end    int
}

type parseState int

const (
	stateOpen parseState = iota
	stateArgStart
	stateBare
	stateQuoted
	stateQuotedEscape
	stateAfterQuote
)

// parser finds the calls of one template. Offsets always refer to the
// original template text.
type parser struct {
	src      string
	matches  [][]int
	keywords map[int]int
	calls    []*call
}

func newParser(src string) *parser {
	p := &parser{
		src:      src,
		matches:  keywordPattern.FindAllStringIndex(src, -1),
		keywords: make(map[int]int),
	}
	for _, m := range p.matches {
		p.keywords[m[0]] = m[1]
	}
	return p
}

// parse returns the calls that appear in literal text, in source order.
// Every call, nested ones included, is also recorded in p.calls in source
// order.
func (p *parser) parse() []*call {
	var top []*call
	pos := 0
	for _, m := range p.matches {
		if m[0] < pos {
			continue
		}
		c := p.parseCall(m[0], m[1])
		top = append(top, c)
		pos = c.end
	}
	return top
}

func (p *parser) parseCall(start, kwEnd int) *call {
	c := &call{name: p.src[start:kwEnd], offset: start}
	p.calls = append(p.calls, c)

	args, end, failure := p.parseArgs(kwEnd)
	if failure != nil {
		c.fail, c.end = failure, failure.end
		return c
	}
	c.args, c.end = args, end
	return c
}

// parseArgs reads the argument list that follows a function keyword ending
// at pos. It returns the arguments and the offset just past the closing ")".
//
// Grammar: ws* "(" [ arg { "," arg } ] ")" where arg is ws* ( quoted | bare ).
// A quoted argument runs to the next unescaped double quote; \" and \\ are
// the only escapes. A bare argument runs to the next "," or ")" and is
// trimmed; a keyword inside it starts a nested call whose output is kept
// as is.
func (p *parser) parseArgs(pos int) ([]arg, int, *parseFailure) {
	s := p.src
	var (
		args       []arg
		cur        strings.Builder
		pieces     []piece
		state      = stateOpen
		afterComma bool
	)

	bare := func() arg {
		if cur.Len() > 0 {
			pieces = append(pieces, piece{text: cur.String()})
			cur.Reset()
		}
		a := bareArg(pieces)
		pieces = nil
		return a
	}

	for i := pos; i < len(s); {
		c := s[i]
		switch state {
		case stateOpen:
			switch {
			case isSpace(c):
				i++
			case c == '(':
				state = stateArgStart
				i++
			default:
				return nil, pos, &parseFailure{reason: `missing "("`, end: pos}
			}

		case stateArgStart:
			switch {
			case isSpace(c):
				i++
			case c == '"':
				state = stateQuoted
				i++
			case c == ',':
				args = append(args, arg{})
				afterComma = true
				i++
			case c == ')':
				if afterComma {
					args = append(args, arg{})
				}
				return args, i + 1, nil
			default:
				state = stateBare
			}

		case stateBare:
			if kwEnd, ok := p.keywords[i]; ok {
				if cur.Len() > 0 {
					pieces = append(pieces, piece{text: cur.String()})
					cur.Reset()
				}
				nested := p.parseCall(i, kwEnd)
				pieces = append(pieces, piece{call: nested})
				i = nested.end
				continue
			}
			switch c {
			case ',':
				args = append(args, bare())
				afterComma = true
				state = stateArgStart
			case ')':
				args = append(args, bare())
				return args, i + 1, nil
			default:
				cur.WriteByte(c)
			}
			i++

		case stateQuoted:
			switch c {
			case '\\':
				state = stateQuotedEscape
			case '"':
				args = append(args, arg{text: cur.String(), quoted: true})
				cur.Reset()
				state = stateAfterQuote
			default:
				cur.WriteByte(c)
			}
			i++

		case stateQuotedEscape:
			if c != '"' && c != '\\' {
				cur.WriteByte('\\')
			}
			cur.WriteByte(c)
			state = stateQuoted
			i++

		case stateAfterQuote:
			switch {
			case isSpace(c):
				i++
			case c == ',':
				afterComma = true
				state = stateArgStart
				i++
			case c == ')':
				return args, i + 1, nil
			default:
				r, size := utf8.DecodeRuneInString(s[i:])
				return nil, i + size, &parseFailure{
					reason: fmt.Sprintf("unexpected %q after closing quote", r),
					end:    i + size,
				}
			}
		}
	}

	switch state {
	case stateOpen:
		return nil, len(s), &parseFailure{reason: `missing "("`, end: pos}
	case stateQuoted, stateQuotedEscape:
		return nil, len(s), &parseFailure{reason: "unterminated quoted argument", end: len(s)}
	default:
		return nil, len(s), &parseFailure{reason: `missing ")"`, end: len(s)}
	}
}

// bareArg builds a bare argument. Without nested calls it is the trimmed
// text; otherwise only the outer edges of the literal text are trimmed.
func bareArg(pieces []piece) arg {
	nested := false
	for _, p := range pieces {
		if p.call != nil {
			nested = true
			break
		}
	}
	if !nested {
		var b strings.Builder
		for _, p := range pieces {
			b.WriteString(p.text)
		}
		return arg{text: strings.TrimSpace(b.String())}
	}

	if first := &pieces[0]; first.call == nil {
		first.text = strings.TrimLeft(first.text, " \t\r\n")
	}
	if last := &pieces[len(pieces)-1]; last.call == nil {
		last.text = strings.TrimRight(last.text, " \t\r\n")
	}
	return arg{pieces: pieces}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
