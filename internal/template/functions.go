package template

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Alphabets used by RANDOM. Visually ambiguous characters are left out.
const (
	LowercaseAlphabet = "abdeghjmnpqrstuvyz"
	UppercaseAlphabet = "ABDEGHJLMNPRSTUVYZ"
	NumericAlphabet   = "23456789"
)

// maxRandomCount bounds each RANDOM count argument
const maxRandomCount = 256

type function func(e *Engine, args []string) string

var functions = map[string]function{
	"LOWERCASE":  lowercase,
	"UPPERCASE":  uppercase,
	"PROPERCASE": propercase,
	"EXTRACT":    extract,
	"SUBSTRING":  substring,
	"REPLACE":    replace,
	"RANDOM":     random,
	"FULLWIDTH":  fullwidth,
	"HALFWIDTH":  halfwidth,
}

func (e *Engine) call(name string, args []string) string {
	fn, ok := functions[name]
	if !ok {
		return ""
	}
	return fn(e, args)
}

func argAt(args []string, i int) (string, bool) {
	if i < len(args) {
		return args[i], true
	}
	return "", false
}

func first(args []string) string {
	s, _ := argAt(args, 0)
	return s
}

// toInt parses a numeric argument. ok is false for missing or non-numeric
// input.
func toInt(args []string, i int) (n int, ok bool) {
	s, present := argAt(args, i)
	if !present {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

func lowercase(e *Engine, args []string) string {
	return cases.Lower(e.lang).String(first(args))
}

func uppercase(e *Engine, args []string) string {
	return cases.Upper(e.lang).String(first(args))
}

func propercase(e *Engine, args []string) string {
	return cases.Title(e.lang).String(first(args))
}

// extract selects words. start is 1-based except that 0 is left as is, so
// EXTRACT(x, 0) and EXTRACT(x, 1) both begin at the first word. Negative
// start and count count from the end.
func extract(_ *Engine, args []string) string {
	words := strings.Fields(first(args))
	if len(args) < 2 {
		return strings.Join(words, " ")
	}

	start, _ := toInt(args, 1)
	if start > 0 {
		start--
	}
	if _, present := argAt(args, 2); present {
		count, _ := toInt(args, 2)
		return strings.Join(spliceWords(words, start, &count), " ")
	}
	return strings.Join(spliceWords(words, start, nil), " ")
}

func spliceWords(words []string, offset int, length *int) []string {
	n := len(words)
	if offset < 0 {
		offset = max(n+offset, 0)
	}
	offset = min(offset, n)

	end := n
	if length != nil {
		if *length < 0 {
			end = n + *length
		} else {
			end = offset + *length
		}
	}
	end = min(max(end, offset), n)
	return words[offset:end]
}

// substring works on characters, not bytes. start is 1-based and negative
// values count from the end; length defaults to the rest of the string.
func substring(_ *Engine, args []string) string {
	if len(args) == 0 {
		return ""
	}
	runes := []rune(args[0])
	n := len(runes)

	start, ok := toInt(args, 1)
	switch {
	case !ok || start == 0:
		start = 0
	case start > 0:
		start--
	default:
		start = max(n+start, 0)
	}
	if start >= n {
		return ""
	}

	end := n
	if length, ok := toInt(args, 2); ok {
		if length < 0 {
			end = n + length
		} else {
			end = start + length
		}
	}
	end = min(max(end, start), n)
	return string(runes[start:end])
}

// replace substitutes every key with its value in a single pass
func replace(_ *Engine, args []string) string {
	subject := first(args)
	var pairs []string
	for i := 1; i < len(args); i += 2 {
		if args[i] == "" {
			continue
		}
		value, _ := argAt(args, i+1)
		pairs = append(pairs, args[i], value)
	}
	if len(pairs) == 0 {
		return subject
	}
	return strings.NewReplacer(pairs...).Replace(subject)
}

// random draws lowercase, then uppercase, then numeric characters, and
// shuffles the result when the fourth argument is non-zero.
func random(e *Engine, args []string) string {
	count := func(i, def int) int {
		n, ok := toInt(args, i)
		if !ok {
			return def
		}
		return min(max(n, 0), maxRandomCount)
	}
	nLower := count(0, 1)
	nUpper := count(1, 0)
	nNumeric := count(2, 2)
	shuffle, _ := toInt(args, 3)

	chars := make([]byte, 0, nLower+nUpper+nNumeric)
	for _, set := range []struct {
		alphabet string
		n        int
	}{
		{LowercaseAlphabet, nLower},
		{UppercaseAlphabet, nUpper},
		{NumericAlphabet, nNumeric},
	} {
		for range set.n {
			chars = append(chars, set.alphabet[e.rng.IntN(len(set.alphabet))])
		}
	}

	if shuffle != 0 {
		e.rng.Shuffle(len(chars), func(i, j int) {
			chars[i], chars[j] = chars[j], chars[i]
		})
	}
	return string(chars)
}
