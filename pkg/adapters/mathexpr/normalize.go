package mathexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokLiteral // quoted string or [bracketed] name, passed through as is
	tokLParen
	tokRParen
	tokPower
	tokSign
	tokSymbol
)

type token struct {
	kind tokenKind
	text string
}

// normalize maps calculator notation onto govaluate's grammar.
//
// govaluate reads ^ as bitwise XOR, binds prefix minus tighter than **, and
// groups ** from the left. Every power (^ or **) is therefore rewritten as a
// parenthesised ** term grouped from the right, so -x^2 is -(x ** 2) and
// 2^3^2 is 2 ** (3 ** 2). A signed exponent keeps its sign inside the group.
// Numbers in scientific notation are expanded, since govaluate only reads
// plain decimals. Tokens are emitted space separated so operator runs such as
// "**-" never reach the lexer as one symbol.
func normalize(text string) (string, error) {
	toks, err := tokenize(text)
	if err != nil {
		return "", err
	}
	rw := &rewriter{toks: toks}
	out, err := rw.sequence(0)
	if err != nil {
		return "", err
	}
	return strings.Join(out, " "), nil
}

func tokenize(text string) ([]token, error) {
	src := []rune(text)
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || c == '.':
			j, num, err := readNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokNumber, num})
			i = j
		case unicode.IsLetter(c):
			j := i + 1
			for j < len(src) && (unicode.IsLetter(src[j]) || unicode.IsDigit(src[j]) || src[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, string(src[i:j])})
			i = j
		case c == '\'' || c == '"' || c == '[':
			end := c
			if c == '[' {
				end = ']'
			}
			j := i + 1
			for j < len(src) && src[j] != end {
				j++
			}
			if j < len(src) {
				j++
			}
			toks = append(toks, token{tokLiteral, string(src[i:j])})
			i = j
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '^':
			toks = append(toks, token{tokPower, "**"})
			i++
		case c == '+' || c == '-':
			toks = append(toks, token{tokSign, string(c)})
			i++
		case c == ',':
			toks = append(toks, token{tokSymbol, ","})
			i++
		default:
			j := i + 1
			for j < len(src) && isSymbolRune(src[j]) {
				j++
			}
			sym := string(src[i:j])
			kind := tokSymbol
			if sym == "**" {
				kind = tokPower
			}
			toks = append(toks, token{kind, sym})
			i = j
		}
	}
	return toks, nil
}

// isSymbolRune reports whether r continues an operator such as ** or >=.
func isSymbolRune(r rune) bool {
	if unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	switch r {
	case '(', ')', ',', '^', '+', '-', '.', '\'', '"', '[':
		return false
	}
	return true
}

// readNumber reads a decimal literal starting at i, with an optional
// exponent part. Literals with an exponent are rewritten in plain decimal form.
func readNumber(src []rune, i int) (int, string, error) {
	j := i
	for j < len(src) && (unicode.IsDigit(src[j]) || src[j] == '.') {
		j++
	}
	if j >= len(src) || (src[j] != 'e' && src[j] != 'E') {
		return j, string(src[i:j]), nil
	}
	k := j + 1
	if k < len(src) && (src[k] == '+' || src[k] == '-') {
		k++
	}
	if k >= len(src) || !unicode.IsDigit(src[k]) {
		// A bare "e" after a number is the constant, not an exponent.
		return j, string(src[i:j]), nil
	}
	for k < len(src) && unicode.IsDigit(src[k]) {
		k++
	}
	lit := string(src[i:k])
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid number %q", lit)
	}
	return k, strconv.FormatFloat(v, 'f', -1, 64), nil
}

type rewriter struct {
	toks []token
	pos  int
}

func (r *rewriter) peek() (token, bool) {
	if r.pos >= len(r.toks) {
		return token{}, false
	}
	return r.toks[r.pos], true
}

// sequence rewrites tokens until the input ends or, inside a group, until
// the closing parenthesis, which is left for the caller.
func (r *rewriter) sequence(depth int) ([]string, error) {
	var out []string
	for {
		t, ok := r.peek()
		if !ok {
			return out, nil
		}
		switch {
		case t.kind == tokRParen && depth > 0:
			return out, nil
		case startsOperand(t):
			operand, err := r.operand()
			if err != nil {
				return nil, err
			}
			out = append(out, operand)
		case t.kind == tokPower:
			return nil, fmt.Errorf("missing base before %q", t.text)
		default:
			out = append(out, t.text)
			r.pos++
		}
	}
}

func startsOperand(t token) bool {
	switch t.kind {
	case tokNumber, tokIdent, tokLiteral, tokLParen:
		return true
	}
	return false
}

// operand reads one operand and any power chain that follows it.
func (r *rewriter) operand() (string, error) {
	base, err := r.unit()
	if err != nil {
		return "", err
	}
	t, ok := r.peek()
	if !ok || t.kind != tokPower {
		return base, nil
	}
	r.pos++
	exp, err := r.exponent()
	if err != nil {
		return "", err
	}
	return "( " + base + " ** " + exp + " )", nil
}

// exponent reads the right-hand side of a power: optional signs, then an
// operand, which itself may continue the chain.
func (r *rewriter) exponent() (string, error) {
	negative := false
	for {
		t, ok := r.peek()
		if !ok || t.kind != tokSign {
			break
		}
		if t.text == "-" {
			negative = !negative
		}
		r.pos++
	}
	t, ok := r.peek()
	if !ok || !startsOperand(t) {
		return "", fmt.Errorf("missing exponent")
	}
	exp, err := r.operand()
	if err != nil {
		return "", err
	}
	if negative {
		return "( - " + exp + " )", nil
	}
	return exp, nil
}

func (r *rewriter) unit() (string, error) {
	t := r.toks[r.pos]
	switch t.kind {
	case tokLParen:
		return r.group()
	case tokIdent:
		r.pos++
		if next, ok := r.peek(); ok && next.kind == tokLParen {
			args, err := r.group()
			if err != nil {
				return "", err
			}
			return t.text + " " + args, nil
		}
		return t.text, nil
	default:
		r.pos++
		return t.text, nil
	}
}

// group rewrites a parenthesised clause. An unclosed clause is emitted
// unclosed so the evaluator reports the imbalance.
func (r *rewriter) group() (string, error) {
	r.pos++
	inner, err := r.sequence(1)
	if err != nil {
		return "", err
	}
	parts := append([]string{"("}, inner...)
	if _, ok := r.peek(); ok {
		r.pos++
		parts = append(parts, ")")
	}
	return strings.Join(parts, " "), nil
}
