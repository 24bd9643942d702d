package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/visibility"
)

// Evaluator is a small rule language for field visibility and enabled state.
//
// Grammar, lowest precedence first:
//
//	or      := and ( "||" and )*
//	and     := unary ( "&&" unary )*
//	unary   := "!" unary | primary
//	primary := "(" or ")" | ident [ op literal ]
//	op      := "==" | "!=" | "<" | "<=" | ">" | ">="
//
// A bare identifier tests truthiness. Literals are quoted strings, numbers,
// true/false and null; a bare word on the right of an operator is read as a
// string. Identifiers read the form values; `extras.` reads Context.Extras.
//
// Against a number literal, numeric strings are parsed and a missing value
// never matches. Against a string literal, the value is compared in its
// printed form for == and !=. Ordering a number against a string (or a
// non-numeric string against a number) is an error.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator { return &Evaluator{} }

var _ visibility.Evaluator = (*Evaluator)(nil)

// Eval evaluates rule. An empty rule holds.
func (e *Evaluator) Eval(_ string, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return false, err
	}
	node, err := parse(tokens)
	if err != nil {
		return false, err
	}
	return node.eval(ctx)
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokBool
	tokNull
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isOperand(kind tokenKind) bool {
	switch kind {
	case tokEq, tokNeq, tokLt, tokLte, tokGt, tokGte:
		return true
	default:
		return false
	}
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		peek := byte(0)
		if i+1 < len(input) {
			peek = input[i+1]
		}

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokRParen, raw: ")"})
			i++
		case ch == '!' && peek == '=':
			tokens = append(tokens, token{kind: tokNeq, raw: "!="})
			i += 2
		case ch == '!':
			tokens = append(tokens, token{kind: tokNot, raw: "!"})
			i++
		case ch == '=' && peek == '=':
			tokens = append(tokens, token{kind: tokEq, raw: "=="})
			i += 2
		case ch == '=':
			return nil, errors.New("expr: unexpected '='; use '=='")
		case ch == '<' && peek == '=':
			tokens = append(tokens, token{kind: tokLte, raw: "<="})
			i += 2
		case ch == '<':
			tokens = append(tokens, token{kind: tokLt, raw: "<"})
			i++
		case ch == '>' && peek == '=':
			tokens = append(tokens, token{kind: tokGte, raw: ">="})
			i += 2
		case ch == '>':
			tokens = append(tokens, token{kind: tokGt, raw: ">"})
			i++
		case ch == '&':
			if peek != '&' {
				return nil, errors.New("expr: unexpected '&'; use '&&'")
			}
			tokens = append(tokens, token{kind: tokAnd, raw: "&&"})
			i += 2
		case ch == '|':
			if peek != '|' {
				return nil, errors.New("expr: unexpected '|'; use '||'")
			}
			tokens = append(tokens, token{kind: tokOr, raw: "||"})
			i += 2
		case ch == '"' || ch == '\'':
			value, next, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, raw: value})
			i = next
		default:
			start := i
			for i < len(input) && !strings.ContainsRune(" \t\n\r()!=<>&|\"'", rune(input[i])) {
				i++
			}
			tokens = append(tokens, classifyWord(input[start:i]))
		}
	}
	return tokens, nil
}

func scanString(input string, start int) (string, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			body := input[start+1 : i]
			if quote == '\'' {
				body = strings.ReplaceAll(body, `\'`, `'`)
				body = strings.ReplaceAll(body, `"`, `\"`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return "", 0, fmt.Errorf("expr: invalid string literal: %w", err)
			}
			return value, i + 1, nil
		}
	}
	return "", 0, errors.New("expr: unterminated string literal")
}

func classifyWord(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kind: tokBool, raw: strings.ToLower(raw)}
	case "null", "nil":
		return token{kind: tokNull, raw: "null"}
	}
	if looksNumeric(raw) {
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return token{kind: tokNumber, raw: raw}
		}
	}
	return token{kind: tokIdent, raw: raw}
}

func looksNumeric(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+' || ch == '.'
}

type node interface {
	eval(ctx visibility.Context) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(ctx)
}

type andNode struct{ left, right node }

func (n andNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(ctx)
}

type notNode struct{ inner node }

func (n notNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type truthyNode struct{ ident string }

func (n truthyNode) eval(ctx visibility.Context) (bool, error) {
	value, ok := lookup(ctx, n.ident)
	return ok && truthy(value), nil
}

type compareNode struct {
	ident string
	op    token
	lit   token
}

func (n compareNode) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.ident)

	switch n.lit.kind {
	case tokNull:
		return equality(n.op, value == nil)
	case tokBool:
		got, _ := coerceBool(value)
		return equality(n.op, got == (n.lit.raw == "true"))
	case tokNumber:
		want, _ := strconv.ParseFloat(n.lit.raw, 64)
		got, ok := coerceNumber(value)
		if !ok {
			if _, isString := value.(string); isString && isOrdering(n.op) {
				return false, fmt.Errorf("expr: %s %s %s compares text with a number", n.ident, n.op.raw, n.lit.raw)
			}
			if n.op.kind == tokNeq {
				return true, nil
			}
			return false, nil
		}
		return ordered(n.op, compareFloat(got, want))
	default:
		if _, isNumber := numericKind(value); isNumber && isOrdering(n.op) {
			return false, fmt.Errorf("expr: %s %s %q compares a number with text", n.ident, n.op.raw, n.lit.raw)
		}
		return ordered(n.op, strings.Compare(coerceString(value), n.lit.raw))
	}
}

func isOrdering(op token) bool {
	switch op.kind {
	case tokLt, tokLte, tokGt, tokGte:
		return true
	default:
		return false
	}
}

// numericKind reports whether value holds a Go number, ignoring strings.
func numericKind(value any) (float64, bool) {
	if _, isString := value.(string); isString {
		return 0, false
	}
	return coerceNumber(value)
}

func equality(op token, equal bool) (bool, error) {
	switch op.kind {
	case tokEq:
		return equal, nil
	case tokNeq:
		return !equal, nil
	default:
		return false, fmt.Errorf("expr: operator %q needs a number or string", op.raw)
	}
}

func ordered(op token, cmp int) (bool, error) {
	switch op.kind {
	case tokEq:
		return cmp == 0, nil
	case tokNeq:
		return cmp != 0, nil
	case tokLt:
		return cmp < 0, nil
	case tokLte:
		return cmp <= 0, nil
	case tokGt:
		return cmp > 0, nil
	case tokGte:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("expr: unsupported operator %q", op.raw)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("expr: unexpected token %q", p.tokens[p.pos].raw)
	}
	return n, nil
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(tokOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(tokAnd) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.match(tokNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.match(tokLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.match(tokRParen) {
			return nil, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}

	tok, ok := p.next()
	if !ok {
		return nil, errors.New("expr: unexpected end of rule")
	}
	if tok.kind != tokIdent {
		return nil, fmt.Errorf("expr: expected field name, got %q", tok.raw)
	}

	op, ok := p.peek()
	if !ok || !isOperand(op.kind) {
		return truthyNode{ident: tok.raw}, nil
	}
	p.pos++

	lit, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("expr: missing value after %q", op.raw)
	}
	switch lit.kind {
	case tokString, tokNumber, tokBool, tokNull:
	case tokIdent:
		lit.kind = tokString
	default:
		return nil, fmt.Errorf("expr: expected value, got %q", lit.raw)
	}
	return compareNode{ident: tok.raw, op: op, lit: lit}, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) match(kind tokenKind) bool {
	tok, ok := p.peek()
	if !ok || tok.kind != kind {
		return false
	}
	p.pos++
	return true
}

func lookup(ctx visibility.Context, key string) (any, bool) {
	if rest, ok := cutPrefixFold(key, "extras."); ok {
		return lookupPath(ctx.Extras, rest)
	}
	return lookupPath(ctx.Values, key)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func lookupPath(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}
	var current any = values
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := coerceNumber(value); ok {
		return n != 0
	}
	return true
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
	}
	return truthy(value), true
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
