package evaluator

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// piece is either a lexed token or an already rewritten pow(...) group.
type piece struct {
	gap   string
	text  string
	tok   hclsyntax.TokenType
	group bool
}

func (p piece) is(t hclsyntax.TokenType) bool {
	return !p.group && p.tok == t
}

func (p piece) exponent() bool {
	return p.is(hclsyntax.TokenBitwiseXor) || p.is(hclsyntax.TokenStarStar)
}

func (p piece) atom() bool {
	return p.group || p.tok == hclsyntax.TokenNumberLit || p.tok == hclsyntax.TokenIdent
}

// splitDashes rewrites identifiers such as `a-b` or `a-1`, which HCL lexes
// as one name, into subtractions. Node ids never contain a dash.
func splitDashes(src string) string {
	tokens, _ := hclsyntax.LexExpression([]byte(src), "expression", hcl.InitialPos)

	var sb strings.Builder
	prev := 0
	for _, t := range tokens {
		if t.Type != hclsyntax.TokenIdent || !strings.Contains(string(t.Bytes), "-") {
			continue
		}
		start, end := t.Range.Start.Byte, t.Range.End.Byte
		if start < prev || end > len(src) {
			return src
		}
		sb.WriteString(src[prev:start])
		sb.WriteString(strings.Join(strings.Split(string(t.Bytes), "-"), " - "))
		prev = end
	}
	if prev == 0 {
		return src
	}
	sb.WriteString(src[prev:])
	return sb.String()
}

// rewritePow replaces every `a ^ b` and `a ** b` with `pow(a, b)`. Operands
// are atoms, calls or parenthesized spans; the right operand may carry unary
// signs. The deepest, then rightmost, operator is rewritten first.
func rewritePow(src string) (string, error) {
	tokens, _ := hclsyntax.LexExpression([]byte(src), "expression", hcl.InitialPos)

	var pieces []piece
	found := false
	prev := 0
	for _, t := range tokens {
		if t.Type == hclsyntax.TokenEOF {
			break
		}
		start, end := t.Range.Start.Byte, t.Range.End.Byte
		if start < prev || end > len(src) {
			return "", fmt.Errorf("unexpected token range %d:%d", start, end)
		}
		p := piece{gap: src[prev:start], text: string(t.Bytes), tok: t.Type}
		found = found || p.exponent()
		pieces = append(pieces, p)
		prev = end
	}
	if !found {
		return src, nil
	}
	tail := src[prev:]

	for {
		idx := nextExponent(pieces)
		if idx < 0 {
			break
		}
		lo, err := leftOperand(pieces, idx)
		if err != nil {
			return "", err
		}
		hi, err := rightOperand(pieces, idx)
		if err != nil {
			return "", err
		}

		g := piece{
			gap:   pieces[lo].gap,
			text:  "pow(" + join(pieces[lo:idx]) + ", " + join(pieces[idx+1:hi]) + ")",
			group: true,
		}
		rest := append([]piece{g}, pieces[hi:]...)
		pieces = append(pieces[:lo], rest...)
	}

	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p.gap)
		sb.WriteString(p.text)
	}
	sb.WriteString(tail)
	return sb.String(), nil
}

// nextExponent returns the index of the rightmost exponent operator at the
// deepest bracket nesting, or -1.
func nextExponent(pieces []piece) int {
	best, bestDepth, depth := -1, -1, 0
	for i, p := range pieces {
		switch {
		case opens(p):
			depth++
		case closes(p):
			depth--
		case p.exponent() && depth >= bestDepth:
			best, bestDepth = i, depth
		}
	}
	return best
}

func leftOperand(pieces []piece, idx int) (int, error) {
	i := idx - 1
	if i < 0 {
		return 0, fmt.Errorf("missing left operand for %q", pieces[idx].text)
	}
	switch {
	case pieces[i].atom():
		return i, nil
	case pieces[i].is(hclsyntax.TokenCParen):
		depth := 0
		for ; i >= 0; i-- {
			if closes(pieces[i]) {
				depth++
			} else if opens(pieces[i]) {
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if i < 0 {
			return 0, fmt.Errorf("unbalanced parentheses before %q", pieces[idx].text)
		}
		if i > 0 && pieces[i-1].is(hclsyntax.TokenIdent) {
			i--
		}
		return i, nil
	}
	return 0, fmt.Errorf("invalid left operand %q for %q", pieces[i].text, pieces[idx].text)
}

func rightOperand(pieces []piece, idx int) (int, error) {
	j := idx + 1
	for j < len(pieces) && (pieces[j].is(hclsyntax.TokenMinus) || pieces[j].is(hclsyntax.TokenPlus)) {
		j++
	}
	if j >= len(pieces) {
		return 0, fmt.Errorf("missing right operand for %q", pieces[idx].text)
	}
	if pieces[j].is(hclsyntax.TokenIdent) && j+1 < len(pieces) && pieces[j+1].is(hclsyntax.TokenOParen) {
		j++
	}
	switch {
	case pieces[j].is(hclsyntax.TokenOParen):
		depth := 0
		for ; j < len(pieces); j++ {
			if opens(pieces[j]) {
				depth++
			} else if closes(pieces[j]) {
				depth--
			}
			if depth == 0 {
				return j + 1, nil
			}
		}
		return 0, fmt.Errorf("unbalanced parentheses after %q", pieces[idx].text)
	case pieces[j].atom():
		return j + 1, nil
	}
	return 0, fmt.Errorf("invalid right operand %q for %q", pieces[j].text, pieces[idx].text)
}

func opens(p piece) bool {
	return p.is(hclsyntax.TokenOParen) || p.is(hclsyntax.TokenOBrack) || p.is(hclsyntax.TokenOBrace)
}

func closes(p piece) bool {
	return p.is(hclsyntax.TokenCParen) || p.is(hclsyntax.TokenCBrack) || p.is(hclsyntax.TokenCBrace)
}

func join(pieces []piece) string {
	var sb strings.Builder
	for i, p := range pieces {
		if i > 0 {
			sb.WriteString(p.gap)
		}
		sb.WriteString(p.text)
	}
	return sb.String()
}
