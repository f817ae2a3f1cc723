/*
 * parse.go, part of smirnoff.
 *
 * Copyright 2025 The smirnoff authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package units

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

//tokenize splits a quantity expression into numbers, names, operators and parentheses.
//"**" is kept as a single token.
func tokenize(s string) []string {
	var toks []string
	r := []rune(s)
	for i := 0; i < len(r); {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '*' && i+1 < len(r) && r[i+1] == '*':
			toks = append(toks, "**")
			i += 2
		case c == '*' || c == '/' || c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case unicode.IsDigit(c) || c == '.' || ((c == '-' || c == '+') && (len(toks) == 0 || isOp(toks[len(toks)-1]))):
			j := i + 1
			for j < len(r) && (unicode.IsDigit(r[j]) || r[j] == '.' || r[j] == 'e' || r[j] == 'E' ||
				((r[j] == '-' || r[j] == '+') && (r[j-1] == 'e' || r[j-1] == 'E'))) {
				j++
			}
			toks = append(toks, string(r[i:j]))
			i = j
		default:
			j := i
			for j < len(r) && (unicode.IsLetter(r[j]) || r[j] == '_' || (j > i && unicode.IsDigit(r[j]))) {
				j++
			}
			if j == i {
				j = i + 1
			}
			toks = append(toks, string(r[i:j]))
			i = j
		}
	}
	return toks
}

func isOp(t string) bool {
	return t == "*" || t == "/" || t == "**" || t == "("
}

type parser struct {
	toks []string
	pos  int
	src  string
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

//expr := term (('*'|'/') term)*
func (p *parser) expr() (float64, Unit, error) {
	mag, u, err := p.term()
	if err != nil {
		return 0, Unit{}, err
	}
	for {
		op := p.peek()
		if op != "*" && op != "/" {
			return mag, u, nil
		}
		p.pos++
		m2, u2, err := p.term()
		if err != nil {
			return 0, Unit{}, err
		}
		if op == "*" {
			mag *= m2
			u = u.Mul(u2)
		} else {
			mag /= m2
			u = u.Div(u2)
		}
	}
}

//term := factor ('**' integer)?
func (p *parser) term() (float64, Unit, error) {
	mag, u, err := p.factor()
	if err != nil {
		return 0, Unit{}, err
	}
	if p.peek() != "**" {
		return mag, u, nil
	}
	p.pos++
	e, err := strconv.Atoi(p.peek())
	if err != nil {
		return 0, Unit{}, errors.Newf("units: bad exponent %q in %q", p.peek(), p.src)
	}
	p.pos++
	return math.Pow(mag, float64(e)), u.Pow(e), nil
}

//factor := number | name | '(' expr ')'
func (p *parser) factor() (float64, Unit, error) {
	t := p.peek()
	if t == "" {
		return 0, Unit{}, errors.Newf("units: unexpected end of %q", p.src)
	}
	p.pos++
	if t == "(" {
		mag, u, err := p.expr()
		if err != nil {
			return 0, Unit{}, err
		}
		if p.peek() != ")" {
			return 0, Unit{}, errors.Newf("units: unbalanced parentheses in %q", p.src)
		}
		p.pos++
		return mag, u, nil
	}
	if v, err := strconv.ParseFloat(t, 64); err == nil {
		return v, Dimensionless, nil
	}
	u, ok := symbols[t]
	if !ok {
		u, ok = symbols[strings.ToLower(t)]
	}
	if !ok {
		return 0, Unit{}, errors.Newf("units: unknown unit %q in %q", t, p.src)
	}
	return 1, u, nil
}
