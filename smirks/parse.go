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

package smirks

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/topology"
)

//ErrSyntax is returned, wrapped, for every malformed or unsupported pattern.
var ErrSyntax = errors.New("smirks: syntax error")

func syntaxErr(src string, pos int, format string, args ...interface{}) error {
	return errors.Wrapf(ErrSyntax, "%s at position %d of %q", errors.Newf(format, args...).Error(), pos, src)
}

type ringOpen struct {
	atom int
	bond bondExpr
	pos  int
}

//Parse parses a SMIRKS (SMARTS with atom maps) pattern.
func Parse(s string) (*Pattern, error) {
	P := &Pattern{src: s}
	prev := -1
	var pending bondExpr
	pendingPos := 0
	var stack []int
	rings := make(map[int]ringOpen)
	link := func(idx int) {
		if prev >= 0 {
			e := pending
			if e == nil {
				e = bondPrim{implicitBond}
			}
			P.addBond(prev, idx, e)
		}
		pending = nil
		prev = idx
	}
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '(':
			if prev < 0 {
				return nil, syntaxErr(s, i, "branch before any atom")
			}
			stack = append(stack, prev)
			i++
		case c == ')':
			if len(stack) == 0 {
				return nil, syntaxErr(s, i, "unbalanced ')'")
			}
			if pending != nil {
				return nil, syntaxErr(s, i, "bond without a second atom")
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++
		case c == '[':
			j := closingBracket(s, i)
			if j < 0 {
				return nil, syntaxErr(s, i, "unbalanced '['")
			}
			expr, mapIdx, err := parseBracket(s[i+1 : j])
			if err != nil {
				return nil, syntaxErr(s, i, "%v", err)
			}
			idx, err := P.addAtom(expr, mapIdx)
			if err != nil {
				return nil, syntaxErr(s, i, "%v", err)
			}
			link(idx)
			i = j + 1
		case isBondChar(c):
			if prev < 0 {
				return nil, syntaxErr(s, i, "bond before any atom")
			}
			if pending != nil {
				return nil, syntaxErr(s, i, "two bonds in a row")
			}
			j := i
			for j < len(s) && isBondChar(s[j]) {
				j++
			}
			e, err := parseBondExpr(s[i:j])
			if err != nil {
				return nil, syntaxErr(s, i, "%v", err)
			}
			pending, pendingPos = e, i
			i = j
		case c == '%' || (c >= '0' && c <= '9'):
			if prev < 0 {
				return nil, syntaxErr(s, i, "ring closure before any atom")
			}
			n, l := 0, 1
			if c == '%' {
				if i+3 > len(s) {
					return nil, syntaxErr(s, i, "bad ring closure")
				}
				v, err := strconv.Atoi(s[i+1 : i+3])
				if err != nil {
					return nil, syntaxErr(s, i, "bad ring closure")
				}
				n, l = v, 3
			} else {
				n = int(c - '0')
			}
			if open, ok := rings[n]; ok {
				e := pending
				if e == nil {
					e = open.bond
				}
				if e == nil {
					e = bondPrim{implicitBond}
				}
				if P.hasBond(open.atom, prev) {
					return nil, syntaxErr(s, i, "ring closure duplicates a bond")
				}
				P.addBond(open.atom, prev, e)
				delete(rings, n)
			} else {
				rings[n] = ringOpen{atom: prev, bond: pending, pos: i}
			}
			pending = nil
			i += l
		case c == '.':
			return nil, syntaxErr(s, i, "disconnected patterns are not supported")
		case c == '>':
			return nil, syntaxErr(s, i, "reaction SMIRKS are not supported")
		default:
			e, l, err := organicAtom(s[i:])
			if err != nil {
				return nil, syntaxErr(s, i, "%v", err)
			}
			idx, _ := P.addAtom(e, 0)
			link(idx)
			i += l
		}
	}
	if len(stack) > 0 {
		return nil, syntaxErr(s, len(s), "unbalanced '('")
	}
	for _, r := range rings {
		return nil, syntaxErr(s, r.pos, "unclosed ring")
	}
	if pending != nil {
		return nil, syntaxErr(s, pendingPos, "bond without a second atom")
	}
	if len(P.atoms) == 0 {
		return nil, syntaxErr(s, 0, "empty pattern")
	}
	P.prepare()
	return P, nil
}

//MustParse is like Parse but panics on error.
func MustParse(s string) *Pattern {
	P, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return P
}

func isBondChar(c byte) bool {
	return strings.IndexByte("-=#:~@/\\!&,;", c) >= 0
}

//closingBracket returns the index of the ']' closing the '[' at s[i],
//skipping over recursive $(...) expressions.
func closingBracket(s string, i int) int {
	depth := 0
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

//organicAtom parses an atom outside brackets, returning the expression and the
//number of bytes consumed.
func organicAtom(s string) (atomExpr, int, error) {
	if s[0] == '*' {
		return atomPrim{kind: anyAtom}, 1, nil
	}
	if len(s) > 1 && (s[:2] == "Cl" || s[:2] == "Br") {
		return element(topology.AtomicNumber(s[:2]), false), 2, nil
	}
	switch s[0] {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		return element(topology.AtomicNumber(s[:1]), false), 1, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		return element(topology.AtomicNumber(s[:1]), true), 1, nil
	}
	return nil, 0, errors.Newf("unexpected character %q", s[0])
}

func element(z int, aromatic bool) atomExpr {
	if aromatic {
		return atomAnd{atomPrim{atomicNum, z}, atomPrim{kind: aromaticAtom}}
	}
	return atomAnd{atomPrim{atomicNum, z}, atomPrim{kind: aliphaticAtom}}
}

//parseBracket parses the contents of a bracket atom, returning the expression and
//the atom map index (0 if none).
func parseBracket(s string) (atomExpr, int, error) {
	mapIdx := 0
	depth := 0
	colon := -1
	for j := 0; j < len(s); j++ {
		switch s[j] {
		case '(':
			depth++
		case ')':
			depth--
		case ':':
			if depth == 0 {
				colon = j
			}
		}
	}
	if colon >= 0 {
		v, err := strconv.Atoi(s[colon+1:])
		if err != nil || v < 1 {
			return nil, 0, errors.Newf("bad atom map %q", s[colon:])
		}
		mapIdx = v
		s = s[:colon]
	}
	if s == "" {
		return nil, 0, errors.New("empty bracket atom")
	}
	p := &exprParser{src: s}
	e, err := p.lowAnd()
	if err != nil {
		return nil, 0, err
	}
	if p.pos != len(s) {
		return nil, 0, errors.Newf("unexpected %q in [%s]", s[p.pos], s)
	}
	return e, mapIdx, nil
}

type exprParser struct {
	src  string
	pos  int
	prim int //number of primitives read, to tell hydrogen from H-count
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) lowAnd() (atomExpr, error) {
	l, err := p.or()
	if err != nil {
		return nil, err
	}
	for p.peek() == ';' {
		p.pos++
		r, err := p.or()
		if err != nil {
			return nil, err
		}
		l = atomAnd{l, r}
	}
	return l, nil
}

func (p *exprParser) or() (atomExpr, error) {
	l, err := p.highAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == ',' {
		p.pos++
		r, err := p.highAnd()
		if err != nil {
			return nil, err
		}
		l = atomOr{l, r}
	}
	return l, nil
}

func (p *exprParser) highAnd() (atomExpr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c == '&' {
			p.pos++
		} else if c == 0 || c == ';' || c == ',' {
			return l, nil
		}
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = atomAnd{l, r}
	}
}

func (p *exprParser) unary() (atomExpr, error) {
	if p.peek() == '!' {
		p.pos++
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return atomNot{e}, nil
	}
	e, err := p.primitive()
	p.prim++
	return e, err
}

//number reads an optional unsigned integer, returning def if there is none.
func (p *exprParser) number(def int) int {
	j := p.pos
	for j < len(p.src) && p.src[j] >= '0' && p.src[j] <= '9' {
		j++
	}
	if j == p.pos {
		return def
	}
	v, _ := strconv.Atoi(p.src[p.pos:j])
	p.pos = j
	return v
}

func (p *exprParser) primitive() (atomExpr, error) {
	s := p.src
	start := p.pos
	c := p.peek()
	if c == 0 {
		return nil, errors.Newf("missing primitive in [%s]", s)
	}
	rest := s[p.pos:]
	//two-letter elements first, so Cl is not C followed by something else.
	if len(rest) > 1 && c >= 'A' && c <= 'Z' && c != 'H' && rest[1] >= 'a' && rest[1] <= 'z' {
		if z := topology.AtomicNumber(rest[:2]); z > 0 && topology.Symbol(z) == rest[:2] {
			p.pos += 2
			return element(z, false), nil
		}
	}
	if len(rest) > 1 && (rest[:2] == "se" || rest[:2] == "as") {
		p.pos += 2
		return element(topology.AtomicNumber(rest[:2]), true), nil
	}
	p.pos++
	switch c {
	case '*':
		return atomPrim{kind: anyAtom}, nil
	case '#':
		z := p.number(-1)
		if z < 0 {
			return nil, errors.Newf("'#' without atomic number in [%s]", s)
		}
		return atomPrim{atomicNum, z}, nil
	case 'a':
		return atomPrim{kind: aromaticAtom}, nil
	case 'A':
		return atomPrim{kind: aliphaticAtom}, nil
	case 'D':
		return atomPrim{degree, p.number(1)}, nil
	case 'X':
		return atomPrim{connectivity, p.number(1)}, nil
	case 'H':
		n := p.pos
		v := p.number(1)
		if p.prim == 0 && n == p.pos {
			//a leading bare H is the hydrogen atom, not a hydrogen count.
			return element(1, false), nil
		}
		return atomPrim{hCount, v}, nil
	case 'h':
		return atomPrim{implicitH, p.number(1)}, nil
	case 'R':
		return atomPrim{ringMembership, p.number(-1)}, nil
	case 'r':
		return atomPrim{ringSize, p.number(-1)}, nil
	case 'x':
		return atomPrim{ringConnectivity, p.number(-1)}, nil
	case 'v':
		return atomPrim{valence, p.number(1)}, nil
	case '+', '-':
		sign := 1
		if c == '-' {
			sign = -1
		}
		n := 1
		for p.peek() == c {
			n++
			p.pos++
		}
		if n == 1 {
			n = p.number(1)
		}
		return atomPrim{formalCharge, sign * n}, nil
	case '$':
		if p.peek() != '(' {
			return nil, errors.Newf("'$' without '(' in [%s]", s)
		}
		depth := 0
		end := -1
		for j := p.pos; j < len(s); j++ {
			if s[j] == '(' {
				depth++
			} else if s[j] == ')' {
				depth--
				if depth == 0 {
					end = j
					break
				}
			}
		}
		if end < 0 {
			return nil, errors.Newf("unbalanced recursive SMARTS in [%s]", s)
		}
		inner, err := Parse(s[p.pos+1 : end])
		if err != nil {
			return nil, err
		}
		p.pos = end + 1
		return &recursiveExpr{p: inner}, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		return element(topology.AtomicNumber(string(c)), true), nil
	case '@':
		return nil, errors.Newf("chirality is not supported in [%s]", s)
	}
	if c >= '0' && c <= '9' && start == 0 {
		return nil, errors.Newf("isotopes are not supported in [%s]", s)
	}
	if c >= 'A' && c <= 'Z' {
		if z := topology.AtomicNumber(string(c)); z > 0 {
			return element(z, false), nil
		}
	}
	return nil, errors.Newf("unknown primitive %q in [%s]", c, s)
}

//parseBondExpr parses a bond expression such as "-", "=,:" or "!@".
func parseBondExpr(s string) (bondExpr, error) {
	p := &bondParser{src: s}
	e, err := p.lowAnd()
	if err != nil {
		return nil, err
	}
	if p.pos != len(s) {
		return nil, errors.Newf("unexpected %q in bond %q", s[p.pos], s)
	}
	return e, nil
}

type bondParser struct {
	src string
	pos int
}

func (p *bondParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *bondParser) lowAnd() (bondExpr, error) {
	l, err := p.or()
	if err != nil {
		return nil, err
	}
	for p.peek() == ';' {
		p.pos++
		r, err := p.or()
		if err != nil {
			return nil, err
		}
		l = bondAnd{l, r}
	}
	return l, nil
}

func (p *bondParser) or() (bondExpr, error) {
	l, err := p.highAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == ',' {
		p.pos++
		r, err := p.highAnd()
		if err != nil {
			return nil, err
		}
		l = bondOr{l, r}
	}
	return l, nil
}

func (p *bondParser) highAnd() (bondExpr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c == '&' {
			p.pos++
		} else if c == 0 || c == ';' || c == ',' {
			return l, nil
		}
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = bondAnd{l, r}
	}
}

func (p *bondParser) unary() (bondExpr, error) {
	c := p.peek()
	if c == 0 {
		return nil, errors.Newf("missing bond primitive in %q", p.src)
	}
	p.pos++
	switch c {
	case '!':
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return bondNot{e}, nil
	case '-', '/', '\\':
		return bondPrim{singleBond}, nil
	case '=':
		return bondPrim{doubleBond}, nil
	case '#':
		return bondPrim{tripleBond}, nil
	case ':':
		return bondPrim{aromaticBond}, nil
	case '~':
		return bondPrim{anyBond}, nil
	case '@':
		return bondPrim{ringBond}, nil
	}
	return nil, errors.Newf("unknown bond primitive %q in %q", c, p.src)
}
