/*
 * matcher.go, part of smirnoff.
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
	"github.com/rmera/smirnoff/topology"
)

//Matcher finds the matches of a SMIRKS pattern in a molecule. Tuples are
//ordered by map index, and must come in a stable order. An external
//cheminformatics toolkit can be plugged in by implementing this interface.
type Matcher interface {
	FindMatches(smirks string, m *topology.Molecule) ([][]int, error)
}

//CachingMatcher is the built-in Matcher. It parses each pattern once.
//It is not safe for concurrent use.
type CachingMatcher struct {
	patterns map[string]*Pattern
}

//NewMatcher returns a new built-in matcher.
func NewMatcher() *CachingMatcher {
	return &CachingMatcher{patterns: make(map[string]*Pattern)}
}

//Pattern returns the parsed pattern for s, parsing it if needed.
func (C *CachingMatcher) Pattern(s string) (*Pattern, error) {
	if P, ok := C.patterns[s]; ok {
		return P, nil
	}
	P, err := Parse(s)
	if err != nil {
		return nil, err
	}
	C.patterns[s] = P
	return P, nil
}

//FindMatches implements Matcher.
func (C *CachingMatcher) FindMatches(s string, m *topology.Molecule) ([][]int, error) {
	P, err := C.Pattern(s)
	if err != nil {
		return nil, err
	}
	return P.Match(m), nil
}
