/*
 * terms.go, part of smirnoff.
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


package top

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var fi func(string) []string = strings.Fields
var sf func(string, ...any) string = fmt.Sprintf

func qerr(err error) {
	if err != nil {
		panic(err.Error())
	}
}

func parseints(s ...string) ([]int, error) {
	r := make([]int, 0, len(s))
	for _, v := range s {
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		r = append(r, i)
	}
	return r, nil
}

func parsefloats(s ...string) ([]float64, error) {
	r := make([]float64, 0, len(s))
	for _, v := range s {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		r = append(r, f)
	}
	return r, nil
}

// Returns a string without gromacs comments (sequences starting with ';'),
// trailing and leading spaces, tabs and newlines
func cleanString(s string) string {
	f := strings.Split(s, ";")[0]
	return strings.Trim(f, "\n\t ")
}

type groer interface {
	ToGro() (string, error)
}

func printGro[G ~[]E, E groer](r io.StringWriter, g G) error {
	for _, v := range g {
		m, e := v.ToGro()
		if e != nil {
			return e
		}
		_, e = r.WriteString(m)
		if e != nil {
			return e
		}
	}
	return nil
}

//Term is a bonded interaction. IDs are 0-based indexes within the molecule,
//Eq is the equilibrium value (nm or degrees) and K the force constant. Mult is
//the periodicity of dihedral terms. Constraints have no force constant.
type Term struct {
	IDs        []int
	FuncType   uint
	Eq         float64
	K          float64
	Mult       int
	Constraint bool
	OneBased   int
}

//periodic returns true for the dihedral function types that carry a multiplicity.
func (T *Term) periodic() bool {
	return len(T.IDs) == 4 && (T.FuncType == 1 || T.FuncType == 4 || T.FuncType == 9)
}

func (T *Term) writeAtoms() string {
	add := T.OneBased
	r := make([]string, 0, len(T.IDs))
	for _, v := range T.IDs {
		r = append(r, fmt.Sprintf("%5d", v+add))
	}
	return strings.Join(r, " ")
}

// Writes the term to a string in Gromacs top format.
func (T *Term) ToGro() (string, error) {
	if len(T.IDs) < 2 || len(T.IDs) > 4 {
		return "", errors.Newf("top: a term needs 2 to 4 atoms, got %d", len(T.IDs))
	}
	ret := make([]string, 0, 8)
	ret = append(ret, T.writeAtoms())
	ret = append(ret, fmt.Sprintf("%2d", T.FuncType))
	ret = append(ret, fmt.Sprintf("%12.6f", T.Eq))
	if !T.Constraint {
		ret = append(ret, fmt.Sprintf("%14.6f", T.K))
	}
	if T.periodic() {
		ret = append(ret, fmt.Sprintf("%2d", T.Mult))
	}
	return strings.Join(ret, " ") + "\n", nil
}

// Returns a term containing the information in the GromacsTop-formatted string s,
// given that the string is part of the header header. The atom indexes
// are kept as they are in the string.
func TermFromGro(s, header string) (T *Term, err error) {
	defer func() {
		if r := recover(); r != nil {
			T = nil
			err = errors.Newf("top: reading %s term %q: %s", header, s, r)
		}
	}()
	T = new(Term)
	l := fi(cleanString(s))
	var ats int
	switch header {
	case "bonds", "constraints":
		ats = 2
	case "angles":
		ats = 3
	case "dihedrals":
		ats = 4
	default:
		return nil, errors.Newf("top: no terms in header %s", header)
	}
	T.Constraint = header == "constraints"
	T.IDs, err = parseints(l[:ats]...)
	qerr(err)
	ft, err := strconv.Atoi(l[ats])
	qerr(err)
	T.FuncType = uint(ft)
	T.Eq, err = strconv.ParseFloat(l[ats+1], 64)
	qerr(err)
	if T.Constraint {
		return T, nil
	}
	T.K, err = strconv.ParseFloat(l[ats+2], 64)
	qerr(err)
	if T.periodic() {
		T.Mult, err = strconv.Atoi(l[ats+3])
		qerr(err)
	}
	return T, nil
}

//AtomType is a GROMACS atom type with sigma (nm) and epsilon (kJ/mol).
type AtomType struct {
	Name         string
	AtomicNumber int
	Mass         float64
	Charge       float64
	Ptype        string
	Sigma        float64
	Epsilon      float64
}

func (A *AtomType) ToGro() (string, error) {
	return sf("%-16s %3d %10.5f %10.6f %2s %14.8e %14.8e\n", A.Name, A.AtomicNumber, A.Mass, A.Charge, A.Ptype, A.Sigma, A.Epsilon), nil
}

//Atom is a line of the [ atoms ] section. ID is 1-based.
type Atom struct {
	ID      int
	Type    string
	ResNr   int
	Residue string
	Name    string
	Charge  float64
	Mass    float64
}

func (A *Atom) ToGro() (string, error) {
	return sf("%6d %-16s %4d %-8s %-6s %6d %12.8f %10.5f\n", A.ID, A.Type, A.ResNr, A.Residue, A.Name, A.ID, A.Charge, A.Mass), nil
}

//AtomFromGro reads a line of the [ atoms ] section.
func AtomFromGro(s string) (A *Atom, err error) {
	defer func() {
		if r := recover(); r != nil {
			A = nil
			err = errors.Newf("top: reading atom %q: %s", s, r)
		}
	}()
	l := fi(cleanString(s))
	A = new(Atom)
	A.ID, err = strconv.Atoi(l[0])
	qerr(err)
	A.Type = l[1]
	A.ResNr, err = strconv.Atoi(l[2])
	qerr(err)
	A.Residue = l[3]
	A.Name = l[4]
	A.Charge, err = strconv.ParseFloat(l[6], 64)
	qerr(err)
	A.Mass, err = strconv.ParseFloat(l[7], 64)
	qerr(err)
	return A, nil
}

//VSite is a virtual site built from N atoms (2 or 3). ID and Atoms are
//0-based indexes within the molecule.
type VSite struct {
	ID       int
	FuncType int
	Atoms    []int
	Factors  []float64
}

// Returns a Gromacstop-formatted virtual_sitesN string with the information in the receiver.
func (V *VSite) ToGro() (string, error) {
	if len(V.Atoms) < 2 || len(V.Atoms) > 3 {
		return "", errors.Newf("top: virtual sites need 2 or 3 constructing atoms, got %d", len(V.Atoms))
	}
	ret := make([]string, 0, 8)
	ret = append(ret, sf("%5d", V.ID+1))
	for _, v := range V.Atoms {
		ret = append(ret, sf("%5d", v+1))
	}
	ret = append(ret, sf("%2d", V.FuncType))
	for _, v := range V.Factors {
		ret = append(ret, sf("%14.8f", v))
	}
	return strings.Join(ret, " ") + "\n", nil
}

// Returns a *VSite with the information in the string s, a line of
// a virtual_sites2 or virtual_sites3 section.
func VSiteFromGro(s string, n int) (V *VSite, err error) {
	defer func() {
		if r := recover(); r != nil {
			V = nil
			err = errors.Newf("top: reading virtual site %q: %s", s, r)
		}
	}()
	l := fi(cleanString(s))
	ids, err := parseints(l[:n+1]...)
	qerr(err)
	for i := range ids {
		ids[i]--
	}
	V = &VSite{ID: ids[0], Atoms: ids[1:]}
	V.FuncType, err = strconv.Atoi(l[n+1])
	qerr(err)
	V.Factors, err = parsefloats(l[n+2:]...)
	qerr(err)
	return V, nil
}

//pair is a 1-4 pair, 0-based.
type pair [2]int

func (p pair) ToGro() (string, error) {
	return sf("%5d %5d  1\n", p[0]+1, p[1]+1), nil
}

//exclusion is an atom followed by the atoms it does not interact with, 0-based.
type exclusion []int

func (e exclusion) ToGro() (string, error) {
	ret := make([]string, 0, len(e))
	for _, v := range e {
		ret = append(ret, sf("%5d", v+1))
	}
	return strings.Join(ret, " ") + "\n", nil
}
