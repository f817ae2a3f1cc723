/*
 * gromacs.go, part of smirnoff.
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
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/internal/compressed"
	"github.com/rmera/smirnoff/param"
	"github.com/rmera/smirnoff/topology"
	"github.com/rmera/smirnoff/units"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	kjPerMolNm2  = units.KilojoulePerMole.Div(units.Nanometer.Pow(2))
	kjPerMolRad2 = units.KilojoulePerMole.Div(units.Radian.Pow(2))
)

//Exclusion policies for virtual sites that can be written.
const (
	ExcludeNone    = "none"
	ExcludeMinimal = "minimal"
	ExcludeParents = "parents"
)

//System is a GROMACS topology: the [ defaults ], the atom types and one
//molecule type per molecule.
type System struct {
	Name      string
	FudgeLJ   float64
	FudgeQQ   float64
	ATypes    []*AtomType
	Molecules []*MolType
}

//MolType is a [ moleculetype ] and its sections. All indexes are 0-based,
//within the molecule.
type MolType struct {
	Name        string
	NrExcl      int
	Atoms       []*Atom
	Bonds       []*Term
	Constraints []*Term
	Angles      []*Term
	Dihedrals   []*Term
	Pairs       []pair
	VSites2     []*VSite
	VSites3     []*VSite
	Exclusions  []exclusion
}

//in returns the magnitude of q in u, and panics if they are not compatible.
func in(q units.Quantity, u units.Unit) float64 {
	v, err := q.To(u)
	qerr(err)
	return v.Magnitude
}

func get(p *param.Potential, name string) units.Quantity {
	q, ok := p.Get(name)
	if !ok {
		panic("potential without " + name)
	}
	return q
}

//molNames returns a valid and unique molecule type name for each molecule.
func molNames(top *topology.Topology) []string {
	clean := func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}
	names := make([]string, top.NMolecules())
	count := make(map[string]int)
	for i, m := range top.Molecules() {
		n := strings.Map(clean, m.Name)
		if n == "" {
			n = "MOL"
		}
		names[i] = n
		count[n]++
	}
	seen := make(map[string]int)
	for i, n := range names {
		if count[n] > 1 {
			seen[n]++
			names[i] = sf("%s_%d", n, seen[n])
		}
	}
	return names
}

//FromCollection builds a GROMACS topology from the parameters in C, which
//must include vdW and electrostatics. Writing virtual sites needs a conformer
//for each molecule, from which the constructions are fitted.
func FromCollection(C *param.Collection, name string) (S *System, err error) {
	defer func() {
		if r := recover(); r != nil {
			S = nil
			err = errors.Newf("top: %s", r)
		}
	}()
	vdw, es := C.VdW(), C.Electrostatics()
	if vdw == nil || es == nil {
		return nil, errors.New("top: GROMACS topologies need vdW and electrostatics parameters")
	}
	q, err := C.Charges()
	if err != nil {
		return nil, err
	}
	top := C.Topology()
	S = &System{Name: name, FudgeLJ: vdw.Scale14, FudgeQQ: es.Scale14}
	for mi, mname := range molNames(top) {
		m := top.Molecule(mi)
		off := top.Offset(mi)
		mt := &MolType{Name: mname, NrExcl: 3}
		for i, a := range m.Atoms() {
			p, ok := vdw.Potential(param.Key(off + i))
			if !ok {
				return nil, errors.Newf("top: no vdW parameters for atom %d", off+i)
			}
			typ := sf("%s_%d", mname, i+1)
			mass := topology.Mass(a.Symbol)
			S.ATypes = append(S.ATypes, &AtomType{
				Name:         typ,
				AtomicNumber: a.AtomicNumber,
				Mass:         mass,
				Ptype:        "A",
				Sigma:        in(get(p, "sigma"), units.Nanometer),
				Epsilon:      in(get(p, "epsilon"), units.KilojoulePerMole),
			})
			aname := a.Name
			if aname == "" {
				aname = sf("%s%d", a.Symbol, i+1)
			}
			mt.Atoms = append(mt.Atoms, &Atom{ID: i + 1, Type: typ, ResNr: 1, Residue: "MOL", Name: aname, Charge: in(q[off+i], units.ElementaryCharge), Mass: mass})
		}
		mt.Pairs = pairs(top, mi)
		S.Molecules = append(S.Molecules, mt)
	}
	S.terms(C)
	if err := S.sites(C, q); err != nil {
		return nil, err
	}
	return S, nil
}

//local returns the molecule of the atoms in I, and their indexes within it.
func local(top *topology.Topology, I param.Indices) (int, []int) {
	mi, _ := top.Locate(I.At(0))
	off := top.Offset(mi)
	ids := I.Slice()
	for i := range ids {
		ids[i] -= off
	}
	return mi, ids
}

//terms fills the bonded sections of every molecule type.
func (S *System) terms(C *param.Collection) {
	top := C.Topology()
	each := func(h param.Handler, f func(mt *MolType, ids []int, p *param.Potential)) {
		for tk, pk := range h.Slots().All() {
			p, ok := h.Potentials().Get(pk)
			if !ok {
				panic("slot without potential: " + tk.String())
			}
			mi, ids := local(top, tk.AtomIndices)
			f(S.Molecules[mi], ids, p)
		}
	}
	if h := C.Bonds(); h != nil {
		each(h, func(mt *MolType, ids []int, p *param.Potential) {
			mt.Bonds = append(mt.Bonds, &Term{IDs: ids, FuncType: 1, Eq: in(get(p, "length"), units.Nanometer), K: in(get(p, "k"), kjPerMolNm2), OneBased: 1})
		})
	}
	if h := C.Constraints(); h != nil {
		each(h, func(mt *MolType, ids []int, p *param.Potential) {
			mt.Constraints = append(mt.Constraints, &Term{IDs: ids, FuncType: 1, Eq: in(get(p, "distance"), units.Nanometer), Constraint: true, OneBased: 1})
		})
	}
	if h := C.Angles(); h != nil {
		each(h, func(mt *MolType, ids []int, p *param.Potential) {
			mt.Angles = append(mt.Angles, &Term{IDs: ids, FuncType: 1, Eq: in(get(p, "angle"), units.Degree), K: in(get(p, "k"), kjPerMolRad2), OneBased: 1})
		})
	}
	torsion := func(ft uint) func(mt *MolType, ids []int, p *param.Potential) {
		return func(mt *MolType, ids []int, p *param.Potential) {
			idivf := get(p, "idivf").Magnitude
			mt.Dihedrals = append(mt.Dihedrals, &Term{
				IDs:      ids,
				FuncType: ft,
				Eq:       in(get(p, "phase"), units.Degree),
				K:        in(get(p, "k"), units.KilojoulePerMole) / idivf,
				Mult:     int(get(p, "periodicity").Magnitude),
				OneBased: 1,
			})
		}
	}
	if h := C.ProperTorsions(); h != nil {
		each(h, torsion(9))
	}
	if h := C.ImproperTorsions(); h != nil {
		each(h, torsion(4))
	}
}

//pairs returns the 1-4 pairs of the ith molecule: the ends of its proper
//torsions that are not also 1-2 or 1-3 pairs.
func pairs(top *topology.Topology, mi int) []pair {
	m := top.Molecule(mi)
	off := top.Offset(mi)
	near := func(i, j int) bool {
		if m.BondBetween(i, j) != nil {
			return true
		}
		for _, n := range m.Neighbors(i) {
			if m.BondBetween(n, j) != nil {
				return true
			}
		}
		return false
	}
	seen := make(map[pair]bool)
	var r []pair
	for _, t := range top.ProperTorsions() {
		if t[0] < off || t[0] >= off+m.Len() {
			continue
		}
		i, j := t[0]-off, t[3]-off
		if i > j {
			i, j = j, i
		}
		p := pair{i, j}
		if seen[p] || near(i, j) {
			continue
		}
		seen[p] = true
		r = append(r, p)
	}
	return r
}

//sites adds the virtual sites to their molecule types, as particles with
//their own atom type and a construction fitted to the current positions.
func (S *System) sites(C *param.Collection, q []units.Quantity) error {
	vs := C.VirtualSites()
	if vs == nil || vs.Len() == 0 {
		return nil
	}
	switch vs.ExclusionPolicy {
	case ExcludeNone, ExcludeMinimal, ExcludeParents:
	default:
		return errors.Newf("top: virtual site exclusion policy %q is not supported", vs.ExclusionPolicy)
	}
	pos, err := C.Positions()
	if err != nil {
		return errors.Wrap(err, "top: virtual sites need positions")
	}
	top := C.Topology()
	natoms := top.NAtoms()
	for _, s := range vs.Sites() {
		mi, ids := local(top, s.Key.Orientation)
		mt := S.Molecules[mi]
		p, ok := vs.Potential(param.TopologyKey{AtomIndices: s.Key.Orientation, Mult: s.Particle - natoms})
		if !ok {
			return errors.Newf("top: no potential for virtual site %s", s.Key)
		}
		id := len(mt.Atoms)
		typ := sf("%s_%s%d", mt.Name, s.Key.Name, id+1)
		S.ATypes = append(S.ATypes, &AtomType{
			Name:    typ,
			Ptype:   "V",
			Sigma:   in(get(p, "sigma"), units.Nanometer),
			Epsilon: in(get(p, "epsilon"), units.KilojoulePerMole),
		})
		mt.Atoms = append(mt.Atoms, &Atom{ID: id + 1, Type: typ, ResNr: 1, Residue: "MOL", Name: s.Key.Name, Charge: in(q[s.Particle], units.ElementaryCharge)})

		o := s.Key.Orientation
		r := make([]r3.Vec, o.Len())
		for i := range r {
			r[i] = pos.Vec(o.At(i))
		}
		site := pos.Vec(s.Particle)
		if len(r) == 2 {
			mt.VSites2 = append(mt.VSites2, &VSite{ID: id, FuncType: 1, Atoms: ids, Factors: []float64{linear(site, r)}})
		} else {
			f, err := outOfPlane(site, r)
			if err != nil {
				return errors.Wrapf(err, "top: virtual site %s", s.Key)
			}
			mt.VSites3 = append(mt.VSites3, &VSite{ID: id, FuncType: 4, Atoms: ids[:3], Factors: f})
		}
		switch vs.ExclusionPolicy {
		case ExcludeMinimal:
			mt.Exclusions = append(mt.Exclusions, exclusion{id, ids[0]})
		case ExcludeParents:
			mt.Exclusions = append(mt.Exclusions, append(exclusion{id}, ids...))
		}
	}
	return nil
}

//linear returns a such that s = (1-a)r0 + a*r1.
func linear(s r3.Vec, r []r3.Vec) float64 {
	d := r3.Sub(r[1], r[0])
	return r3.Dot(r3.Sub(s, r[0]), d) / r3.Dot(d, d)
}

//outOfPlane returns a, b and c such that s = r0 + a*r01 + b*r02 + c*(r01 x r02),
//with c in 1/nm, for positions in Å.
func outOfPlane(s r3.Vec, r []r3.Vec) ([]float64, error) {
	r01, r02 := r3.Sub(r[1], r[0]), r3.Sub(r[2], r[0])
	n := r3.Cross(r01, r02)
	A := mat.NewDense(3, 3, []float64{
		r01.X, r02.X, n.X,
		r01.Y, r02.Y, n.Y,
		r01.Z, r02.Z, n.Z,
	})
	d := r3.Sub(s, r[0])
	var x mat.VecDense
	if err := x.SolveVec(A, mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})); err != nil {
		return nil, errors.Wrap(err, "collinear constructing atoms")
	}
	return []float64{x.AtVec(0), x.AtVec(1), x.AtVec(2) * 10}, nil
}

//section writes a header and its lines, if there are any.
func section[G ~[]E, E groer](w io.StringWriter, header string, g G) {
	if len(g) == 0 {
		return
	}
	_, err := w.WriteString("\n[ " + header + " ]\n")
	qerr(err)
	qerr(printGro(w, g))
}

//Write writes the topology in GROMACS top format.
func (S *System) Write(w io.StringWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("top: %s", r)
		}
	}()
	ws := func(s string) {
		_, err := w.WriteString(s)
		qerr(err)
	}
	ws(sf("; %s\n\n[ defaults ]\n; nbfunc comb-rule gen-pairs fudgeLJ fudgeQQ\n     1         2       yes %10.8f %10.8f\n", S.Name, S.FudgeLJ, S.FudgeQQ))
	section(w, "atomtypes", S.ATypes)
	for _, m := range S.Molecules {
		ws(sf("\n[ moleculetype ]\n; name nrexcl\n%s %d\n", m.Name, m.NrExcl))
		section(w, "atoms", m.Atoms)
		section(w, "bonds", m.Bonds)
		section(w, "constraints", m.Constraints)
		section(w, "pairs", m.Pairs)
		section(w, "angles", m.Angles)
		section(w, "dihedrals", m.Dihedrals)
		section(w, "virtual_sites2", m.VSites2)
		section(w, "virtual_sites3", m.VSites3)
		section(w, "exclusions", m.Exclusions)
	}
	ws(sf("\n[ system ]\n%s\n\n[ molecules ]\n", S.Name))
	for _, m := range S.Molecules {
		ws(sf("%-16s 1\n", m.Name))
	}
	return nil
}

//WriteFile writes the topology to the named file, compressed if the name
//ends in .gz or .zst.
func (S *System) WriteFile(name string) error {
	f, err := compressed.Create(name)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := S.Write(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "top: writing %s", name)
	}
	return f.Close()
}
