/*
 * vsites.go, part of smirnoff.
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

package param

import (
	"slices"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/units"
	v3 "github.com/rmera/smirnoff/v3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

//Values of the match attribute of a virtual site parameter.
const (
	MatchOnce            = "once"
	MatchAllPermutations = "all_permutations"
)

//VirtualSite is one site placed by the handler.
type VirtualSite struct {
	Key        VirtualSiteKey
	Particle   int       //index of the site among all particles, after the atoms.
	Atoms      []int     //matched atoms, in map order, in global indexes.
	Increments []float64 //charge increments of Atoms, in e.
	geom       geometry
}

//Charge returns the charge of the site, minus the sum of its increments.
func (s *VirtualSite) Charge() units.Quantity {
	return units.Q(-floats.Sum(s.Increments), units.ElementaryCharge)
}

//siteID is what tells sites apart.
type siteID struct {
	typ, name   string
	orientation Indices
}

//VirtualSiteHandler holds the virtual sites, their parameters and their
//nonbonded potentials. Each site has a slot keyed by its orientation atoms,
//with Mult set to the index of the site among all sites.
type VirtualSiteHandler struct {
	SMIRKSHandler
	sites           []*VirtualSite
	natoms          int
	ExclusionPolicy string
}

//Len returns the number of sites.
func (h *VirtualSiteHandler) Len() int {
	return len(h.sites)
}

//Sites returns the sites, in particle order.
func (h *VirtualSiteHandler) Sites() []*VirtualSite {
	return slices.Clone(h.sites)
}

//Keys returns the keys of the sites, in particle order.
func (h *VirtualSiteHandler) Keys() []VirtualSiteKey {
	r := make([]VirtualSiteKey, len(h.sites))
	for i, s := range h.sites {
		r[i] = s.Key
	}
	return r
}

//Site returns the site with the given key.
func (h *VirtualSiteHandler) Site(k VirtualSiteKey) (*VirtualSite, bool) {
	for _, s := range h.sites {
		if s.Key == k {
			return s, true
		}
	}
	return nil, false
}

//Charges returns the atomic charges given, corrected with the charge increments
//of the sites, followed by the charges of the sites.
func (h *VirtualSiteHandler) Charges(atoms []units.Quantity) ([]units.Quantity, error) {
	if len(atoms) != h.natoms {
		return nil, errors.Newf("%d charges for %d atoms", len(atoms), h.natoms)
	}
	r := make([]units.Quantity, len(atoms), len(atoms)+len(h.sites))
	copy(r, atoms)
	for _, s := range h.sites {
		for i, a := range s.Atoms {
			q, err := r[a].Add(units.Q(s.Increments[i], units.ElementaryCharge))
			if err != nil {
				return nil, err
			}
			r[a] = q
		}
	}
	for _, s := range h.sites {
		r = append(r, s.Charge())
	}
	return r, nil
}

//Positions returns the atom positions given (in Å) followed by the positions
//of the sites.
func (h *VirtualSiteHandler) Positions(atoms *v3.Matrix) (*v3.Matrix, error) {
	if atoms.NVecs() != h.natoms {
		return nil, errors.Newf("%d positions for %d atoms", atoms.NVecs(), h.natoms)
	}
	vecs := make([]r3.Vec, len(h.sites))
	for i, s := range h.sites {
		o := s.Key.Orientation
		r := make([]r3.Vec, o.Len())
		for j := range r {
			r[j] = atoms.Vec(o.At(j))
		}
		var err error
		if vecs[i], err = place(s.Key.Type, s.geom, r); err != nil {
			return nil, err
		}
	}
	if len(vecs) == 0 {
		return atoms.Copy(), nil
	}
	return atoms.Stack(v3.FromVecs(vecs)), nil
}

//checkSite validates a virtual site parameter against one of its matches.
func checkSite(p *ff.ParameterType, tagged int) error {
	typ := p.Attr("type", "")
	n, ok := siteAtoms[typ]
	if !ok {
		return badSite(p.Label(), "unknown type %q", typ)
	}
	if tagged != n {
		return badSite(p.Label(), "type %s tags %d atoms, not %d", typ, tagged, n)
	}
	switch m := p.Attr("match", ""); m {
	case MatchOnce, MatchAllPermutations:
	default:
		return badSite(p.Label(), "match %q, not %q or %q", m, MatchOnce, MatchAllPermutations)
	}
	if _, ok := p.Get("distance"); !ok {
		return badSite(p.Label(), "no distance")
	}
	return nil
}

//siteGeometry reads the placement of a site. Angles that do not apply to
//the type are zero.
func siteGeometry(p *ff.ParameterType) (geometry, error) {
	var g geometry
	d, _ := p.Get("distance")
	var err error
	if d, err = d.To(units.Angstrom); err != nil {
		return g, errors.Wrapf(err, "virtual site %s distance", p.Label())
	}
	g.distance = d.Magnitude
	typ := p.Attr("type", "")
	angle := func(name string) (float64, error) {
		q, ok := p.Get(name)
		if !ok {
			return 0, badSite(p.Label(), "type %s needs %s", typ, name)
		}
		r, err := q.To(units.Radian)
		return r.Magnitude, err
	}
	switch typ {
	case MonovalentLonePair:
		if g.inPlane, err = angle("inPlaneAngle"); err != nil {
			return g, err
		}
		g.outOfPlane, err = angle("outOfPlaneAngle")
	case DivalentLonePair:
		g.outOfPlane, err = angle("outOfPlaneAngle")
		if err == nil && p.Attr("match", "") == MatchOnce && g.outOfPlane != 0 {
			err = badSite(p.Label(), "matches once, so its outOfPlaneAngle must be 0")
		}
	}
	return g, err
}

//orientation returns the atoms that orient the site of a match.
func orientation(match string, g []int) Indices {
	if match == MatchAllPermutations {
		return Idx(g...)
	}
	others := slices.Clone(g[1:])
	slices.Sort(others)
	return Idx(append([]int{g[0]}, others...)...)
}

//buildVirtualSites places the sites molecule by molecule. Within a molecule,
//parameters are visited in order, and a parameter giving a site with the same
//type, name and orientation as an earlier one replaces it in place.
func buildVirtualSites(b *builder, defs []*ff.Handler) (*VirtualSiteHandler, error) {
	s := &settings{defs: defs}
	h := &VirtualSiteHandler{
		SMIRKSHandler:   newSMIRKSHandler(VirtualSites),
		natoms:          b.top.NAtoms(),
		ExclusionPolicy: s.attr("exclusion_policy", "parents"),
	}
	type placed struct {
		site  *VirtualSite
		param *ff.ParameterType
	}
	for mi := 0; mi < b.top.NMolecules(); mi++ {
		if err := b.ctx.Err(); err != nil {
			return nil, err
		}
		off := b.top.Offset(mi)
		mol := newOrdered[siteID, placed]()
		for _, d := range defs {
			for _, p := range d.Parameters {
				ms, err := b.molMatches(p.SMIRKS, mi)
				if err != nil {
					return nil, err
				}
				for _, m := range ms {
					if err := checkSite(p, len(m)); err != nil {
						return nil, err
					}
					geom, err := siteGeometry(p)
					if err != nil {
						return nil, err
					}
					inc, err := siteIncrements(p, len(m))
					if err != nil {
						return nil, err
					}
					g := make([]int, len(m))
					for i, v := range m {
						g[i] = v + off
					}
					match := p.Attr("match", "")
					k := VirtualSiteKey{Orientation: orientation(match, g), Type: p.Attr("type", ""), Name: p.Attr("name", "EP"), Match: match}
					mol.set(siteID{k.Type, k.Name, k.Orientation}, placed{&VirtualSite{Key: k, Atoms: g, Increments: inc, geom: geom}, p})
				}
			}
		}
		for _, pl := range mol.all() {
			pl.site.Particle = h.natoms + len(h.sites)
			sigma, eps, err := sigmaEpsilon(pl.param)
			if err != nil {
				return nil, err
			}
			pot := map[string]units.Quantity{
				"distance": units.Q(pl.site.geom.distance, units.Angstrom),
				"charge":   pl.site.Charge(),
				"sigma":    sigma,
				"epsilon":  eps,
			}
			switch pl.site.Key.Type {
			case MonovalentLonePair:
				pot["inPlaneAngle"] = units.Q(pl.site.geom.inPlane, units.Radian)
				fallthrough
			case DivalentLonePair:
				pot["outOfPlaneAngle"] = units.Q(pl.site.geom.outOfPlane, units.Radian)
			}
			h.store(TopologyKey{AtomIndices: pl.site.Key.Orientation, Mult: len(h.sites)},
				PotentialKey{ID: pl.param.SMIRKS, AssociatedHandler: VirtualSites}, NewPotential(pot))
			h.sites = append(h.sites, pl.site)
		}
	}
	b.log.Debug("placed virtual sites", zap.Int("sites", len(h.sites)), zap.Int("potentials", h.potentials.len()))
	return h, nil
}

//siteIncrements reads one charge increment per tagged atom.
func siteIncrements(p *ff.ParameterType, atoms int) ([]float64, error) {
	qs := p.Indexed("charge_increment")
	if len(qs) != atoms {
		return nil, badSite(p.Label(), "%d charge increments for %d tagged atoms", len(qs), atoms)
	}
	r := make([]float64, atoms)
	for i, q := range qs {
		v, err := q.To(units.ElementaryCharge)
		if err != nil {
			return nil, errors.Wrapf(err, "virtual site %s", p.Label())
		}
		r[i] = v.Magnitude
	}
	return r, nil
}
