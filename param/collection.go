/*
 * collection.go, part of smirnoff.
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
	"context"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/topology"
	"github.com/rmera/smirnoff/units"
	v3 "github.com/rmera/smirnoff/v3"
	"go.uber.org/zap"
)

//Collection is the result of a build: one handler per category that had
//definitions, over one topology. It is read-only.
type Collection struct {
	top              *topology.Topology
	handlers         map[string]Handler
	names            []string
	bonds            *BondHandler
	constraints      *ConstraintHandler
	angles           *AngleHandler
	properTorsions   *ProperTorsionHandler
	improperTorsions *ImproperTorsionHandler
	vdw              *VdWHandler
	electrostatics   *ElectrostaticsHandler
	virtualSites     *VirtualSiteHandler
	oracleCalls      int
}

//FromSMIRNOFF assigns the parameters of a force field to a topology. The
//handlers of the force field are grouped into categories by tag. A handler
//tag no category takes gives an *UnsupportedHandlerError.
func FromSMIRNOFF(ctx context.Context, F *ff.ForceField, top *topology.Topology, opts ...Option) (*Collection, error) {
	defs := make(map[string][]*ff.Handler)
	for _, h := range F.Handlers() {
		c, ok := CategoryOfTag(h.Tag)
		if !ok {
			return nil, &UnsupportedHandlerError{Tag: h.Tag}
		}
		defs[c.Name] = append(defs[c.Name], h)
	}
	return FromHandlers(ctx, defs, top, opts...)
}

//FromHandlers assigns parameters to a topology from definitions grouped by
//category name. Every definition must have a tag its category accepts, or an
//*InvalidParameterHandlerError is returned. The build is all or nothing.
func FromHandlers(ctx context.Context, defs map[string][]*ff.Handler, top *topology.Topology, opts ...Option) (*Collection, error) {
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		c, ok := CategoryByName(name)
		if !ok {
			return nil, &UnsupportedHandlerError{Tag: name}
		}
		if err := c.Check(defs[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{Bonds, ProperTorsions} {
		if err := checkInterpolation(name, defs[name]); err != nil {
			return nil, err
		}
	}
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	b := newBuilder(ctx, top, o)
	C := &Collection{top: top, handlers: make(map[string]Handler)}
	for _, c := range Categories {
		d := defs[c.Name]
		if len(d) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := C.build(b, c.Name, d)
		if err != nil {
			return nil, err
		}
		C.handlers[c.Name] = h
		C.names = append(C.names, c.Name)
	}
	C.oracleCalls = b.cache.calls
	fields := []zap.Field{zap.Int("atoms", top.NAtoms()), zap.Int("molecules", top.NMolecules()), zap.Int("oracle calls", C.oracleCalls)}
	for _, name := range C.names {
		fields = append(fields, zap.Int(name, C.handlers[name].Slots().Len()))
	}
	o.logger.Info("parameters assigned", fields...)
	return C, nil
}

//build builds one category and stores its typed handler.
func (C *Collection) build(b *builder, name string, d []*ff.Handler) (Handler, error) {
	var err error
	switch name {
	case Bonds:
		if C.bonds, err = buildBonds(b, d); err == nil {
			return C.bonds, nil
		}
	case Constraints:
		if C.constraints, err = buildConstraints(b, d, C.bonds); err == nil {
			return C.constraints, nil
		}
	case Angles:
		if C.angles, err = buildAngles(b, d); err == nil {
			return C.angles, nil
		}
	case ProperTorsions:
		if C.properTorsions, err = buildProperTorsions(b, d); err == nil {
			return C.properTorsions, nil
		}
	case ImproperTorsions:
		if C.improperTorsions, err = buildImproperTorsions(b, d); err == nil {
			return C.improperTorsions, nil
		}
	case VdW:
		if C.vdw, err = buildVdW(b, d); err == nil {
			return C.vdw, nil
		}
	case Electrostatics:
		if C.electrostatics, err = buildElectrostatics(b, d); err == nil {
			return C.electrostatics, nil
		}
	case VirtualSites:
		if C.virtualSites, err = buildVirtualSites(b, d); err == nil {
			return C.virtualSites, nil
		}
	default:
		return nil, &UnsupportedHandlerError{Tag: name}
	}
	return nil, err
}

//Handler returns the handler of a category.
func (C *Collection) Handler(name string) (Handler, bool) {
	h, ok := C.handlers[name]
	return h, ok
}

//Names returns the names of the categories built, in build order.
func (C *Collection) Names() []string {
	return slices.Clone(C.names)
}

//Bonds returns the bond handler, or nil.
func (C *Collection) Bonds() *BondHandler { return C.bonds }

//Constraints returns the constraint handler, or nil.
func (C *Collection) Constraints() *ConstraintHandler { return C.constraints }

//Angles returns the angle handler, or nil.
func (C *Collection) Angles() *AngleHandler { return C.angles }

//ProperTorsions returns the proper torsion handler, or nil.
func (C *Collection) ProperTorsions() *ProperTorsionHandler { return C.properTorsions }

//ImproperTorsions returns the improper torsion handler, or nil.
func (C *Collection) ImproperTorsions() *ImproperTorsionHandler { return C.improperTorsions }

//VdW returns the vdW handler, or nil.
func (C *Collection) VdW() *VdWHandler { return C.vdw }

//Electrostatics returns the electrostatics handler, or nil.
func (C *Collection) Electrostatics() *ElectrostaticsHandler { return C.electrostatics }

//VirtualSites returns the virtual site handler, or nil.
func (C *Collection) VirtualSites() *VirtualSiteHandler { return C.virtualSites }

//Topology returns the topology the parameters were assigned to.
func (C *Collection) Topology() *topology.Topology { return C.top }

//Box returns the box vectors of the topology, nil if it is not periodic.
func (C *Collection) Box() *v3.Matrix { return C.top.Box }

//OracleCalls returns how many times the charge and bond order oracles were
//called during the build.
func (C *Collection) OracleCalls() int { return C.oracleCalls }

//NParticles returns the number of atoms plus the number of virtual sites.
func (C *Collection) NParticles() int {
	n := C.top.NAtoms()
	if C.virtualSites != nil {
		n += C.virtualSites.Len()
	}
	return n
}

//Charges returns the charge of every particle: the atoms, with the charge
//increments of the virtual sites applied, followed by the sites.
func (C *Collection) Charges() ([]units.Quantity, error) {
	if C.electrostatics == nil {
		return nil, errors.New("param: no electrostatics in the collection")
	}
	q := C.electrostatics.Charges()
	if C.virtualSites == nil {
		return q, nil
	}
	return C.virtualSites.Charges(q)
}

//Positions returns the positions, in Å, of every particle, taken from the first
//conformer of each molecule. Virtual sites are placed from their atoms.
func (C *Collection) Positions() (*v3.Matrix, error) {
	pos := C.top.Positions()
	if pos == nil {
		return nil, errors.New("param: some molecule in the topology has no conformer")
	}
	if C.virtualSites == nil {
		return pos, nil
	}
	return C.virtualSites.Positions(pos)
}
