/*
 * library.go, part of smirnoff.
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
	"strconv"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/smirks"
	"github.com/rmera/smirnoff/topology"
	"github.com/rmera/smirnoff/units"
)

//LibraryChargeFromMolecule returns a library charge parameter that gives every
//atom of m its partial charge. The SMIRKS tags each atom with its index+1.
func LibraryChargeFromMolecule(m *topology.Molecule) (*ff.ParameterType, error) {
	if !m.HasPartialCharges() {
		return nil, &MissingPartialChargesError{Molecule: m.Name}
	}
	s, err := smirks.FromMolecule(m)
	if err != nil {
		return nil, errors.Wrapf(err, "library charge for %s", m.Name)
	}
	p, err := ff.NewParameter(ff.ParameterElements[ff.TagLibraryCharges], map[string]string{"smirks": s})
	if err != nil {
		return nil, err
	}
	if m.Name != "" {
		p.Attrs["name"] = m.Name
	}
	for i, q := range m.PartialCharges() {
		p.Values["charge"+strconv.Itoa(i+1)] = units.Q(q, units.ElementaryCharge)
	}
	return p, nil
}
