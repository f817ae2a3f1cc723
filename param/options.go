/*
 * options.go, part of smirnoff.
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
	"github.com/rmera/smirnoff/charges"
	"github.com/rmera/smirnoff/smirks"
	"github.com/rmera/smirnoff/topology"
	"go.uber.org/zap"
)

type options struct {
	chargeRefs    []*topology.Molecule
	bondOrderRefs []*topology.Molecule
	chargeOracle  charges.ChargeOracle
	boOracle      charges.BondOrderOracle
	matcher       smirks.Matcher
	logger        *zap.Logger
}

func defaultOptions() *options {
	R := charges.NewRegistry()
	return &options{
		chargeOracle: R,
		boOracle:     R,
		matcher:      smirks.NewMatcher(),
		logger:       zap.NewNop(),
	}
}

//Option configures a build.
type Option func(*options)

//WithChargeFromMolecules takes the charges of any topology molecule identical
//to one of mols from that molecule, regardless of atom order. Every molecule in
//mols must carry partial charges.
func WithChargeFromMolecules(mols ...*topology.Molecule) Option {
	return func(o *options) {
		o.chargeRefs = append(o.chargeRefs, mols...)
	}
}

//WithPartialBondOrdersFromMolecules takes the fractional bond orders of any
//topology molecule identical to one of mols from that molecule.
func WithPartialBondOrdersFromMolecules(mols ...*topology.Molecule) Option {
	return func(o *options) {
		o.bondOrderRefs = append(o.bondOrderRefs, mols...)
	}
}

//WithChargeOracle sets the source of quantum-derived partial charges. The
//default is a charges.Registry with the built-in methods.
func WithChargeOracle(c charges.ChargeOracle) Option {
	return func(o *options) {
		o.chargeOracle = c
	}
}

//WithBondOrderOracle sets the source of fractional bond orders.
func WithBondOrderOracle(b charges.BondOrderOracle) Option {
	return func(o *options) {
		o.boOracle = b
	}
}

//WithMatcher sets the SMIRKS matcher.
func WithMatcher(m smirks.Matcher) Option {
	return func(o *options) {
		o.matcher = m
	}
}

//WithLogger sets the logger for the build.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
