/*
 * charges.go, part of smirnoff.
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

//Package charges defines the oracles that supply partial charges and
//fractional bond orders for whole molecules, and a registry of methods that
//dispatches on the method name a force field asks for.
package charges

import (
	"context"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/topology"
)

//ErrUnsupportedMethod is returned, wrapped, when no oracle is registered for a method.
var ErrUnsupportedMethod = errors.New("charges: unsupported method")

//ChargeOracle computes one partial charge (in e) per atom of a molecule, in the
//molecule's atom order.
type ChargeOracle interface {
	PartialCharges(ctx context.Context, m *topology.Molecule, method string) ([]float64, error)
}

//BondOrderOracle computes one fractional bond order per bond of a molecule, in the
//molecule's bond order.
type BondOrderOracle interface {
	FractionalBondOrders(ctx context.Context, m *topology.Molecule, method string) ([]float64, error)
}

//ChargeFunc adapts a function to the ChargeOracle interface.
type ChargeFunc func(ctx context.Context, m *topology.Molecule) ([]float64, error)

//PartialCharges implements ChargeOracle, ignoring the method name.
func (f ChargeFunc) PartialCharges(ctx context.Context, m *topology.Molecule, _ string) ([]float64, error) {
	return f(ctx, m)
}

//BondOrderFunc adapts a function to the BondOrderOracle interface.
type BondOrderFunc func(ctx context.Context, m *topology.Molecule) ([]float64, error)

//FractionalBondOrders implements BondOrderOracle, ignoring the method name.
func (f BondOrderFunc) FractionalBondOrders(ctx context.Context, m *topology.Molecule, _ string) ([]float64, error) {
	return f(ctx, m)
}

//Registry maps method names to oracles. Names are case-insensitive, and
//aliases let a force field's method (say, AM1-Wiberg) be served by another
//(say, xtb-wiberg). The Registry is itself a ChargeOracle and a BondOrderOracle.
type Registry struct {
	charges    map[string]ChargeOracle
	bondOrders map[string]BondOrderOracle
	aliases    map[string]string
}

//NewRegistry returns a registry with the built-in methods: the charge methods
//formal_charge, zeros and gasteiger, and the bond-order method formal.
func NewRegistry() *Registry {
	R := &Registry{charges: make(map[string]ChargeOracle), bondOrders: make(map[string]BondOrderOracle), aliases: make(map[string]string)}
	R.RegisterCharges("formal_charge", ChargeFunc(FormalCharges))
	R.RegisterCharges("zeros", ChargeFunc(Zeros))
	R.RegisterCharges("gasteiger", ChargeFunc(Gasteiger))
	R.RegisterBondOrders("formal", BondOrderFunc(FormalBondOrders))
	return R
}

func normal(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

//RegisterCharges adds or replaces the charge oracle for a method.
func (R *Registry) RegisterCharges(method string, o ChargeOracle) {
	R.charges[normal(method)] = o
}

//RegisterBondOrders adds or replaces the bond-order oracle for a method.
func (R *Registry) RegisterBondOrders(method string, o BondOrderOracle) {
	R.bondOrders[normal(method)] = o
}

//Alias makes requests for alias be served by the oracle registered for target.
func (R *Registry) Alias(alias, target string) {
	R.aliases[normal(alias)] = normal(target)
}

//Canonical returns the name under which method is looked up, after case
//normalization and alias resolution.
func (R *Registry) Canonical(method string) string {
	m := normal(method)
	for i := 0; i < len(R.aliases); i++ {
		t, ok := R.aliases[m]
		if !ok {
			break
		}
		m = t
	}
	return m
}

//ChargeMethods returns the sorted names of the registered charge methods.
func (R *Registry) ChargeMethods() []string {
	r := make([]string, 0, len(R.charges))
	for k := range R.charges {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}

//PartialCharges implements ChargeOracle.
func (R *Registry) PartialCharges(ctx context.Context, m *topology.Molecule, method string) ([]float64, error) {
	c := R.Canonical(method)
	o, ok := R.charges[c]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedMethod, "partial charge method %q", method)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := o.PartialCharges(ctx, m, c)
	if err != nil {
		return nil, errors.Wrapf(err, "computing %s charges for %s", c, m.Name)
	}
	if len(q) != m.Len() {
		return nil, errors.Newf("charges: method %s returned %d charges for %d atoms", c, len(q), m.Len())
	}
	return q, nil
}

//FractionalBondOrders implements BondOrderOracle.
func (R *Registry) FractionalBondOrders(ctx context.Context, m *topology.Molecule, method string) ([]float64, error) {
	c := R.Canonical(method)
	o, ok := R.bondOrders[c]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedMethod, "fractional bond order method %q", method)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := o.FractionalBondOrders(ctx, m, c)
	if err != nil {
		return nil, errors.Wrapf(err, "computing %s bond orders for %s", c, m.Name)
	}
	if len(b) != m.NBonds() {
		return nil, errors.Newf("charges: method %s returned %d bond orders for %d bonds", c, len(b), m.NBonds())
	}
	return b, nil
}

//FormalCharges returns the formal charge of each atom.
func FormalCharges(_ context.Context, m *topology.Molecule) ([]float64, error) {
	q := make([]float64, m.Len())
	for i, a := range m.Atoms() {
		q[i] = float64(a.FormalCharge)
	}
	return q, nil
}

//Zeros returns a zero charge for each atom.
func Zeros(_ context.Context, m *topology.Molecule) ([]float64, error) {
	return make([]float64, m.Len()), nil
}

//FormalBondOrders returns the integer order of each bond, 1.5 for aromatic bonds.
func FormalBondOrders(_ context.Context, m *topology.Molecule) ([]float64, error) {
	b := make([]float64, m.NBonds())
	for i, v := range m.Bonds() {
		b[i] = float64(v.Order)
		if v.Aromatic {
			b[i] = 1.5
		}
	}
	return b, nil
}
