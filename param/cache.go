/*
 * cache.go, part of smirnoff.
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

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/charges"
	"github.com/rmera/smirnoff/smirks"
	"github.com/rmera/smirnoff/topology"
	"go.uber.org/zap"
)

//oracleCache keeps the results of the oracles for one build, so each distinct
//molecule is sent to an oracle once per method. Molecules are bucketed by
//fingerprint and told apart within a bucket by graph correspondence, so a
//relabeled copy of a molecule gets the cached values in its own atom order.
type oracleCache struct {
	entries map[cacheKey][]cacheEntry
	calls   int
	log     *zap.Logger
}

type cacheKey struct {
	kind        string
	method      string
	fingerprint uint64
}

type cacheEntry struct {
	mol    *topology.Molecule
	values []float64
}

func newOracleCache(log *zap.Logger) *oracleCache {
	return &oracleCache{entries: make(map[cacheKey][]cacheEntry), log: log}
}

//lookup returns the cached values for m, remapped into the atom (or bond) order of m.
func (c *oracleCache) lookup(k cacheKey, m *topology.Molecule, bonds bool) ([]float64, bool) {
	for _, e := range c.entries[k] {
		corr, ok := smirks.Correspondence(e.mol, m)
		if !ok {
			continue
		}
		c.log.Debug("oracle cache hit", zap.String("kind", k.kind), zap.String("method", k.method), zap.String("molecule", m.Name))
		if bonds {
			r, err := remapBondOrders(e.mol, m, corr, e.values)
			if err != nil {
				continue
			}
			return r, true
		}
		return remapCharges(corr, e.values), true
	}
	return nil, false
}

func (c *oracleCache) charges(ctx context.Context, o charges.ChargeOracle, method string, m *topology.Molecule) ([]float64, error) {
	k := cacheKey{"charges", method, m.Fingerprint()}
	if r, ok := c.lookup(k, m, false); ok {
		return r, nil
	}
	c.calls++
	q, err := o.PartialCharges(ctx, m, method)
	if err != nil {
		return nil, err
	}
	if len(q) != m.Len() {
		return nil, errors.Newf("charge oracle returned %d charges for the %d atoms of %s", len(q), m.Len(), m.Name)
	}
	c.entries[k] = append(c.entries[k], cacheEntry{m, q})
	return q, nil
}

func (c *oracleCache) bondOrders(ctx context.Context, o charges.BondOrderOracle, method string, m *topology.Molecule) ([]float64, error) {
	k := cacheKey{"bond orders", method, m.Fingerprint()}
	if r, ok := c.lookup(k, m, true); ok {
		return r, nil
	}
	c.calls++
	b, err := o.FractionalBondOrders(ctx, m, method)
	if err != nil {
		return nil, err
	}
	if len(b) != m.NBonds() {
		return nil, errors.Newf("bond order oracle returned %d orders for the %d bonds of %s", len(b), m.NBonds(), m.Name)
	}
	c.entries[k] = append(c.entries[k], cacheEntry{m, b})
	return b, nil
}

//remapCharges takes per-atom values of a reference molecule into the atom order
//of a target, where corr[i] is the target atom for reference atom i.
func remapCharges(corr []int, q []float64) []float64 {
	r := make([]float64, len(q))
	for i, t := range corr {
		r[t] = q[i]
	}
	return r
}

//remapBondOrders takes per-bond values of ref into the bond order of target.
func remapBondOrders(ref, target *topology.Molecule, corr []int, b []float64) ([]float64, error) {
	r := make([]float64, target.NBonds())
	for _, rb := range ref.Bonds() {
		tb := target.BondBetween(corr[rb.At1], corr[rb.At2])
		if tb == nil {
			return nil, errors.Newf("bond %d-%d of %s has no counterpart in %s", rb.At1, rb.At2, ref.Name, target.Name)
		}
		r[tb.Index()] = b[rb.Index()]
	}
	return r, nil
}
