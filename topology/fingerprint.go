/*
 * fingerprint.go, part of smirnoff.
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

package topology

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

//Fingerprint returns a hash of the molecular graph that does not depend on the
//order of the atoms (Weisfeiler-Lehman refinement over element, formal charge,
//aromaticity and bond orders). Identical molecules always have the same fingerprint;
//different molecules almost always have different ones, so a match must still be
//confirmed with a graph isomorphism.
func (M *Molecule) Fingerprint() uint64 {
	n := len(M.atoms)
	labels := make([]uint64, n)
	buf := make([]byte, 0, 64)
	for i, a := range M.atoms {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(a.AtomicNumber))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(a.FormalCharge)))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(M.adj[i])))
		if a.Aromatic {
			buf = append(buf, 1)
		}
		labels[i] = xxhash.Sum64(buf)
	}
	next := make([]uint64, n)
	for range 3 {
		for i := range M.atoms {
			nb := make([]uint64, 0, len(M.adj[i]))
			for _, j := range M.adj[i] {
				nb = append(nb, labels[j]*31+bondCode(M.BondBetween(i, j)))
			}
			slices.Sort(nb)
			d := xxhash.New()
			d.Write(binary.LittleEndian.AppendUint64(nil, labels[i]))
			for _, v := range nb {
				d.Write(binary.LittleEndian.AppendUint64(nil, v))
			}
			next[i] = d.Sum64()
		}
		labels, next = next, labels
	}
	final := slices.Clone(labels)
	slices.Sort(final)
	d := xxhash.New()
	d.Write(binary.LittleEndian.AppendUint64(nil, uint64(n)))
	d.Write(binary.LittleEndian.AppendUint64(nil, uint64(len(M.bonds))))
	for _, v := range final {
		d.Write(binary.LittleEndian.AppendUint64(nil, v))
	}
	return d.Sum64()
}

func bondCode(b *Bond) uint64 {
	if b.Aromatic {
		return Aromatic
	}
	return uint64(b.Order)
}
