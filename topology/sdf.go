/*
 * sdf.go, part of smirnoff.
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
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/internal/compressed"
	v3 "github.com/rmera/smirnoff/v3"
)

//Data items read from SD files, as written by RDKit for atom and bond properties.
const (
	PartialChargeTag  = "atom.dprop.PartialCharge"
	FractionalBondTag = "bond.dprop.FractionalBondOrder"
)

//SDFFileRead reads all the molecules in an MDL SD file (V2000). Files ending in
//.gz or .zst are decompressed on the fly.
func SDFFileRead(name string) ([]*Molecule, error) {
	f, err := compressed.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mols, err := ReadSDF(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	return mols, nil
}

//ReadSDF reads all the molecules in an SD stream. Coordinates are stored as the
//first conformer of each molecule. Partial charges and fractional bond orders are
//read from the PartialChargeTag and FractionalBondTag data items, if present.
func ReadSDF(r io.Reader) ([]*Molecule, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var mols []*Molecule
	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return strings.TrimRight(sc.Text(), "\r"), true
	}
	for {
		name, ok := next()
		if !ok {
			break
		}
		m, err := readMolBlock(name, next)
		if err != nil {
			return nil, errors.Wrapf(err, "molecule %d, line %d", len(mols)+1, line)
		}
		if err := readData(m, next); err != nil {
			return nil, errors.Wrapf(err, "molecule %d, line %d", len(mols)+1, line)
		}
		mols = append(mols, m)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading SD data")
	}
	if len(mols) == 0 {
		return nil, errors.New("topology: no molecules in SD data")
	}
	return mols, nil
}

//field returns the fixed-width column [i,j) of s, trimmed. Short lines yield "".
func field(s string, i, j int) string {
	if i >= len(s) {
		return ""
	}
	if j > len(s) {
		j = len(s)
	}
	return strings.TrimSpace(s[i:j])
}

//MDL charge codes in the atom block.
var chargeCodes = map[int]int{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

func readMolBlock(name string, next func() (string, bool)) (*Molecule, error) {
	m := NewMolecule(strings.TrimSpace(name))
	for i := 0; i < 2; i++ {
		if _, ok := next(); !ok {
			return nil, errors.New("truncated header")
		}
	}
	counts, ok := next()
	if !ok {
		return nil, errors.New("missing counts line")
	}
	if strings.Contains(counts, "V3000") {
		return nil, errors.New("V3000 molfiles are not supported")
	}
	natoms, err := strconv.Atoi(field(counts, 0, 3))
	if err != nil {
		return nil, errors.Wrap(err, "bad atom count")
	}
	nbonds, err := strconv.Atoi(field(counts, 3, 6))
	if err != nil {
		return nil, errors.Wrap(err, "bad bond count")
	}
	coords := make([]float64, 0, 3*natoms)
	for i := 0; i < natoms; i++ {
		l, ok := next()
		if !ok {
			return nil, errors.New("truncated atom block")
		}
		for _, c := range [][2]int{{0, 10}, {10, 20}, {20, 30}} {
			v, err := strconv.ParseFloat(field(l, c[0], c[1]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad coordinate for atom %d", i+1)
			}
			coords = append(coords, v)
		}
		charge := 0
		if code, err := strconv.Atoi(field(l, 36, 39)); err == nil {
			charge = chargeCodes[code]
		}
		if _, err := m.AddAtom(field(l, 31, 34), charge); err != nil {
			return nil, err
		}
	}
	for i := 0; i < nbonds; i++ {
		l, ok := next()
		if !ok {
			return nil, errors.New("truncated bond block")
		}
		a1, e1 := strconv.Atoi(field(l, 0, 3))
		a2, e2 := strconv.Atoi(field(l, 3, 6))
		order, e3 := strconv.Atoi(field(l, 6, 9))
		if e1 != nil || e2 != nil || e3 != nil {
			return nil, errors.Newf("bad bond line %q", l)
		}
		if _, err := m.AddBond(a1-1, a2-1, order); err != nil {
			return nil, err
		}
	}
	chgSeen := false
	for {
		l, ok := next()
		if !ok {
			return nil, errors.New("missing M  END")
		}
		if strings.HasPrefix(l, "M  END") {
			break
		}
		if strings.HasPrefix(l, "M  CHG") {
			f := strings.Fields(l)[2:]
			if !chgSeen {
				//M  CHG lines supersede the charges of the atom block.
				for _, a := range m.atoms {
					a.FormalCharge = 0
				}
				chgSeen = true
			}
			for k := 1; k+1 < len(f); k += 2 {
				idx, e1 := strconv.Atoi(f[k])
				q, e2 := strconv.Atoi(f[k+1])
				if e1 != nil || e2 != nil || idx < 1 || idx > m.Len() {
					return nil, errors.Newf("bad charge line %q", l)
				}
				m.atoms[idx-1].FormalCharge = q
			}
		}
	}
	if natoms > 0 {
		c, err := v3.NewMatrix(coords)
		if err != nil {
			return nil, err
		}
		m.Conformers = append(m.Conformers, c)
	}
	return m, nil
}

//readData reads the data items up to $$$$ (or the end of the stream).
func readData(m *Molecule, next func() (string, bool)) error {
	tag := ""
	var value []string
	flush := func() error {
		defer func() { tag, value = "", nil }()
		switch tag {
		case PartialChargeTag:
			q, err := floats(value)
			if err != nil {
				return errors.Wrap(err, PartialChargeTag)
			}
			return m.SetPartialCharges(q)
		case FractionalBondTag:
			bo, err := floats(value)
			if err != nil {
				return errors.Wrap(err, FractionalBondTag)
			}
			return m.SetFractionalBondOrders(bo)
		}
		return nil
	}
	for {
		l, ok := next()
		if !ok || strings.HasPrefix(l, "$$$$") {
			return flush()
		}
		if strings.HasPrefix(l, ">") {
			if err := flush(); err != nil {
				return err
			}
			if i, j := strings.Index(l, "<"), strings.LastIndex(l, ">"); i >= 0 && j > i {
				tag = l[i+1 : j]
			}
			continue
		}
		if tag != "" && strings.TrimSpace(l) != "" {
			value = append(value, l)
		}
	}
}

func floats(lines []string) ([]float64, error) {
	var r []float64
	for _, l := range lines {
		for _, f := range strings.Fields(l) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, err
			}
			r = append(r, v)
		}
	}
	return r, nil
}
