/*
 * qm.go, part of smirnoff.
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

package qm

import (
	"fmt"
	"io"

	"github.com/rmera/smirnoff/topology"
)

//Program names
const (
	XTB = "XTB"
)

//Error messages
const (
	ErrNoCoordinates = "Molecule has no conformer"
	ErrCantInput     = "Can't build input file"
	ErrNotRunning    = "Couldn't run calculation"
	ErrNoCharges     = "Couldn't obtain charges"
	ErrNoBondOrders  = "Couldn't obtain bond orders"
)

//Error represents a failure in a QM calculation.
type Error struct {
	message    string
	code       string //the name of the program
	inputname  string
	additional string
	deco       []string
	critical   bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	s := fmt.Sprintf("%s (%s/%s)", err.message, err.code, err.inputname)
	if err.additional != "" {
		s += ": " + err.additional
	}
	return s
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Code returns the program that caused the error.
func (err Error) Code() string { return err.code }

//Critical returns whether the error is critical or it can be ignored.
func (err Error) Critical() bool { return err.critical }

//WriteXYZ writes the first conformer of a molecule in XYZ format.
func WriteXYZ(w io.Writer, m *topology.Molecule) error {
	if len(m.Conformers) == 0 {
		return Error{ErrNoCoordinates, "", m.Name, "", []string{"WriteXYZ"}, true}
	}
	c := m.Conformers[0]
	if _, err := fmt.Fprintf(w, "%d\n%s\n", m.Len(), m.Name); err != nil {
		return err
	}
	for i, a := range m.Atoms() {
		v := c.Vec(i)
		if _, err := fmt.Fprintf(w, "%-2s %12.6f %12.6f %12.6f\n", a.Symbol, v.X, v.Y, v.Z); err != nil {
			return err
		}
	}
	return nil
}
