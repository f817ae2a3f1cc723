/*
 * elements.go, part of smirnoff.
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

import "strings"

type element struct {
	z    int
	mass float64
}

//A map for assigning atomic number and mass to elements.
//Note that just common "bio-elements" and halogens are present
var elements = map[string]element{
	"H":  {1, 1.008},
	"He": {2, 4.0026},
	"Li": {3, 6.94},
	"Be": {4, 9.012},
	"B":  {5, 10.81},
	"C":  {6, 12.011},
	"N":  {7, 14.007},
	"O":  {8, 15.999},
	"F":  {9, 18.998},
	"Ne": {10, 20.180},
	"Na": {11, 22.99},
	"Mg": {12, 24.305},
	"Al": {13, 26.982},
	"Si": {14, 28.085},
	"P":  {15, 30.974},
	"S":  {16, 32.06},
	"Cl": {17, 35.45},
	"Ar": {18, 39.948},
	"K":  {19, 39.098},
	"Ca": {20, 40.078},
	"Cr": {24, 51.996},
	"Mn": {25, 54.938},
	"Fe": {26, 55.845},
	"Co": {27, 58.933},
	"Ni": {28, 58.693},
	"Cu": {29, 63.546},
	"Zn": {30, 65.38},
	"As": {33, 74.922},
	"Se": {34, 78.971},
	"Br": {35, 79.904},
	"Kr": {36, 83.798},
	"Rb": {37, 85.468},
	"Sr": {38, 87.62},
	"I":  {53, 126.90},
	"Xe": {54, 131.29},
	"Cs": {55, 132.91},
	"Ba": {56, 137.33},
}

var symbols = func() map[int]string {
	m := make(map[int]string, len(elements))
	for s, e := range elements {
		m[e.z] = s
	}
	return m
}()

//AtomicNumber returns the atomic number for the element symbol, or 0 if the
//element is unknown. The symbol is case-insensitive.
func AtomicNumber(symbol string) int {
	return elements[normalSymbol(symbol)].z
}

//Symbol returns the element symbol for the atomic number z, or "" if unknown.
func Symbol(z int) string {
	return symbols[z]
}

//Mass returns the standard atomic weight of the element, or 0 if unknown.
func Mass(symbol string) float64 {
	return elements[normalSymbol(symbol)].mass
}

func normalSymbol(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
