/*
 * units.go, part of smirnoff.
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

//Package units implements the small set of dimensioned quantities that appear in
//SMIRNOFF force fields: energies per mole, lengths, angles and charges.
//Every unit is stored as a factor relative to kJ, nm, radian, elementary charge
//and mole, plus the exponent of each of those dimensions.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

//Positions in a Dims array.
const (
	energy = iota
	length
	angle
	charge
	amount
)

//Dims holds the exponents of energy, length, angle, charge and amount of substance.
type Dims [5]int8

//Unit is a product of powers of the base units understood by the package.
type Unit struct {
	name   string
	factor float64
	dims   Dims
}

//Name returns the name the unit was built from.
func (u Unit) Name() string {
	if u.name == "" && u.dims == (Dims{}) {
		return "dimensionless"
	}
	return u.name
}

func (u Unit) String() string {
	return u.Name()
}

//Dims returns the dimension exponents of the unit.
func (u Unit) Dims() Dims {
	return u.dims
}

//Compatible returns true if both units measure the same kind of quantity.
func (u Unit) Compatible(v Unit) bool {
	return u.dims == v.dims
}

//Mul returns the product of the two units.
func (u Unit) Mul(v Unit) Unit {
	r := Unit{name: joinName(u.Name(), "*", v.Name()), factor: u.factor * v.factor}
	for i := range r.dims {
		r.dims[i] = u.dims[i] + v.dims[i]
	}
	return r
}

//Div returns the quotient of the two units.
func (u Unit) Div(v Unit) Unit {
	r := Unit{name: joinName(u.Name(), "/", v.Name()), factor: u.factor / v.factor}
	for i := range r.dims {
		r.dims[i] = u.dims[i] - v.dims[i]
	}
	return r
}

//Pow returns the unit raised to the integer power p.
func (u Unit) Pow(p int) Unit {
	r := Unit{name: fmt.Sprintf("%s**%d", u.Name(), p), factor: math.Pow(u.factor, float64(p))}
	for i := range r.dims {
		r.dims[i] = u.dims[i] * int8(p)
	}
	return r
}

//Rename returns a copy of the unit with a different display name.
func (u Unit) Rename(name string) Unit {
	u.name = name
	return u
}

func joinName(a, op, b string) string {
	if a == "dimensionless" {
		if op == "*" {
			return b
		}
		return "1/" + b
	}
	if b == "dimensionless" {
		return a
	}
	return a + op + b
}

var (
	Dimensionless       = Unit{name: "dimensionless", factor: 1}
	Kilojoule           = Unit{name: "kilojoule", factor: 1, dims: Dims{energy: 1}}
	Kilocalorie         = Unit{name: "kilocalorie", factor: 4.184, dims: Dims{energy: 1}}
	Mole                = Unit{name: "mole", factor: 1, dims: Dims{amount: 1}}
	Nanometer           = Unit{name: "nanometer", factor: 1, dims: Dims{length: 1}}
	Angstrom            = Unit{name: "angstrom", factor: 0.1, dims: Dims{length: 1}}
	Radian              = Unit{name: "radian", factor: 1, dims: Dims{angle: 1}}
	Degree              = Unit{name: "degree", factor: math.Pi / 180, dims: Dims{angle: 1}}
	ElementaryCharge    = Unit{name: "elementary_charge", factor: 1, dims: Dims{charge: 1}}
	KilojoulePerMole    = Kilojoule.Div(Mole).Rename("kilojoule_per_mole")
	KilocaloriePerMole  = Kilocalorie.Div(Mole).Rename("kilocalorie_per_mole")
	KcalPerMolAngstrom2 = KilocaloriePerMole.Div(Angstrom.Pow(2)).Rename("kilocalorie_per_mole/angstrom**2")
	KcalPerMolRadian2   = KilocaloriePerMole.Div(Radian.Pow(2)).Rename("kilocalorie_per_mole/radian**2")
)

//names understood by the parser. Plurals are accepted.
var symbols = map[string]Unit{
	"dimensionless":         Dimensionless,
	"kilojoule":             Kilojoule,
	"kilojoules":            Kilojoule,
	"kJ":                    Kilojoule,
	"kilocalorie":           Kilocalorie,
	"kilocalories":          Kilocalorie,
	"kcal":                  Kilocalorie,
	"mole":                  Mole,
	"moles":                 Mole,
	"mol":                   Mole,
	"nanometer":             Nanometer,
	"nanometers":            Nanometer,
	"nm":                    Nanometer,
	"angstrom":              Angstrom,
	"angstroms":             Angstrom,
	"A":                     Angstrom,
	"radian":                Radian,
	"radians":               Radian,
	"rad":                   Radian,
	"degree":                Degree,
	"degrees":               Degree,
	"deg":                   Degree,
	"elementary_charge":     ElementaryCharge,
	"elementary_charges":    ElementaryCharge,
	"e":                     ElementaryCharge,
	"kilojoule_per_mole":    KilojoulePerMole,
	"kilojoules_per_mole":   KilojoulePerMole,
	"kilocalorie_per_mole":  KilocaloriePerMole,
	"kilocalories_per_mole": KilocaloriePerMole,
}

//Quantity is a magnitude with a unit.
type Quantity struct {
	Magnitude float64
	Unit      Unit
}

//Q builds a quantity.
func Q(mag float64, u Unit) Quantity {
	return Quantity{Magnitude: mag, Unit: u}
}

//Scalar builds a dimensionless quantity.
func Scalar(mag float64) Quantity {
	return Quantity{Magnitude: mag, Unit: Dimensionless}
}

//To converts the quantity to the unit u. It returns an error if the units
//are not compatible.
func (q Quantity) To(u Unit) (Quantity, error) {
	if !q.Unit.Compatible(u) {
		return Quantity{}, errors.Newf("units: cannot convert %s to %s", q.Unit.Name(), u.Name())
	}
	if q.Unit.factor == u.factor {
		//no arithmetic at all, so values round-trip bit for bit.
		return Quantity{Magnitude: q.Magnitude, Unit: u}, nil
	}
	return Quantity{Magnitude: q.Magnitude * q.Unit.factor / u.factor, Unit: u}, nil
}

//In returns the magnitude of the quantity in the unit u. It panics if the
//units are not compatible.
func (q Quantity) In(u Unit) float64 {
	r, err := q.To(u)
	if err != nil {
		panic(err.Error())
	}
	return r.Magnitude
}

//Dimensionless returns true if the quantity carries no unit.
func (q Quantity) Dimensionless() bool {
	return q.Unit.dims == Dims{}
}

//Scale returns the quantity multiplied by f.
func (q Quantity) Scale(f float64) Quantity {
	q.Magnitude *= f
	return q
}

//Add returns q+r in the units of q.
func (q Quantity) Add(r Quantity) (Quantity, error) {
	rr, err := r.To(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	q.Magnitude += rr.Magnitude
	return q, nil
}

func (q Quantity) String() string {
	if q.Dimensionless() {
		return strconv.FormatFloat(q.Magnitude, 'g', -1, 64)
	}
	return strconv.FormatFloat(q.Magnitude, 'g', -1, 64) + " * " + q.Unit.Name()
}

//Parse parses a quantity such as "1.5 * kilocalories_per_mole/angstrom**2",
//"109.5 * degree" or "2". A bare number is dimensionless.
func Parse(s string) (Quantity, error) {
	p := &parser{toks: tokenize(s), src: s}
	if len(p.toks) == 0 {
		return Quantity{}, errors.Newf("units: empty quantity")
	}
	mag, u, err := p.expr()
	if err != nil {
		return Quantity{}, err
	}
	if p.pos != len(p.toks) {
		return Quantity{}, errors.Newf("units: unexpected %q in %q", p.toks[p.pos], s)
	}
	if u.dims != (Dims{}) {
		u.name = unitText(s)
	}
	return Quantity{Magnitude: mag, Unit: u}, nil
}

//MustParse is like Parse but panics on error. Meant for tests and constants.
func MustParse(s string) Quantity {
	q, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return q
}

//ParseUnit parses a unit expression with no magnitude, e.g. "kilocalories_per_mole/angstrom**2".
func ParseUnit(s string) (Unit, error) {
	q, err := Parse(s)
	if err != nil {
		return Unit{}, err
	}
	if q.Magnitude != 1 {
		return Unit{}, errors.Newf("units: %q is a quantity, not a unit", s)
	}
	return q.Unit, nil
}

//unitText strips a leading magnitude from a quantity string, leaving the unit part.
func unitText(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "*"); i > 0 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64); err == nil && !strings.HasPrefix(s[i:], "**") {
			return strings.TrimSpace(s[i+1:])
		}
	}
	return strings.ReplaceAll(s, " ", "")
}
