/*
 * errors.go, part of smirnoff.
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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

//Sentinels for errors.Is. Every error type of the package wraps one of them.
var (
	ErrInvalidParameterHandler  = errors.New("invalid parameter handler")
	ErrUnassignedValence        = errors.New("unassigned valence parameter")
	ErrUnassignedProperTorsion  = errors.New("unassigned proper torsion parameter")
	ErrUnsupportedInterpolation = errors.New("unsupported fractional bond order interpolation")
	ErrMissingPartialCharges    = errors.New("missing partial charges")
	ErrUnassignedCharge         = errors.New("unassigned charge")
	ErrUnsupportedHandler       = errors.New("unsupported handler")
	ErrInvalidVirtualSite       = errors.New("invalid virtual site parameter")
)

//Error is the interface implemented by the errors of the package. Decorate adds
//the name of a calling function to the error, and returns the resulting trace.
type Error interface {
	Error() string
	Decorate(string) []string
}

type deco []string

func (d *deco) Decorate(dec string) []string {
	if dec != "" {
		*d = append(*d, dec)
	}
	return *d
}

//InvalidParameterHandlerError is returned when a category receives a definition
//with a tag it does not accept.
type InvalidParameterHandlerError struct {
	Category string
	Tag      string
	Allowed  []string
	deco
}

func (err *InvalidParameterHandlerError) Error() string {
	return fmt.Sprintf("%s handler does not accept %s definitions (allowed: %s)", err.Category, err.Tag, strings.Join(err.Allowed, ", "))
}

func (err *InvalidParameterHandlerError) Unwrap() error { return ErrInvalidParameterHandler }

//UnsupportedHandlerError is returned for force-field handlers no category can take.
type UnsupportedHandlerError struct {
	Tag string
	deco
}

func (err *UnsupportedHandlerError) Error() string {
	return fmt.Sprintf("no handler supports %s definitions", err.Tag)
}

func (err *UnsupportedHandlerError) Unwrap() error { return ErrUnsupportedHandler }

//unassigned holds the atoms of the features no parameter matched.
type unassigned struct {
	Category string
	Missing  []Indices
	Symbols  [][]string
	deco
}

func (u *unassigned) message(what string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d %s(s) could not be assigned parameters:", u.Category, len(u.Missing), what)
	for i, m := range u.Missing {
		fmt.Fprintf(&b, " %s [%s]", m, strings.Join(u.Symbols[i], " "))
		if i >= 9 && len(u.Missing) > 10 {
			fmt.Fprintf(&b, " ...")
			break
		}
	}
	return b.String()
}

//UnassignedValenceParameterError is returned when some bond, angle or atom is
//not matched by any parameter.
type UnassignedValenceParameterError struct {
	unassigned
}

func (err *UnassignedValenceParameterError) Error() string {
	what := map[string]string{"Bonds": "bond", "Angles": "angle", "vdW": "atom"}[err.Category]
	if what == "" {
		what = "term"
	}
	return err.message(what)
}

func (err *UnassignedValenceParameterError) Unwrap() error { return ErrUnassignedValence }

//UnassignedProperTorsionParameterError is returned when some proper torsion is not
//matched by any parameter.
type UnassignedProperTorsionParameterError struct {
	unassigned
}

func (err *UnassignedProperTorsionParameterError) Error() string {
	return err.message("proper torsion")
}

func (err *UnassignedProperTorsionParameterError) Unwrap() error { return ErrUnassignedProperTorsion }

//InterpolationMethodError is returned for fractional bond order interpolation
//schemes other than linear.
type InterpolationMethodError struct {
	Category string
	Method   string
	deco
}

func (err *InterpolationMethodError) Error() string {
	return fmt.Sprintf("%s: fractional bond order interpolation %q is not supported, only \"linear\" is", err.Category, err.Method)
}

func (err *InterpolationMethodError) Unwrap() error { return ErrUnsupportedInterpolation }

//MissingPartialChargesError is returned when a molecule given to take charges
//from has no partial charges.
type MissingPartialChargesError struct {
	Molecule string
	deco
}

func (err *MissingPartialChargesError) Error() string {
	return fmt.Sprintf("molecule %s was given as a charge source but has no partial charges", err.Molecule)
}

func (err *MissingPartialChargesError) Unwrap() error { return ErrMissingPartialCharges }

//UnassignedChargeError is returned when no charge source covers a molecule.
type UnassignedChargeError struct {
	Molecule string
	Atoms    []int
	deco
}

func (err *UnassignedChargeError) Error() string {
	return fmt.Sprintf("no charge source covers molecule %s (atoms without charges: %v)", err.Molecule, err.Atoms)
}

func (err *UnassignedChargeError) Unwrap() error { return ErrUnassignedCharge }

//InvalidVirtualSiteError is returned for virtual site parameters that cannot be
//placed, such as those with an unknown type or the wrong number of increments.
type InvalidVirtualSiteError struct {
	Parameter string
	Reason    string
	deco
}

func (err *InvalidVirtualSiteError) Error() string {
	return fmt.Sprintf("virtual site %s: %s", err.Parameter, err.Reason)
}

func (err *InvalidVirtualSiteError) Unwrap() error { return ErrInvalidVirtualSite }

func badSite(p string, format string, args ...interface{}) error {
	return &InvalidVirtualSiteError{Parameter: p, Reason: fmt.Sprintf(format, args...)}
}
