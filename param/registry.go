/*
 * registry.go, part of smirnoff.
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
	"slices"

	ff "github.com/rmera/smirnoff/forcefield"
)

//Category names.
const (
	Bonds            = "Bonds"
	Constraints      = "Constraints"
	Angles           = "Angles"
	ProperTorsions   = "ProperTorsions"
	ImproperTorsions = "ImproperTorsions"
	VdW              = "vdW"
	Electrostatics   = "Electrostatics"
	VirtualSites     = "VirtualSites"
)

//Category declares which force-field handler tags an interaction category
//accepts, and which quantities its potentials carry.
type Category struct {
	Name       string
	Tags       []string
	Quantities []string
}

//Categories lists the supported categories in the order they are built.
var Categories = []Category{
	{Bonds, []string{ff.TagBonds}, []string{"k", "length"}},
	{Constraints, []string{ff.TagConstraints}, []string{"distance"}},
	{Angles, []string{ff.TagAngles}, []string{"k", "angle"}},
	{ProperTorsions, []string{ff.TagProperTorsions}, []string{"k", "periodicity", "phase", "idivf"}},
	{ImproperTorsions, []string{ff.TagImproperTorsions}, []string{"k", "periodicity", "phase", "idivf"}},
	{VdW, []string{ff.TagVdW}, []string{"sigma", "epsilon"}},
	{Electrostatics, []string{ff.TagElectrostatics, ff.TagLibraryCharges, ff.TagChargeIncrementModel, ff.TagToolkitAM1BCC}, []string{"charge"}},
	{VirtualSites, []string{ff.TagVirtualSites}, []string{"distance", "inPlaneAngle", "outOfPlaneAngle", "charge", "sigma", "epsilon"}},
}

//CategoryByName returns the category with the given name.
func CategoryByName(name string) (Category, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

//CategoryOfTag returns the category that accepts the handler tag.
func CategoryOfTag(tag string) (Category, bool) {
	for _, c := range Categories {
		if c.Accepts(tag) {
			return c, true
		}
	}
	return Category{}, false
}

//Accepts returns true if the category takes definitions with the given tag.
func (c Category) Accepts(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

//Check returns an *InvalidParameterHandlerError for the first definition the
//category does not accept.
func (c Category) Check(defs []*ff.Handler) error {
	for _, d := range defs {
		if !c.Accepts(d.Tag) {
			return &InvalidParameterHandlerError{Category: c.Name, Tag: d.Tag, Allowed: slices.Clone(c.Tags)}
		}
	}
	return nil
}
