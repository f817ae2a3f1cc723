/*
 * forcefield.go, part of smirnoff.
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

//Package forcefield holds SMIRNOFF force-field definitions as they are written:
//handlers (Bonds, Angles, vdW...) with their attributes and their ordered list
//of SMIRKS-keyed parameters. Nothing here knows about molecules; assigning the
//parameters is the job of the param package.
package forcefield

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/units"
)

//Handler tags.
const (
	TagBonds                = "Bonds"
	TagConstraints          = "Constraints"
	TagAngles               = "Angles"
	TagProperTorsions       = "ProperTorsions"
	TagImproperTorsions     = "ImproperTorsions"
	TagVdW                  = "vdW"
	TagElectrostatics       = "Electrostatics"
	TagLibraryCharges       = "LibraryCharges"
	TagChargeIncrementModel = "ChargeIncrementModel"
	TagToolkitAM1BCC        = "ToolkitAM1BCC"
	TagVirtualSites         = "VirtualSites"
)

//ParameterElements gives the element name used for the parameters of each handler.
var ParameterElements = map[string]string{
	TagBonds:                "Bond",
	TagConstraints:          "Constraint",
	TagAngles:               "Angle",
	TagProperTorsions:       "Proper",
	TagImproperTorsions:     "Improper",
	TagVdW:                  "Atom",
	TagLibraryCharges:       "LibraryCharge",
	TagChargeIncrementModel: "ChargeIncrement",
	TagVirtualSites:         "VirtualSite",
}

//attributes that are always kept as strings.
var stringAttrs = []string{"smirks", "id", "parent_id", "name", "type", "match"}

//ParameterType is one SMIRKS-keyed parameter of a handler.
type ParameterType struct {
	Element string
	SMIRKS  string
	ID      string
	Values  map[string]units.Quantity
	Attrs   map[string]string
}

//NewParameter builds a parameter from its attributes as they appear in an
//offxml file, e.g. {"smirks": "[#6:1]-[#1:2]", "k": "1.5 * kilocalories_per_mole/angstrom**2"}.
func NewParameter(element string, attrs map[string]string) (*ParameterType, error) {
	p := &ParameterType{Element: element, Values: make(map[string]units.Quantity), Attrs: make(map[string]string)}
	for k, v := range attrs {
		switch {
		case k == "smirks":
			p.SMIRKS = v
		case k == "id":
			p.ID = v
		case slices.Contains(stringAttrs, k):
			p.Attrs[k] = v
		default:
			q, err := units.Parse(v)
			if err != nil {
				//non numerical, such as a method name.
				p.Attrs[k] = v
				continue
			}
			p.Values[k] = q
		}
	}
	if p.SMIRKS == "" {
		return nil, errors.Newf("forcefield: %s parameter %q without smirks", element, p.ID)
	}
	return p, nil
}

//MustParameter is like NewParameter but panics on error.
func MustParameter(element string, attrs map[string]string) *ParameterType {
	p, err := NewParameter(element, attrs)
	if err != nil {
		panic(err.Error())
	}
	return p
}

//Get returns the value with the given name.
func (p *ParameterType) Get(name string) (units.Quantity, bool) {
	q, ok := p.Values[name]
	return q, ok
}

//Attr returns the string attribute with the given name, or def.
func (p *ParameterType) Attr(name, def string) string {
	if v, ok := p.Attrs[name]; ok {
		return v
	}
	return def
}

//Label returns the id of the parameter if it has one, and the SMIRKS otherwise.
func (p *ParameterType) Label() string {
	if p.ID != "" {
		return p.ID
	}
	return p.SMIRKS
}

//Indexed returns the values prefix1, prefix2... up to the first missing index.
func (p *ParameterType) Indexed(prefix string) []units.Quantity {
	var r []units.Quantity
	for i := 1; ; i++ {
		q, ok := p.Values[prefix+strconv.Itoa(i)]
		if !ok {
			return r
		}
		r = append(r, q)
	}
}

//NTerms returns the number of indexed terms of a multi-term parameter (such as a
//torsion with k1, k2...), looking at the given prefix both as a plain value and as a
//bond-order dependent one.
func (p *ParameterType) NTerms(prefix string) int {
	n := 0
	for i := 1; ; i++ {
		name := prefix + strconv.Itoa(i)
		if _, ok := p.Values[name]; !ok && !p.IsBondOrderDependent(name) {
			return n
		}
		n++
	}
}

const bondOrderInfix = "_bondorder"

//IsBondOrderDependent returns true if the value name is given as a function of
//the bond order, i.e. as name_bondorder1, name_bondorder2...
func (p *ParameterType) IsBondOrderDependent(name string) bool {
	prefix := name + bondOrderInfix
	for k := range p.Values {
		if strings.HasPrefix(k, prefix) {
			if _, err := strconv.ParseFloat(k[len(prefix):], 64); err == nil {
				return true
			}
		}
	}
	return false
}

//BondOrderAnchors returns the bond orders and values of name_bondorderN, sorted
//by bond order.
func (p *ParameterType) BondOrderAnchors(name string) ([]float64, []units.Quantity) {
	prefix := name + bondOrderInfix
	type anchor struct {
		bo float64
		q  units.Quantity
	}
	var a []anchor
	for k, q := range p.Values {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		bo, err := strconv.ParseFloat(k[len(prefix):], 64)
		if err != nil {
			continue
		}
		a = append(a, anchor{bo, q})
	}
	sort.Slice(a, func(i, j int) bool { return a[i].bo < a[j].bo })
	bos := make([]float64, len(a))
	qs := make([]units.Quantity, len(a))
	for i, v := range a {
		bos[i], qs[i] = v.bo, v.q
	}
	return bos, qs
}

//HasBondOrderValues returns true if any value of the parameter depends on the bond order.
func (p *ParameterType) HasBondOrderValues() bool {
	for k := range p.Values {
		if strings.Contains(k, bondOrderInfix) {
			return true
		}
	}
	return false
}

//Handler is a legacy parameter definition: a tag, its attributes, and its
//parameters in priority order (later parameters win).
type Handler struct {
	Tag        string
	Version    string
	Attrs      map[string]string
	Parameters []*ParameterType
}

//NewHandler returns an empty handler with the given tag.
func NewHandler(tag string, attrs map[string]string) *Handler {
	h := &Handler{Tag: tag, Attrs: make(map[string]string)}
	for k, v := range attrs {
		if k == "version" {
			h.Version = v
			continue
		}
		h.Attrs[k] = v
	}
	return h
}

//Add appends parameters at the lowest-priority-last end, i.e. the new parameters
//take precedence over the existing ones.
func (h *Handler) Add(p ...*ParameterType) {
	h.Parameters = append(h.Parameters, p...)
}

//Parameter returns the parameter with the given id or SMIRKS, or nil.
func (h *Handler) Parameter(key string) *ParameterType {
	for _, p := range h.Parameters {
		if p.ID == key || p.SMIRKS == key {
			return p
		}
	}
	return nil
}

//Attr returns the attribute name, or def if absent.
func (h *Handler) Attr(name, def string) string {
	if v, ok := h.Attrs[name]; ok {
		return v
	}
	return def
}

//Quantity parses the attribute name as a quantity. def is returned if the
//attribute is absent.
func (h *Handler) Quantity(name string, def units.Quantity) (units.Quantity, error) {
	v, ok := h.Attrs[name]
	if !ok {
		return def, nil
	}
	q, err := units.Parse(v)
	if err != nil {
		return units.Quantity{}, errors.Wrapf(err, "%s handler attribute %s", h.Tag, name)
	}
	return q, nil
}

//FractionalBondOrderMethod returns the method used to obtain fractional bond
//orders, or "" if the handler does not set one.
func (h *Handler) FractionalBondOrderMethod() string {
	return h.Attr("fractional_bondorder_method", "")
}

//FractionalBondOrderInterpolation returns the interpolation scheme for bond-order
//dependent parameters. It defaults to "linear".
func (h *Handler) FractionalBondOrderInterpolation() string {
	return h.Attr("fractional_bondorder_interpolation", "linear")
}

//ForceField is an ordered set of handlers, at most one per tag.
type ForceField struct {
	Version     string
	Aromaticity string
	Meta        map[string]string
	handlers    []*Handler
}

//New returns an empty force field.
func New() *ForceField {
	return &ForceField{Version: "0.3", Aromaticity: "OEAroModel_MDL", Meta: make(map[string]string)}
}

//Register adds a handler. It is an error to register two handlers with the same tag.
func (F *ForceField) Register(h *Handler) error {
	if F.Handler(h.Tag) != nil {
		return errors.Newf("forcefield: handler %s already registered", h.Tag)
	}
	F.handlers = append(F.handlers, h)
	return nil
}

//GetOrCreate returns the handler with the given tag, registering an empty one if needed.
func (F *ForceField) GetOrCreate(tag string) *Handler {
	if h := F.Handler(tag); h != nil {
		return h
	}
	h := NewHandler(tag, nil)
	F.handlers = append(F.handlers, h)
	return h
}

//Deregister removes the handler with the given tag, returning false if there was none.
func (F *ForceField) Deregister(tag string) bool {
	for i, h := range F.handlers {
		if h.Tag == tag {
			F.handlers = slices.Delete(F.handlers, i, i+1)
			return true
		}
	}
	return false
}

//Handler returns the handler with the given tag, or nil.
func (F *ForceField) Handler(tag string) *Handler {
	for _, h := range F.handlers {
		if h.Tag == tag {
			return h
		}
	}
	return nil
}

//Handlers returns the handlers in registration order.
func (F *ForceField) Handlers() []*Handler {
	return slices.Clone(F.handlers)
}

//Tags returns the tags of the registered handlers, in registration order.
func (F *ForceField) Tags() []string {
	r := make([]string, len(F.handlers))
	for i, h := range F.handlers {
		r[i] = h.Tag
	}
	return r
}

//Merge adds the handlers of o to the force field. Parameters of handlers present
//in both are appended, so those of o take precedence. Handler attributes
//present in both must agree.
func (F *ForceField) Merge(o *ForceField) error {
	for _, oh := range o.handlers {
		h := F.Handler(oh.Tag)
		if h == nil {
			c := NewHandler(oh.Tag, oh.Attrs)
			c.Version = oh.Version
			c.Add(oh.Parameters...)
			F.handlers = append(F.handlers, c)
			continue
		}
		for k, v := range oh.Attrs {
			if old, ok := h.Attrs[k]; ok && !sameAttr(old, v) {
				return errors.Newf("forcefield: incompatible %s handlers: %s is %q and %q", oh.Tag, k, old, v)
			}
			h.Attrs[k] = v
		}
		h.Add(oh.Parameters...)
	}
	for k, v := range o.Meta {
		F.Meta[k] = v
	}
	return nil
}

//sameAttr compares two attribute values, numerically if possible.
func sameAttr(a, b string) bool {
	if a == b {
		return true
	}
	qa, err1 := units.Parse(a)
	qb, err2 := units.Parse(b)
	if err1 != nil || err2 != nil || !qa.Unit.Compatible(qb.Unit) {
		return false
	}
	return math.Abs(qa.In(qb.Unit)-qb.Magnitude) <= 1e-9*math.Max(1, math.Abs(qb.Magnitude))
}
