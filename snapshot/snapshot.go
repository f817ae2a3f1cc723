/*
 * snapshot.go, part of smirnoff.
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

package snapshot

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/internal/compressed"
	"github.com/rmera/smirnoff/param"
	"github.com/rmera/smirnoff/units"
)

//An easily JSON-serializable error type.
type Error struct {
	deco        []string
	IsError     bool //If this is false (no error) all the other fields will be at their zero-values.
	InBuild     bool //Was it in reading the collection?
	InTransport bool //Was it in writing or reading the stream?
	Function    string
	Message     string
}

//Error implements the error interface
func (J *Error) Error() string {
	return J.Message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (J *Error) Decorate(dec string) []string {
	if dec == "" {
		return J.deco
	}
	J.deco = append(J.deco, dec)
	return J.deco
}

//Marshal serializes the error. Panics on failure.
func (J *Error) Marshal() []byte {
	ret, err2 := json.Marshal(J)
	if err2 != nil {
		panic(strings.Join([]string{J.Error(), err2.Error()}, " - "))
	}
	return ret
}

//NewError takes an error and some additional info to create a json-marshal-able error.
func NewError(where, function string, err error) *Error {
	jerr := new(Error)
	jerr.IsError = true
	if where == "build" {
		jerr.InBuild = true
	} else {
		jerr.InTransport = true
	}
	jerr.Function = function
	jerr.Message = err.Error()
	return jerr
}

//Value is a serialized quantity. Unit is empty for dimensionless values.
type Value struct {
	Magnitude float64
	Unit      string `json:",omitempty"`
}

func value(q units.Quantity) Value {
	if q.Dimensionless() {
		return Value{Magnitude: q.Magnitude}
	}
	return Value{Magnitude: q.Magnitude, Unit: q.Unit.Name()}
}

//Quantity returns the value as a quantity.
func (v Value) Quantity() (units.Quantity, error) {
	if v.Unit == "" {
		return units.Scalar(v.Magnitude), nil
	}
	u, err := units.ParseUnit(v.Unit)
	if err != nil {
		return units.Quantity{}, err
	}
	return units.Q(v.Magnitude, u), nil
}

//Slot is one slot of a handler. Potential is the index of its potential in
//the Potentials of the handler.
type Slot struct {
	Atoms     []int
	Mult      int      `json:",omitempty"`
	BondOrder *float64 `json:",omitempty"`
	Potential int
}

//Potential is one potential of a handler with its key.
type Potential struct {
	ID         string
	Mult       int      `json:",omitempty"`
	BondOrder  *float64 `json:",omitempty"`
	Handler    string
	Parameters map[string]Value
}

//Handler is a serialized interaction category.
type Handler struct {
	Name       string
	Slots      []Slot
	Potentials []Potential
}

//Potential returns the potential of the slot with the given atoms and multiplicity.
func (h *Handler) Potential(mult int, atoms ...int) (*Potential, bool) {
	for _, s := range h.Slots {
		if s.Mult == mult && equal(s.Atoms, atoms) {
			return &h.Potentials[s.Potential], true
		}
	}
	return nil, false
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

//Site is a serialized virtual site.
type Site struct {
	Type        string
	Name        string
	Match       string
	Orientation []int
	Particle    int
}

//Information on the whole collection, sent before the handlers.
type Info struct {
	Atoms       int
	Particles   int
	Molecules   int
	OracleCalls int
	Categories  []string
	Sources     []string    `json:",omitempty"` //Charge source of each molecule.
	Charges     []float64   `json:",omitempty"` //Of every particle, in e.
	Positions   [][]float64 `json:",omitempty"` //Of every particle, in Å.
	Sites       []Site      `json:",omitempty"`
}

//Snapshot is a serializable copy of a parameter collection.
type Snapshot struct {
	Info     Info
	Handlers []*Handler
}

//Handler returns the handler with the given category name, or nil.
func (S *Snapshot) Handler(name string) *Handler {
	for _, h := range S.Handlers {
		if h.Name == name {
			return h
		}
	}
	return nil
}

//FromCollection takes a snapshot of C. Charges and positions are included when
//the collection can provide them.
func FromCollection(C *param.Collection) (*Snapshot, *Error) {
	const funcname = "FromCollection"
	top := C.Topology()
	S := &Snapshot{Info: Info{
		Atoms:       top.NAtoms(),
		Particles:   C.NParticles(),
		Molecules:   top.NMolecules(),
		OracleCalls: C.OracleCalls(),
		Categories:  C.Names(),
	}}
	if es := C.Electrostatics(); es != nil {
		for i := 0; i < top.NMolecules(); i++ {
			S.Info.Sources = append(S.Info.Sources, es.Source(i))
		}
		q, err := C.Charges()
		if err != nil {
			return nil, NewError("build", funcname, err)
		}
		for _, v := range q {
			S.Info.Charges = append(S.Info.Charges, v.In(units.ElementaryCharge))
		}
	}
	if pos, err := C.Positions(); err == nil {
		for i := 0; i < pos.NVecs(); i++ {
			v := pos.Vec(i)
			S.Info.Positions = append(S.Info.Positions, []float64{v.X, v.Y, v.Z})
		}
	}
	if vs := C.VirtualSites(); vs != nil {
		for _, s := range vs.Sites() {
			S.Info.Sites = append(S.Info.Sites, Site{Type: s.Key.Type, Name: s.Key.Name, Match: s.Key.Match, Orientation: s.Key.Orientation.Slice(), Particle: s.Particle})
		}
	}
	for _, name := range S.Info.Categories {
		h, _ := C.Handler(name)
		S.Handlers = append(S.Handlers, handler(h))
	}
	return S, nil
}

func bondOrder(has bool, bo float64) *float64 {
	if !has {
		return nil
	}
	return &bo
}

func handler(h param.Handler) *Handler {
	ret := &Handler{Name: h.Name()}
	index := make(map[param.PotentialKey]int)
	for pk, p := range h.Potentials().All() {
		index[pk] = len(ret.Potentials)
		jp := Potential{ID: pk.ID, Mult: pk.Mult, BondOrder: bondOrder(pk.HasBondOrder, pk.BondOrder), Handler: pk.AssociatedHandler, Parameters: make(map[string]Value)}
		for _, n := range p.Names() {
			q, _ := p.Get(n)
			jp.Parameters[n] = value(q)
		}
		ret.Potentials = append(ret.Potentials, jp)
	}
	for tk, pk := range h.Slots().All() {
		ret.Slots = append(ret.Slots, Slot{Atoms: tk.AtomIndices.Slice(), Mult: tk.Mult, BondOrder: bondOrder(tk.HasBondOrder, tk.BondOrder), Potential: index[pk]})
	}
	return ret
}

//Send marshals the snapshot and writes it to out, one line for the
//information and one per handler.
func (S *Snapshot) Send(out io.Writer) *Error {
	enc := json.NewEncoder(out)
	if err := enc.Encode(S.Info); err != nil {
		return NewError("transport", "Snapshot.Send", err)
	}
	for _, h := range S.Handlers {
		if err := enc.Encode(h); err != nil {
			return NewError("transport", "Snapshot.Send("+h.Name+")", err)
		}
	}
	return nil
}

//Read decodes a snapshot written by Send.
func Read(stream *bufio.Reader) (*Snapshot, *Error) {
	const funcname = "Read"
	line, err := stream.ReadBytes('\n')
	if err != nil {
		return nil, NewError("transport", funcname, err)
	}
	S := new(Snapshot)
	if err = json.Unmarshal(line, &S.Info); err != nil {
		return nil, NewError("transport", funcname, err)
	}
	for _, name := range S.Info.Categories {
		line, err := stream.ReadBytes('\n')
		if err != nil {
			return nil, NewError("transport", funcname, errors.Wrapf(err, "reading handler %s", name))
		}
		h := new(Handler)
		if err = json.Unmarshal(line, h); err != nil {
			return nil, NewError("transport", funcname, err)
		}
		if h.Name != name {
			return nil, NewError("transport", funcname, errors.Newf("expected handler %s, got %s", name, h.Name))
		}
		S.Handlers = append(S.Handlers, h)
	}
	return S, nil
}

//WriteFile sends the snapshot to the file name, compressed if the name ends
//in .gz or .zst.
func (S *Snapshot) WriteFile(name string) error {
	w, err := compressed.Create(name)
	if err != nil {
		return err
	}
	if jerr := S.Send(w); jerr != nil {
		w.Close()
		return jerr
	}
	return w.Close()
}

//ReadFile reads a snapshot from the file name, written by WriteFile.
func ReadFile(name string) (*Snapshot, error) {
	r, err := compressed.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	S, jerr := Read(bufio.NewReader(r))
	if jerr != nil {
		return nil, jerr
	}
	return S, nil
}
