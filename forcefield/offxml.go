/*
 * offxml.go, part of smirnoff.
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

package forcefield

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/internal/compressed"
)

const rootElement = "SMIRNOFF"

//FileRead reads one or more offxml files, in order, merging them into a single
//force field. Parameters in later files take precedence. Files ending in .gz or
//.zst are decompressed on the fly.
func FileRead(names ...string) (*ForceField, error) {
	if len(names) == 0 {
		return nil, errors.New("forcefield: no files given")
	}
	F := New()
	for _, name := range names {
		f, err := compressed.Open(name)
		if err != nil {
			return nil, errors.Wrapf(err, "forcefield: opening %s", name)
		}
		o, err := Read(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "forcefield: reading %s", name)
		}
		if err := F.Merge(o); err != nil {
			return nil, errors.Wrapf(err, "forcefield: merging %s", name)
		}
		F.Version = o.Version
		F.Aromaticity = o.Aromaticity
	}
	return F, nil
}

//ReadString is a convenience wrapper around Read.
func ReadString(s string) (*ForceField, error) {
	return Read(strings.NewReader(s))
}

//Read parses an offxml document. Each child of the root element with children or
//attributes is a handler, and each of its children is a parameter. Children
//of the root with only text, such as <Author>, go to the Meta map.
func Read(r io.Reader) (*ForceField, error) {
	F := New()
	dec := xml.NewDecoder(r)
	var (
		depth   int
		handler *Handler
		meta    string
		text    strings.Builder
		sawRoot bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "forcefield: malformed offxml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			attrs := attrMap(t.Attr)
			switch depth {
			case 1:
				if t.Name.Local != rootElement {
					return nil, errors.Newf("forcefield: root element is %s, not %s", t.Name.Local, rootElement)
				}
				sawRoot = true
				if v, ok := attrs["version"]; ok {
					F.Version = v
				}
				if v, ok := attrs["aromaticity_model"]; ok {
					F.Aromaticity = v
				}
			case 2:
				handler = NewHandler(t.Name.Local, attrs)
				meta = t.Name.Local
				text.Reset()
			case 3:
				p, err := NewParameter(t.Name.Local, attrs)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", lineOf(dec))
				}
				handler.Add(p)
				meta = ""
			default:
				return nil, errors.Newf("forcefield: unexpected element %s nested in %s", t.Name.Local, handler.Tag)
			}
		case xml.CharData:
			if depth == 2 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 2 {
				txt := strings.TrimSpace(text.String())
				if meta != "" && txt != "" && len(handler.Attrs) == 0 && handler.Version == "" {
					F.Meta[meta] = txt
				} else if err := F.Register(handler); err != nil {
					return nil, err
				}
				handler = nil
				meta = ""
			}
			depth--
		}
	}
	if !sawRoot {
		return nil, errors.New("forcefield: empty document")
	}
	return F, nil
}

func attrMap(a []xml.Attr) map[string]string {
	m := make(map[string]string, len(a))
	for _, v := range a {
		m[v.Name.Local] = v.Value
	}
	return m
}

func lineOf(dec *xml.Decoder) int {
	l, _ := dec.InputPos()
	return l
}
