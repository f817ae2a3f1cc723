/*
 * interpolation.go, part of smirnoff.
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

//Package ffplot draws the force-field parameters that depend on the fractional
//bond order, as the lines the assignment interpolates along.
package ffplot

import (
	"image/color"
	"math"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/param"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//Series is one bond-order dependent value to plot. Assigned are the bond
//orders the value was interpolated at, which are marked on the line.
type Series struct {
	Param    *ff.ParameterType
	Name     string
	Assigned []float64
}

//Points is the number of points sampled along each line.
const Points = 50

//Curve samples the interpolation line of the value name of p, n points from
//half a bond order below the first anchor to half a bond order above the last.
//Values are in the units of the first anchor, which is also returned.
func Curve(p *ff.ParameterType, name string, n int) (plotter.XYs, string, error) {
	bos, qs := p.BondOrderAnchors(name)
	if len(bos) < 2 {
		return nil, "", errors.Newf("ffplot: %s of %s has %d bond order anchors", name, p.Label(), len(bos))
	}
	if n < 2 {
		n = 2
	}
	lo, hi := bos[0]-0.5, bos[len(bos)-1]+0.5
	xys := make(plotter.XYs, n)
	for i := range xys {
		x := lo + (hi-lo)*float64(i)/float64(n-1)
		q, err := param.Interpolate(bos, qs, x)
		if err != nil {
			return nil, "", err
		}
		xys[i].X, xys[i].Y = x, q.Magnitude
	}
	return xys, qs[0].Unit.Name(), nil
}

//anchors returns the anchors of the value name of p, in the units of the first.
func anchors(p *ff.ParameterType, name string) (plotter.XYs, error) {
	bos, qs := p.BondOrderAnchors(name)
	xys := make(plotter.XYs, len(bos))
	for i := range bos {
		q, err := qs[i].To(qs[0].Unit)
		if err != nil {
			return nil, err
		}
		xys[i].X, xys[i].Y = bos[i], q.Magnitude
	}
	return xys, nil
}

//AssignedOrders returns the bond orders at which the potentials of h built
//from the parameter with the SMIRKS smirks were interpolated, in slot order.
func AssignedOrders(h param.Handler, smirks string) []float64 {
	var r []float64
	for _, pk := range h.Slots().All() {
		if pk.ID == smirks && pk.HasBondOrder {
			r = append(r, pk.BondOrder)
		}
	}
	return r
}

func basicPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = vg.Millimeters(3)
	p.Title.Text = title
	p.X.Label.Text = "Fractional bond order"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

//Interpolation plots each series as its interpolation line, with the anchors
//and the assigned bond orders as points, and saves the plot to filename. The
//format is taken from the extension of filename (png, svg, pdf...).
func Interpolation(series []Series, title, filename string) error {
	if len(series) == 0 {
		return errors.New("ffplot: nothing to plot")
	}
	var p *plot.Plot
	for key, s := range series {
		line, unit, err := Curve(s.Param, s.Name, Points)
		if err != nil {
			return err
		}
		if p == nil {
			p = basicPlot(title, s.Name+" ("+unit+")")
		}
		r, g, b := colors(key, len(series))
		col := color.RGBA{R: r, G: g, B: b, A: 255}
		l, err := plotter.NewLine(line)
		if err != nil {
			return err
		}
		l.LineStyle.Color = col
		l.LineStyle.Width = vg.Points(1)
		anch, err := anchors(s.Param, s.Name)
		if err != nil {
			return err
		}
		sc, err := plotter.NewScatter(anch)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = col
		sc.GlyphStyle.Shape, _ = getShape(0)
		p.Add(l, sc)
		p.Legend.Add(s.Param.Label()+" "+s.Name, l, sc)
		if len(s.Assigned) == 0 {
			continue
		}
		marks := make(plotter.XYs, len(s.Assigned))
		for i, bo := range s.Assigned {
			marks[i].X = bo
			marks[i].Y = yAt(line, bo)
		}
		m, err := plotter.NewScatter(marks)
		if err != nil {
			return err
		}
		m.GlyphStyle.Color = col
		m.GlyphStyle.Shape, _ = getShape(1)
		p.Add(m)
	}
	return p.Save(5*vg.Inch, 5*vg.Inch, filename)
}

//yAt evaluates the sampled line at x, linearly between samples.
func yAt(line plotter.XYs, x float64) float64 {
	if x <= line[0].X {
		return line[0].Y + (x-line[0].X)*(line[1].Y-line[0].Y)/(line[1].X-line[0].X)
	}
	for i := 1; i < len(line); i++ {
		if x <= line[i].X {
			a, b := line[i-1], line[i]
			return a.Y + (x-a.X)*(b.Y-a.Y)/(b.X-a.X)
		}
	}
	a, b := line[len(line)-2], line[len(line)-1]
	return b.Y + (x-b.X)*(b.Y-a.Y)/(b.X-a.X)
}

//takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	var i, f, p, q, t float64
	var r, g, b float64
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i = math.Floor(h)
	f = h - i
	p = v * (1 - s)
	q = v * (1 - s*f)
	t = v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

//colors spreads steps hues over the wheel, skipping the yellows.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	var h float64
	if hp < 55 {
		h = hp - 20.0
	} else {
		h = hp + 20.0
	}
	return iHVS2RGB(h, 1.0, 1.0)
}

func getShape(tagged int) (draw.GlyphDrawer, error) {
	switch tagged {
	case 0:
		return draw.CircleGlyph{}, nil
	case 1:
		return draw.PyramidGlyph{}, nil
	case 2:
		return draw.SquareGlyph{}, nil
	case 3:
		return draw.CrossGlyph{}, nil
	default:
		return draw.RingGlyph{}, errors.New("ffplot: only 4 glyph shapes")
	}
}
