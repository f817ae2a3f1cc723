/*
 * plot.go, part of smirnoff.
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

package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/ffplot"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/spf13/cobra"
)

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot a parameter value against the fractional bond order",
		Long: `plot draws the line along which a bond-order dependent value (such as k in
k_bondorder1, k_bondorder2) is interpolated. With --sdf, the bond orders at
which the value was interpolated for those molecules are marked.`,
		RunE: runPlot,
	}
	f := cmd.Flags()
	f.StringSlice("ff", nil, "force field files")
	f.String("tag", ff.TagBonds, "section of the force field")
	f.String("id", "", "id or SMIRKS of the parameter")
	f.String("param", "k", "value to plot")
	f.String("out", "interpolation.png", "output file, the extension sets the format")
	f.String("sdf", "", "molecules whose interpolated bond orders are marked")
	f.String("charge-method", "", "compute every oracle charge with this method")
	f.String("bond-order-method", "", "compute every fractional bond order with this method")
	f.String("charges-from", "", "SDF file with molecules whose partial charges are used as given")
	f.String("bond-orders-from", "", "SDF file with molecules whose fractional bond orders are used as given")
	cmd.MarkFlagRequired("id")
	return cmd
}

func runPlot(cmd *cobra.Command, _ []string) error {
	files, _ := cmd.Flags().GetStringSlice("ff")
	tag, _ := cmd.Flags().GetString("tag")
	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("param")
	out, _ := cmd.Flags().GetString("out")
	if len(files) == 0 {
		return errors.New("no force field given, use --ff")
	}
	F, err := ff.FileRead(files...)
	if err != nil {
		return err
	}
	h := F.Handler(tag)
	if h == nil {
		return errors.Newf("no %s section in the force field", tag)
	}
	p := h.Parameter(id)
	if p == nil {
		return errors.Newf("no parameter %s in %s", id, tag)
	}
	s := ffplot.Series{Param: p, Name: name}
	if sdf, _ := cmd.Flags().GetString("sdf"); sdf != "" {
		C, log, _, err := build(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()
		if ph, ok := C.Handler(tag); ok {
			s.Assigned = ffplot.AssignedOrders(ph, p.SMIRKS)
		}
	}
	return ffplot.Interpolation([]ffplot.Series{s}, tag+" "+p.Label(), out)
}
