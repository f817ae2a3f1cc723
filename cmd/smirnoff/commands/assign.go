/*
 * assign.go, part of smirnoff.
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
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/internal/config"
	"github.com/rmera/smirnoff/param"
	"github.com/rmera/smirnoff/snapshot"
	"github.com/rmera/smirnoff/top"
	"github.com/rmera/smirnoff/topology"
	"github.com/rmera/smirnoff/units"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign parameters to the molecules of an SDF file",
		RunE:  runAssign,
	}
	f := cmd.Flags()
	f.StringSlice("ff", nil, "force field files (.offxml, may be .gz or .zst), later ones take precedence")
	f.String("sdf", "", "molecules to parametrize")
	f.String("charges-from", "", "SDF file with molecules whose partial charges are used as given")
	f.String("bond-orders-from", "", "SDF file with molecules whose fractional bond orders are used as given")
	f.String("charge-method", "", "compute every oracle charge with this method")
	f.String("bond-order-method", "", "compute every fractional bond order with this method")
	f.String("snapshot", "", "write a JSON snapshot of the parameters to this file")
	f.String("top", "", "write a GROMACS topology to this file")
	f.Bool("table", true, "print the summary tables")
	cmd.MarkFlagRequired("sdf")
	return cmd
}

//override sets the string pointed by dst to the flag name if it was given.
func override(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func build(cmd *cobra.Command) (*param.Collection, *zap.Logger, config.OutputConfig, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, nil, config.OutputConfig{}, err
	}
	if cmd.Flags().Changed("ff") {
		cfg.ForceField, _ = cmd.Flags().GetStringSlice("ff")
	}
	override(cmd, "charges-from", &cfg.Charges.FromFile)
	override(cmd, "bond-orders-from", &cfg.BondOrders.FromFile)
	override(cmd, "charge-method", &cfg.Charges.Method)
	override(cmd, "bond-order-method", &cfg.BondOrders.Method)
	override(cmd, "snapshot", &cfg.Output.Snapshot)
	override(cmd, "top", &cfg.Output.Top)
	if cmd.Flags().Changed("table") {
		cfg.Output.Table, _ = cmd.Flags().GetBool("table")
	}
	if len(cfg.ForceField) == 0 {
		return nil, nil, config.OutputConfig{}, errors.New("no force field given, use --ff or the forcefield setting")
	}
	F, err := ff.FileRead(cfg.ForceField...)
	if err != nil {
		return nil, nil, config.OutputConfig{}, err
	}
	sdf, _ := cmd.Flags().GetString("sdf")
	mols, err := topology.SDFFileRead(sdf)
	if err != nil {
		return nil, nil, config.OutputConfig{}, err
	}
	opts, err := options(cfg, log)
	if err != nil {
		return nil, nil, config.OutputConfig{}, err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	C, err := param.FromSMIRNOFF(ctx, F, topology.New(mols...), opts...)
	if err != nil {
		return nil, nil, config.OutputConfig{}, err
	}
	return C, log, cfg.Output, nil
}

func runAssign(cmd *cobra.Command, _ []string) error {
	C, log, out, err := build(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	if out.Table {
		if err := printTables(cmd, C); err != nil {
			return err
		}
	}
	if out.Snapshot != "" {
		S, jerr := snapshot.FromCollection(C)
		if jerr != nil {
			return jerr
		}
		if err := S.WriteFile(out.Snapshot); err != nil {
			return err
		}
		log.Info("snapshot written", zap.String("file", out.Snapshot))
	}
	if out.Top != "" {
		name := strings.TrimSuffix(filepath.Base(out.Top), filepath.Ext(out.Top))
		S, err := top.FromCollection(C, name)
		if err != nil {
			return err
		}
		if err := S.WriteFile(out.Top); err != nil {
			return err
		}
		log.Info("GROMACS topology written", zap.String("file", out.Top))
	}
	return nil
}

//printTables prints the slots and potentials of each category, and the charge
//source and net charge of each molecule.
func printTables(cmd *cobra.Command, C *param.Collection) error {
	data := pterm.TableData{{"Category", "Slots", "Potentials"}}
	for _, name := range C.Names() {
		h, _ := C.Handler(name)
		data = append(data, []string{name, strconv.Itoa(h.Slots().Len()), strconv.Itoa(h.Potentials().Len())})
	}
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s)
	es := C.Electrostatics()
	if es == nil {
		return nil
	}
	q := es.Charges()
	T := C.Topology()
	data = pterm.TableData{{"Molecule", "Name", "Atoms", "Charges from", "Net charge"}}
	for i := 0; i < T.NMolecules(); i++ {
		m := T.Molecule(i)
		var net float64
		for j := 0; j < m.Len(); j++ {
			net += q[T.Offset(i)+j].In(units.ElementaryCharge)
		}
		data = append(data, []string{strconv.Itoa(i), m.Name, strconv.Itoa(m.Len()), es.Source(i), strconv.FormatFloat(net, 'f', 4, 64)})
	}
	if s, err = pterm.DefaultTable.WithHasHeader().WithData(data).Srender(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s)
	return nil
}
