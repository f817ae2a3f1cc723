/*
 * root.go, part of smirnoff.
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

//Package commands holds the cobra commands of smirnoff.
package commands

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/charges"
	"github.com/rmera/smirnoff/internal/config"
	"github.com/rmera/smirnoff/internal/logging"
	"github.com/rmera/smirnoff/param"
	"github.com/rmera/smirnoff/qm"
	"github.com/rmera/smirnoff/topology"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//Root returns the smirnoff command with all its subcommands.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "smirnoff",
		Short: "Assign SMIRNOFF force-field parameters to molecules",
		Long: `smirnoff matches the SMIRKS patterns of a SMIRNOFF force field (.offxml)
against the molecules of an SDF file, and reports the parameters assigned to
every bond, angle, torsion and atom.

Examples:
  smirnoff assign --ff openff-2.0.0.offxml --sdf ligands.sdf
  smirnoff assign --ff sage.offxml --sdf mols.sdf --charge-method gasteiger --snapshot out.json.gz
  smirnoff plot --ff sage.offxml --tag Bonds --id b7 --param k --out k.png`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "configuration file (YAML or TOML)")
	root.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v, -vv)")
	root.PersistentFlags().Bool("json-log", false, "log JSON lines instead of console text")
	root.AddCommand(assignCmd(), plotCmd(), versionCmd())
	return root
}

//setup loads the configuration and builds the logger. Flags given explicitly
//take precedence over the configuration.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	var log *zap.Logger
	if cmd.Flags().Changed("verbose") {
		v, _ := cmd.Flags().GetCount("verbose")
		json, _ := cmd.Flags().GetBool("json-log")
		log = logging.NewAtLevel(logging.VerbosityToLevel(v), json || cfg.Log.JSON, cmd.ErrOrStderr())
	} else {
		json, _ := cmd.Flags().GetBool("json-log")
		if log, err = logging.New(cfg.Log.Level, json || cfg.Log.JSON, cmd.ErrOrStderr()); err != nil {
			return nil, nil, err
		}
	}
	return cfg, log, nil
}

//fixedCharges serves every charge request with the same method.
type fixedCharges struct {
	o      charges.ChargeOracle
	method string
}

func (f fixedCharges) PartialCharges(ctx context.Context, m *topology.Molecule, _ string) ([]float64, error) {
	return f.o.PartialCharges(ctx, m, f.method)
}

//fixedBondOrders serves every bond order request with the same method.
type fixedBondOrders struct {
	o      charges.BondOrderOracle
	method string
}

func (f fixedBondOrders) FractionalBondOrders(ctx context.Context, m *topology.Molecule, _ string) ([]float64, error) {
	return f.o.FractionalBondOrders(ctx, m, f.method)
}

//registry returns the oracle registry set up by the configuration: xtb,
//when enabled, registered as "xtb", and the method aliases.
func registry(cfg *config.Config, log *zap.Logger) *charges.Registry {
	R := charges.NewRegistry()
	if cfg.XTB.Enabled {
		x := qm.NewXTBHandle()
		x.SetCommand(cfg.XTB.Command)
		x.SetnCPU(cfg.XTB.CPUs)
		x.SetWorkDir(cfg.XTB.WorkDir)
		x.SetLogger(log.Named("xtb"))
		R.RegisterCharges("xtb", x)
		R.RegisterBondOrders("xtb", x)
	}
	for alias, target := range cfg.Charges.Aliases {
		if target == "xtb" && !cfg.XTB.Enabled {
			continue
		}
		R.Alias(alias, target)
	}
	return R
}

//options turns the configuration into build options.
func options(cfg *config.Config, log *zap.Logger) ([]param.Option, error) {
	R := registry(cfg, log)
	opts := []param.Option{param.WithLogger(log)}
	if cfg.Charges.Method != "" {
		opts = append(opts, param.WithChargeOracle(fixedCharges{R, cfg.Charges.Method}))
	} else {
		opts = append(opts, param.WithChargeOracle(R))
	}
	if cfg.BondOrders.Method != "" {
		opts = append(opts, param.WithBondOrderOracle(fixedBondOrders{R, cfg.BondOrders.Method}))
	} else {
		opts = append(opts, param.WithBondOrderOracle(R))
	}
	if cfg.Charges.FromFile != "" {
		refs, err := topology.SDFFileRead(cfg.Charges.FromFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading reference charges")
		}
		opts = append(opts, param.WithChargeFromMolecules(refs...))
	}
	if cfg.BondOrders.FromFile != "" {
		refs, err := topology.SDFFileRead(cfg.BondOrders.FromFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading reference bond orders")
		}
		opts = append(opts, param.WithPartialBondOrdersFromMolecules(refs...))
	}
	return opts, nil
}
