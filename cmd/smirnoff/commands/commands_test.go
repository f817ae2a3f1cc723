/*
 * commands_test.go, part of smirnoff.
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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/smirnoff/internal/config"
	"github.com/rmera/smirnoff/internal/testmol"
	"github.com/rmera/smirnoff/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	mini = "../../../test/mini.offxml"
	sdf  = "../../../test/molecules.sdf"
)

func run(Te *testing.T, args ...string) (string, error) {
	Te.Helper()
	root := Root()
	var out, errout bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errout)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAssign(Te *testing.T) {
	snap := filepath.Join(Te.TempDir(), "params.json.gz")
	out, err := run(Te, "assign", "--ff", mini, "--sdf", sdf, "--charge-method", "formal_charge", "--bond-order-method", "formal", "--snapshot", snap)
	require.NoError(Te, err)
	for _, s := range []string{"Bonds", "ImproperTorsions", "Electrostatics", "acetate", "LibraryCharges", "-1.0000"} {
		assert.Contains(Te, out, s)
	}
	S, err := snapshot.ReadFile(snap)
	require.NoError(Te, err)
	assert.Equal(Te, 3, S.Info.Molecules)
	assert.Equal(Te, "LibraryCharges", S.Info.Sources[1])
	bonds := S.Handler("Bonds")
	require.NotNil(Te, bonds)
	var interpolated int
	for _, s := range bonds.Slots {
		if s.BondOrder != nil {
			interpolated++
			assert.Equal(Te, 2.0, *s.BondOrder)
		}
	}
	assert.Equal(Te, 1, interpolated)

	out, err = run(Te, "assign", "--ff", mini, "--sdf", sdf, "--charge-method", "formal_charge", "--bond-order-method", "formal", "--table=false")
	require.NoError(Te, err)
	assert.Empty(Te, out)
}

func TestAssignTop(Te *testing.T) {
	file := filepath.Join(Te.TempDir(), "system.top")
	_, err := run(Te, "assign", "--ff", mini, "--sdf", sdf, "--charge-method", "formal_charge", "--bond-order-method", "formal", "--table=false", "--top", file)
	require.NoError(Te, err)
	b, err := os.ReadFile(file)
	require.NoError(Te, err)
	s := string(b)
	assert.Equal(Te, 3, strings.Count(s, "[ moleculetype ]"))
	assert.Contains(Te, s, "[ system ]\nsystem\n")
	for _, name := range []string{"ethanol", "water", "acetate", "[ dihedrals ]", "[ pairs ]"} {
		assert.Contains(Te, s, name)
	}
}

func TestAssignErrors(Te *testing.T) {
	_, err := run(Te, "assign", "--sdf", sdf)
	assert.Error(Te, err)
	_, err = run(Te, "assign", "--ff", mini)
	assert.Error(Te, err)
	_, err = run(Te, "assign", "--ff", mini, "--sdf", "missing.sdf")
	assert.Error(Te, err)
	//no oracle serves AM1-Wiberg without xtb.
	_, err = run(Te, "assign", "--ff", mini, "--sdf", sdf, "--charge-method", "formal_charge")
	assert.Error(Te, err)
}

func TestConfigFile(Te *testing.T) {
	dir := Te.TempDir()
	cfg := filepath.Join(dir, "smirnoff.yaml")
	yaml := "forcefield:\n  - " + mini + "\ncharges:\n  method: zeros\nbond_orders:\n  method: formal\n"
	require.NoError(Te, os.WriteFile(cfg, []byte(yaml), 0o644))
	out, err := run(Te, "assign", "--config", cfg, "--sdf", sdf)
	require.NoError(Te, err)
	assert.Contains(Te, out, "ToolkitAM1BCC")
}

func TestPlot(Te *testing.T) {
	dir := Te.TempDir()
	png := filepath.Join(dir, "k.png")
	_, err := run(Te, "plot", "--ff", mini, "--id", "b5", "--out", png)
	require.NoError(Te, err)
	info, err := os.Stat(png)
	require.NoError(Te, err)
	assert.NotZero(Te, info.Size())

	svg := filepath.Join(dir, "k.svg")
	_, err = run(Te, "plot", "--ff", mini, "--id", "[#6:1]=[#8:2]", "--out", svg, "--sdf", sdf, "--charge-method", "zeros", "--bond-order-method", "formal")
	require.NoError(Te, err)
	_, err = os.Stat(svg)
	assert.NoError(Te, err)

	_, err = run(Te, "plot", "--ff", mini, "--id", "b9", "--out", png)
	assert.Error(Te, err)
	_, err = run(Te, "plot", "--ff", mini, "--id", "b1", "--out", png)
	assert.Error(Te, err)
	_, err = run(Te, "plot", "--ff", mini, "--tag", "Dihedrals", "--id", "b5")
	assert.Error(Te, err)
}

func TestVersion(Te *testing.T) {
	out, err := run(Te, "version", "--json")
	require.NoError(Te, err)
	var info versionInfo
	require.NoError(Te, json.Unmarshal([]byte(out), &info))
	assert.Equal(Te, Version, info.Version)
	out, err = run(Te, "version")
	require.NoError(Te, err)
	assert.Contains(Te, out, "smirnoff dev")
}

func TestRegistry(Te *testing.T) {
	cfg, err := config.Load("")
	require.NoError(Te, err)
	R := registry(cfg, zap.NewNop())
	assert.Equal(Te, "am1bcc", R.Canonical("AM1BCC"))
	assert.NotContains(Te, R.ChargeMethods(), "xtb")

	cfg.XTB.Enabled = true
	R = registry(cfg, zap.NewNop())
	assert.Equal(Te, "xtb", R.Canonical("AM1BCC"))
	assert.Contains(Te, R.ChargeMethods(), "xtb")

	f := fixedCharges{R, "formal_charge"}
	q, err := f.PartialCharges(context.Background(), testmol.Acetate(), "am1bcc")
	require.NoError(Te, err)
	assert.InDelta(Te, -1, q[0]+q[1]+q[2]+q[3]+q[4]+q[5]+q[6], 1e-12)
}
