/*
 * xtb.go, part of smirnoff.
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

package qm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/topology"
	"go.uber.org/zap"
)

//XTBHandle runs single-point xtb calculations to obtain Mulliken charges and
//Wiberg bond orders. It implements the ChargeOracle and BondOrderOracle
//interfaces of the charges package. Calculations share the work directory,
//so a handle must not be used concurrently.
type XTBHandle struct {
	command   string
	inputname string
	workdir   string
	method    string
	nCPU      int
	options   []string
	logger    *zap.Logger
}

//NewXTBHandle returns a handle with the default settings.
func NewXTBHandle() *XTBHandle {
	run := new(XTBHandle)
	run.SetDefaults()
	return run
}

//XTBHandle methods

//SetnCPU sets the number of CPU to be used.
func (O *XTBHandle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

//Command returns the xtb executable.
func (O *XTBHandle) Command() string {
	return O.command
}

//SetName sets the base name for the input and output files.
func (O *XTBHandle) SetName(name string) {
	O.inputname = name
}

//SetCommand sets the xtb executable.
func (O *XTBHandle) SetCommand(name string) {
	O.command = name
}

//SetWorkDir sets the directory where calculations run. "" means a fresh
//temporary directory for each calculation.
func (O *XTBHandle) SetWorkDir(dir string) {
	O.workdir = dir
}

//SetMethod sets the GFN Hamiltonian: gfn0, gfn1 or gfn2.
func (O *XTBHandle) SetMethod(method string) error {
	if !slices.Contains([]string{"gfn0", "gfn1", "gfn2"}, method) {
		return Error{ErrCantInput, XTB, O.inputname, "unknown method " + method, []string{"SetMethod"}, true}
	}
	O.method = method
	return nil
}

//SetLogger sets the logger for the handle.
func (O *XTBHandle) SetLogger(l *zap.Logger) {
	O.logger = l
}

//SetDefaults sets the xtb executable (from $XTBHOME if set), GFN2 and half of the CPUs.
func (O *XTBHandle) SetDefaults() {
	O.command = "xtb"
	if home := os.Getenv("XTBHOME"); home != "" {
		O.command = filepath.Join(home, "bin", "xtb")
	}
	O.inputname = "smirnoff"
	O.method = "gfn2"
	O.nCPU = max(runtime.NumCPU()/2, 1)
	O.logger = zap.NewNop()
}

//BuildInput writes the xyz file for m in dir, and prepares the command line options.
func (O *XTBHandle) BuildInput(m *topology.Molecule, dir string) error {
	if len(m.Conformers) == 0 {
		return Error{ErrNoCoordinates, XTB, O.inputname, m.Name, []string{"BuildInput"}, true}
	}
	f, err := os.Create(filepath.Join(dir, O.inputname+".xyz"))
	if err != nil {
		return Error{ErrCantInput, XTB, O.inputname, err.Error(), []string{"os.Create", "BuildInput"}, true}
	}
	defer f.Close()
	if err := WriteXYZ(f, m); err != nil {
		return Error{ErrCantInput, XTB, O.inputname, err.Error(), []string{"WriteXYZ", "BuildInput"}, true}
	}
	charge := m.TotalCharge()
	electrons := -charge
	for _, a := range m.Atoms() {
		electrons += a.AtomicNumber
	}
	O.options = make([]string, 0, 6)
	O.options = append(O.options, O.inputname+".xyz")
	O.options = append(O.options, "--sp")
	O.options = append(O.options, fmt.Sprintf("-c %d", charge))
	O.options = append(O.options, fmt.Sprintf("-u %d", electrons%2))
	if O.nCPU > 1 {
		O.options = append(O.options, fmt.Sprintf("-P %d", O.nCPU))
	}
	O.options = append(O.options, "--gfn "+strings.TrimPrefix(O.method, "gfn"))
	return nil
}

//Options returns the command line options built by the last call to BuildInput.
func (O *XTBHandle) Options() []string {
	return slices.Clone(O.options)
}

//Run runs xtb in dir with the options prepared by BuildInput, and waits for it.
//The context kills the process if cancelled.
func (O *XTBHandle) Run(ctx context.Context, dir string) error {
	com := fmt.Sprintf("%s %s > %s.out 2>&1", O.command, strings.Join(O.options, " "), O.inputname)
	O.logger.Debug("running xtb", zap.String("command", com), zap.String("dir", dir))
	command := exec.CommandContext(ctx, "sh", "-c", com)
	command.Dir = dir
	if err := command.Run(); err != nil {
		return Error{ErrNotRunning, XTB, O.inputname, err.Error(), []string{"exec.Run", "Run"}, true}
	}
	if !normalTermination(filepath.Join(dir, O.inputname+".out")) {
		return Error{ErrNotRunning, XTB, O.inputname, "abnormal termination", []string{"Run"}, true}
	}
	return nil
}

//calculate builds the input, runs xtb and hands the work directory to read.
func (O *XTBHandle) calculate(ctx context.Context, m *topology.Molecule, read func(dir string) error) error {
	dir := O.workdir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "smirnoff-xtb")
		if err != nil {
			return errors.Wrap(err, "creating xtb work directory")
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}
	if err := O.BuildInput(m, dir); err != nil {
		return err
	}
	if err := O.Run(ctx, dir); err != nil {
		return err
	}
	return read(dir)
}

//PartialCharges runs xtb on the first conformer of m and returns its Mulliken charges.
func (O *XTBHandle) PartialCharges(ctx context.Context, m *topology.Molecule, method string) ([]float64, error) {
	var q []float64
	err := O.calculate(ctx, m, func(dir string) error {
		f, err := os.Open(filepath.Join(dir, "charges"))
		if err != nil {
			return Error{ErrNoCharges, XTB, O.inputname, err.Error(), []string{"os.Open", "PartialCharges"}, true}
		}
		defer f.Close()
		q, err = ReadCharges(f, m.Len())
		return err
	})
	if err != nil {
		return nil, err
	}
	O.logger.Debug("xtb charges", zap.String("molecule", m.Name), zap.String("method", method), zap.Float64s("charges", q))
	return q, nil
}

//FractionalBondOrders runs xtb on the first conformer of m and returns its Wiberg bond orders.
func (O *XTBHandle) FractionalBondOrders(ctx context.Context, m *topology.Molecule, method string) ([]float64, error) {
	var b []float64
	err := O.calculate(ctx, m, func(dir string) error {
		f, err := os.Open(filepath.Join(dir, "wbo"))
		if err != nil {
			return Error{ErrNoBondOrders, XTB, O.inputname, err.Error(), []string{"os.Open", "FractionalBondOrders"}, true}
		}
		defer f.Close()
		b, err = ReadWBO(f, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	O.logger.Debug("xtb bond orders", zap.String("molecule", m.Name), zap.String("method", method), zap.Float64s("orders", b))
	return b, nil
}

//ReadCharges reads an xtb charges file, one charge per line, which must contain n charges.
func ReadCharges(r io.Reader, n int) ([]float64, error) {
	q := make([]float64, 0, n)
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, Error{ErrNoCharges, XTB, "", err.Error(), []string{"strconv.ParseFloat", "ReadCharges"}, true}
		}
		q = append(q, v)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if len(q) != n {
		return nil, Error{ErrNoCharges, XTB, "", fmt.Sprintf("%d charges for %d atoms", len(q), n), []string{"ReadCharges"}, true}
	}
	return q, nil
}

//ReadWBO reads an xtb wbo file (lines "i j order", 1-based atom indexes) and returns
//the order of each bond of m, in bond order. xtb omits very small orders,
//so bonds not in the file get 0.
func ReadWBO(r io.Reader, m *topology.Molecule) ([]float64, error) {
	b := make([]float64, m.NBonds())
	s := bufio.NewScanner(r)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, Error{ErrNoBondOrders, XTB, "", "malformed line " + s.Text(), []string{"ReadWBO"}, true}
		}
		i, err1 := strconv.Atoi(fields[0])
		j, err2 := strconv.Atoi(fields[1])
		o, err3 := strconv.ParseFloat(fields[2], 64)
		if err := errors.CombineErrors(err1, errors.CombineErrors(err2, err3)); err != nil {
			return nil, Error{ErrNoBondOrders, XTB, "", err.Error(), []string{"strconv", "ReadWBO"}, true}
		}
		if i < 1 || j < 1 || i > m.Len() || j > m.Len() {
			return nil, Error{ErrNoBondOrders, XTB, "", fmt.Sprintf("atom index out of range in %q", s.Text()), []string{"ReadWBO"}, true}
		}
		if bond := m.BondBetween(i-1, j-1); bond != nil {
			b[bond.Index()] = o
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

//normalTermination checks that an xtb calculation has terminated normally.
func normalTermination(filename string) bool {
	return searchBackwards("normal termination of x", filename) != "" && searchBackwards("abnormal termination of x", filename) == ""
}

//searchBackwards returns the last line of the file that contains str, or an empty string.
func searchBackwards(str, filename string) string {
	f, err := os.Open(filename)
	if err != nil {
		return ""
	}
	defer f.Close()
	last := ""
	s := bufio.NewScanner(f)
	for s.Scan() {
		if strings.Contains(s.Text(), str) {
			last = s.Text()
		}
	}
	return last
}
