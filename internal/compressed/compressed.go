/*
 * compressed.go, part of smirnoff.
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

//Package compressed opens and creates files that may be gzip or zstd
//compressed, deciding by the file extension.
package compressed

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

//zstd.Decoder's Close doesn't return an error, so it is not an io.ReadCloser.
type zstdql struct {
	*zstd.Decoder
}

func (z zstdql) Close() error {
	z.Decoder.Close()
	return nil
}

//file closes both the decompressor and the underlying file.
type file struct {
	io.Reader
	closers []io.Closer
}

func (f *file) Close() error {
	var err error
	for _, c := range f.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

//Format returns the compression format of the file name ("gz", "zst" or "")
//and the name with the compression extension stripped.
func Format(name string) (string, string) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".gz", ".gzip":
		return "gz", strings.TrimSuffix(name, filepath.Ext(name))
	case ".zst", ".zstd":
		return "zst", strings.TrimSuffix(name, filepath.Ext(name))
	}
	return "", name
}

//Open opens the file name for reading, decompressing it on the fly if its
//extension is .gz or .zst.
func Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	r, err := Reader(f, name)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &file{Reader: r, closers: []io.Closer{r, f}}, nil
}

//Reader wraps r with the decompressor that the extension of name calls for.
func Reader(r io.Reader, name string) (io.ReadCloser, error) {
	format, _ := Format(name)
	buf := bufio.NewReader(r)
	switch format {
	case "gz":
		g, err := gzip.NewReader(buf)
		if err != nil {
			return nil, errors.Wrapf(err, "reading gzip header of %s", name)
		}
		return g, nil
	case "zst":
		z, err := zstd.NewReader(buf)
		if err != nil {
			return nil, errors.Wrapf(err, "reading zstd stream %s", name)
		}
		return zstdql{z}, nil
	}
	return io.NopCloser(buf), nil
}

//writeFile flushes the compressor, then closes the file.
type writeFile struct {
	io.Writer
	closers []io.Closer
}

func (f *writeFile) Close() error {
	var err error
	for _, c := range f.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

//Create creates the file name for writing, compressing what is written if the
//extension is .gz or .zst. The returned writer must be closed.
func Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", name)
	}
	format, _ := Format(name)
	switch format {
	case "gz":
		g := gzip.NewWriter(f)
		return &writeFile{Writer: g, closers: []io.Closer{g, f}}, nil
	case "zst":
		z, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "starting zstd stream %s", name)
		}
		return &writeFile{Writer: z, closers: []io.Closer{z, f}}, nil
	}
	return f, nil
}
