// Copyright 2020 U.S. Naval Research Laboratory
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pfi builds and reads a flat static hash index over a file of
// path lines, mapping the endpoint pair of each line to its byte offset.
//
// The index file layout is a fixed header followed by num_bins fixed
// width slots:
//
//	[ header_size | num_bins | bytes_per_bin ][ bin_0 ]...[ bin_{n-1} ]
//
// All three header words are 8-byte little-endian. Empty slots hold all
// 0xFF bytes; insertion uses open addressing with quadratic probing.
// With num_bins the next prime above twice the line count, the load
// factor stays below 0.5 and the probe sequence reaches an empty slot
// without cycling.
package pfi

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"math/big"
	"os"
	"strings"

	"github.com/rwails/tempest/pkg/log"
	"github.com/rwails/tempest/pkg/metrics"
	"github.com/rwails/tempest/pkg/private/serrors"
)

// headerSize is the on-disk size of Meta.
const headerSize = 24

// progressInterval is the line interval for progress logging.
const progressInterval = 100000

// Meta is the index file header.
type Meta struct {
	HeaderSize  uint64
	NumBins     uint64
	BytesPerBin uint64
}

// FileSize returns the total index file size for this header.
func (m Meta) FileSize() uint64 {
	return m.HeaderSize + m.NumBins*m.BytesPerBin
}

func (m Meta) binOffset(bin uint64) int64 {
	return int64(m.HeaderSize + bin*m.BytesPerBin)
}

// binIdx is the quadratic probe sequence over the bins.
func (m Meta) binIdx(hash uint64, i uint64) uint64 {
	return (hash + i*i) % m.NumBins
}

// Stats summarizes an index build.
type Stats struct {
	// Lines is the total number of input lines read.
	Lines uint64
	// Indexed counts lines inserted into the index.
	Indexed uint64
	// Skipped counts lines without an interior space.
	Skipped uint64
}

// BuilderMetrics counts build progress. The zero value disables
// reporting.
type BuilderMetrics struct {
	LinesIndexed metrics.Counter
	LinesSkipped metrics.Counter
}

// Build reads path lines from pathFilename and writes the static hash
// index to indexFilename.
func Build(pathFilename, indexFilename string, m BuilderMetrics) (Stats, error) {
	var stats Stats

	numLines, numBytes, err := surveyPathFile(pathFilename)
	if err != nil {
		return stats, err
	}

	meta := Meta{
		HeaderSize:  headerSize,
		NumBins:     numBins(numLines),
		BytesPerBin: bytesPerBin(numBytes),
	}
	log.Info("Creating index",
		"path_file", pathFilename,
		"index_file", indexFilename,
		"lines", numLines,
		"bytes", numBytes,
		"num_bins", meta.NumBins,
		"bytes_per_bin", meta.BytesPerBin,
	)

	indexFile, err := createFFFile(indexFilename, meta.FileSize())
	if err != nil {
		return stats, err
	}
	defer indexFile.Close()
	if err := writeHeader(indexFile, meta); err != nil {
		return stats, err
	}

	pathFile, err := os.Open(pathFilename)
	if err != nil {
		return stats, serrors.Wrap("opening path file", err, "file", pathFilename)
	}
	defer pathFile.Close()

	reader := bufio.NewReader(pathFile)
	var offset uint64
	for {
		line, err := reader.ReadString('\n')
		if line == "" && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return stats, serrors.Wrap("reading path file", err)
		}

		stats.Lines++
		if stats.Lines%progressInterval == 0 {
			log.Info("Indexing progress", "lines", stats.Lines)
		}

		key, ok := lineKey(line)
		if !ok {
			log.Info("Skipping line without interior space", "line", strings.TrimRight(line, "\n"))
			stats.Skipped++
			metrics.CounterInc(m.LinesSkipped)
			offset += uint64(len(line))
			continue
		}

		if err := insert(indexFile, meta, HashString(key), offset); err != nil {
			return stats, err
		}
		stats.Indexed++
		metrics.CounterInc(m.LinesIndexed)
		offset += uint64(len(line))

		if err == io.EOF {
			break
		}
	}

	log.Info("Job complete", "lines", stats.Lines, "indexed", stats.Indexed,
		"skipped", stats.Skipped)
	return stats, nil
}

// lineKey derives the index key for a path line: the first hop
// concatenated with the last. Lines without an interior space carry no
// endpoint pair.
func lineKey(line string) (string, bool) {
	line = strings.TrimRight(line, "\n")
	first := strings.IndexByte(line, ' ')
	if first < 0 {
		return "", false
	}
	last := strings.LastIndexByte(line, ' ')
	return line[:first] + line[last+1:], true
}

// surveyPathFile counts the indexable lines and total bytes of the path
// file. Only lines with an interior space count toward the bin budget.
func surveyPathFile(filename string) (numLines, numBytes uint64, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, 0, serrors.Wrap("opening path file", err, "file", filename)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		numBytes += uint64(len(line))
		if _, ok := lineKey(line); ok && line != "" {
			numLines++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, serrors.Wrap("reading path file", err)
		}
	}
	return numLines, numBytes, nil
}

// numBins returns the next prime strictly greater than twice the line
// count.
func numBins(numLines uint64) uint64 {
	candidate := new(big.Int).SetUint64(2*numLines + 1)
	for !candidate.ProbablyPrime(20) {
		candidate.Add(candidate, big.NewInt(1))
	}
	return candidate.Uint64()
}

// bytesPerBin returns the smallest byte width able to address any byte
// offset of the source file.
func bytesPerBin(numBytes uint64) uint64 {
	if numBytes < 2 {
		return 1
	}
	return uint64(math.Ceil((math.Log2(float64(numBytes)) + 1) / 8))
}

// createFFFile allocates the index file filled with 0xFF pages. The write
// position is left at the end of the file; later access uses positioned
// reads and writes.
func createFFFile(filename string, numBytes uint64) (*os.File, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, serrors.Wrap("creating index file", err, "file", filename)
	}

	pageSize := uint64(os.Getpagesize())
	buf := make([]byte, pageSize)
	for i := range buf {
		buf[i] = 0xFF
	}

	remaining := numBytes
	for remaining > pageSize {
		if _, err := f.Write(buf); err != nil {
			f.Close()
			return nil, serrors.Wrap("filling index file", err)
		}
		remaining -= pageSize
	}
	if _, err := f.Write(buf[:remaining]); err != nil {
		f.Close()
		return nil, serrors.Wrap("filling index file", err)
	}
	return f, nil
}

func writeHeader(f *os.File, meta Meta) error {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(buf[0:], meta.HeaderSize)
	binary.LittleEndian.PutUint64(buf[8:], meta.NumBins)
	binary.LittleEndian.PutUint64(buf[16:], meta.BytesPerBin)
	if _, err := f.WriteAt(buf, 0); err != nil {
		return serrors.Wrap("writing index header", err)
	}
	return nil
}

// insert probes the bin sequence until an empty slot and writes the low
// bytes of the offset there. Duplicate keys are not detected; each
// occupies its own slot.
func insert(f *os.File, meta Meta, hash, offset uint64) error {
	slot := make([]byte, meta.BytesPerBin)
	for i := uint64(0); ; i++ {
		bin := meta.binIdx(hash, i)
		binOffset := meta.binOffset(bin)
		if _, err := f.ReadAt(slot, binOffset); err != nil {
			return serrors.Wrap("reading bin", err, "bin", bin)
		}
		// Emptiness test: only the highest-address byte of the slot is
		// compared against 0xFF. Part of the on-disk format.
		if slot[meta.BytesPerBin-1] != 0xFF {
			continue
		}
		var encoded [8]byte
		binary.LittleEndian.PutUint64(encoded[:], offset)
		if _, err := f.WriteAt(encoded[:meta.BytesPerBin], binOffset); err != nil {
			return serrors.Wrap("writing bin", err, "bin", bin)
		}
		return nil
	}
}
