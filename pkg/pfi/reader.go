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

package pfi

import (
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"

	"github.com/rwails/tempest/pkg/private/serrors"
)

// Reader serves endpoint-pair lookups over a memory-mapped index file.
type Reader struct {
	meta Meta
	data []byte
}

// OpenReader memory-maps the named index file. Close releases the
// mapping.
func OpenReader(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, serrors.Wrap("opening index file", err, "file", filename)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, serrors.Wrap("stat index file", err, "file", filename)
	}
	if info.Size() < headerSize {
		return nil, serrors.New("index file too small",
			"file", filename, "size", info.Size())
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()),
		unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, serrors.Wrap("mmap index file", err, "file", filename)
	}

	meta := Meta{
		HeaderSize:  binary.LittleEndian.Uint64(data[0:]),
		NumBins:     binary.LittleEndian.Uint64(data[8:]),
		BytesPerBin: binary.LittleEndian.Uint64(data[16:]),
	}
	if meta.FileSize() != uint64(info.Size()) {
		unix.Munmap(data)
		return nil, serrors.New("index header disagrees with file size",
			"file", filename, "header_size", meta.FileSize(), "file_size", info.Size())
	}
	return &Reader{meta: meta, data: data}, nil
}

// Meta returns the parsed index header.
func (r *Reader) Meta() Meta {
	return r.meta
}

// Lookup returns the candidate byte offsets for the path with the given
// endpoints: every occupied slot on the probe sequence up to the first
// empty one. Duplicate keys and hash collisions both contribute
// candidates; the caller validates them against the path file.
func (r *Reader) Lookup(src, dst string) []uint64 {
	hash := HashString(src + dst)
	var offsets []uint64
	for i := uint64(0); i < r.meta.NumBins; i++ {
		bin := r.meta.binIdx(hash, i)
		slot := r.slot(bin)
		if slot[r.meta.BytesPerBin-1] == 0xFF {
			break
		}
		var decoded [8]byte
		copy(decoded[:], slot)
		offsets = append(offsets, binary.LittleEndian.Uint64(decoded[:]))
	}
	return offsets
}

func (r *Reader) slot(bin uint64) []byte {
	start := r.meta.binOffset(bin)
	return r.data[start : start+int64(r.meta.BytesPerBin)]
}

// Close unmaps the index.
func (r *Reader) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
