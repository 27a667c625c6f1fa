// Copyright 2024 Maplebase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statistics

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/pingcap/errors"
)

// The ndistinct payload is a little-endian length-prefixed blob:
//
//	[uint32 total length, prefix included]
//	[uint32 magic]
//	[uint32 format type]
//	[uint32 item count]
//	item count times:
//	  [float64 ndistinct]
//	  [int32 attribute count, >= 2]
//	  attribute count times: [int16 attribute number]
//
// The layout is the only bit-exact external contract of this package
// and must stay byte-stable for a given format type.
const (
	ndistinctMagic     uint32 = 0xA352BFA4
	ndistinctTypeBasic uint32 = 1

	// length prefix + magic + type + item count
	ndistinctHeaderSize = 4 * 4
	// ndistinct + attribute count + at least two attribute numbers
	ndistinctMinItemSize = 8 + 4 + 2*2
)

// EncodeNDistinct serializes the coefficient set in build order, each
// item's attribute set as an explicit count plus the sorted attribute
// numbers.
func EncodeNDistinct(nd *NDistinct) []byte {
	size := ndistinctHeaderSize
	for i := range nd.Items {
		size += 8 + 4 + 2*len(nd.Items[i].AttrNums)
	}

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	buf = binary.LittleEndian.AppendUint32(buf, ndistinctMagic)
	buf = binary.LittleEndian.AppendUint32(buf, ndistinctTypeBasic)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(nd.Items)))
	for i := range nd.Items {
		item := &nd.Items[i]
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(item.NDistinct))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(len(item.AttrNums))))
		attrs := make([]int16, len(item.AttrNums))
		copy(attrs, item.AttrNums)
		sort.Slice(attrs, func(a, b int) bool { return attrs[a] < attrs[b] })
		for _, attr := range attrs {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(attr))
		}
	}
	return buf
}

// DecodeNDistinct deserializes a stored coefficient set. A nil blob is
// the defined "no object stored" case and decodes to (nil, nil). Any
// size, magic or type mismatch is a corruption error: the blob is never
// partially trusted.
func DecodeNDistinct(data []byte) (*NDistinct, error) {
	if data == nil {
		return nil, nil
	}
	if len(data) < ndistinctHeaderSize {
		return nil, errors.Errorf("invalid ndistinct size %d, at least %d expected", len(data), ndistinctHeaderSize)
	}
	if declared := binary.LittleEndian.Uint32(data); int(declared) != len(data) {
		return nil, errors.Errorf("invalid ndistinct length header %d, blob has %d bytes", declared, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[4:]); magic != ndistinctMagic {
		return nil, errors.Errorf("invalid ndistinct magic %08x (expected %08x)", magic, ndistinctMagic)
	}
	if typ := binary.LittleEndian.Uint32(data[8:]); typ != ndistinctTypeBasic {
		return nil, errors.Errorf("invalid ndistinct type %d (expected %d)", typ, ndistinctTypeBasic)
	}
	nitems := binary.LittleEndian.Uint32(data[12:])

	// check the minimum possible size against the declared item count
	// before trusting any per-item field
	if minSize := ndistinctHeaderSize + int(nitems)*ndistinctMinItemSize; len(data) < minSize {
		return nil, errors.Errorf("invalid ndistinct size %d for %d items, at least %d expected", len(data), nitems, minSize)
	}

	nd := &NDistinct{Items: make([]NDistinctItem, 0, nitems)}
	cursor := ndistinctHeaderSize
	for i := 0; i < int(nitems); i++ {
		if len(data)-cursor < ndistinctMinItemSize {
			return nil, errors.Errorf("truncated ndistinct blob: item %d starts at %d of %d", i, cursor, len(data))
		}
		item := NDistinctItem{
			NDistinct: math.Float64frombits(binary.LittleEndian.Uint64(data[cursor:])),
		}
		nattrs := int32(binary.LittleEndian.Uint32(data[cursor+8:]))
		if nattrs < 2 || nattrs > MaxDimensions {
			return nil, errors.Errorf("invalid ndistinct item %d attribute count %d", i, nattrs)
		}
		cursor += 12
		if len(data)-cursor < 2*int(nattrs) {
			return nil, errors.Errorf("truncated ndistinct blob: item %d attributes start at %d of %d", i, cursor, len(data))
		}
		item.AttrNums = make([]int16, 0, nattrs)
		for j := 0; j < int(nattrs); j++ {
			item.AttrNums = append(item.AttrNums, int16(binary.LittleEndian.Uint16(data[cursor:])))
			cursor += 2
		}
		nd.Items = append(nd.Items, item)
	}

	// the items must account for the whole blob
	if cursor != len(data) {
		return nil, errors.Errorf("corrupt ndistinct blob: %d trailing bytes after %d items", len(data)-cursor, nitems)
	}
	return nd, nil
}
