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

package types

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/pingcap/errors"
)

// Kind constants for Datum.
const (
	KindNull byte = iota
	KindInt64
	KindUint64
	KindFloat64
	KindString
	KindBytes
)

// Datum is a value of one of the supported kinds. The zero value is the
// null datum.
type Datum struct {
	k byte
	i int64
	b []byte
}

// Kind gets the kind of the datum.
func (d *Datum) Kind() byte {
	return d.k
}

// IsNull checks if datum is null.
func (d *Datum) IsNull() bool {
	return d.k == KindNull
}

// GetInt64 gets int64 value.
func (d *Datum) GetInt64() int64 {
	return d.i
}

// SetInt64 sets int64 value.
func (d *Datum) SetInt64(i int64) {
	d.k = KindInt64
	d.i = i
}

// GetUint64 gets uint64 value.
func (d *Datum) GetUint64() uint64 {
	return uint64(d.i)
}

// SetUint64 sets uint64 value.
func (d *Datum) SetUint64(u uint64) {
	d.k = KindUint64
	d.i = int64(u)
}

// GetFloat64 gets float64 value.
func (d *Datum) GetFloat64() float64 {
	return math.Float64frombits(uint64(d.i))
}

// SetFloat64 sets float64 value.
func (d *Datum) SetFloat64(f float64) {
	d.k = KindFloat64
	d.i = int64(math.Float64bits(f))
}

// GetString gets string value.
func (d *Datum) GetString() string {
	return string(d.b)
}

// SetString sets string value.
func (d *Datum) SetString(s string) {
	d.k = KindString
	d.b = []byte(s)
}

// GetBytes gets bytes value.
func (d *Datum) GetBytes() []byte {
	return d.b
}

// SetBytes sets bytes value.
func (d *Datum) SetBytes(b []byte) {
	d.k = KindBytes
	d.b = b
}

// NewDatum returns the null datum.
func NewDatum() Datum {
	return Datum{}
}

// NewIntDatum creates a new Datum from an int64 value.
func NewIntDatum(i int64) (d Datum) {
	d.SetInt64(i)
	return d
}

// NewUintDatum creates a new Datum from an uint64 value.
func NewUintDatum(u uint64) (d Datum) {
	d.SetUint64(u)
	return d
}

// NewFloat64Datum creates a new Datum from a float64 value.
func NewFloat64Datum(f float64) (d Datum) {
	d.SetFloat64(f)
	return d
}

// NewStringDatum creates a new Datum from a string.
func NewStringDatum(s string) (d Datum) {
	d.SetString(s)
	return d
}

// NewBytesDatum creates a new Datum from a byte slice.
func NewBytesDatum(b []byte) (d Datum) {
	d.SetBytes(b)
	return d
}

// String implements fmt.Stringer, for logging and debugging only.
func (d Datum) String() string {
	switch d.k {
	case KindNull:
		return "NULL"
	case KindInt64:
		return fmt.Sprintf("%d", d.GetInt64())
	case KindUint64:
		return fmt.Sprintf("%d", d.GetUint64())
	case KindFloat64:
		return fmt.Sprintf("%g", d.GetFloat64())
	case KindString:
		return d.GetString()
	case KindBytes:
		return fmt.Sprintf("%X", d.b)
	}
	return fmt.Sprintf("<unknown kind %d>", d.k)
}

// Compare compares the datum with another one, returning an int which
// is negative, zero or positive per the usual convention. A null datum
// orders before any non-null value. Numeric kinds compare with each
// other; any other cross-kind comparison is an error, which in practice
// means the caller mixed up column types.
func (d *Datum) Compare(ad *Datum) (int, error) {
	if d.k == KindNull {
		if ad.k == KindNull {
			return 0, nil
		}
		return -1, nil
	}
	if ad.k == KindNull {
		return 1, nil
	}
	switch ad.k {
	case KindInt64:
		return d.compareInt64(ad.GetInt64())
	case KindUint64:
		return d.compareUint64(ad.GetUint64())
	case KindFloat64:
		return d.compareFloat64(ad.GetFloat64())
	case KindString:
		return d.compareString(ad.GetString())
	case KindBytes:
		return d.compareBytes(ad.GetBytes())
	}
	return 0, errors.Errorf("can not compare kind %d with kind %d", d.k, ad.k)
}

func (d *Datum) compareInt64(i int64) (int, error) {
	switch d.k {
	case KindInt64:
		return compareOrdered(d.GetInt64(), i), nil
	case KindUint64:
		if i < 0 || d.GetUint64() > math.MaxInt64 {
			return 1, nil
		}
		return compareOrdered(d.GetInt64(), i), nil
	case KindFloat64:
		return compareOrdered(d.GetFloat64(), float64(i)), nil
	}
	return 0, errors.Errorf("can not compare kind %d with int64", d.k)
}

func (d *Datum) compareUint64(u uint64) (int, error) {
	switch d.k {
	case KindInt64:
		if d.GetInt64() < 0 || u > math.MaxInt64 {
			return -1, nil
		}
		return compareOrdered(d.GetUint64(), u), nil
	case KindUint64:
		return compareOrdered(d.GetUint64(), u), nil
	case KindFloat64:
		return compareOrdered(d.GetFloat64(), float64(u)), nil
	}
	return 0, errors.Errorf("can not compare kind %d with uint64", d.k)
}

func (d *Datum) compareFloat64(f float64) (int, error) {
	switch d.k {
	case KindInt64:
		return compareOrdered(float64(d.GetInt64()), f), nil
	case KindUint64:
		return compareOrdered(float64(d.GetUint64()), f), nil
	case KindFloat64:
		return compareOrdered(d.GetFloat64(), f), nil
	}
	return 0, errors.Errorf("can not compare kind %d with float64", d.k)
}

func (d *Datum) compareString(s string) (int, error) {
	switch d.k {
	case KindString, KindBytes:
		return strings.Compare(string(d.b), s), nil
	}
	return 0, errors.Errorf("can not compare kind %d with string", d.k)
}

func (d *Datum) compareBytes(b []byte) (int, error) {
	switch d.k {
	case KindString, KindBytes:
		return bytes.Compare(d.b, b), nil
	}
	return 0, errors.Errorf("can not compare kind %d with bytes", d.k)
}

func compareOrdered[T int64 | uint64 | float64](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// ToFloat64 converts the datum to float64 when it holds a numeric kind.
func (d Datum) ToFloat64() (float64, bool) {
	switch d.k {
	case KindInt64:
		return float64(d.GetInt64()), true
	case KindUint64:
		return float64(d.GetUint64()), true
	case KindFloat64:
		return d.GetFloat64(), true
	}
	return 0, false
}
