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

package storage

import (
	"encoding/binary"
	"encoding/json"

	"github.com/cockroachdb/pebble"
	"github.com/pingcap/errors"

	"github.com/maplebase/maple/statistics"
)

// Key layout, all ids big-endian so a relation's definitions form one
// contiguous key range:
//
//	'd' | relID uint64 | defID uint64          -> JSON definition
//	'p' | defID uint64 | kind byte             -> payload blob
const (
	pebbleKeyDef     = 'd'
	pebbleKeyPayload = 'p'
)

// PebbleCatalog is the durable Catalog, one pebble store per database
// instance. Payload replacement goes through a synced batch, so a crash
// never leaves a definition with a mix of old and new blobs.
type PebbleCatalog struct {
	db *pebble.DB
}

// OpenPebbleCatalog opens (or creates) the catalog store at dir.
func OpenPebbleCatalog(dir string) (*PebbleCatalog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &PebbleCatalog{db: db}, nil
}

func defKey(relID, defID int64) []byte {
	key := make([]byte, 1+8+8)
	key[0] = pebbleKeyDef
	binary.BigEndian.PutUint64(key[1:], uint64(relID))
	binary.BigEndian.PutUint64(key[9:], uint64(defID))
	return key
}

func defKeyRange(relID int64) (lower, upper []byte) {
	lower = make([]byte, 1+8)
	lower[0] = pebbleKeyDef
	binary.BigEndian.PutUint64(lower[1:], uint64(relID))
	upper = make([]byte, 1+8)
	upper[0] = pebbleKeyDef
	binary.BigEndian.PutUint64(upper[1:], uint64(relID)+1)
	return lower, upper
}

func payloadKey(defID int64, kind statistics.StatsKind) []byte {
	key := make([]byte, 1+8+1)
	key[0] = pebbleKeyPayload
	binary.BigEndian.PutUint64(key[1:], uint64(defID))
	key[9] = byte(kind)
	return key
}

// CreateDefinition implements Catalog.
func (c *PebbleCatalog) CreateDefinition(def *statistics.StatsDefinition) error {
	key := defKey(def.RelID, def.ID)
	_, closer, err := c.db.Get(key)
	if err == nil {
		closer.Close()
		return errors.Errorf("statistics definition %d already exists", def.ID)
	}
	if err != pebble.ErrNotFound {
		return errors.Trace(err)
	}
	value, err := json.Marshal(def)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.db.Set(key, value, pebble.Sync))
}

// DropDefinition implements Catalog.
func (c *PebbleCatalog) DropDefinition(defID int64) error {
	def, err := c.findDefinition(defID)
	if err != nil || def == nil {
		return errors.Trace(err)
	}
	batch := c.db.NewBatch()
	if err := batch.Delete(defKey(def.RelID, def.ID), nil); err != nil {
		return errors.Trace(err)
	}
	for _, kind := range []statistics.StatsKind{statistics.StatsNDistinct, statistics.StatsDependencies} {
		if err := batch.Delete(payloadKey(defID, kind), nil); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(batch.Commit(pebble.Sync))
}

// Definitions implements Catalog.
func (c *PebbleCatalog) Definitions(relID int64) ([]*statistics.StatsDefinition, error) {
	lower, upper := defKeyRange(relID)
	iter, err := c.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer iter.Close()

	var defs []*statistics.StatsDefinition
	for iter.First(); iter.Valid(); iter.Next() {
		def := &statistics.StatsDefinition{}
		if err := json.Unmarshal(iter.Value(), def); err != nil {
			return nil, errors.Errorf("corrupt statistics definition at key %x: %v", iter.Key(), err)
		}
		defs = append(defs, def)
	}
	return defs, errors.Trace(iter.Error())
}

// Payload implements Catalog.
func (c *PebbleCatalog) Payload(defID int64, kind statistics.StatsKind) ([]byte, error) {
	value, closer, err := c.db.Get(payloadKey(defID, kind))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	blob := make([]byte, len(value))
	copy(blob, value)
	return blob, errors.Trace(closer.Close())
}

// PutPayload implements Catalog.
func (c *PebbleCatalog) PutPayload(defID int64, payloads map[statistics.StatsKind][]byte) error {
	def, err := c.findDefinition(defID)
	if err != nil {
		return errors.Trace(err)
	}
	if def == nil {
		return errors.Errorf("statistics definition %d does not exist", defID)
	}
	batch := c.db.NewBatch()
	for kind, blob := range payloads {
		key := payloadKey(defID, kind)
		if blob == nil {
			err = batch.Delete(key, nil)
		} else {
			err = batch.Set(key, blob, nil)
		}
		if err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(batch.Commit(pebble.Sync))
}

// findDefinition scans the definition keyspace for the given id. The
// definition space is tiny (a handful per relation), so a scan keeps
// the schema simpler than a secondary index.
func (c *PebbleCatalog) findDefinition(defID int64) (*statistics.StatsDefinition, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{pebbleKeyDef},
		UpperBound: []byte{pebbleKeyDef + 1},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		def := &statistics.StatsDefinition{}
		if err := json.Unmarshal(iter.Value(), def); err != nil {
			return nil, errors.Errorf("corrupt statistics definition at key %x: %v", iter.Key(), err)
		}
		if def.ID == defID {
			return def, nil
		}
	}
	return nil, errors.Trace(iter.Error())
}

// Close implements Catalog.
func (c *PebbleCatalog) Close() error {
	return errors.Trace(c.db.Close())
}
