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
	"sort"
	"sync"

	"github.com/pingcap/errors"

	"github.com/maplebase/maple/statistics"
)

// Catalog is the persistence collaborator of the statistics code. It
// stores definitions keyed by owning relation and one opaque payload
// blob per (definition, kind). A missing payload reads back as nil, and
// PutPayload replaces all of a definition's payloads atomically: a
// concurrent reader sees either all the old blobs or all the new ones.
type Catalog interface {
	CreateDefinition(def *statistics.StatsDefinition) error
	DropDefinition(defID int64) error
	// Definitions lists the definitions owned by the relation, ordered
	// by definition id.
	Definitions(relID int64) ([]*statistics.StatsDefinition, error)
	// Payload returns the stored blob for the definition and kind, nil
	// when absent.
	Payload(defID int64, kind statistics.StatsKind) ([]byte, error)
	// PutPayload atomically replaces the definition's payloads. A nil
	// value clears the kind's blob.
	PutPayload(defID int64, payloads map[statistics.StatsKind][]byte) error
	Close() error
}

// MemCatalog is the in-memory Catalog, for tests and embedded use.
type MemCatalog struct {
	mu       sync.RWMutex
	defs     map[int64]*statistics.StatsDefinition
	payloads map[int64]map[statistics.StatsKind][]byte
}

// NewMemCatalog creates an empty in-memory catalog.
func NewMemCatalog() *MemCatalog {
	return &MemCatalog{
		defs:     make(map[int64]*statistics.StatsDefinition),
		payloads: make(map[int64]map[statistics.StatsKind][]byte),
	}
}

// CreateDefinition implements Catalog.
func (c *MemCatalog) CreateDefinition(def *statistics.StatsDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.defs[def.ID]; ok {
		return errors.Errorf("statistics definition %d already exists", def.ID)
	}
	c.defs[def.ID] = def
	return nil
}

// DropDefinition implements Catalog.
func (c *MemCatalog) DropDefinition(defID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.defs, defID)
	delete(c.payloads, defID)
	return nil
}

// Definitions implements Catalog.
func (c *MemCatalog) Definitions(relID int64) ([]*statistics.StatsDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var defs []*statistics.StatsDefinition
	for _, def := range c.defs {
		if def.RelID == relID {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// Payload implements Catalog.
func (c *MemCatalog) Payload(defID int64, kind statistics.StatsKind) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.payloads[defID][kind], nil
}

// PutPayload implements Catalog.
func (c *MemCatalog) PutPayload(defID int64, payloads map[statistics.StatsKind][]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.defs[defID]; !ok {
		return errors.Errorf("statistics definition %d does not exist", defID)
	}
	stored := c.payloads[defID]
	if stored == nil {
		stored = make(map[statistics.StatsKind][]byte, len(payloads))
		c.payloads[defID] = stored
	}
	for kind, blob := range payloads {
		if blob == nil {
			delete(stored, kind)
			continue
		}
		stored[kind] = blob
	}
	return nil
}

// Close implements Catalog.
func (c *MemCatalog) Close() error {
	return nil
}
