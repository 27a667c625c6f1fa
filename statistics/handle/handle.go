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

package handle

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"go.uber.org/zap"

	"github.com/maplebase/maple/config"
	"github.com/maplebase/maple/expression"
	"github.com/maplebase/maple/statistics"
	"github.com/maplebase/maple/statistics/storage"
	"github.com/maplebase/maple/util/logutil"
)

// Handle bridges the statistics computations to the catalog: it builds
// extended statistics from analyze samples, persists them, and serves
// them to the planner through a copy-on-write cache.
type Handle struct {
	catalog storage.Catalog

	// mu serializes cache writers; readers go through the atomic value
	// without locking.
	mu    sync.Mutex
	cache atomic.Value // *statsCache
}

// statsCache is an immutable snapshot. Writers copy, modify and swap.
type statsCache struct {
	tables   map[int64]*statistics.Collection
	extended map[int64][]*statistics.StatsObject
}

func (sc *statsCache) clone() *statsCache {
	next := &statsCache{
		tables:   make(map[int64]*statistics.Collection, len(sc.tables)),
		extended: make(map[int64][]*statistics.StatsObject, len(sc.extended)),
	}
	for id, coll := range sc.tables {
		next.tables[id] = coll
	}
	for id, objs := range sc.extended {
		next.extended[id] = objs
	}
	return next
}

// NewHandle creates a Handle over the given catalog.
func NewHandle(catalog storage.Catalog) *Handle {
	h := &Handle{catalog: catalog}
	h.cache.Store(&statsCache{
		tables:   make(map[int64]*statistics.Collection),
		extended: make(map[int64][]*statistics.StatsObject),
	})
	return h
}

func (h *Handle) loadCache() *statsCache {
	return h.cache.Load().(*statsCache)
}

// UpdateTableStats installs the per-column statistics of one relation,
// as produced by analyze.
func (h *Handle) UpdateTableStats(coll *statistics.Collection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.loadCache().clone()
	next.tables[coll.RelID] = coll
	h.cache.Store(next)
}

// GetTableStats returns the relation's statistics, falling back to
// pseudo statistics for a never-analyzed relation.
func (h *Handle) GetTableStats(relID int64) *statistics.Collection {
	if coll, ok := h.loadCache().tables[relID]; ok {
		return coll
	}
	return statistics.PseudoCollection(relID)
}

// BuildExtendedStats recomputes every extended statistics object
// defined on the relation from the given sample and atomically replaces
// the stored payloads. A kind the definition does not request is
// cleared rather than left stale.
func (h *Handle) BuildExtendedStats(relID int64, sample *statistics.Sample) error {
	if !config.GetGlobalConfig().Stats.EnableExtended {
		return nil
	}
	defs, err := h.catalog.Definitions(relID)
	if err != nil {
		return errors.Trace(err)
	}
	for _, def := range defs {
		payloads := map[statistics.StatsKind][]byte{
			statistics.StatsNDistinct:    nil,
			statistics.StatsDependencies: nil,
		}
		if def.HasKind(statistics.StatsNDistinct) {
			nd := statistics.BuildNDistinct(sample, resolveColumnStats(def, sample))
			payloads[statistics.StatsNDistinct] = statistics.EncodeNDistinct(nd)
		}
		if err := h.catalog.PutPayload(def.ID, payloads); err != nil {
			return errors.Trace(err)
		}
		logutil.BgLogger().Info("built extended statistics",
			zap.Int64("relID", relID),
			zap.Int64("defID", def.ID),
			zap.String("name", def.Name),
			zap.Int("columns", len(def.ColAttrNums)))
	}
	h.invalidateExtended(relID)
	return nil
}

// resolveColumnStats maps the definition's attribute numbers to their
// positions in the sample. Definitions are kept consistent with live
// columns by the schema layer, so a miss is a bug, not a runtime
// condition.
func resolveColumnStats(def *statistics.StatsDefinition, sample *statistics.Sample) []int {
	colIdxs := make([]int, 0, len(def.ColAttrNums))
	for _, attnum := range def.ColAttrNums {
		idx := sample.ColumnIndex(attnum)
		if idx < 0 {
			panic(fmt.Sprintf("statistics definition %d references attribute %d missing from the sample", def.ID, attnum))
		}
		colIdxs = append(colIdxs, idx)
	}
	return colIdxs
}

// ExtendedStats implements statistics.ExtStatsReader: the decoded
// statistics objects of one relation, served from the cache once
// loaded.
func (h *Handle) ExtendedStats(relID int64) ([]*statistics.StatsObject, error) {
	if objs, ok := h.loadCache().extended[relID]; ok {
		return objs, nil
	}
	objs, err := h.loadExtendedStats(relID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.loadCache().clone()
	next.extended[relID] = objs
	h.cache.Store(next)
	return objs, nil
}

func (h *Handle) loadExtendedStats(relID int64) ([]*statistics.StatsObject, error) {
	defs, err := h.catalog.Definitions(relID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	objs := make([]*statistics.StatsObject, 0, len(defs))
	for _, def := range defs {
		obj := &statistics.StatsObject{Def: def}
		if def.HasKind(statistics.StatsNDistinct) {
			blob, err := h.loadPayload(def.ID, statistics.StatsNDistinct)
			if err != nil {
				return nil, errors.Trace(err)
			}
			if obj.NDistinct, err = statistics.DecodeNDistinct(blob); err != nil {
				return nil, errors.Trace(err)
			}
		}
		if def.HasKind(statistics.StatsDependencies) {
			blob, err := h.loadPayload(def.ID, statistics.StatsDependencies)
			if err != nil {
				return nil, errors.Trace(err)
			}
			if obj.Dependencies, err = statistics.DecodeDependencies(blob); err != nil {
				return nil, errors.Trace(err)
			}
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func (h *Handle) loadPayload(defID int64, kind statistics.StatsKind) ([]byte, error) {
	failpoint.Inject("injectExtStatsLoadErr", func() {
		failpoint.Return(nil, errors.New("gofail extended statistics load error"))
	})
	return h.catalog.Payload(defID, kind)
}

func (h *Handle) invalidateExtended(relID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.loadCache().clone()
	delete(next.extended, relID)
	h.cache.Store(next)
}

// EstimateConjunctionSelectivity estimates the fraction of the
// relation's rows satisfying the conjunction of clauses, consulting
// extended statistics when they apply.
func (h *Handle) EstimateConjunctionSelectivity(relID int64, clauses []expression.Expression) float64 {
	est := statistics.NewEstimator(h)
	return est.ClauseListSelectivity(h.GetTableStats(relID), clauses)
}
