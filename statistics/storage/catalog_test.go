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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maplebase/maple/statistics"
)

func testDefinition(id, relID int64, attrs ...int16) *statistics.StatsDefinition {
	return &statistics.StatsDefinition{
		ID:          id,
		RelID:       relID,
		Name:        "s_test",
		ColAttrNums: attrs,
		Kinds:       []statistics.StatsKind{statistics.StatsNDistinct, statistics.StatsDependencies},
	}
}

func runCatalogContract(t *testing.T, c Catalog) {
	require.NoError(t, c.CreateDefinition(testDefinition(2, 10, 1, 2)))
	require.NoError(t, c.CreateDefinition(testDefinition(1, 10, 1, 2, 3)))
	require.NoError(t, c.CreateDefinition(testDefinition(3, 11, 4, 5)))

	t.Run("duplicate id", func(t *testing.T) {
		require.Error(t, c.CreateDefinition(testDefinition(1, 10, 1, 2)))
	})

	t.Run("definitions by relation", func(t *testing.T) {
		defs, err := c.Definitions(10)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		require.Equal(t, int64(1), defs[0].ID)
		require.Equal(t, int64(2), defs[1].ID)
		require.Equal(t, []int16{1, 2, 3}, defs[0].ColAttrNums)

		defs, err = c.Definitions(99)
		require.NoError(t, err)
		require.Empty(t, defs)
	})

	t.Run("absent payload", func(t *testing.T) {
		blob, err := c.Payload(1, statistics.StatsNDistinct)
		require.NoError(t, err)
		require.Nil(t, blob)
	})

	t.Run("put and get payload", func(t *testing.T) {
		require.NoError(t, c.PutPayload(1, map[statistics.StatsKind][]byte{
			statistics.StatsNDistinct:    {0xAB, 0xCD},
			statistics.StatsDependencies: nil,
		}))
		blob, err := c.Payload(1, statistics.StatsNDistinct)
		require.NoError(t, err)
		require.Equal(t, []byte{0xAB, 0xCD}, blob)
		blob, err = c.Payload(1, statistics.StatsDependencies)
		require.NoError(t, err)
		require.Nil(t, blob)
	})

	t.Run("nil replaces stale payload", func(t *testing.T) {
		require.NoError(t, c.PutPayload(1, map[statistics.StatsKind][]byte{
			statistics.StatsNDistinct: nil,
		}))
		blob, err := c.Payload(1, statistics.StatsNDistinct)
		require.NoError(t, err)
		require.Nil(t, blob)
	})

	t.Run("payload for missing definition", func(t *testing.T) {
		require.Error(t, c.PutPayload(42, map[statistics.StatsKind][]byte{
			statistics.StatsNDistinct: {1},
		}))
	})

	t.Run("drop definition", func(t *testing.T) {
		require.NoError(t, c.PutPayload(3, map[statistics.StatsKind][]byte{
			statistics.StatsNDistinct: {1, 2, 3},
		}))
		require.NoError(t, c.DropDefinition(3))
		defs, err := c.Definitions(11)
		require.NoError(t, err)
		require.Empty(t, defs)
		blob, err := c.Payload(3, statistics.StatsNDistinct)
		require.NoError(t, err)
		require.Nil(t, blob)
	})
}

func TestMemCatalog(t *testing.T) {
	c := NewMemCatalog()
	defer func() { require.NoError(t, c.Close()) }()
	runCatalogContract(t, c)
}

func TestPebbleCatalog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "stats")
	c, err := OpenPebbleCatalog(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()
	runCatalogContract(t, c)
}

func TestPebbleCatalogPersistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "stats")
	c, err := OpenPebbleCatalog(dir)
	require.NoError(t, err)
	require.NoError(t, c.CreateDefinition(testDefinition(1, 10, 1, 2)))
	require.NoError(t, c.PutPayload(1, map[statistics.StatsKind][]byte{
		statistics.StatsNDistinct: {0x01, 0x02, 0x03},
	}))
	require.NoError(t, c.Close())

	c, err = OpenPebbleCatalog(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()
	defs, err := c.Definitions(10)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	blob, err := c.Payload(1, statistics.StatsNDistinct)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, blob)
}
