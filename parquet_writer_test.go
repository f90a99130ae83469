package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qicorr/pkg/databox"
)

func TestWriteGroupParquet(t *testing.T) {
	sink := databox.NewSink(2)
	re := sink.AcquireInt64("g1_real", 3)
	im := sink.AcquireInt64("g1_imag", 3)
	states := sink.AcquireWords("states_cell0", 2)
	re.Int64s[0] = 42
	re.Int64s[2] = -7
	im.Int64s[1] = 13
	states.Words[0] = 0xdeadbeef

	sink.FinishGroup("g1-fft", re, im, states)
	sink.Close()
	g := <-sink.Groups()

	base := filepath.Join(t.TempDir(), "run")
	params := []uint32{4, 2, 0, 8, 1}
	name, err := writeGroupParquet(base, "g1-fft", params, 0, g)
	require.NoError(t, err)
	assert.Equal(t, base+"_g1-fft_0000.parquet", name)

	rows, err := parquet.ReadFile[ResultRow](name)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, ResultRow{Box: "g1_real", Index: 0, Value: 42}, rows[0])
	assert.Equal(t, ResultRow{Box: "g1_real", Index: 2, Value: -7}, rows[2])
	assert.Equal(t, ResultRow{Box: "g1_imag", Index: 1, Value: 13}, rows[4])
	assert.Equal(t, ResultRow{Box: "states_cell0", Index: 0, Value: 0xdeadbeef}, rows[6])

	sidecar, err := os.ReadFile(name + ".json")
	require.NoError(t, err)
	var meta ResultMetadata
	require.NoError(t, json.Unmarshal(sidecar, &meta))
	assert.Equal(t, "g1-fft", meta.Task)
	assert.Equal(t, params, meta.Params)
	assert.Equal(t, []string{"g1_real", "g1_imag", "states_cell0"}, meta.Boxes)
	assert.NotEmpty(t, meta.Timestamp)
}
