package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/segmentio/parquet-go"

	"github.com/qicorr/pkg/databox"
)

// ResultRow is one value of one result buffer. A group can mix buffer kinds
// (correlation sums and packed state words), so rows carry the box name and
// every value widened to int64.
type ResultRow struct {
	Box   string `parquet:"box"`
	Index int32  `parquet:"index"`
	Value int64  `parquet:"value"`
}

// NewResultWriter creates a parquet writer with our schema; the task name and
// its raw parameter words travel in the file metadata so a result file is
// self-describing.
func NewResultWriter(w io.Writer, taskName string, params []uint32) *parquet.GenericWriter[ResultRow] {
	paramStr, _ := json.Marshal(params)
	return parquet.NewGenericWriter[ResultRow](w,
		parquet.KeyValueMetadata("task", taskName),
		parquet.KeyValueMetadata("params", string(paramStr)),
	)
}

// writeGroupParquet stores one published group as <base>_<task>_<seq>.parquet
// plus a JSON sidecar with the run metadata. It returns the parquet filename.
func writeGroupParquet(base, taskName string, params []uint32, seq int, g databox.Group) (string, error) {
	name := fmt.Sprintf("%s_%s_%04d.parquet", base, taskName, seq)
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}

	w := NewResultWriter(f, taskName, params)
	if _, err := w.Write(groupRows(g)); err != nil {
		f.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	if err := writeSidecar(name+".json", taskName, params, g); err != nil {
		return "", err
	}
	return name, nil
}

func groupRows(g databox.Group) []ResultRow {
	var rows []ResultRow
	for _, b := range g.Boxes {
		switch {
		case b.Int64s != nil:
			for i, v := range b.Int64s {
				rows = append(rows, ResultRow{Box: b.Name(), Index: int32(i), Value: v})
			}
		case b.Words != nil:
			for i, v := range b.Words {
				rows = append(rows, ResultRow{Box: b.Name(), Index: int32(i), Value: int64(v)})
			}
		}
	}
	return rows
}

func writeSidecar(name, taskName string, params []uint32, g databox.Group) error {
	boxes := make([]string, 0, len(g.Boxes))
	for _, b := range g.Boxes {
		boxes = append(boxes, b.Name())
	}
	meta := ResultMetadata{
		Timestamp: time.Now().Format(time.RFC3339),
		Task:      taskName,
		Params:    params,
		Boxes:     boxes,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0644)
}
