// Package datafile serializes columnar record batches into the physical
// files the warehouse stores, and names them.
package datafile

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/google/uuid"
	"github.com/koustreak/IceFlow/internal/errs"
)

// ContentType is the MIME type data files are uploaded with.
const ContentType = "application/octet-stream"

// EncodeParquet serializes one record batch into a Parquet file. Field-id
// metadata on the Arrow schema is stamped into the Parquet footer, tying
// columns back to the table schema.
func EncodeParquet(batch arrow.Record) ([]byte, error) {
	var buf bytes.Buffer

	w, err := pqarrow.NewFileWriter(
		batch.Schema(),
		&buf,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy)),
		pqarrow.DefaultWriterProps(),
	)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindWriteFailed, "failed to open parquet writer", err)
	}

	if err := w.Write(batch); err != nil {
		w.Close()
		return nil, errs.Wrap(errs.ErrKindWriteFailed, "failed to write parquet batch", err)
	}
	if err := w.Close(); err != nil {
		return nil, errs.Wrap(errs.ErrKindWriteFailed, "failed to finalize parquet file", err)
	}

	return buf.Bytes(), nil
}

// Key returns a unique object key for one data file under the table's
// location prefix.
func Key(tablePrefix string) string {
	return fmt.Sprintf("%s/data/%s.parquet", tablePrefix, uuid.NewString())
}

// NewSnapshotID returns a random positive snapshot identifier.
func NewSnapshotID() int64 {
	id := rand.Int63()
	if id == 0 {
		id = time.Now().UnixNano()
	}
	return id
}
