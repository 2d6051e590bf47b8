package reader

import (
	"fmt"

	"github.com/nao1215/sqlmagick/deltalog"
	"github.com/nao1215/sqlmagick/domain/model"
)

// ReadDelta reads the current snapshot of a Delta table. Columns follow
// the table schema; partition values are taken from the log since they
// are not stored in the data files. A table without active files yields
// its columns and no records.
func ReadDelta(src model.ColumnarFolder) (*model.Table, error) {
	dir := src.Path()
	name := model.TableNameFor(src)

	snapshot, err := deltalog.Load(dir)
	if err != nil {
		return nil, err
	}
	schema, err := snapshot.Schema()
	if err != nil {
		return nil, err
	}

	header := model.NewHeader(schema.Names())
	partitioned := make(map[string]bool, len(snapshot.MetaData.PartitionColumns))
	for _, c := range snapshot.MetaData.PartitionColumns {
		partitioned[c] = true
	}

	var (
		records []model.Record
		nulls   []model.NullMask
	)
	for _, add := range snapshot.Files {
		path, err := deltalog.DataFilePath(dir, add)
		if err != nil {
			return nil, err
		}
		part, err := ReadParquetFile(path, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file %s: %w", add.Path, err)
		}

		index := make(map[string]int, part.NumColumns())
		for i, col := range part.Header() {
			index[col] = i
		}
		for r, row := range part.Records() {
			record := make(model.Record, len(header))
			mask := make(model.NullMask, len(header))
			for i, col := range header {
				if partitioned[col] {
					// An empty partition value is a NULL partition.
					if v := add.PartitionValues[col]; v != nil && *v != "" {
						record[i] = *v
					} else {
						mask[i] = true
					}
					continue
				}
				j, ok := index[col]
				if !ok {
					mask[i] = true
					continue
				}
				record[i] = row[j]
				mask[i] = part.IsNull(r, j)
			}
			records = append(records, record)
			nulls = append(nulls, mask)
		}
	}

	return model.NewTableWithTypes(name, header, records, schema.ColumnTypes()).WithNulls(nulls), nil
}
