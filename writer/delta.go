package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/sqlmagick/deltalog"
	"github.com/nao1215/sqlmagick/domain/model"
)

// ErrTableExists is returned when a Delta table already exists at the
// export target.
var ErrTableExists = errors.New("delta table already exists")

// WriteDelta creates a new Delta table at dir holding t as a single part
// file. An existing table is never modified.
func WriteDelta(dir string, t *model.Table) error {
	if deltalog.Exists(dir) {
		return fmt.Errorf("%w: %s", ErrTableExists, dir)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create delta table directory: %w", err)
	}

	now := time.Now()
	fileName := deltalog.DataFileName()
	dataPath := filepath.Join(dir, fileName)
	size, err := WriteParquet(dataPath, t)
	if err != nil {
		return err
	}

	add := deltalog.Add{
		Path:             fileName,
		Size:             size,
		ModificationTime: now.UnixMilli(),
		DataChange:       true,
		Stats:            fmt.Sprintf(`{"numRecords":%d}`, t.NumRows()),
	}
	schema := deltalog.NewSchema(ParquetColumns(t))
	name := model.TableNameFor(model.NewColumnarFolder(dir))
	actions := deltalog.CreateTableActions(name, schema, []deltalog.Add{add}, now)

	if err := deltalog.WriteCommit(dir, 0, actions); err != nil {
		_ = os.Remove(dataPath)
		if errors.Is(err, deltalog.ErrVersionExists) {
			return fmt.Errorf("%w: %s", ErrTableExists, dir)
		}
		return err
	}
	return nil
}
