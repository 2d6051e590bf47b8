package deltalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	writerReaderVersion = 1
	writerWriterVersion = 2
	engineInfo          = "sqlmagick"
)

// DataFileName returns a new unique name for a part file.
func DataFileName() string {
	return fmt.Sprintf("part-00000-%s-c000.snappy.parquet", uuid.NewString())
}

// CreateTableActions returns the actions of commit 0 for a new,
// unpartitioned table made of files.
func CreateTableActions(name string, schema Schema, files []Add, now time.Time) []Action {
	millis := now.UnixMilli()
	actions := []Action{
		{CommitInfo: map[string]any{
			"timestamp":     millis,
			"operation":     "CREATE TABLE AS SELECT",
			"engineInfo":    engineInfo,
			"isBlindAppend": true,
		}},
		{Protocol: &Protocol{
			MinReaderVersion: writerReaderVersion,
			MinWriterVersion: writerWriterVersion,
		}},
		{MetaData: &MetaData{
			ID:               uuid.NewString(),
			Name:             name,
			Format:           Format{Provider: "parquet", Options: map[string]string{}},
			SchemaString:     schema.String(),
			PartitionColumns: []string{},
			Configuration:    map[string]string{},
			CreatedTime:      millis,
		}},
	}
	for i := range files {
		add := files[i]
		if add.PartitionValues == nil {
			add.PartitionValues = map[string]*string{}
		}
		actions = append(actions, Action{Add: &add})
	}
	return actions
}
