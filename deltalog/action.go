// Package deltalog reads and writes the transaction log of a Delta table.
//
// A Delta table is a directory holding Parquet data files and a
// _delta_log directory of numbered JSON commits. Each commit file has one
// action per line. Replaying the commits in order yields the snapshot: the
// table metadata and the set of data files that are currently active.
// Parquet checkpoints hold the state at one version, so replay can start
// there.
//
// Only what a plain reader and a single-commit writer need is supported.
// V2 checkpoints, column mapping and deletion vectors are rejected.
package deltalog

// Action is one line of a commit file. Exactly one field is set.
type Action struct {
	Add        *Add           `json:"add,omitempty"`
	Remove     *Remove        `json:"remove,omitempty"`
	MetaData   *MetaData      `json:"metaData,omitempty"`
	Protocol   *Protocol      `json:"protocol,omitempty"`
	CommitInfo map[string]any `json:"commitInfo,omitempty"`
}

// Add makes a data file part of the table.
type Add struct {
	// Path is relative to the table root and URL encoded.
	Path             string             `json:"path"`
	PartitionValues  map[string]*string `json:"partitionValues"`
	Size             int64              `json:"size"`
	ModificationTime int64              `json:"modificationTime"`
	DataChange       bool               `json:"dataChange"`
	Stats            string             `json:"stats,omitempty"`
	DeletionVector   map[string]any     `json:"deletionVector,omitempty"`
}

// Remove drops a data file from the table.
type Remove struct {
	Path              string `json:"path"`
	DeletionTimestamp int64  `json:"deletionTimestamp,omitempty"`
	DataChange        bool   `json:"dataChange"`
}

// Format names the data file format. It is always parquet.
type Format struct {
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options"`
}

// MetaData describes the table.
type MetaData struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Format           Format            `json:"format"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns"`
	Configuration    map[string]string `json:"configuration"`
	CreatedTime      int64             `json:"createdTime,omitempty"`
}

// Protocol is the reader and writer protocol required by the table.
type Protocol struct {
	MinReaderVersion int      `json:"minReaderVersion"`
	MinWriterVersion int      `json:"minWriterVersion"`
	ReaderFeatures   []string `json:"readerFeatures,omitempty"`
	WriterFeatures   []string `json:"writerFeatures,omitempty"`
}
