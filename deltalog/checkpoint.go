package deltalog

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	json "github.com/goccy/go-json"
)

// checkpointFilePattern matches classic checkpoints, both single file
// (00000000000000000010.checkpoint.parquet) and multi-part
// (00000000000000000010.checkpoint.0000000001.0000000002.parquet).
var checkpointFilePattern = regexp.MustCompile(`^(\d{20})\.checkpoint(?:\.(\d{10})\.(\d{10}))?\.parquet$`)

// checkpointColumns are the checkpoint columns that hold actions the
// snapshot needs. Others, like txn and commitInfo, are skipped.
var checkpointColumns = []string{"protocol", "metaData", "add", "remove"}

// checkpoint is a checkpoint whose parts are all present.
type checkpoint struct {
	version int64
	paths   []string
}

// checkpointParts collects the parts of one checkpoint version.
type checkpointParts struct {
	total int
	paths map[int]string
}

func (p *checkpointParts) complete() bool {
	if len(p.paths) != p.total {
		return false
	}
	for i := 1; i <= p.total; i++ {
		if _, ok := p.paths[i]; !ok {
			return false
		}
	}
	return true
}

// addCheckpointFile records name in parts when it is a checkpoint file.
func addCheckpointFile(parts map[int64]*checkpointParts, logDir, name string) {
	m := checkpointFilePattern.FindStringSubmatch(name)
	if m == nil {
		return
	}
	version, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return
	}
	part, total := 1, 1
	if m[2] != "" {
		part, _ = strconv.Atoi(m[2])
		total, _ = strconv.Atoi(m[3])
	}

	p, ok := parts[version]
	if !ok {
		p = &checkpointParts{total: total, paths: map[int]string{}}
		parts[version] = p
	}
	if p.total != total {
		// Parts disagree on their count; never treat the version as complete.
		p.total = -1
		return
	}
	p.paths[part] = filepath.Join(logDir, name)
}

// latestCheckpoint returns the newest complete checkpoint, or nil.
func latestCheckpoint(parts map[int64]*checkpointParts) *checkpoint {
	var latest *checkpoint
	for version, p := range parts {
		if !p.complete() || (latest != nil && version < latest.version) {
			continue
		}
		cp := &checkpoint{version: version}
		for i := 1; i <= p.total; i++ {
			cp.paths = append(cp.paths, p.paths[i])
		}
		latest = cp
	}
	return latest
}

// readCheckpoint returns the protocol, metaData, add and remove actions
// stored in the parts of cp.
func readCheckpoint(cp *checkpoint) ([]Action, error) {
	var actions []Action
	for _, path := range cp.paths {
		partActions, err := readCheckpointFile(path)
		if err != nil {
			return nil, err
		}
		actions = append(actions, partActions...)
	}
	return actions, nil
}

func readCheckpointFile(path string) ([]Action, error) {
	pqReader, err := pqfile.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = pqReader.Close() }()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", filepath.Base(path), err)
	}
	tbl, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", filepath.Base(path), err)
	}
	defer tbl.Release()

	tableReader := array.NewTableReader(tbl, 0)
	defer tableReader.Release()

	var actions []Action
	for tableReader.Next() {
		batch := tableReader.Record()
		columns := map[string]arrow.Array{}
		for i, field := range batch.Schema().Fields() {
			columns[field.Name] = batch.Column(i)
		}
		for row := range int(batch.NumRows()) {
			for _, name := range checkpointColumns {
				col, ok := columns[name]
				if !ok || col.IsNull(row) {
					continue
				}
				a, err := checkpointAction(name, arrowToGo(col, row))
				if err != nil {
					return nil, fmt.Errorf("failed to decode checkpoint %s: %w", filepath.Base(path), err)
				}
				actions = append(actions, a)
			}
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", filepath.Base(path), err)
	}
	return actions, nil
}

// checkpointAction decodes one checkpoint cell the way a commit line with
// the same content would be decoded.
func checkpointAction(name string, value any) (Action, error) {
	line, err := json.Marshal(map[string]any{name: value})
	if err != nil {
		return Action{}, err
	}
	var a Action
	if err := json.Unmarshal(line, &a); err != nil {
		return Action{}, err
	}
	return a, nil
}

// arrowToGo converts element i of arr to plain Go values: structs and maps
// become map[string]any, lists become []any.
func arrowToGo(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Struct:
		st := a.DataType().(*arrow.StructType)
		m := make(map[string]any, a.NumField())
		for f := range a.NumField() {
			m[st.Field(f).Name] = arrowToGo(a.Field(f), i)
		}
		return m
	case *array.Map:
		start, end := a.ValueOffsets(i)
		keys, items := a.Keys(), a.Items()
		m := make(map[string]any, end-start)
		for j := int(start); j < int(end); j++ {
			m[fmt.Sprint(arrowToGo(keys, j))] = arrowToGo(items, j)
		}
		return m
	case *array.List:
		start, end := a.ValueOffsets(i)
		values := a.ListValues()
		out := make([]any, 0, end-start)
		for j := int(start); j < int(end); j++ {
			out = append(out, arrowToGo(values, j))
		}
		return out
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UnixMilli()
	default:
		return a.ValueStr(i)
	}
}
