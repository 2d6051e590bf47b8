package deltalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	json "github.com/goccy/go-json"
)

// LogDir is the name of the transaction log directory inside a table.
const LogDir = "_delta_log"

const (
	columnMappingKey = "delta.columnMapping.mode"
	maxLineSize      = 64 * 1024 * 1024
)

var (
	// ErrNoLog is returned when a directory has no commit files.
	ErrNoLog = errors.New("delta log not found")
	// ErrMissingVersion is returned when the commits do not start at
	// version 0 or right after a checkpoint, or have a gap.
	ErrMissingVersion = errors.New("delta log is missing a version")
	// ErrUnsupportedFeature is returned for protocol features a plain
	// reader cannot honor.
	ErrUnsupportedFeature = errors.New("unsupported delta feature")
	// ErrVersionExists is returned when a commit with the same version was
	// already written.
	ErrVersionExists = errors.New("delta version already exists")
)

// supportedReaderFeatures need no work from a reader that renders values
// as text.
var supportedReaderFeatures = []string{"timestampNtz"}

var commitFilePattern = regexp.MustCompile(`^(\d{20})\.json$`)

// Snapshot is the replayed state of a table.
type Snapshot struct {
	// Version is the version of the last commit.
	Version  int64
	Protocol Protocol
	MetaData MetaData
	// Files are the active data files in the order they were added.
	Files []Add
}

// Schema decodes the snapshot schema.
func (s *Snapshot) Schema() (Schema, error) {
	return ParseSchema(s.MetaData.SchemaString)
}

// CommitPath returns the path of the commit file for version.
func CommitPath(tableDir string, version int64) string {
	return filepath.Join(tableDir, LogDir, fmt.Sprintf("%020d.json", version))
}

// Exists reports whether tableDir holds at least one commit or checkpoint.
func Exists(tableDir string) bool {
	l, err := listLog(tableDir)
	return err == nil && (len(l.versions) > 0 || l.checkpoint != nil)
}

// Load replays the log of the table at tableDir. When the log has a
// complete checkpoint, replay starts from the newest one and only the
// commits after it are read.
func Load(tableDir string) (*Snapshot, error) {
	l, err := listLog(tableDir)
	if err != nil {
		return nil, err
	}
	if len(l.versions) == 0 && l.checkpoint == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLog, tableDir)
	}

	r := &replay{snapshot: &Snapshot{Version: -1}, active: map[string]int{}}
	next := int64(0)
	if l.checkpoint != nil {
		actions, err := readCheckpoint(l.checkpoint)
		if err != nil {
			return nil, err
		}
		if err := r.apply(actions); err != nil {
			return nil, err
		}
		r.snapshot.Version = l.checkpoint.version
		next = l.checkpoint.version + 1
	}
	for _, v := range l.versions {
		if v < next {
			continue
		}
		if v != next {
			return nil, fmt.Errorf("%w: expected version %d, found %d", ErrMissingVersion, next, v)
		}
		actions, err := readCommit(CommitPath(tableDir, v))
		if err != nil {
			return nil, err
		}
		if err := r.apply(actions); err != nil {
			return nil, err
		}
		r.snapshot.Version = v
		next++
	}

	snapshot := r.snapshot
	if err := checkProtocol(snapshot); err != nil {
		return nil, err
	}
	for _, f := range r.files {
		if f != nil {
			snapshot.Files = append(snapshot.Files, *f)
		}
	}
	return snapshot, nil
}

// replay folds actions into a snapshot. Files keep the order they were
// first added in.
type replay struct {
	snapshot *Snapshot
	active   map[string]int
	files    []*Add
}

func (r *replay) apply(actions []Action) error {
	for _, a := range actions {
		switch {
		case a.Protocol != nil:
			r.snapshot.Protocol = *a.Protocol
		case a.MetaData != nil:
			r.snapshot.MetaData = *a.MetaData
		case a.Add != nil:
			if a.Add.DeletionVector != nil {
				return fmt.Errorf("%w: deletion vectors", ErrUnsupportedFeature)
			}
			if idx, ok := r.active[a.Add.Path]; ok {
				r.files[idx] = a.Add
				continue
			}
			r.active[a.Add.Path] = len(r.files)
			r.files = append(r.files, a.Add)
		case a.Remove != nil:
			if idx, ok := r.active[a.Remove.Path]; ok {
				r.files[idx] = nil
				delete(r.active, a.Remove.Path)
			}
		}
	}
	return nil
}

// DataFilePath resolves the local path of an Add action.
func DataFilePath(tableDir string, add Add) (string, error) {
	p, err := url.PathUnescape(add.Path)
	if err != nil {
		return "", fmt.Errorf("invalid data file path %q: %w", add.Path, err)
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(tableDir, filepath.FromSlash(p)), nil
}

// WriteCommit writes actions as commit version. It never overwrites an
// existing commit and returns ErrVersionExists instead.
func WriteCommit(tableDir string, version int64, actions []Action) error {
	if err := os.MkdirAll(filepath.Join(tableDir, LogDir), 0o750); err != nil {
		return fmt.Errorf("failed to create delta log directory: %w", err)
	}

	var buf bytes.Buffer
	for _, a := range actions {
		line, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to encode action: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	path := CommitPath(tableDir, version)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec // path is built from the table directory
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %d", ErrVersionExists, version)
		}
		return fmt.Errorf("failed to create commit file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write commit file: %w", err)
	}
	return f.Close()
}

// logListing is what the log directory holds: the commit versions in
// order and the newest complete checkpoint, if any.
type logListing struct {
	versions   []int64
	checkpoint *checkpoint
}

func listLog(tableDir string) (*logListing, error) {
	logDir := filepath.Join(tableDir, LogDir)
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoLog, tableDir)
		}
		return nil, fmt.Errorf("failed to read delta log: %w", err)
	}

	l := &logListing{}
	parts := map[int64]*checkpointParts{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := commitFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			addCheckpointFile(parts, logDir, e.Name())
			continue
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		l.versions = append(l.versions, v)
	}
	slices.Sort(l.versions)
	l.checkpoint = latestCheckpoint(parts)
	return l, nil
}

func readCommit(path string) ([]Action, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the table directory
	if err != nil {
		return nil, fmt.Errorf("failed to open commit file: %w", err)
	}
	defer f.Close()

	var actions []Action
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var a Action
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
		}
		actions = append(actions, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return actions, nil
}

func checkProtocol(s *Snapshot) error {
	if s.MetaData.SchemaString == "" {
		return fmt.Errorf("%w: no metadata in delta log", ErrMissingVersion)
	}
	if p := s.MetaData.Format.Provider; p != "" && p != "parquet" {
		return fmt.Errorf("%w: data format %s", ErrUnsupportedFeature, p)
	}
	if s.Protocol.MinReaderVersion > 3 {
		return fmt.Errorf("%w: reader version %d", ErrUnsupportedFeature, s.Protocol.MinReaderVersion)
	}
	for _, f := range s.Protocol.ReaderFeatures {
		if !slices.Contains(supportedReaderFeatures, f) {
			return fmt.Errorf("%w: %s", ErrUnsupportedFeature, f)
		}
	}
	if mode := s.MetaData.Configuration[columnMappingKey]; mode != "" && mode != "none" {
		return fmt.Errorf("%w: column mapping mode %s", ErrUnsupportedFeature, mode)
	}
	return nil
}
