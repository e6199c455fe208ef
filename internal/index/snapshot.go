package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/contentgraph/docsearch/internal/graph"
	apperrors "github.com/contentgraph/docsearch/pkg/errors"
)

// SnapshotVersion is bumped on any change to the serialised layout.
const SnapshotVersion = 1

// Snapshot is one immutable build of the inverted index plus the document
// table and navigation tree. Readers never see a partially built snapshot:
// rebuilds construct a new one and swap it into a Holder atomically.
//
// Encoding is byte-for-byte reproducible for a given document set:
// encoding/json sorts map keys, and every posting list is sorted by
// document id.
type Snapshot struct {
	Version   int                      `json:"version"`
	Tokens    map[string]PostingList   `json:"tokens"`
	Documents map[string]DocumentEntry `json:"documents"`
	Tree      graph.Tree               `json:"tree"`
	IDFFloor  float64                  `json:"idf_floor"`
}

// TotalDocuments returns the number of documents in the snapshot.
func (s *Snapshot) TotalDocuments() int {
	return len(s.Documents)
}

// Postings returns the posting list for a normalized token, nil when the
// token is not in the index.
func (s *Snapshot) Postings(term string) PostingList {
	return s.Tokens[term]
}

// DocFreq returns how many documents contain the token.
func (s *Snapshot) DocFreq(term string) int {
	return len(s.Tokens[term])
}

// Encode serialises the snapshot to its canonical JSON form.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses snapshot bytes and rejects unknown versions.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSnapshotCorrupt, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", apperrors.ErrSnapshotCorrupt, snap.Version)
	}
	if snap.Tokens == nil {
		snap.Tokens = make(map[string]PostingList)
	}
	if snap.Documents == nil {
		snap.Documents = make(map[string]DocumentEntry)
	}
	return &snap, nil
}

// WriteFile persists the snapshot atomically: it writes a .tmp sibling and
// renames over the target on success.
func (s *Snapshot) WriteFile(path string) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	return nil
}

// ReadFile loads a previously written snapshot.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	return Decode(data)
}

// Holder publishes the active snapshot to concurrent readers. Swapping in a
// new snapshot never blocks in-flight queries; they finish against the one
// they loaded.
type Holder struct {
	ptr atomic.Pointer[Snapshot]
}

// Swap atomically replaces the active snapshot.
func (h *Holder) Swap(snap *Snapshot) {
	h.ptr.Store(snap)
}

// Current returns the active snapshot, or false when none has been built.
func (h *Holder) Current() (*Snapshot, bool) {
	snap := h.ptr.Load()
	return snap, snap != nil
}
