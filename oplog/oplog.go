// Package oplog decodes operation-log entries and stamps new operation
// ids. Per spec.md §5, the operation log itself — its storage, and the
// three-way merge that reconciles concurrent writers' views — is an
// external collaborator's contract; this package only reads the shape the
// core needs (view_id, index_top_segment_name) and mints the id a
// transaction commit is stamped with.
package oplog

import (
	"time"

	"github.com/google/uuid"

	"github.com/chronovc/chronocore/objstore"
)

// OperationID identifies one recorded transaction. Minted fresh by
// NewOperationID when a transaction commits; the merge algorithm that
// reconciles operations sharing a common ancestor is the external
// collaborator's concern, not implemented here.
type OperationID uuid.UUID

func (id OperationID) String() string { return uuid.UUID(id).String() }

// NewOperationID mints a fresh random operation id.
func NewOperationID() OperationID { return OperationID(uuid.New()) }

// ParseOperationID parses a canonical UUID string into an OperationID.
func ParseOperationID(s string) (OperationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OperationID{}, err
	}
	return OperationID(u), nil
}

// Entry is the operation-log record shape spec.md §6 names: enough for
// the core engine to locate the view and index segment a past operation
// produced, plus the metadata needed to render an operation history.
// parent_op_ids forms the operation DAG; the core never walks it itself
// (that belongs to whatever renders `op log`), but carries it through.
type Entry struct {
	ID                  OperationID
	ParentOpIDs         []OperationID
	Timestamp           time.Time
	Description         string
	ViewID              objstore.Hash
	IndexTopSegmentName string
}

// Store is the minimal read surface the core requires of the operation
// log: given an id, read back the entry it recorded. Appending new
// entries belongs to the transaction-commit path in package rewrite,
// which writes through whatever concrete Store a repo is opened with.
type Store interface {
	ReadEntry(id OperationID) (Entry, error)
	// WriteEntry appends e under its own e.ID. Concurrent writers
	// producing divergent operations against the same parent is the merge
	// scenario spec.md §5 calls out as external; this method only appends
	// the caller's own transaction's entry; it does not merge.
	WriteEntry(e Entry) error
	// Head returns the most recently written entry's id for this process,
	// the parent a new transaction's entry should record, or false if the
	// log is empty (a brand-new repo).
	Head() (OperationID, bool)
}

// MemStore is an in-memory Store, suitable for tests and for single-process
// embeddings that persist the operation log some other way (e.g. alongside
// the view in their own transaction format) and only need oplog's typed
// decode/encode shape, not its storage.
type MemStore struct {
	entries map[OperationID]Entry
	head    OperationID
	hasHead bool
}

func NewMemStore() *MemStore {
	return &MemStore{entries: map[OperationID]Entry{}}
}

func (s *MemStore) ReadEntry(id OperationID) (Entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, &NoSuchOperation{ID: id}
	}
	return e, nil
}

func (s *MemStore) WriteEntry(e Entry) error {
	s.entries[e.ID] = e
	s.head = e.ID
	s.hasHead = true
	return nil
}

func (s *MemStore) Head() (OperationID, bool) { return s.head, s.hasHead }

// NoSuchOperation is reported when an operation id has no recorded entry.
type NoSuchOperation struct {
	ID OperationID
}

func (e *NoSuchOperation) Error() string {
	return "no such operation: " + e.ID.String()
}
