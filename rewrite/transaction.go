package rewrite

import (
	"context"
	"time"

	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/objstore"
	"github.com/chronovc/chronocore/oplog"
	"github.com/chronovc/chronocore/view"
)

// Transaction owns the mutable top index segment and mutable view a
// single logical operation works against, per spec.md §5: a command
// acquires the repo, reads the view, runs one transaction, and commits or
// aborts it. There are no nested transactions and no concurrent
// mutations within one process — the single-writer lock spec.md §5
// describes is the caller's responsibility (acquiring one Transaction at
// a time), not enforced by this type itself.
type Transaction struct {
	idx     *index.Index
	store   objstore.Store
	opStore oplog.Store
	View    *view.View

	description string
}

// Begin starts a transaction against the given index/store/view/oplog
// triple. New commits written through store and new index entries added
// via t.idx (exposed indirectly through the rewrite primitives in this
// package, which all take idx explicitly) accumulate in memory until
// Commit persists the top segment and appends the operation-log entry.
func Begin(idx *index.Index, store objstore.Store, opStore oplog.Store, v *view.View, description string) *Transaction {
	return &Transaction{idx: idx, store: store, opStore: opStore, View: v, description: description}
}

// Index returns the transaction's mutable index, for rewrite primitives
// that need to add or query entries mid-transaction.
func (t *Transaction) Index() *index.Index { return t.idx }

// Store returns the transaction's object store.
func (t *Transaction) Store() objstore.Store { return t.store }

// Commit persists the transaction per spec.md §5: (a) new commits were
// already durably written via store as the rewrite primitives ran — this
// package never buffers commit writes in memory, so there is nothing
// further to flush here; (b) the top index segment is persisted,
// possibly squashing with its predecessors; (c) a new operation-log entry
// is appended referencing the new segment and the view's content hash,
// parented on whatever opStore.Head reports as the log's current tip.
func (t *Transaction) Commit(ctx context.Context) (oplog.OperationID, error) {
	segmentName, err := t.idx.Persist()
	if err != nil {
		return oplog.OperationID{}, err
	}

	entry := oplog.Entry{
		ID:                  oplog.NewOperationID(),
		Timestamp:           time.Now(),
		Description:         t.description,
		ViewID:              t.View.ContentHash(),
		IndexTopSegmentName: segmentName,
	}
	if parent, ok := t.opStore.Head(); ok {
		entry.ParentOpIDs = []oplog.OperationID{parent}
	}
	if err := t.opStore.WriteEntry(entry); err != nil {
		return oplog.OperationID{}, err
	}
	return entry.ID, nil
}

// Abort discards the transaction: the mutable top index segment is never
// persisted (Commit is simply never called), so no files appear on disk
// per spec.md §5. Abort exists only so callers have an explicit,
// self-documenting no-op to call instead of silently dropping the
// Transaction value.
func (t *Transaction) Abort() {}
