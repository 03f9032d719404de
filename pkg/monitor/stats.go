// Package monitor tracks the per-index operation counters surfaced by
// the CLI's diagnostic dump, adapted from the teacher's read/write/hit
// WorkloadStats to the structural events these containers actually emit.
package monitor

import "sync/atomic"

// IndexStats counts the structural events a page-based index emits
// during its lifetime: inserts and erases at the operation level, plus
// splits and merges at the page level.
type IndexStats struct {
	InsertCount uint64
	EraseCount  uint64
	SplitCount  uint64
	MergeCount  uint64
}

func NewIndexStats() *IndexStats {
	return &IndexStats{}
}

func (s *IndexStats) RecordInsert() {
	atomic.AddUint64(&s.InsertCount, 1)
}

func (s *IndexStats) RecordErase() {
	atomic.AddUint64(&s.EraseCount, 1)
}

func (s *IndexStats) RecordSplit() {
	atomic.AddUint64(&s.SplitCount, 1)
}

func (s *IndexStats) RecordMerge() {
	atomic.AddUint64(&s.MergeCount, 1)
}

// SplitsPerInsert reports how many page splits occurred per insert,
// a rough measure of how much churn growth is causing.
func (s *IndexStats) SplitsPerInsert() float64 {
	inserts := atomic.LoadUint64(&s.InsertCount)
	splits := atomic.LoadUint64(&s.SplitCount)
	if inserts == 0 {
		return 0.0
	}
	return float64(splits) / float64(inserts)
}

// Snapshot is a point-in-time, non-atomic copy of the counters, suitable
// for the CLI's diagnostic dump.
type Snapshot struct {
	Inserts uint64
	Erases  uint64
	Splits  uint64
	Merges  uint64
}

func (s *IndexStats) Snapshot() Snapshot {
	return Snapshot{
		Inserts: atomic.LoadUint64(&s.InsertCount),
		Erases:  atomic.LoadUint64(&s.EraseCount),
		Splits:  atomic.LoadUint64(&s.SplitCount),
		Merges:  atomic.LoadUint64(&s.MergeCount),
	}
}
