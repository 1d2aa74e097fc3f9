// Package version implements the Version Chain: ordered per-file
// snapshots of a Block Map, where each snapshot stores only the blocks
// that changed since its parent and inherits the rest (spec.md §4.6).
package version

import (
	"time"
)

// Snapshot is one slot's per-version record: either a private copy of
// that slot's plaintext (HasData true) or an inherited slot, read by
// walking up to the nearest ancestor that does hold data.
type Snapshot struct {
	HasData bool
	Data    []byte
}

// Node is one version in the chain.
type Node struct {
	VersionID   uint64
	ParentID    uint64
	Parent      *Node
	Next        *Node // more recent neighbor (toward head)
	Prev        *Node // older neighbor (toward tail)
	CreateTime  time.Time
	Reason      string
	Important   bool
	FileSize    uint64
	Checksums   []uint64 // per-slot rolling hash recorded at this version
	Snapshots   []Snapshot
	DiffIndices []int
	StoredBytes uint64
}

// dataFor walks from n up through ancestors to find slot i's content,
// returning (nil, false) if no ancestor ever held data for that slot
// (spec.md §4.6 "Read version data").
func (n *Node) dataFor(i int) ([]byte, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if i < len(cur.Snapshots) && cur.Snapshots[i].HasData {
			return cur.Snapshots[i].Data, true
		}
	}
	return nil, false
}

// checksumAt returns the recorded checksum for slot i, or 0 if the
// node predates that slot index.
func (n *Node) checksumAt(i int) uint64 {
	if i < len(n.Checksums) {
		return n.Checksums[i]
	}
	return 0
}
