package version

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/blockvault/blockvault/pkg/blockmap"
)

// changeTriggerFraction is the fraction of changed slots that forces a
// "content-change" version (spec.md §4.6).
const changeTriggerFraction = 0.10

// Chain is one inode's ordered version history. Head is the newest
// node, Tail the oldest.
type Chain struct {
	mu              sync.RWMutex
	InodeID         uint64
	Head            *Node
	Tail            *Node
	Count           int
	LatestVersionID uint64
	LastVersionTime time.Time
}

// New creates an empty chain for an inode.
func New(inodeID uint64) *Chain {
	return &Chain{InodeID: inodeID}
}

// rollingHash computes the per-slot checksum used to detect
// content-change between versions (spec.md §4.6).
func rollingHash(plaintext []byte) uint64 {
	return xxhash.Sum64(plaintext)
}

// Create allocates a new head node over bm's live content. For each
// slot, a changed or new checksum causes the slot's plaintext to be
// copied into the new node's snapshot; unchanged slots are left to
// inherit from the parent (spec.md §4.6 "Create version").
func (c *Chain) Create(bm *blockmap.BlockMap, reason string, now time.Time) (*Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parent := c.Head
	node := &Node{
		ParentID:   0,
		Parent:     parent,
		CreateTime: now,
		Reason:     reason,
		FileSize:   bm.FileSize(),
	}
	if parent != nil {
		node.VersionID = parent.VersionID + 1
		node.ParentID = parent.VersionID
	} else {
		node.VersionID = 1
	}

	slotCount := bm.SlotCount()
	node.Checksums = make([]uint64, slotCount)
	node.Snapshots = make([]Snapshot, slotCount)

	for i := 0; i < slotCount; i++ {
		b := bm.SlotAt(i)
		var plain []byte
		if b != nil {
			p, err := blockmap.PlaintextOf(b)
			if err != nil {
				return nil, err
			}
			plain = p
		}
		sum := rollingHash(plain)
		node.Checksums[i] = sum

		changed := parent == nil || parent.checksumAt(i) != sum
		if changed {
			data := make([]byte, len(plain))
			copy(data, plain)
			node.Snapshots[i] = Snapshot{HasData: true, Data: data}
			node.DiffIndices = append(node.DiffIndices, i)
			node.StoredBytes += uint64(len(data))
		}
	}

	node.Next = nil
	node.Prev = parent
	if parent != nil {
		parent.Next = node
	}
	c.Head = node
	if c.Tail == nil {
		c.Tail = node
	}
	c.Count++
	c.LatestVersionID = node.VersionID
	c.LastVersionTime = now

	return node, nil
}

// ChangedFraction computes, without creating a version, the fraction
// of bm's slots whose current checksum differs from the head's
// recorded checksum (spec.md §4.6 "Change-triggered creation"). With
// no version in the chain yet there is nothing to compare against, and
// it reports 0.
func (c *Chain) ChangedFraction(bm *blockmap.BlockMap) (float64, error) {
	c.mu.RLock()
	head := c.Head
	c.mu.RUnlock()
	if head == nil {
		return 0, nil
	}

	slotCount := bm.SlotCount()
	if slotCount == 0 {
		return 0, nil
	}
	changed := 0
	for i := 0; i < slotCount; i++ {
		b := bm.SlotAt(i)
		var plain []byte
		if b != nil {
			p, err := blockmap.PlaintextOf(b)
			if err != nil {
				return 0, err
			}
			plain = p
		}
		if rollingHash(plain) != head.checksumAt(i) {
			changed++
		}
	}
	return float64(changed) / float64(slotCount), nil
}

// MaybeCreateOnChange creates a "content-change" version if the
// fraction of changed slots exceeds changeTriggerFraction.
func (c *Chain) MaybeCreateOnChange(bm *blockmap.BlockMap, now time.Time) (*Node, error) {
	frac, err := c.ChangedFraction(bm)
	if err != nil {
		return nil, err
	}
	if frac <= changeTriggerFraction {
		return nil, nil
	}
	return c.Create(bm, "content-change", now)
}

// MaybeCreatePeriodic creates a "periodic" version if period has
// elapsed since the last version.
func (c *Chain) MaybeCreatePeriodic(bm *blockmap.BlockMap, now time.Time, period time.Duration) (*Node, error) {
	c.mu.RLock()
	last := c.LastVersionTime
	c.mu.RUnlock()
	if !last.IsZero() && now.Sub(last) < period {
		return nil, nil
	}
	return c.Create(bm, "periodic", now)
}

// ReadVersionData reads size bytes at offset from node's view of the
// file, traversing ancestors per slot as needed (spec.md §4.6 "Read
// version data").
func (c *Chain) ReadVersionData(node *Node, blockSize int, offset int64, size int) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]byte, 0, size)
	pos := offset
	remaining := size
	for remaining > 0 {
		if uint64(pos) >= node.FileSize {
			break
		}
		idx := int(pos / int64(blockSize))
		intraOff := int(pos % int64(blockSize))
		avail := blockSize - intraOff
		toRead := remaining
		if toRead > avail {
			toRead = avail
		}
		if remainingInFile := node.FileSize - uint64(pos); uint64(toRead) > remainingInFile {
			toRead = int(remainingInFile)
		}

		chunk := make([]byte, toRead)
		if plain, ok := node.dataFor(idx); ok && intraOff < len(plain) {
			end := intraOff + toRead
			if end > len(plain) {
				end = len(plain)
			}
			copy(chunk, plain[intraOff:end])
		}
		out = append(out, chunk...)
		pos += int64(toRead)
		remaining -= toRead
	}
	return out
}

// Find returns the node with the given version id, or nil.
func (c *Chain) Find(versionID uint64) *Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for n := c.Head; n != nil; n = n.Prev {
		if n.VersionID == versionID {
			return n
		}
	}
	return nil
}

// FindByTime returns the newest node whose CreateTime is at or before
// target, or nil if none qualifies (spec.md §4.6 "Resolve version
// selector").
func (c *Chain) FindByTime(target time.Time) *Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for n := c.Head; n != nil; n = n.Prev {
		if !n.CreateTime.After(target) {
			return n
		}
	}
	return nil
}

// MarkImportant sets or clears the important flag on a version.
func (c *Chain) MarkImportant(versionID uint64, important bool) bool {
	n := c.Find(versionID)
	if n == nil {
		return false
	}
	c.mu.Lock()
	n.Important = important
	c.mu.Unlock()
	return true
}

// List returns chain entries newest-to-oldest, one per version
// (spec.md §4.6 "List").
func (c *Chain) List() []*Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Node, 0, c.Count)
	for n := c.Head; n != nil; n = n.Prev {
		out = append(out, n)
	}
	return out
}

// FormatListLine renders one List() entry as "v<id> | <timestamp> |
// <description>" (spec.md §4.6).
func FormatListLine(n *Node) string {
	return fmt.Sprintf("v%d | %s | %s", n.VersionID, n.CreateTime.Local().Format(time.RFC3339), n.Reason)
}

// Diff counts slot positions whose checksum differs between v1 and v2
// (spec.md §4.6 "Diff").
func (c *Chain) Diff(v1, v2 uint64) int {
	a := c.Find(v1)
	b := c.Find(v2)
	if a == nil || b == nil {
		return 0
	}
	n := len(a.Checksums)
	if len(b.Checksums) > n {
		n = len(b.Checksums)
	}
	diff := 0
	for i := 0; i < n; i++ {
		if a.checksumAt(i) != b.checksumAt(i) {
			diff++
		}
	}
	return diff
}
