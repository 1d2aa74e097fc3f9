package version

import (
	"errors"
	"time"
)

// ErrImportant is returned by DeleteVersion when the targeted version
// has its important flag set (spec.md §7 Permission kind).
var ErrImportant = errors.New("version: cannot delete an important version")

// DeleteVersion removes a single version by id, for the external
// delete_version(inode, id) operation (spec.md §6). It refuses to
// remove a version marked important and reports whether a node was
// found at all.
func (c *Chain) DeleteVersion(versionID uint64) (found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cand *Node
	for n := c.Head; n != nil; n = n.Prev {
		if n.VersionID == versionID {
			cand = n
			break
		}
	}
	if cand == nil {
		return false, nil
	}
	if cand.Important {
		return true, ErrImportant
	}
	c.removeLocked(cand)
	return true, nil
}

// Retain runs the Version Chain cleanup pass under the chain's write
// lock, starting from the oldest node (spec.md §4.6.3).
//
// Pinned files skip retention entirely; within an unpinned file,
// important versions are skipped individually (spec.md §9's resolution
// of the pinned-vs-important Open Question). A candidate is removed
// if the chain has more than maxVersions nodes and it is older than
// expireDays, or if the chain's total stored bytes exceeds sizeLimit
// and more than one node remains.
func (c *Chain) Retain(pinned bool, maxVersions, expireDays int, sizeLimit uint64, now time.Time) []uint64 {
	if pinned {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []uint64
	expireDur := time.Duration(expireDays) * 24 * time.Hour

	for cand := c.Tail; cand != nil; {
		next := cand.Next // walk toward head as nodes are removed behind us
		if cand.Important {
			cand = next
			continue
		}

		age := now.Sub(cand.CreateTime)
		byCount := c.Count > maxVersions && age > expireDur
		byTotalSize := c.totalStoredBytesLocked() > sizeLimit && c.Count > 1

		if !byCount && !byTotalSize {
			cand = next
			continue
		}

		c.removeLocked(cand)
		removed = append(removed, cand.VersionID)
		cand = next
	}
	return removed
}

func (c *Chain) totalStoredBytesLocked() uint64 {
	var total uint64
	for n := c.Head; n != nil; n = n.Prev {
		total += n.StoredBytes
	}
	return total
}

// removeLocked unlinks removed from the chain, materializing every
// inherited slot into each surviving child first (spec.md §4.6.3 "On
// removal"). Caller holds c.mu.
func (c *Chain) removeLocked(removed *Node) {
	for n := c.Head; n != nil; n = n.Prev {
		if n.Parent != removed {
			continue
		}
		materializeInheritedSlots(n)
		n.Parent = removed.Parent
		n.ParentID = 0
		if removed.Parent != nil {
			n.ParentID = removed.Parent.VersionID
		}
	}

	if removed.Prev != nil {
		removed.Prev.Next = removed.Next
	} else {
		c.Tail = removed.Next
	}
	if removed.Next != nil {
		removed.Next.Prev = removed.Prev
	} else {
		c.Head = removed.Prev
	}
	c.Count--
}

// materializeInheritedSlots copies every slot n inherits (HasData ==
// false) from its ancestor chain into n's own Snapshots, so removing
// n's current parent cannot orphan that data.
func materializeInheritedSlots(n *Node) {
	for i := range n.Snapshots {
		if n.Snapshots[i].HasData {
			continue
		}
		data, ok := n.dataFor(i)
		if !ok {
			continue
		}
		cp := make([]byte, len(data))
		copy(cp, data)
		n.Snapshots[i] = Snapshot{HasData: true, Data: cp}
		n.StoredBytes += uint64(len(cp))
	}
}
