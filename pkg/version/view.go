package version

import "time"

// View is the public metadata record for one version: everything a
// path lookup of the form "<name>@<selector>" needs without walking
// the chain or touching slot data (spec.md §4.9).
type View struct {
	InodeID     uint64
	VersionID   uint64
	ParentID    uint64
	CreateTime  time.Time
	Reason      string
	Important   bool
	FileSize    uint64
	StoredBytes uint64
}

// ViewOf projects a chain node into its public metadata record.
func ViewOf(inodeID uint64, n *Node) View {
	return View{
		InodeID:     inodeID,
		VersionID:   n.VersionID,
		ParentID:    n.ParentID,
		CreateTime:  n.CreateTime,
		Reason:      n.Reason,
		Important:   n.Important,
		FileSize:    n.FileSize,
		StoredBytes: n.StoredBytes,
	}
}
