package version

import (
	"fmt"
	"time"

	"github.com/blockvault/blockvault/pkg/selector"
)

// Resolve parses a selector expression and returns the node it
// designates (spec.md §4.6 "Resolve version selector").
func (c *Chain) Resolve(expr string, now time.Time) (*Node, error) {
	sel, err := selector.Parse(expr, now)
	if err != nil {
		return nil, err
	}

	switch sel.Kind {
	case selector.KindLatest:
		c.mu.RLock()
		head := c.Head
		c.mu.RUnlock()
		if head == nil {
			return nil, fmt.Errorf("version: no versions exist")
		}
		return head, nil
	case selector.KindExact:
		n := c.Find(sel.VersionID)
		if n == nil {
			return nil, fmt.Errorf("version: v%d not found", sel.VersionID)
		}
		return n, nil
	case selector.KindTime:
		n := c.FindByTime(sel.Target)
		if n == nil {
			return nil, fmt.Errorf("version: no version at or before %s", sel.Target)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("version: unhandled selector kind")
	}
}
