// Package selector parses the version-selector time-expression grammar
// consumed by resolve_version: `latest`, `v<n>`, `today`, `yesterday`,
// and `<n><s|h|d|w>` (spec.md §6; original_source's
// version_manager_parse_time_expr).
package selector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which grammar production a selector parsed as.
type Kind int

const (
	KindLatest Kind = iota
	KindExact
	KindTime
)

// Selector is a parsed version selector. For KindExact, VersionID
// holds the literal `v<n>` id. For KindTime, Target holds the
// resolved point in time; resolve_version picks the newest version
// whose create_time <= Target.
type Selector struct {
	Kind      Kind
	VersionID uint64
	Target    time.Time
}

// Parse interprets expr against now, the reference instant for
// relative expressions (today/yesterday/<n><unit>).
func Parse(expr string, now time.Time) (Selector, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "latest":
		return Selector{Kind: KindLatest}, nil
	case expr == "today":
		y, m, d := now.Date()
		return Selector{Kind: KindTime, Target: time.Date(y, m, d, 0, 0, 0, 0, now.Location())}, nil
	case expr == "yesterday":
		y, m, d := now.AddDate(0, 0, -1).Date()
		return Selector{Kind: KindTime, Target: time.Date(y, m, d, 0, 0, 0, 0, now.Location())}, nil
	case strings.HasPrefix(expr, "v"):
		n, err := strconv.ParseUint(expr[1:], 10, 64)
		if err != nil || n == 0 {
			return Selector{}, fmt.Errorf("selector: invalid version literal %q", expr)
		}
		return Selector{Kind: KindExact, VersionID: n}, nil
	default:
		return parseRelative(expr, now)
	}
}

func parseRelative(expr string, now time.Time) (Selector, error) {
	if len(expr) < 2 {
		return Selector{}, fmt.Errorf("selector: invalid expression %q", expr)
	}
	unit := expr[len(expr)-1]
	n, err := strconv.ParseUint(expr[:len(expr)-1], 10, 64)
	if err != nil || n == 0 {
		return Selector{}, fmt.Errorf("selector: invalid expression %q", expr)
	}

	var d time.Duration
	switch unit {
	case 's':
		d = time.Duration(n) * time.Second
	case 'h':
		d = time.Duration(n) * time.Hour
	case 'd':
		d = time.Duration(n) * 24 * time.Hour
	case 'w':
		d = time.Duration(n) * 7 * 24 * time.Hour
	default:
		return Selector{}, fmt.Errorf("selector: unknown unit %q in %q", string(unit), expr)
	}
	return Selector{Kind: KindTime, Target: now.Add(-d)}, nil
}
