package compress

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// NormalizedLoad returns the 1-minute load average divided by CPU count,
// the pressure signal adaptive compression downgrades against
// (spec.md §4.3; original_source/src/module_c/system_monitor.c).
//
// Returns -1 if /proc/loadavg is unavailable (non-Linux, sandboxed, or
// unreadable), matching the original's "unknown load" sentinel; callers
// treat a negative value as "no downgrade".
func NormalizedLoad() float64 {
	one, ok := loadAvg1m()
	if !ok {
		return -1
	}
	cores := runtime.NumCPU()
	if cores <= 0 {
		cores = 1
	}
	return one / float64(cores)
}

func loadAvg1m() (float64, bool) {
	f, err := os.Open("/proc/loadavg")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, false
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) == 0 {
		return 0, false
	}
	one, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return one, true
}
