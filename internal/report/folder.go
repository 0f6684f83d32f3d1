package report

import (
	"fmt"
	"strings"
)

// SegmentSeparator joins the parts of a report folder name:
//
//	<timestamp>__<job>__<environment>__<branch>__<P>passed_<F>failed
const SegmentSeparator = "__"

// StatusTag encodes pass/fail counts the way folder names carry them.
func StatusTag(passed, failed int) string {
	return fmt.Sprintf("%dpassed_%dfailed", passed, failed)
}

// FolderName builds a report folder name from its parts.
func FolderName(timestamp, job, environment, branch string, passed, failed int) string {
	return strings.Join([]string{timestamp, job, environment, branch, StatusTag(passed, failed)}, SegmentSeparator)
}

// RetagFolderName swaps the status tag at the end of name for one matching
// the given counts. It returns false, leaving name alone, when the last
// segment does not look like a status tag.
func RetagFolderName(name string, passed, failed int) (string, bool) {
	idx := strings.LastIndex(name, SegmentSeparator)
	if idx < 0 {
		return name, false
	}
	prefix, last := name[:idx+len(SegmentSeparator)], name[idx+len(SegmentSeparator):]
	if !strings.Contains(last, "passed") {
		return name, false
	}
	return prefix + StatusTag(passed, failed), true
}
