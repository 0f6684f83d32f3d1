package report

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Count is a pass/fail counter as found in manifests and metadata files. The
// raw text is kept so manifests round-trip unchanged; Int reads anything
// missing, non-numeric or negative as zero.
type Count string

// CountOf formats n as a Count.
func CountOf(n int) Count {
	return Count(strconv.Itoa(n))
}

func (c Count) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(c)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// UnmarshalJSON accepts strings and numbers. Any other JSON value becomes an
// empty count instead of failing the whole manifest.
func (c *Count) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		*c = Count(val)
	case float64:
		*c = Count(strconv.FormatFloat(val, 'f', -1, 64))
	default:
		*c = ""
	}
	return nil
}

// ReportRecord describes one test run as listed in the manifest.
type ReportRecord struct {
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
	Job         string `json:"job"`
	Branch      string `json:"branch"`
	Passed      Count  `json:"passed"`
	Failed      Count  `json:"failed"`
	Total       Count  `json:"total,omitempty"`
	PipelineURL string `json:"pipelineUrl"`
	JobURL      string `json:"jobUrl"`
	Folder      string `json:"folder,omitempty"`
}

const dateLayout = "2006-01-02"

// Date returns the YYYY-MM-DD prefix of the timestamp, or false when the
// timestamp does not start with a valid calendar date.
func (r ReportRecord) Date() (string, bool) {
	if len(r.Timestamp) < len(dateLayout) {
		return "", false
	}
	prefix := r.Timestamp[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, prefix); err != nil {
		return "", false
	}
	return prefix, true
}
