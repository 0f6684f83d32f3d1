package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"github.com/testkube/report-dashboard/internal/fsutil"
)

// MetadataFile is the per-folder key=value file describing a run.
const MetadataFile = "metadata.txt"

const (
	KeyTimestamp   = "timestamp"
	KeyEnvironment = "environment"
	KeyBranch      = "branch"
	KeyJob         = "job"
	KeyPassed      = "passed"
	KeyFailed      = "failed"
	KeyTotal       = "total"
	KeyPipelineURL = "pipeline_url"
	KeyJobURL      = "job_url"
)

var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	SkipUnrecognizableLines: true,
	KeyValueDelimiters:      "=",
}

// Metadata is a parsed metadata file. Keys are matched case-insensitively
// but keep their original spelling; unknown keys and comments survive a rewrite.
type Metadata struct {
	file *ini.File
}

// NewMetadata returns an empty metadata file.
func NewMetadata() *Metadata {
	return &Metadata{file: ini.Empty(loadOptions)}
}

func ParseMetadata(data []byte) (*Metadata, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &Metadata{file: f}, nil
}

// ReadMetadata reads dir/metadata.txt. The returned error wraps
// os.ErrNotExist when the folder has no metadata file.
func ReadMetadata(fs afero.Fs, dir string) (*Metadata, error) {
	path := filepath.Join(dir, MetadataFile)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	md, err := ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}

// WriteMetadata atomically replaces dir/metadata.txt.
func WriteMetadata(fs afero.Fs, dir string, md *Metadata) error {
	data, err := md.Bytes()
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(fs, filepath.Join(dir, MetadataFile), data, 0644)
}

func (m *Metadata) section() *ini.Section {
	return m.file.Section(ini.DefaultSection)
}

// key returns the first key matching name regardless of case, or nil.
func (m *Metadata) key(name string) *ini.Key {
	for _, k := range m.section().Keys() {
		if strings.EqualFold(k.Name(), name) {
			return k
		}
	}
	return nil
}

func (m *Metadata) Get(key string) string {
	if k := m.key(key); k != nil {
		return k.String()
	}
	return ""
}

// Set updates key in place, or appends it when missing.
func (m *Metadata) Set(key, value string) {
	if k := m.key(key); k != nil {
		k.SetValue(value)
		return
	}
	m.section().Key(key).SetValue(value)
}

// SetCounts stores the pass/fail/total counters.
func (m *Metadata) SetCounts(passed, failed, total int) {
	m.Set(KeyPassed, string(CountOf(passed)))
	m.Set(KeyFailed, string(CountOf(failed)))
	m.Set(KeyTotal, string(CountOf(total)))
}

// Record converts the metadata into a manifest entry for the given folder.
func (m *Metadata) Record(folder string) ReportRecord {
	return ReportRecord{
		Timestamp:   m.Get(KeyTimestamp),
		Environment: m.Get(KeyEnvironment),
		Job:         m.Get(KeyJob),
		Branch:      m.Get(KeyBranch),
		Passed:      Count(m.Get(KeyPassed)),
		Failed:      Count(m.Get(KeyFailed)),
		Total:       Count(m.Get(KeyTotal)),
		PipelineURL: m.Get(KeyPipelineURL),
		JobURL:      m.Get(KeyJobURL),
		Folder:      folder,
	}
}

// Bytes encodes the metadata as plain key=value lines. The default section
// is written without a header.
func (m *Metadata) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	for _, sec := range m.file.Sections() {
		if sec.Name() != ini.DefaultSection {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			writeComment(&buf, sec.Comment)
			fmt.Fprintf(&buf, "[%s]\n", sec.Name())
		} else {
			writeComment(&buf, sec.Comment)
		}
		for _, k := range sec.Keys() {
			if strings.ContainsAny(k.Value(), "\r\n") {
				return nil, fmt.Errorf("failed to encode metadata: value of %s spans lines", k.Name())
			}
			writeComment(&buf, k.Comment)
			fmt.Fprintf(&buf, "%s=%s\n", k.Name(), k.Value())
		}
	}
	return buf.Bytes(), nil
}

func writeComment(buf *bytes.Buffer, comment string) {
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] != '#' && line[0] != ';' {
			line = "# " + line
		}
		buf.WriteString(line + "\n")
	}
}
