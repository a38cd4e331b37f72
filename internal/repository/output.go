package repository

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// OutputFilePermissions is the permission for a freshly created output file.
const OutputFilePermissions = 0644

// OutputReporter appends named results to the side-channel file consumed by
// the surrounding automation pipeline.

type OutputReporter interface {
	Set(name, value string) error
}

// fileOutputReporter writes GITHUB_OUTPUT style name=value lines, using the
// heredoc form for multiline values.
type fileOutputReporter struct {
	fs   afero.Fs
	path string
}

// NewFileOutputReporter creates an OutputReporter appending to path. An
// empty path yields a reporter that silently discards results, which is the
// behavior outside CI.
func NewFileOutputReporter(fs afero.Fs, path string) OutputReporter {
	return &fileOutputReporter{fs: fs, path: path}
}

func (r *fileOutputReporter) Set(name, value string) error {
	if r.path == "" {
		return nil
	}
	if name == "" {
		return fmt.Errorf("output name cannot be empty")
	}
	f, err := r.fs.OpenFile(r.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, OutputFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()
	var line string
	if strings.ContainsAny(value, "\n") {
		line = fmt.Sprintf("%s<<EOF\n%s\nEOF\n", name, value)
	} else {
		line = fmt.Sprintf("%s=%s\n", name, value)
	}
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write output %s: %w", name, err)
	}
	return nil
}
