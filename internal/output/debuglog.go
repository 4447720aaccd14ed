package output

import (
	"io"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewDebugLog returns a size-capped rolling debug log under the repository's
// .git directory. Every run appends; old runs roll off instead of filling
// the working tree.
func NewDebugLog(gitDir string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   filepath.Join(gitDir, "stackpr", "debug.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}
}
