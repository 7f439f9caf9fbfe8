package aggregate

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	// maxBinaryCheckBytes is the metadata size ceiling: anything larger
	// is rejected as binary without its content being read.
	maxBinaryCheckBytes = 1_000_000
	// binarySniffBytes is how much of the file head is scanned for
	// null bytes.
	binarySniffBytes = 1024
)

// Reason records why a file was excluded from the candidate set.
type Reason int

const (
	ReasonIgnored Reason = iota
	ReasonBinary
	ReasonLineLimit
	ReasonUnreadable
)

func (r Reason) String() string {
	switch r {
	case ReasonIgnored:
		return "ignored"
	case ReasonBinary:
		return "binary"
	case ReasonLineLimit:
		return "line limit exceeded"
	case ReasonUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// Classifier makes the per-file admission decision: binary sniff first,
// then the optional line-count ceiling.
type Classifier struct {
	MaxLines int // 0 disables the line-count check entirely.
	logger   *zap.Logger
}

// NewClassifier returns a Classifier with the given line ceiling.
func NewClassifier(maxLines int, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{MaxLines: maxLines, logger: logger}
}

// Admit decides whether path belongs in the candidate set. The second
// return value is only meaningful when the first is false.
func (c *Classifier) Admit(path string) (bool, Reason) {
	isBinary, err := isBinaryFile(path)
	if err != nil {
		c.logger.Warn("Failed to check if file is binary",
			zap.String("filePath", path),
			zap.Error(err))
		return false, ReasonUnreadable
	}
	if isBinary {
		return false, ReasonBinary
	}

	if c.MaxLines > 0 {
		lineCount, err := CountLines(path)
		if err != nil {
			c.logger.Warn("Failed to count lines",
				zap.String("filePath", path),
				zap.Error(err))
			return false, ReasonUnreadable
		}
		if lineCount > c.MaxLines {
			c.logger.Info("Skipping file over the line ceiling",
				zap.String("filePath", path),
				zap.Int("lines", lineCount),
				zap.Int("maxLines", c.MaxLines))
			return false, ReasonLineLimit
		}
	}

	return true, 0
}

// isBinaryFile checks a file's metadata size against the binary
// ceiling, then sniffs the head of the content for null bytes. Files
// over the ceiling are classified as binary with no content read.
func isBinaryFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.Size() > maxBinaryCheckBytes {
		return true, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buffer := make([]byte, binarySniffBytes)
	n, err := file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return bytes.IndexByte(buffer[:n], 0) >= 0, nil
}

// CountLines counts newline-delimited lines: a trailing newline does
// not start an extra line, and an empty file has zero lines.
func CountLines(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(content) == 0 {
		return 0, nil
	}

	count := strings.Count(string(content), "\n")
	if content[len(content)-1] != '\n' {
		count++
	}
	return count, nil
}
