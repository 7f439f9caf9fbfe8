package aggregate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const chunkSeparator = "\n=====================\n"

// ChunkFilename resolves the output file name for the chunk at index
// (0-based). A caller-supplied pattern may contain a '{}' placeholder,
// replaced by the 1-based chunk index when more than one chunk exists
// and by the empty string otherwise.
func ChunkFilename(outputPattern string, index, totalChunks int) string {
	if outputPattern != "" {
		if totalChunks > 1 {
			return strings.ReplaceAll(outputPattern, "{}", fmt.Sprintf("%d", index+1))
		}
		return strings.ReplaceAll(outputPattern, "{}", "")
	}
	if totalChunks > 1 {
		return fmt.Sprintf("output_%d.txt", index+1)
	}
	return "output.txt"
}

// WriteChunk writes one chunk to outputPath: per member file a header
// naming its display path, the raw contents, and a separator line.
// Files that fail to read are logged and skipped; the returned count
// and size cover only the files actually written.
func WriteChunk(outputPath string, files []string, displayRoot string, logger *zap.Logger) (int, int64, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	outFile, err := os.Create(outputPath)
	if err != nil {
		logger.Error("Failed to create output file",
			zap.String("file", outputPath), zap.Error(err))
		return 0, 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err := outFile.Close(); err != nil {
			logger.Error("Failed to close output file",
				zap.String("file", outputPath), zap.Error(err))
		}
	}()

	writer := bufio.NewWriter(outFile)
	written := 0
	var totalSize int64

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Failed to read file for output, skipping",
				zap.String("filePath", path), zap.Error(err))
			continue
		}

		if _, err := fmt.Fprintf(writer, "# File: %s\n", displayPath(path, displayRoot)); err != nil {
			return written, totalSize, fmt.Errorf("failed to write header: %w", err)
		}
		if _, err := writer.Write(content); err != nil {
			return written, totalSize, fmt.Errorf("failed to write content: %w", err)
		}
		if _, err := writer.WriteString("\n" + chunkSeparator + "\n"); err != nil {
			return written, totalSize, fmt.Errorf("failed to write separator: %w", err)
		}

		written++
		totalSize += int64(len(content))
	}

	if err := writer.Flush(); err != nil {
		logger.Error("Failed to flush output file",
			zap.String("file", outputPath), zap.Error(err))
		return written, totalSize, fmt.Errorf("failed to flush output: %w", err)
	}

	return written, totalSize, nil
}

// displayPath prefers the root-relative form of path for headers and
// listings, falling back to the absolute path.
func displayPath(path, root string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
