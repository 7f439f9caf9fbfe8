package aggregate

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
)

// Chunk is one balanced partition of the candidate set, destined for a
// single output file.
type Chunk struct {
	Files []string // Member paths in assignment order.
	Size  int64    // Accumulated byte total of the members.
}

// Distribute partitions files into at most k chunks of roughly equal
// byte size using a largest-first greedy assignment. k <= 0 means no
// splitting: the whole set is returned as a single chunk and no packing
// pass runs. Files that vanish between discovery and sizing are
// excluded from the result entirely.
func Distribute(files []string, k int, logger *zap.Logger) []Chunk {
	if logger == nil {
		logger = zap.NewNop()
	}
	if k <= 0 || len(files) == 0 {
		return []Chunk{{Files: files}}
	}

	type sizedFile struct {
		path string
		size int64
	}

	sized := make([]sizedFile, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			logger.Warn("File vanished before sizing, excluding it",
				zap.String("filePath", f), zap.Error(err))
			continue
		}
		sized = append(sized, sizedFile{path: f, size: info.Size()})
	}

	// Stable sort keeps the caller's lexicographic order for equal
	// sizes, which makes assignments reproducible.
	sort.SliceStable(sized, func(i, j int) bool {
		return sized[i].size > sized[j].size
	})

	chunks := make([]Chunk, k)
	for _, f := range sized {
		smallest := 0
		for i := 1; i < k; i++ {
			if chunks[i].Size < chunks[smallest].Size {
				smallest = i
			}
		}
		chunks[smallest].Files = append(chunks[smallest].Files, f.path)
		chunks[smallest].Size += f.size
	}

	result := chunks[:0]
	for _, c := range chunks {
		if len(c.Files) > 0 {
			result = append(result, c)
		}
	}

	fmt.Println("\nFile distribution summary:")
	for i, c := range result {
		fmt.Printf("Chunk %d size: %s (%d files)\n", i+1, FormatSize(c.Size), len(c.Files))
	}
	if len(result) < k {
		fmt.Printf("\nNote: Created %d chunks instead of the requested %d due to the number of files available.\n",
			len(result), k)
	}

	return result
}

// FormatSize renders a byte count with binary-prefixed units, two
// decimals at KB and above.
func FormatSize(size int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case size >= gb:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(gb))
	case size >= mb:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(mb))
	case size >= kb:
		return fmt.Sprintf("%.2f KB", float64(size)/float64(kb))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
