package loader

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Export filenames carry their date range, e.g.
// "Margin Report 2025-01-01 2025-01-31.csv".
var dateRangeRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s+(\d{4}-\d{2}-\d{2})`)

// fileEndDate extracts the export's end date from its filename. Files
// without one sort last.
func fileEndDate(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if m := dateRangeRe.FindStringSubmatch(stem); m != nil {
		return m[2]
	}
	return "0000-00-00"
}

// Discover recursively finds CSV exports under root whose filename contains
// one of the keywords (case-insensitive) and none of the exclude keywords.
// Results are sorted by filename end date descending, so the most recent
// export is loaded first and wins deduplication ties; ties break on path
// for reproducible ordering. A missing root yields no files, not an error.
func Discover(root string, keywords, exclude []string) []string {
	var matches []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		name := strings.ToLower(filepath.Base(path))
		for _, ex := range exclude {
			if strings.Contains(name, strings.ToLower(ex)) {
				return nil
			}
		}
		for _, kw := range keywords {
			if strings.Contains(name, strings.ToLower(kw)) {
				matches = append(matches, path)
				return nil
			}
		}
		return nil
	})

	sort.Slice(matches, func(i, j int) bool {
		di, dj := fileEndDate(matches[i]), fileEndDate(matches[j])
		if di != dj {
			return di > dj
		}
		return matches[i] < matches[j]
	})
	return matches
}
