// Package discover locates the newest data file for a report by decoding
// the academic-year and quarter/month tokens embedded in DfE file names.
package discover

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound reports that no candidate file matched the pattern.
var ErrNotFound = errors.New("no matching data file found")

// Version is the reporting-period token parsed from a file name.
// SubPeriod is 0 when absent, 1-4 for quarters, 1-12 for months.
type Version struct {
	YearStart int
	YearEnd   int
	SubPeriod int
}

// Less orders versions oldest-first.
func (v Version) Less(other Version) bool {
	if v.YearStart != other.YearStart {
		return v.YearStart < other.YearStart
	}
	if v.YearEnd != other.YearEnd {
		return v.YearEnd < other.YearEnd
	}
	return v.SubPeriod < other.SubPeriod
}

var (
	yearToken    = regexp.MustCompile(`(\d{4})(\d{2})`)
	quarterToken = regexp.MustCompile(`(?i)-q(\d)`)
)

// Month names are scanned in a fixed order so resolution stays
// deterministic; abbreviations come first and every full name maps to
// the same number as its abbreviation.
var monthTokens = []struct {
	name string
	num  int
}{
	{"jan", 1}, {"feb", 2}, {"mar", 3}, {"apr", 4}, {"may", 5}, {"jun", 6},
	{"jul", 7}, {"aug", 8}, {"sep", 9}, {"oct", 10}, {"nov", 11}, {"dec", 12},
	{"january", 1}, {"february", 2}, {"march", 3}, {"april", 4},
	{"june", 6}, {"july", 7}, {"august", 8}, {"september", 9},
	{"october", 10}, {"november", 11}, {"december", 12},
}

// ParseVersion extracts the academic year and quarter/month from a file
// name such as "app-underlying-data-vacancies-202425-q2.csv". A quarter
// token wins over a month name when both appear. Returns the zero Version
// when no six-digit year run exists.
func ParseVersion(filename string) Version {
	m := yearToken.FindStringSubmatch(filename)
	if m == nil {
		return Version{}
	}
	yearStart, _ := strconv.Atoi(m[1])
	yearEnd, _ := strconv.Atoi(m[2])

	if q := quarterToken.FindStringSubmatch(filename); q != nil {
		n, _ := strconv.Atoi(q[1])
		return Version{YearStart: yearStart, YearEnd: yearEnd, SubPeriod: n}
	}

	lower := strings.ToLower(filename)
	for _, month := range monthTokens {
		if strings.Contains(lower, month.name) {
			return Version{YearStart: yearStart, YearEnd: yearEnd, SubPeriod: month.num}
		}
	}
	return Version{YearStart: yearStart, YearEnd: yearEnd}
}

// Finder searches Root and Root/<FolderPrefix>_*/<Subfolder>/ for
// versioned data files.
type Finder struct {
	Root         string
	FolderPrefix string
	Subfolder    string
}

func (f Finder) root() string {
	if f.Root == "" {
		return "."
	}
	return f.Root
}

func (f Finder) candidates(pattern string, includeRoot bool) ([]string, error) {
	var all []string
	if includeRoot {
		rootFiles, err := filepath.Glob(filepath.Join(f.root(), pattern))
		if err != nil {
			return nil, err
		}
		all = append(all, rootFiles...)
	}
	folders, err := filepath.Glob(filepath.Join(f.root(), f.FolderPrefix+"_*"))
	if err != nil {
		return nil, err
	}
	for _, folder := range folders {
		files, err := filepath.Glob(filepath.Join(folder, f.Subfolder, pattern))
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}

// Latest returns the path whose version tuple is greatest across the
// working directory and the versioned subfolders. Ties keep discovery
// order. Returns ErrNotFound when nothing matches.
func (f Finder) Latest(pattern string) (string, error) {
	files, err := f.candidates(pattern, true)
	if err != nil {
		return "", err
	}
	return newest(files)
}

// LatestZipCSV resolves the newest zip archive matching pattern, then
// extracts and returns the first .csv member. Archives live only under
// the versioned subfolders.
func (f Finder) LatestZipCSV(pattern string) (string, error) {
	archives, err := f.candidates(pattern, false)
	if err != nil {
		return "", err
	}
	archivePath, err := newest(archives)
	if err != nil {
		return "", err
	}
	return extractFirstCSV(archivePath)
}

func newest(files []string) (string, error) {
	if len(files) == 0 {
		return "", ErrNotFound
	}
	sorted := append([]string(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi := ParseVersion(filepath.Base(sorted[i]))
		vj := ParseVersion(filepath.Base(sorted[j]))
		return vj.Less(vi)
	})
	return sorted[0], nil
}

func extractFirstCSV(archivePath string) (string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	for _, member := range reader.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		dest := filepath.Join(filepath.Dir(archivePath), filepath.Base(member.Name))
		if err := copyMember(member, dest); err != nil {
			return "", fmt.Errorf("extract %s: %w", member.Name, err)
		}
		return dest, nil
	}
	return "", ErrNotFound
}

func copyMember(member *zip.File, dest string) error {
	src, err := member.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}
