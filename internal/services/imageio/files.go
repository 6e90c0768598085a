package imageio

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Extensions accepted as pipeline input, compared case-insensitively.
var Extensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

var digitRun = regexp.MustCompile(`\d+`)

// IsImage reports whether name has one of the accepted extensions.
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ListImages returns the image files of dir in natural order. A missing
// directory yields an empty list.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		return NaturalLess(names[i], names[j])
	})

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// NaturalLess compares names chunk by chunk: digit runs numerically, the rest
// case-insensitively, so "img2" sorts before "img10".
func NaturalLess(a, b string) bool {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		xd, yd := isDigit(x[0]), isDigit(y[0])
		switch {
		case xd && yd:
			if c := compareDigits(x, y); c != 0 {
				return c < 0
			}
		case xd != yd:
			return xd
		default:
			xl, yl := strings.ToLower(x), strings.ToLower(y)
			if xl != yl {
				return xl < yl
			}
		}
	}
	return len(ca) < len(cb)
}

// compareDigits compares two digit runs by value without parsing them.
func compareDigits(x, y string) int {
	x = strings.TrimLeft(x, "0")
	y = strings.TrimLeft(y, "0")
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	return strings.Compare(x, y)
}

// chunks splits s into alternating digit and non-digit runs.
func chunks(s string) []string {
	var out []string
	start := 0
	for i := 1; i < len(s); i++ {
		if isDigit(s[i]) != isDigit(s[i-1]) {
			out = append(out, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// BaseNoExt returns the file name without directory and extension.
func BaseNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NumericToken returns the first run of digits in name, zero padded to three
// places, or name itself when it has no digits.
func NumericToken(name string) string {
	m := digitRun.FindString(name)
	if m == "" {
		return name
	}
	if len(m) < 3 {
		m = strings.Repeat("0", 3-len(m)) + m
	}
	return m
}
