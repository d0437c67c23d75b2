package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pdfsuite/internal/models"
)

const (
	// DefaultScale is the rasterization scale used when none is given
	DefaultScale = 1.5
	// MaxScale bounds the rasterization scale
	MaxScale = 8.0
)

var rangePattern = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)

// ParsePageRange expands a 1-based page range like "2-5" or "3" against total pages.
// An empty spec or "all" selects every page.
func ParsePageRange(spec string, total int) ([]int, error) {
	if total < 1 {
		return nil, models.InvalidInput("document has no pages", nil)
	}

	start, end := 1, total
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "" || strings.EqualFold(spec, "all"):
	case rangePattern.MatchString(spec):
		m := rangePattern.FindStringSubmatch(spec)
		start, _ = strconv.Atoi(m[1])
		end, _ = strconv.Atoi(m[2])
	default:
		n, err := strconv.Atoi(spec)
		if err != nil {
			return nil, models.InvalidInput(fmt.Sprintf("invalid page range %q, use a format like \"1-5\"", spec), nil)
		}
		start, end = n, n
	}

	if start < 1 || end > total || start > end {
		return nil, models.InvalidInput(fmt.Sprintf("page range must be between 1 and %d", total), nil)
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages, nil
}

// NormalizeScale applies the default to a zero scale and rejects values outside (0, MaxScale]
func NormalizeScale(scale float64) (float64, error) {
	if scale == 0 {
		return DefaultScale, nil
	}
	if scale < 0 || scale > MaxScale {
		return 0, models.InvalidInput(fmt.Sprintf("scale must be between 0 and %g", MaxScale), nil)
	}
	return scale, nil
}
