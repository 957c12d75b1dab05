package sheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const emptyHeader = "__EMPTY"

// buildRecords converts a decoded grid into header-keyed records.
func buildRecords(grid [][]string) *Result {
	res := &Result{Headers: []string{}, Rows: []Row{}}

	start := 0
	for start < len(grid) && blank(grid[start]) {
		start++
	}
	if start >= len(grid) {
		return res
	}

	width := 0
	for _, row := range grid[start:] {
		if len(row) > width {
			width = len(row)
		}
	}
	names := headerNames(grid[start], width)

	for _, row := range grid[start+1:] {
		rec := Row{}
		var order []string
		for c, v := range row {
			if v == "" {
				continue
			}
			rec[names[c]] = infer(v)
			order = append(order, names[c])
		}
		if len(rec) == 0 {
			continue
		}
		if len(res.Rows) == 0 {
			res.Headers = order
		}
		res.Rows = append(res.Rows, rec)
	}
	return res
}

// headerNames names each of width columns from the header row. Empty cells
// become __EMPTY and repeated names take _1, _2, ... suffixes.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for c := 0; c < width; c++ {
		base := emptyHeader
		if c < len(header) && header[c] != "" {
			base = header[c]
		}

		name := base
		if n := seen[base]; n == 0 {
			seen[base] = 1
		} else {
			for {
				name = base + "_" + strconv.Itoa(n)
				n++
				if seen[name] == 0 {
					break
				}
			}
			seen[base] = n
			seen[name] = 1
		}
		names[c] = name
	}
	return names
}

var numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// infer maps cell text to bool, float64 or string.
func infer(v string) any {
	if strings.EqualFold(v, "true") {
		return true
	}
	if strings.EqualFold(v, "false") {
		return false
	}
	if numberPattern.MatchString(v) {
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) {
			return f
		}
	}
	return v
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
