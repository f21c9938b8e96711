// Package version exposes the server version embedded at build time.
package version

import (
	_ "embed" // for go:embed
	"strconv"
	"strings"
)

// VERSION holds the server's version
//
//go:embed VERSION
var VERSION string

// Version segments
var (
	MAJOR int
	MINOR int
	FIX   int
)

func init() {
	VERSION = strings.TrimSpace(VERSION)
	v := strings.Split(VERSION, ".")
	MAJOR, _ = strconv.Atoi(v[0])
	MINOR, _ = strconv.Atoi(v[1])
	FIX, _ = strconv.Atoi(v[2])
}

// bannerGlyphs holds a 7-row figure for every rune a version string may
// contain.
var bannerGlyphs = map[rune][]string{
	'0': {
		"  ### ",
		" #   #",
		"#     #",
		"#     #",
		"#     #",
		" #   #",
		"  ### ",
	},
	'1': {
		"  # ",
		" ## ",
		"# # ",
		"  # ",
		"  # ",
		"  # ",
		"#####",
	},
	'2': {
		" ##### ",
		"#     #",
		"      #",
		" ##### ",
		"#      ",
		"#      ",
		"#######",
	},
	'3': {
		" ##### ",
		"#     #",
		"      #",
		" ##### ",
		"      #",
		"#     #",
		" ##### ",
	},
	'4': {
		"#      ",
		"#    # ",
		"#    # ",
		"#    # ",
		"#######",
		"     # ",
		"     # ",
	},
	'5': {
		"#######",
		"#      ",
		"#      ",
		"###### ",
		"      #",
		"#     #",
		" ##### ",
	},
	'6': {
		" ##### ",
		"#     #",
		"#      ",
		"###### ",
		"#     #",
		"#     #",
		" ##### ",
	},
	'7': {
		"#######",
		"#    # ",
		"    #  ",
		"   #   ",
		"  #    ",
		"  #    ",
		"  #    ",
	},
	'8': {
		" ##### ",
		"#     #",
		"#     #",
		" ##### ",
		"#     #",
		"#     #",
		" ##### ",
	},
	'9': {
		" ##### ",
		"#     #",
		"#     #",
		" ######",
		"      #",
		"#     #",
		" ##### ",
	},
	'.': {
		"   ",
		"   ",
		"   ",
		"   ",
		"###",
		"###",
		"###",
	},
}

// Banner renders VERSION as ascii art for the startup output. When width is
// positive each line is centered within it; runes without a glyph are
// skipped.
func Banner(width int) string {
	const rows = 7
	lines := make([]string, rows)
	for _, r := range VERSION {
		glyph, ok := bannerGlyphs[r]
		if !ok {
			continue
		}
		glyphWidth := 0
		for _, row := range glyph {
			if len(row) > glyphWidth {
				glyphWidth = len(row)
			}
		}
		for i := 0; i < rows; i++ {
			row := ""
			if i < len(glyph) {
				row = glyph[i]
			}
			lines[i] += row + strings.Repeat(" ", glyphWidth-len(row)+1)
		}
	}

	var out strings.Builder
	for _, line := range lines {
		line = strings.TrimRight(line, " ")
		if pad := (width - len(line)) / 2; width > 0 && pad > 0 {
			out.WriteString(strings.Repeat(" ", pad))
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.String()
}
