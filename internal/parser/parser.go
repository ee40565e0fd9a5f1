// Package parser extracts frontmatter tags and a display title from the
// leading bytes of a Markdown file.
//
// The scanner is deliberately forgiving: malformed frontmatter never fails
// the caller, it degrades to an empty tag set so note loading always
// succeeds.
package parser

import (
	"bufio"
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxScanWindow bounds how far into a file the scanner looks for the
// closing frontmatter delimiter and the first heading. Pathologically large
// files with an unterminated block cost at most this much.
const maxScanWindow = 8 * 1024

const delim = "---"

// frontmatter is the only shape the scanner cares about; every other key in
// the block is ignored.
type frontmatter struct {
	Tags []string `yaml:"tags"`
}

// Result holds what the bounded prefix scan extracted.
type Result struct {
	Tags  []string
	Title string // first "# " heading inside the window, or ""
}

// Parse scans the leading bytes of a Markdown file for a "---"-delimited
// frontmatter block and a first-level heading. It is a single forward pass
// over at most maxScanWindow bytes and never returns an error: anything it
// cannot make sense of yields an empty Result field.
func Parse(data []byte) Result {
	window := data
	if len(window) > maxScanWindow {
		window = window[:maxScanWindow]
	}

	sc := bufio.NewScanner(bytes.NewReader(window))
	if !sc.Scan() {
		return Result{}
	}

	first := strings.TrimSpace(sc.Text())
	if first != delim {
		// No frontmatter: the first line may already be the heading.
		return Result{Title: headingFrom(first, sc)}
	}

	var block bytes.Buffer
	closed := false
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == delim {
			closed = true
			break
		}
		block.WriteString(line)
		block.WriteByte('\n')
	}
	if !closed {
		// Unterminated block within the window. Parsing the remainder as
		// body would misread YAML comments as headings, so give up here.
		return Result{}
	}

	res := Result{Tags: parseTags(block.Bytes())}
	for sc.Scan() {
		if t := headingLine(sc.Text()); t != "" {
			res.Title = t
			break
		}
	}
	return res
}

// parseTags decodes the tags key of a frontmatter block. The value may be a
// flow list ([a, "b c"]) or a block sequence; bare and quoted scalars both
// work. Malformed YAML degrades to no tags.
func parseTags(block []byte) []string {
	var fm frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil
	}
	var out []string
	for _, t := range fm.Tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// headingFrom checks first, then the remaining lines, for a heading.
func headingFrom(first string, sc *bufio.Scanner) string {
	if t := headingLine(first); t != "" {
		return t
	}
	for sc.Scan() {
		if t := headingLine(sc.Text()); t != "" {
			return t
		}
	}
	return ""
}

func headingLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "# ") {
		return strings.TrimSpace(trimmed[2:])
	}
	return ""
}
