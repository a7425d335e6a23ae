// Package diffparse turns unified diff text into structured DiffFile
// records (spec §4.8).
package diffparse

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/owayo/astro-sight/internal/errs"
	"github.com/owayo/astro-sight/internal/types"
)

const devNull = "/dev/null"

// Parse converts unified diff text into a list of DiffFile records.
// Parsing is total except for malformed hunks (a bad hunk header, a
// hunk before any file header, or an unrecognized line inside a hunk),
// which surface as DIFF_PARSE errors carrying the offending 1-based
// line number.
func Parse(diff string) ([]types.DiffFile, error) {
	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), int(types.MaxBlobSize))

	var files []types.DiffFile
	var cur *types.DiffFile
	var hunk *types.Hunk
	var oldLine, newLine int
	lineNo := 0

	flushHunk := func() {
		if hunk != nil && cur != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
			hunk = nil
		}
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			files = append(files, *cur)
			cur = nil
		}
	}

	var pendingOld, pendingNew string

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "--- "):
			flushFile()
			pendingOld = strings.TrimSpace(strings.TrimPrefix(line, "--- "))
			cur = &types.DiffFile{}
			continue

		case strings.HasPrefix(line, "+++ "):
			pendingNew = strings.TrimSpace(strings.TrimPrefix(line, "+++ "))
			if cur == nil {
				cur = &types.DiffFile{}
			}
			setPaths(cur, pendingOld, pendingNew)
			continue

		case strings.HasPrefix(line, "@@"):
			flushHunk()
			if cur == nil {
				return nil, errs.New(errs.DiffParse, "hunk header before any file header at line %d", lineNo)
			}
			h, err := parseHunkHeader(line, lineNo)
			if err != nil {
				return nil, err
			}
			hunk = h
			oldLine = h.OldStart
			newLine = h.NewStart
			continue
		}

		if hunk == nil {
			continue // diff preamble (e.g. "diff --git a/x b/x") outside any hunk
		}

		if line == "" {
			hunk.Lines = append(hunk.Lines, types.DiffLine{Kind: types.DiffLineContext, OldLine: oldLine, NewLine: newLine, Text: ""})
			oldLine++
			newLine++
			continue
		}

		switch line[0] {
		case '+':
			hunk.Lines = append(hunk.Lines, types.DiffLine{Kind: types.DiffLineAdded, NewLine: newLine, Text: line[1:]})
			newLine++
		case '-':
			hunk.Lines = append(hunk.Lines, types.DiffLine{Kind: types.DiffLineRemoved, OldLine: oldLine, Text: line[1:]})
			oldLine++
		case ' ':
			hunk.Lines = append(hunk.Lines, types.DiffLine{Kind: types.DiffLineContext, OldLine: oldLine, NewLine: newLine, Text: line[1:]})
			oldLine++
			newLine++
		case '\\':
			// "\ No newline at end of file" — not a content line.
		default:
			return nil, errs.New(errs.DiffParse, "unrecognized hunk line at line %d: %q", lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.DiffParse, err, "error reading diff text")
	}
	flushFile()
	return files, nil
}

func setPaths(f *types.DiffFile, oldHeader, newHeader string) {
	oldPath := stripPrefix(oldHeader)
	newPath := stripPrefix(newHeader)
	switch {
	case oldHeader == devNull:
		f.Path = newPath
		f.AddOnly = true
	case newHeader == devNull:
		f.Path = oldPath
		f.OldPath = oldPath
		f.RemoveOnly = true
	default:
		f.Path = newPath
		if oldPath != newPath {
			f.OldPath = oldPath
		}
	}
}

// stripPrefix removes the conventional "a/" or "b/" prefix git adds to
// diff paths, leaving any other path (including /dev/null) untouched.
func stripPrefix(path string) string {
	if path == devNull {
		return path
	}
	if len(path) > 2 && (path[:2] == "a/" || path[:2] == "b/") {
		return path[2:]
	}
	return path
}

// parseHunkHeader parses "@@ -old_start,old_count +new_start,new_count @@ ...".
// The count defaults to 1 when omitted, matching git's convention for
// single-line hunks.
func parseHunkHeader(line string, lineNo int) (*types.Hunk, error) {
	end := strings.Index(line[2:], "@@")
	if end < 0 {
		return nil, errs.New(errs.DiffParse, "malformed hunk header at line %d: %q", lineNo, line)
	}
	body := strings.TrimSpace(line[2 : 2+end])
	fields := strings.Fields(body)
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return nil, errs.New(errs.DiffParse, "malformed hunk header at line %d: %q", lineNo, line)
	}
	oldStart, oldCount, err := parseRange(fields[0][1:])
	if err != nil {
		return nil, errs.New(errs.DiffParse, "malformed hunk range at line %d: %q", lineNo, line)
	}
	newStart, newCount, err := parseRange(fields[1][1:])
	if err != nil {
		return nil, errs.New(errs.DiffParse, "malformed hunk range at line %d: %q", lineNo, line)
	}
	return &types.Hunk{OldStart: oldStart, OldCount: oldCount, NewStart: newStart, NewCount: newCount}, nil
}

func parseRange(spec string) (start, count int, err error) {
	parts := strings.SplitN(spec, ",", 2)
	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return start, 1, nil
	}
	count, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, count, nil
}
