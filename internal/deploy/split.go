package deploy

import (
	"regexp"
	"strings"
)

var (
	// batchSeparator matches T-SQL GO lines and the SQL*Plus slash terminator.
	batchSeparator = regexp.MustCompile(`(?im)^\s*(GO|/)\s*$`)

	// blockPattern detects code whose semicolons are part of a PL/SQL or
	// T-SQL block and must not be split on.
	blockPattern = regexp.MustCompile(`(?i)\b(CREATE\s+(OR\s+REPLACE\s+)?(PROCEDURE|PROC|FUNCTION|TRIGGER|PACKAGE)|BEGIN|DECLARE)\b`)
)

// SplitStatements breaks a script into executable statements. Batches are
// separated by GO or "/" lines. A batch containing a procedural block is
// executed whole; any other batch is split on semicolons outside quotes and
// comments.
func SplitStatements(script string) []string {
	var out []string
	for _, batch := range batchSeparator.Split(script, -1) {
		if strings.TrimSpace(batch) == "" {
			continue
		}
		if blockPattern.MatchString(batch) {
			if stmt := strings.TrimSpace(batch); stmt != "" {
				out = append(out, stmt)
			}
			continue
		}
		out = append(out, splitOnSemicolons(batch)...)
	}
	return out
}

func splitOnSemicolons(batch string) []string {
	var (
		out       []string
		current   strings.Builder
		inSingle  bool
		inDouble  bool
		inLine    bool
		inComment bool
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" && !onlyComments(stmt) {
			out = append(out, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(batch); i++ {
		c := batch[i]
		var next byte
		if i+1 < len(batch) {
			next = batch[i+1]
		}

		switch {
		case inLine:
			if c == '\n' {
				inLine = false
			}
		case inComment:
			if c == '*' && next == '/' {
				inComment = false
				current.WriteByte(c)
				i++
				c = next
			}
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '-' && next == '-':
			inLine = true
		case c == '/' && next == '*':
			inComment = true
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == ';':
			flush()
			continue
		}
		current.WriteByte(c)
	}
	flush()
	return out
}

func onlyComments(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

// CountLines returns the number of non-blank lines across the given scripts.
func CountLines(scripts ...string) int {
	n := 0
	for _, s := range scripts {
		for _, line := range strings.Split(s, "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
	}
	return n
}
