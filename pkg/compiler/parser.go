// Package compiler implements the assembler pipeline: parsing assembly
// source into sectioned records, resolving variable/subroutine symbols to
// RAM addresses, and encoding instructions into the two-byte opcode+operand
// form the CPU executes.
package compiler

import "strings"

// DataRecord is one `.data` section declaration: `name = value`.
type DataRecord struct {
	Name  string
	Value int
}

// InstructionRecord is one `.text` or subroutine-body line:
// `op [arg1[, arg2]]`.
type InstructionRecord struct {
	Op   string
	Arg1 string
	Arg2 string // empty if the instruction takes no second operand
	Line int    // 1-based source line number
}

// SubroutineRecord is a `.subroutines` section entry: a label and its body,
// always ending with a synthetic ret.
type SubroutineRecord struct {
	Label string
	Lines []InstructionRecord
}

// Program is the fully parsed, not-yet-resolved assembly source.
type Program struct {
	Data        []DataRecord
	Text        []InstructionRecord
	Subroutines []SubroutineRecord
}

// Parse runs the full parser pipeline over UTF-8 assembly source: strip
// comments and whitespace, drop empty lines, then route the remaining
// lines to each section's grammar.
func Parse(source string) (*Program, error) {
	rawLines := strings.Split(source, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		line = stripComment(line)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	data, err := parseDataSection(extractSection("data", lines))
	if err != nil {
		return nil, err
	}
	text, err := parseTextSection(extractSection("text", lines))
	if err != nil {
		return nil, err
	}
	subroutines, err := parseSubroutinesSection(extractSection("subroutines", lines))
	if err != nil {
		return nil, err
	}

	return &Program{Data: data, Text: text, Subroutines: subroutines}, nil
}

// stripComment removes everything from the first ';' onward.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

// extractSection collects every line between `section .<name>` and the
// next `section` header (or end of input).
func extractSection(name string, lines []string) []string {
	header := "section ." + name
	var result []string
	in := false
	for _, line := range lines {
		if strings.HasPrefix(line, "section") {
			in = line == header
			continue
		}
		if in {
			result = append(result, line)
		}
	}
	return result
}

// parseDataSection enforces the `<name> = <value>` grammar: exactly three
// space-separated tokens, the middle one literally "=".
func parseDataSection(lines []string) ([]DataRecord, error) {
	records := make([]DataRecord, 0, len(lines))
	for i, line := range lines {
		tokens := strings.Split(line, " ")
		if len(tokens) != 3 || tokens[1] != "=" {
			return nil, newCompileError(i+1, "%q should contain only 2 spaces: \"varName = value\"", line)
		}
		value, err := parseDecimal(tokens[2])
		if err != nil {
			return nil, newCompileError(i+1, "%q has a non-integer value: %s", line, tokens[2])
		}
		records = append(records, DataRecord{Name: tokens[0], Value: value})
	}
	return records, nil
}

// parseTextSection parses each `.text` line as `op [arg1[, arg2]]`.
func parseTextSection(lines []string) ([]InstructionRecord, error) {
	records := make([]InstructionRecord, 0, len(lines))
	for i, line := range lines {
		rec, err := parseInstructionLine(line, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseInstructionLine parses `op [arg1[, arg2]]`, normalizing ", " to ","
// before splitting on whitespace. A bare `op` (such as `hlt`) yields a
// record with empty arguments.
func parseInstructionLine(line string, lineNo int) (InstructionRecord, error) {
	normalized := strings.ReplaceAll(line, ", ", ",")
	tokens := strings.Split(normalized, " ")
	if len(tokens) == 1 {
		return InstructionRecord{Op: tokens[0], Line: lineNo}, nil
	}
	if len(tokens) != 2 {
		return InstructionRecord{}, newCompileError(lineNo, "%q should contain only 2 statements: \"operation ref1, ref2\"", line)
	}
	args := strings.Split(tokens[1], ",")
	rec := InstructionRecord{Op: tokens[0], Arg1: args[0], Line: lineNo}
	if len(args) > 1 {
		rec.Arg2 = args[1]
	}
	return rec, nil
}

// parseSubroutinesSection groups `<label>:` ... `ret` runs into
// SubroutineRecords, appending a synthetic ret instruction record as the
// closing line of each. Nested or unterminated subroutines fail with a
// CompileError.
func parseSubroutinesSection(lines []string) ([]SubroutineRecord, error) {
	var subroutines []SubroutineRecord
	var current *SubroutineRecord

	for i, line := range lines {
		switch {
		case strings.HasSuffix(line, ":"):
			if current != nil {
				return nil, newCompileError(i+1, "missing ret statement on subroutine %q", current.Label)
			}
			label := strings.TrimSuffix(line, ":")
			current = &SubroutineRecord{Label: label}
		case line == "ret":
			if current == nil {
				return nil, newCompileError(i+1, "ret outside of any subroutine")
			}
			current.Lines = append(current.Lines, InstructionRecord{Op: "ret", Line: i + 1})
			subroutines = append(subroutines, *current)
			current = nil
		default:
			if current == nil {
				return nil, newCompileError(i+1, "instruction %q outside of any subroutine", line)
			}
			rec, err := parseInstructionLine(line, i+1)
			if err != nil {
				return nil, err
			}
			current.Lines = append(current.Lines, rec)
		}
	}

	if current != nil {
		return nil, newCompileError(0, "missing ret statement on subroutine %q", current.Label)
	}
	return subroutines, nil
}

func parseDecimal(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, &CompileError{Message: "empty integer"}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &CompileError{Message: "not a decimal integer"}
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
