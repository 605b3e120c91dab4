// cssdedup is a conservative wizard.css refactor: it removes only rule
// blocks that are byte-identical after whitespace normalization, replaces
// them with comment placeholders, and keeps the file's total line count
// unchanged so diffs against line-anchored tooling stay readable.
//
// It is not a CSS parser; it targets flat `selector { ... }` blocks and
// leaves anything with nested braces alone.
package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var blockRe = regexp.MustCompile(`(?s)(\s*)(@[\w-]+\s+[^{]+|[^{}@][^{]+?)\{([^{}]*?)\}`)

var spaceRe = regexp.MustCompile(`\s+`)

const organizedHeader = `/* =========================================================
   Wizard.css — Organized (Step 0–8)
   Notes:
   - Duplicates removed only when identical
   - Line count preserved via padding placeholders
   ========================================================= */

`

type block struct {
	start int
	end   int
	text  string
	head  string
	body  string
}

func normalizeHead(head string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(head), " ")
}

func normalizeBody(body string) string {
	lines := strings.Split(body, "\n")

	for i, ln := range lines {
		lines[i] = spaceRe.ReplaceAllString(strings.TrimSpace(ln), " ")
	}

	// trim empty edge lines, keep internal ones
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}

func countLines(s string) int {
	if s == "" {
		return 0
	}

	return strings.Count(s, "\n") + 1
}

// insertStepComments adds the organizing header unless one is already
// there. It only ever inserts comments, never moves rules.
func insertStepComments(original string) string {
	if regexp.MustCompile(`STEP\s*0|Step\s*0`).MatchString(original) {
		return original
	}

	idx := strings.Index(original, ":root")

	if idx == -1 {
		return organizedHeader + original
	}

	return original[:idx] + organizedHeader + original[idx:]
}

func dedupe(text string) (string, int) {
	matches := blockRe.FindAllStringSubmatchIndex(text, -1)

	blocks := make([]block, 0, len(matches))

	for _, m := range matches {
		start, end := m[0], m[1]
		blocks = append(blocks, block{
			start: start,
			end:   end,
			text:  text[start:end],
			head:  text[m[4]:m[5]],
			body:  text[m[6]:m[7]],
		})
	}

	type key struct{ head, body string }

	type first struct {
		index int
		head  string
	}

	seen := map[key]first{}

	var out strings.Builder

	cursor := 0
	removed := 0

	for i, b := range blocks {
		out.WriteString(text[cursor:b.start])

		k := key{normalizeHead(b.head), normalizeBody(b.body)}

		if f, dup := seen[k]; dup {
			removed++

			originalLines := countLines(b.text)
			placeholder := fmt.Sprintf("/* deduped (identical to block #%d: %s) */\n", f.index+1, f.head)

			if pad := originalLines - countLines(placeholder); pad > 0 {
				placeholder += strings.Repeat("\n", pad)
			}

			out.WriteString(placeholder)
		} else {
			seen[k] = first{index: i, head: normalizeHead(b.head)}
			out.WriteString(b.text)
		}

		cursor = b.end
	}

	out.WriteString(text[cursor:])

	return out.String(), removed
}

func run(input, output string) error {
	raw, err := os.ReadFile(input)

	if err != nil {
		return err
	}

	text := insertStepComments(string(raw))

	// the preservation guarantee is relative to the organized text: the
	// header comment (when inserted) is the only growth allowed
	originalLineCount := countLines(text)

	result, removed := dedupe(text)

	// keep the total line count exactly as it was
	newLineCount := countLines(result)

	if newLineCount < originalLineCount {
		result += strings.Repeat("\n", originalLineCount-newLineCount)
	} else if newLineCount > originalLineCount {
		result = strings.TrimRight(result, "\n") + "\n"
	}

	if final := countLines(result); final != originalLineCount {
		return fmt.Errorf("line count mismatch: %d -> %d", originalLineCount, final)
	}

	err = os.WriteFile(output, []byte(result), 0o644)

	if err != nil {
		return err
	}

	fmt.Printf("OK: wrote %s\n", output)
	fmt.Printf("Original lines: %d\n", originalLineCount)
	fmt.Printf("Deduped blocks: %d\n", removed)

	return nil
}

func main() {
	output := flag.String("o", "wizard.refactored.css", "output path")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cssdedup [-o output] <wizard.css>")
		os.Exit(2)
	}

	err := run(flag.Arg(0), *output)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
