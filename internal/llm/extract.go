package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ParseError indicates model output could not be coerced into JSON even
// after recovery. DumpPath names the debug file holding the raw payload,
// when one was written.
type ParseError struct {
	DumpPath string
	Err      error
}

func (e *ParseError) Error() string {
	if e.DumpPath != "" {
		return fmt.Sprintf("parse LLM response (raw payload in %s): %v", e.DumpPath, e.Err)
	}
	return fmt.Sprintf("parse LLM response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// trailingCommaRe matches a comma followed only by whitespace and a
// closing brace or bracket.
var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// Extractor coerces free-form model output into parseable JSON.
// Models wrap JSON in markdown fences, emit trailing commas, leak
// control characters, and truncate mid-object when they hit the token
// budget; Extract survives all of these.
//
// DumpDir, when set, receives the raw payload of every response that
// fails strict parsing, for offline prompt debugging.
type Extractor struct {
	DumpDir string
	Logger  *zap.Logger
}

// Extract returns the JSON object embedded in raw. The zero Extractor
// is usable and performs no dumping or logging.
func (e *Extractor) Extract(raw string) (json.RawMessage, error) {
	text := stripFences(raw)

	// Slice to the outermost object. Text before the first "{" and
	// after the last "}" is commentary the model added around the JSON.
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	text = trailingCommaRe.ReplaceAllString(text, "$1")
	text = stripControlChars(text)

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return json.RawMessage(text), nil
	}

	dumpPath := e.dump(raw)

	// Truncated output is the common failure: close the open brackets
	// and try once more.
	recovered := closeTruncated(text)
	if err := json.Unmarshal([]byte(recovered), &parsed); err == nil {
		if e.Logger != nil {
			e.Logger.Warn("recovered truncated LLM response",
				zap.Int("raw_len", len(raw)),
				zap.String("dump", dumpPath))
		}
		return json.RawMessage(recovered), nil
	}

	err := fmt.Errorf("no valid JSON object in %d bytes of output", len(raw))
	if e.Logger != nil {
		e.Logger.Error("unparseable LLM response",
			zap.Int("raw_len", len(raw)),
			zap.String("dump", dumpPath))
	}
	return nil, &ParseError{DumpPath: dumpPath, Err: err}
}

// ExtractJSON extracts with a zero Extractor (no dumping, no logging).
func ExtractJSON(raw string) (json.RawMessage, error) {
	e := Extractor{}
	return e.Extract(raw)
}

// stripFences removes a markdown code fence wrapper, preferring a
// ```json fence over a bare one.
func stripFences(text string) string {
	if _, after, ok := strings.Cut(text, "```json"); ok {
		if inner, _, ok := strings.Cut(after, "```"); ok {
			return inner
		}
		return after
	}
	if _, after, ok := strings.Cut(text, "```"); ok {
		if inner, _, ok := strings.Cut(after, "```"); ok {
			return inner
		}
		return after
	}
	return text
}

// stripControlChars removes control characters that are illegal inside
// JSON strings, keeping newlines and tabs.
func stripControlChars(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, text)
}

// closeTruncated appends the closing brackets a truncated JSON document
// is missing. It tracks string state so braces inside string values
// don't affect the depth, and trims a dangling partial token first.
func closeTruncated(text string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, '}')
			}
		case '[':
			if !inString {
				stack = append(stack, ']')
			}
		case '}', ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return text
	}

	// An unterminated string gets closed before the brackets.
	if inString {
		text += `"`
	}

	// Drop a trailing comma or colon left by the cut.
	trimmed := strings.TrimRight(text, " \n\t")
	if strings.HasSuffix(trimmed, ",") || strings.HasSuffix(trimmed, ":") {
		text = strings.TrimRight(trimmed, ",:")
	}

	for i := len(stack) - 1; i >= 0; i-- {
		text += string(stack[i])
	}
	return text
}

// dump writes the raw payload to a timestamped debug file. Returns ""
// when no dump directory is configured or the write fails.
func (e *Extractor) dump(raw string) string {
	if e.DumpDir == "" {
		return ""
	}
	if err := os.MkdirAll(e.DumpDir, 0o755); err != nil {
		return ""
	}
	name := fmt.Sprintf("failed_response_%s.txt", time.Now().UTC().Format("20060102_150405.000"))
	path := filepath.Join(e.DumpDir, name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return ""
	}
	return path
}
