// Package script reads and writes scene text files.
//
// A scene file starts with a free-form description, followed by sections
// introduced by a header line: #1 to #8 for the trigger scripts, #M for the
// metro script, #I for the init script and #P for the patterns. Inside a
// script section every non-blank line is one command; a command prefixed
// with '#' is stored commented out. The #P section holds four header rows
// (length, wrap, start, end) followed by up to 64 rows of four values.
package script

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/ttcore/pkg/command"
	"github.com/zurustar/ttcore/pkg/scene"
)

// Extension is the file extension LoadDir looks for.
const Extension = ".txt"

// Loader errors.
var (
	ErrNoScenes      = errors.New("no scene files found")
	ErrPatternRow    = errors.New("malformed pattern row")
	ErrTooManyValues = errors.New("too many pattern rows")
)

// Parser turns a source line into a command.
type Parser interface {
	Parse(line string) (command.Command, error)
}

// Formatter renders a command back to source text.
type Formatter interface {
	Format(c *command.Command) string
}

// File is one decoded scene file.
type File struct {
	FileName    string
	Description string
	Scene       *scene.Scene
	// Repaired is set when the scene needed Validate to fix it up.
	Repaired bool
}

// ParseError reports the line a scene file failed on.
type ParseError struct {
	FileName string
	Line     int
	Text     string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %q: %v", e.FileName, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Loader reads scene files.
type Loader struct {
	parser Parser
}

// NewLoader creates a loader that parses commands with p.
func NewLoader(p Parser) *Loader {
	return &Loader{parser: p}
}

// LoadDir reads every scene file in dir, sorted by file name. The
// extension is matched case-insensitively.
func (l *Loader) LoadDir(dir string) ([]File, error) {
	paths, err := findSceneFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to find scene files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoScenes)
	}

	files := make([]File, 0, len(paths))
	for _, path := range paths {
		f, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, nil
}

func findSceneFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), Extension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadFile reads and decodes a single scene file.
func (l *Loader) LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	return l.Decode(filepath.Base(path), data)
}

// Decode parses scene text. The text may be UTF-8, with or without a byte
// order mark, or Shift-JIS.
func (l *Loader) Decode(name string, data []byte) (*File, error) {
	content, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to convert encoding: %w", name, err)
	}

	f := &File{FileName: name, Scene: scene.New()}
	if err := l.parse(f, content); err != nil {
		return nil, err
	}
	f.Repaired = f.Scene.Validate()
	return f, nil
}

func decodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	if !utf8.Valid(data) {
		dec = japanese.ShiftJIS.NewDecoder()
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), dec))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type sectionKind int

const (
	sectionDescription sectionKind = iota
	sectionScript
	sectionPattern
	sectionSkipped
)

type section struct {
	kind   sectionKind
	script scene.ScriptNumber
}

// header recognises section header lines. Unknown single-letter headers
// such as the grid section are skipped.
func header(text string) (section, bool) {
	if len(text) != 2 || text[0] != '#' {
		return section{}, false
	}
	c := text[1]
	switch {
	case c >= '1' && c <= '8':
		return section{kind: sectionScript, script: scene.ScriptNumber(c - '1')}, true
	case c == 'M' || c == 'm':
		return section{kind: sectionScript, script: scene.MetroScript}, true
	case c == 'I' || c == 'i':
		return section{kind: sectionScript, script: scene.InitScript}, true
	case c == 'P' || c == 'p':
		return section{kind: sectionPattern}, true
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return section{kind: sectionSkipped}, true
	}
	return section{}, false
}

func (l *Loader) parse(f *File, content string) error {
	s := f.Scene
	cur := section{kind: sectionDescription}
	var desc []string
	row := 0

	sc := bufio.NewScanner(strings.NewReader(content))
	for n := 1; sc.Scan(); n++ {
		raw := strings.TrimRight(sc.Text(), "\r")
		text := strings.TrimSpace(raw)
		fail := func(err error) error {
			return &ParseError{FileName: f.FileName, Line: n, Text: text, Err: err}
		}

		if next, ok := header(text); ok {
			cur, row = next, 0
			continue
		}

		switch cur.kind {
		case sectionDescription:
			desc = append(desc, raw)
		case sectionScript:
			if text == "" {
				continue
			}
			commented := strings.HasPrefix(text, "#")
			cmd, err := l.parser.Parse(strings.TrimPrefix(text, "#"))
			if err != nil {
				return fail(err)
			}
			if cmd.Empty() {
				continue
			}
			line := s.ScriptLen(cur.script)
			if err := s.InsertScriptCommand(cur.script, line, &cmd); err != nil {
				return fail(err)
			}
			if commented {
				if err := s.ToggleScriptComment(cur.script, line); err != nil {
					return fail(err)
				}
			}
		case sectionPattern:
			if text == "" {
				continue
			}
			if err := patternRow(s, row, text); err != nil {
				return fail(err)
			}
			row++
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", f.FileName, err)
	}
	f.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return nil
}

// patternRow stores one row of the #P section. Bounds are written raw;
// Validate normalises them once the whole file is read.
func patternRow(s *scene.Scene, row int, text string) error {
	fields := strings.Fields(text)
	if len(fields) != scene.PatternCount {
		return ErrPatternRow
	}
	if row >= 4+scene.PatternLength {
		return ErrTooManyValues
	}
	for i, field := range fields {
		n, err := strconv.ParseInt(field, 10, 16)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPatternRow, err)
		}
		v := int16(n)
		p := &s.Patterns[i]
		switch row {
		case 0:
			p.Len = v
		case 1:
			p.Wrap = v != 0
		case 2:
			p.Start = v
		case 3:
			p.End = v
		default:
			p.Val[row-4] = v
		}
	}
	return nil
}

// Encode writes s as scene text. Commands are rendered with f.
func Encode(w io.Writer, f Formatter, description string, s *scene.Scene) error {
	bw := bufio.NewWriter(w)
	if description != "" {
		fmt.Fprintln(bw, description)
		fmt.Fprintln(bw)
	}

	for n := scene.Script1; n <= scene.InitScript; n++ {
		fmt.Fprintf(bw, "#%s\n", n)
		for i := 0; i < s.ScriptLen(n); i++ {
			// "# " keeps a commented one-word command from reading as a header
			if s.ScriptComment(n, i) {
				bw.WriteString("# ")
			}
			fmt.Fprintln(bw, f.Format(s.ScriptCommand(n, i)))
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, "#P")
	row := func(get func(p *scene.Pattern) int16) {
		cols := make([]string, scene.PatternCount)
		for i := range s.Patterns {
			cols[i] = strconv.Itoa(int(get(&s.Patterns[i])))
		}
		fmt.Fprintln(bw, strings.Join(cols, "\t"))
	}
	row(func(p *scene.Pattern) int16 { return p.Len })
	row(func(p *scene.Pattern) int16 {
		if p.Wrap {
			return 1
		}
		return 0
	})
	row(func(p *scene.Pattern) int16 { return p.Start })
	row(func(p *scene.Pattern) int16 { return p.End })
	fmt.Fprintln(bw)
	for i := 0; i < scene.PatternLength; i++ {
		row(func(p *scene.Pattern) int16 { return p.Val[i] })
	}
	return bw.Flush()
}
