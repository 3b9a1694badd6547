package ops

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zurustar/ttcore/pkg/command"
)

// Parse errors.
var (
	ErrUnknownWord   = errors.New("unknown word")
	ErrBadSeparator  = errors.New("misplaced separator")
	ErrModPosition   = errors.New("a mod must start its command")
	ErrMissingPreSep = errors.New("mod without ':'")
)

var upper = cases.Upper(language.Und)

func tokenize(line string) []string {
	line = strings.ReplaceAll(line, ":", " : ")
	line = strings.ReplaceAll(line, ";", " ; ")
	return strings.Fields(line)
}

// Parse turns one source line into a command. Names are case-insensitive.
// A blank line yields an empty command.
func (t *Table) Parse(line string) (command.Command, error) {
	cmd := command.New()
	for _, tok := range tokenize(line) {
		w, err := t.word(tok)
		if err != nil {
			return command.New(), err
		}
		if err := cmd.Append(w); err != nil {
			return command.New(), fmt.Errorf("%q: %w", line, err)
		}
	}
	if err := validate(&cmd); err != nil {
		return command.New(), fmt.Errorf("%q: %w", line, err)
	}
	return cmd, nil
}

func (t *Table) word(tok string) (command.Word, error) {
	switch tok {
	case ":":
		return command.Word{Tag: command.PreSep}, nil
	case ";":
		return command.Word{Tag: command.SubSep}, nil
	}
	if n, err := strconv.ParseInt(tok, 10, 16); err == nil {
		return command.Word{Tag: command.Number, Value: int16(n)}, nil
	} else if isNumeric(tok) {
		return command.Word{}, fmt.Errorf("%s: %w", tok, err)
	}

	name := upper.String(tok)
	if id, ok := t.modIDs[name]; ok {
		return command.Word{Tag: command.Mod, Value: id}, nil
	}
	if id, ok := t.opIDs[name]; ok {
		return command.Word{Tag: command.Op, Value: id}, nil
	}
	return command.Word{}, fmt.Errorf("%s: %w", tok, ErrUnknownWord)
}

func isNumeric(tok string) bool {
	s := strings.TrimPrefix(tok, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validate checks separator placement: at most one ':', which must follow
// a leading mod, and no ';' before it.
func validate(c *command.Command) error {
	seenSub := false
	pre := -1
	for i := 0; i < int(c.Length); i++ {
		switch c.Words[i].Tag {
		case command.PreSep:
			if pre >= 0 || seenSub || i == 0 {
				return ErrBadSeparator
			}
			pre = i
		case command.SubSep:
			if pre < 0 {
				seenSub = true
			}
		case command.Mod:
			if i != 0 {
				return ErrModPosition
			}
		}
	}
	if c.Length > 0 && c.Words[0].Tag == command.Mod && pre < 0 {
		return ErrMissingPreSep
	}
	if pre >= 0 && c.Words[0].Tag != command.Mod {
		return ErrBadSeparator
	}
	return nil
}

// Format renders a command back to source text.
func (t *Table) Format(c *command.Command) string {
	var b strings.Builder
	for i := 0; i < int(c.Length); i++ {
		w := c.Words[i]
		switch w.Tag {
		case command.PreSep:
			b.WriteString(":")
			continue
		case command.SubSep:
			b.WriteString(";")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		switch w.Tag {
		case command.Number:
			b.WriteString(strconv.Itoa(int(w.Value)))
		case command.Op:
			if op, ok := t.Op(w.Value); ok {
				b.WriteString(op.Name)
			} else {
				fmt.Fprintf(&b, "OP%d", w.Value)
			}
		case command.Mod:
			if mod, ok := t.Mod(w.Value); ok {
				b.WriteString(mod.Name)
			} else {
				fmt.Fprintf(&b, "MOD%d", w.Value)
			}
		}
	}
	return b.String()
}

// MustParse is Parse for tests and fixed tables; it panics on error.
func (t *Table) MustParse(line string) command.Command {
	c, err := t.Parse(line)
	if err != nil {
		panic(err)
	}
	return c
}
