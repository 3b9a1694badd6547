// Package command defines the pre-parsed command representation shared by
// the scene store, the execution engine and the command table.
// A Command is a fixed-size array of tagged words so that it can be copied
// into script lines, delay slots and stack-op slots without allocation.
package command

import (
	"errors"
	"fmt"
)

// MaxWords is the maximum number of words in a single command.
const MaxWords = 16

// Tag identifies the kind of a Word.
type Tag uint8

const (
	// Number is a literal value pushed onto the value stack.
	Number Tag = iota
	// Op is an operator; Value is its id in the command table.
	Op
	// Mod is a modifier (IF, L, DEL, ...) that receives the post command.
	Mod
	// PreSep is the ':' separating a mod's arguments from its body.
	PreSep
	// SubSep is the ';' separating sub commands on one line.
	SubSep
)

func (t Tag) String() string {
	switch t {
	case Number:
		return "NUMBER"
	case Op:
		return "OP"
	case Mod:
		return "MOD"
	case PreSep:
		return "PRE_SEP"
	case SubSep:
		return "SUB_SEP"
	}
	return fmt.Sprintf("TAG(%d)", uint8(t))
}

// Word is a single tagged token of a command.
type Word struct {
	Tag   Tag
	Value int16
}

// ErrCommandFull is returned when a word is appended to a full command.
var ErrCommandFull = errors.New("command: word limit reached")

// Command is a pre-parsed command line.
// Separator is the index of the PreSep word, or -1 when there is none.
type Command struct {
	Length    uint8
	Separator int8
	Words     [MaxWords]Word
}

// New returns an empty command.
func New() Command {
	return Command{Separator: -1}
}

// Append adds a word to the end of the command.
// The first PreSep word becomes the command's separator.
func (c *Command) Append(w Word) error {
	if int(c.Length) >= MaxWords {
		return ErrCommandFull
	}
	if w.Tag == PreSep && c.Separator < 0 {
		c.Separator = int8(c.Length)
	}
	c.Words[c.Length] = w
	c.Length++
	return nil
}

// Empty reports whether the command has no words.
func (c *Command) Empty() bool {
	return c.Length == 0
}

// HasSeparator reports whether the command carries a mod body.
func (c *Command) HasSeparator() bool {
	return c.Separator >= 0
}

// Pre returns the number of words before the separator (all words when
// there is no separator).
func (c *Command) Pre() int {
	if c.Separator < 0 {
		return int(c.Length)
	}
	return int(c.Separator)
}

// Post returns the body following the separator as its own command.
// A command without a separator yields an empty command.
func (c *Command) Post() Command {
	post := New()
	if c.Separator < 0 {
		return post
	}
	for i := int(c.Separator) + 1; i < int(c.Length); i++ {
		// cannot overflow: post is shorter than c
		_ = post.Append(c.Words[i])
	}
	return post
}

// SubCommands splits a separator-free command on SubSep words.
// The parts are written into dst and their count is returned; empty parts
// are dropped. Commands with a separator are returned whole, since a ';'
// after the ':' belongs to the mod body.
func (c *Command) SubCommands(dst *[MaxWords]Command) int {
	if c.Separator >= 0 {
		dst[0] = *c
		return 1
	}
	n := 0
	cur := New()
	for i := 0; i < int(c.Length); i++ {
		w := c.Words[i]
		if w.Tag == SubSep {
			if !cur.Empty() {
				dst[n] = cur
				n++
			}
			cur = New()
			continue
		}
		_ = cur.Append(w)
	}
	if !cur.Empty() {
		dst[n] = cur
		n++
	}
	return n
}

// Equal reports whether two commands hold the same words.
func (c *Command) Equal(o *Command) bool {
	if c.Length != o.Length || c.Separator != o.Separator {
		return false
	}
	for i := 0; i < int(c.Length); i++ {
		if c.Words[i] != o.Words[i] {
			return false
		}
	}
	return true
}
