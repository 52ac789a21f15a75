// Package parser tokenizes a line of shell input into a Pipeline: an
// ordered sequence of Commands joined by "|", plus a background flag set
// by a trailing "&".
//
// There is no quoting, escaping or variable expansion: tokens are
// produced by plain whitespace splitting, and "|"/"&" act as
// metacharacters only when they appear as their own token.
package parser

import (
	"errors"
	"strings"
)

// ErrPipeNoTarget is returned for a leading "|", a trailing "|", or two
// consecutive "|" tokens.
var ErrPipeNoTarget = errors.New("Pipe has no target")

// ErrEmptyCommand is returned when, after stripping a trailing "&", no
// tokens remain (e.g. a line whose only token is "&").
var ErrEmptyCommand = errors.New("no command entered")

// Pipeline is a non-empty ordered sequence of Commands, plus whether the
// trailing "&" token was present.
type Pipeline struct {
	Commands   [][]string
	Background bool
}

// Parse tokenizes line into a Pipeline. Callers are not required to
// pre-filter empty or whitespace-only lines; Parse handles that input
// defensively via ErrEmptyCommand.
func Parse(line string) (*Pipeline, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}

	background := false
	if fields[len(fields)-1] == "&" {
		background = true
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}

	var commands [][]string
	var current []string
	for _, f := range fields {
		if f == "|" {
			if len(current) == 0 {
				return nil, ErrPipeNoTarget
			}
			commands = append(commands, current)
			current = nil
			continue
		}
		current = append(current, f)
	}
	if len(current) == 0 {
		return nil, ErrPipeNoTarget
	}
	commands = append(commands, current)

	return &Pipeline{Commands: commands, Background: background}, nil
}
