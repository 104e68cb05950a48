// Copyright (c) 2024 wsh contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License version 3 as
// published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package jobcontrol

import "strings"

// ParsedLine is the result of parsing one command line.
type ParsedLine struct {
	// Stages holds one argument vector per pipeline stage.
	Stages [][]string
	// Background is true iff the last non-empty token was a bare "&".
	Background bool
	// Piped is true iff there is more than one stage.
	Piped bool
}

// ParseLine tokenizes line into a pipeline of stages. It never fails:
// malformed input (a trailing pipe, an empty stage) simply produces an
// empty argument vector for that stage, which the launcher rejects.
//
// Tokenization splits on runs of ASCII space only; no quoting, escapes,
// or redirection tokens are recognized. A stage boundary is any "|"
// token. A trailing bare "&" token sets Background and is not included
// in any stage's argument vector.
//
// Tokens are collected with a forward scan directly into the current
// stage's vector — unlike the C source this was ported from, which
// collected each stage in reverse and then reversed it back.
func ParseLine(line string) ParsedLine {
	tokens := tokenize(line)

	background := false
	if n := len(tokens); n > 0 && tokens[n-1] == "&" {
		background = true
		tokens = tokens[:n-1]
	}

	var stages [][]string
	current := []string{}
	for _, tok := range tokens {
		if tok == "|" {
			stages = append(stages, current)
			current = []string{}
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 || len(stages) > 0 {
		stages = append(stages, current)
	}

	return ParsedLine{
		Stages:     stages,
		Background: background,
		Piped:      len(stages) > 1,
	}
}

func tokenize(line string) []string {
	var tokens []string
	start := -1
	for i := 0; i < len(line); i++ {
		if line[i] == ' ' {
			if start >= 0 {
				tokens = append(tokens, line[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, line[start:])
	}
	return tokens
}

// Valid reports whether every stage has a non-empty argument vector —
// the launcher's precondition for accepting a parsed line.
func (p ParsedLine) Valid() bool {
	if len(p.Stages) == 0 {
		return false
	}
	for _, stage := range p.Stages {
		if len(stage) == 0 {
			return false
		}
	}
	return true
}

// join renders stages back into `stage1 | stage2 &` form, used for
// round-tripping. Unexported: listing.go builds display strings
// directly from Process data instead, since a live Job's processes are
// the source of truth once launched.
func (p ParsedLine) join() string {
	parts := make([]string, len(p.Stages))
	for i, stage := range p.Stages {
		parts[i] = strings.Join(stage, " ")
	}
	s := strings.Join(parts, " | ")
	if p.Background {
		s += " &"
	}
	return s
}
