// Package charcount tallies the characters of a string in first-occurrence
// order.
package charcount

import (
	"strconv"
	"strings"
)

// Options control what is counted.
type Options struct {
	// IncludeSpaces counts ' '. Other whitespace is always counted.
	IncludeSpaces bool
	// IgnoreCase folds letters to lower case before counting.
	IgnoreCase bool
}

// Entry is one character and how often it occurred.
type Entry struct {
	Char  rune
	Count int
}

// Count returns one entry per distinct character, ordered by first
// occurrence.
func Count(text string, opts Options) []Entry {
	if opts.IgnoreCase {
		text = strings.ToLower(text)
	}
	index := map[rune]int{}
	var entries []Entry
	for _, r := range text {
		if r == ' ' && !opts.IncludeSpaces {
			continue
		}
		if i, ok := index[r]; ok {
			entries[i].Count++
			continue
		}
		index[r] = len(entries)
		entries = append(entries, Entry{Char: r, Count: 1})
	}
	return entries
}

// Format renders entries as "h:1, e:1, l:3".
func Format(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteRune(e.Char)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(e.Count))
	}
	return b.String()
}

// String is Format(Count(text, opts)).
func String(text string, opts Options) string {
	return Format(Count(text, opts))
}
