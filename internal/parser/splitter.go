/*
 * splitter.go
 *
 * Statement splitter for PostgreSQL scripts.
 *
 * A script is cut at every ';' that appears in plain SQL context.  Semicolons
 * inside string literals, quoted identifiers, comments, dollar-quoted bodies
 * and parenthesised expressions never end a statement.  The scan is a single
 * left-to-right pass over the bytes of the script with at most one byte of
 * lookahead, except for dollar-quote delimiters which are matched as whole
 * substrings.
 *
 * The splitter never rewrites text and never fails: malformed input (an
 * unterminated quote, comment or dollar block) simply swallows the rest of
 * the script into the final segment.
 *
 * Usage:
 *
 *	for _, stmt := range parser.SplitCommands(src, true) { … }
 */
package parser

import "strings"

/*
 * LexState is the lexical context of the splitter at a byte offset.
 * Exactly one state is active at a time.  The block-comment nesting depth
 * and the dollar-quote delimiter are carried next to the state by the
 * splitter itself.
 */
type LexState int

const (
	StateNormal       LexState = iota // plain SQL
	StateSingleQuote                  // '…'
	StateEscapeQuote                  // E'…', backslash always escapes
	StateDoubleQuote                  // "…"
	StateLineComment                  // -- … end of line
	StateBlockComment                 // /* … */, nests
	StateDollarQuote                  // $tag$ … $tag$
)

// String returns a string representation of LexState
func (ls LexState) String() string {
	switch ls {
	case StateNormal:
		return "normal"
	case StateSingleQuote:
		return "single-quote"
	case StateEscapeQuote:
		return "escape-quote"
	case StateDoubleQuote:
		return "double-quote"
	case StateLineComment:
		return "line-comment"
	case StateBlockComment:
		return "block-comment"
	case StateDollarQuote:
		return "dollar-quote"
	default:
		return "unknown"
	}
}

// Segment is one raw, untrimmed piece of a script between two top-level
// semicolons. Start and End are byte offsets into the script; the
// terminating ';' (if any) is not part of Text.
type Segment struct {
	Text       string
	Start      int
	End        int
	Terminated bool // a top-level ';' follows at offset End
}

type splitter struct {
	src string
	scs bool // standard_conforming_strings

	pos    int
	start  int // offset where the pending segment began
	state  LexState
	depth  int    // block comment nesting, valid in StateBlockComment
	tag    string // full delimiter ("$$", "$BODY$"), valid in StateDollarQuote
	parens int

	segs []Segment
}

/*
 * Segments scans script and returns every segment in order, including empty
 * ones produced by leading or consecutive semicolons.  Writing each segment's
 * Text followed by ';' for terminated segments reproduces script exactly.
 *
 * standardConformingStrings mirrors the server setting of the same name:
 * when false, a backslash inside '…' escapes the next character, so \' does
 * not close the literal.
 */
func Segments(script string, standardConformingStrings bool) []Segment {
	s := &splitter{src: script, scs: standardConformingStrings}
	for s.pos < len(s.src) {
		switch s.state {
		case StateNormal:
			s.normal()
		case StateSingleQuote:
			s.quoted('\'', !s.scs)
		case StateEscapeQuote:
			s.quoted('\'', true)
		case StateDoubleQuote:
			s.quoted('"', false)
		case StateLineComment:
			s.lineComment()
		case StateBlockComment:
			s.blockComment()
		case StateDollarQuote:
			s.dollarQuote()
		}
	}
	if s.start < len(s.src) {
		s.emit(len(s.src), false)
	}
	return s.segs
}

// Split returns the raw text of every segment of script, untrimmed and
// including empty segments.
func Split(script string, standardConformingStrings bool) []string {
	segs := Segments(script, standardConformingStrings)
	out := make([]string, len(segs))
	for i, seg := range segs {
		out[i] = seg.Text
	}
	return out
}

// SplitCommands returns the statements of script ready for execution:
// trimmed, with empty and whitespace-only segments dropped.
func SplitCommands(script string, standardConformingStrings bool) []string {
	var out []string
	for _, seg := range Segments(script, standardConformingStrings) {
		if cmd := strings.TrimSpace(seg.Text); cmd != "" {
			out = append(out, cmd)
		}
	}
	return out
}

// normal handles one position of plain SQL context.
func (s *splitter) normal() {
	ch := s.src[s.pos]
	switch {
	case ch == '-' && s.peek(1) == '-':
		s.state = StateLineComment
		s.advance(2)
	case ch == '/' && s.peek(1) == '*':
		s.state = StateBlockComment
		s.depth = 1
		s.advance(2)
	case (ch == 'e' || ch == 'E') && s.peek(1) == '\'' && !s.afterIdent():
		s.state = StateEscapeQuote
		s.advance(2)
	case ch == '\'':
		s.state = StateSingleQuote
		s.advance(1)
	case ch == '"':
		s.state = StateDoubleQuote
		s.advance(1)
	case ch == '$' && !s.afterIdent():
		if tag := s.dollarTag(); tag != "" {
			s.state = StateDollarQuote
			s.tag = tag
			s.advance(len(tag))
			return
		}
		s.advance(1)
	case ch == '(':
		s.parens++
		s.advance(1)
	case ch == ')':
		if s.parens > 0 {
			s.parens--
		}
		s.advance(1)
	case ch == ';' && s.parens == 0:
		s.emit(s.pos, true)
		s.advance(1)
		s.start = s.pos
	default:
		s.advance(1)
	}
}

/*
 * quoted handles one position inside a quoted region closed by quote.
 * A doubled quote is an escaped quote.  When backslash is set, '\' consumes
 * the following byte as well (legacy strings and E'…' literals).
 */
func (s *splitter) quoted(quote byte, backslash bool) {
	ch := s.src[s.pos]
	switch {
	case backslash && ch == '\\':
		s.advance(2)
	case ch == quote && s.peek(1) == quote:
		s.advance(2)
	case ch == quote:
		s.state = StateNormal
		s.advance(1)
	default:
		s.advance(1)
	}
}

// lineComment consumes up to and including the next line break.
func (s *splitter) lineComment() {
	i := strings.IndexAny(s.src[s.pos:], "\r\n")
	if i < 0 {
		s.pos = len(s.src)
		return
	}
	s.state = StateNormal
	s.advance(i + 1)
}

// blockComment handles one position inside a (possibly nested) block comment.
func (s *splitter) blockComment() {
	switch {
	case s.src[s.pos] == '/' && s.peek(1) == '*':
		s.depth++
		s.advance(2)
	case s.src[s.pos] == '*' && s.peek(1) == '/':
		s.depth--
		s.advance(2)
		if s.depth == 0 {
			s.state = StateNormal
		}
	default:
		s.advance(1)
	}
}

// dollarQuote skips to just past the closing delimiter, which must be the
// exact text of the opening one. Unterminated bodies run to end of input.
func (s *splitter) dollarQuote() {
	i := strings.Index(s.src[s.pos:], s.tag)
	if i < 0 {
		s.pos = len(s.src)
		return
	}
	s.advance(i + len(s.tag))
	s.state = StateNormal
	s.tag = ""
}

/*
 * dollarTag returns the dollar-quote delimiter starting at s.pos, or "" when
 * the '$' does not open one.
 *
 *	dolq_start [A-Za-z\200-\377_]
 *	dolq_cont  [A-Za-z\200-\377_0-9]
 *	dolqdelim  \$({dolq_start}{dolq_cont}*)?\$
 *
 * Positional parameters ($1) never match because a tag cannot start with a
 * digit.
 */
func (s *splitter) dollarTag() string {
	i := s.pos + 1
	if i < len(s.src) && isDolqStart(s.src[i]) {
		i++
		for i < len(s.src) && isDolqCont(s.src[i]) {
			i++
		}
	}
	if i < len(s.src) && s.src[i] == '$' {
		return s.src[s.pos : i+1]
	}
	return ""
}

// afterIdent reports whether the byte before s.pos continues an identifier,
// in which case '$' and the E of E'…' belong to that identifier.
func (s *splitter) afterIdent() bool {
	return s.pos > 0 && isIdentCont(s.src[s.pos-1])
}

func (s *splitter) emit(end int, terminated bool) {
	s.segs = append(s.segs, Segment{
		Text:       s.src[s.start:end],
		Start:      s.start,
		End:        end,
		Terminated: terminated,
	})
}

// peek returns the byte at position s.pos+offset, or 0 if out of bounds.
func (s *splitter) peek(offset int) byte {
	if i := s.pos + offset; i < len(s.src) {
		return s.src[i]
	}
	return 0
}

// advance moves forward n bytes without running past the end of input.
func (s *splitter) advance(n int) {
	s.pos += n
	if s.pos > len(s.src) {
		s.pos = len(s.src)
	}
}

func isIdentCont(ch byte) bool {
	return isDolqCont(ch) || ch == '$'
}

func isDolqStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isDolqCont(ch byte) bool {
	return isDolqStart(ch) || (ch >= '0' && ch <= '9')
}
