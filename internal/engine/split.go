package engine

import "strings"

// SplitStatements splits SQL text into statements on top-level semicolons.
// Semicolons inside quoted strings, quoted identifiers, comments and
// CREATE TRIGGER bodies do not split. Statements holding only whitespace or
// comments are dropped, so empty input yields no statements.
func SplitStatements(text string) []string {
	s := &splitter{input: text}
	return s.split()
}

type splitter struct {
	input string
	pos   int
	start int
	stmts []string

	// leading words of the current statement, used to detect triggers
	words []string
	// last two significant tokens
	last, prev string
	content    bool
}

func (s *splitter) split() []string {
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		switch {
		case ch == '-' && s.peek() == '-':
			s.skipLineComment()
		case ch == '/' && s.peek() == '*':
			s.skipBlockComment()
		case ch == '\'' || ch == '"' || ch == '`':
			s.skipQuoted(ch)
			s.token("'")
		case ch == '[':
			s.skipQuoted(']')
			s.token("'")
		case ch == ';':
			if s.inTrigger() && (s.last != "END" || s.prev != ";") {
				s.token(";")
				s.pos++
				continue
			}
			s.emit(s.pos)
			s.pos++
			s.reset()
		case isWordStart(ch):
			s.token(strings.ToUpper(s.readWord()))
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f':
			s.pos++
		default:
			s.token(string(ch))
			s.pos++
		}
	}
	s.emit(len(s.input))
	return s.stmts
}

func (s *splitter) peek() byte {
	if s.pos+1 >= len(s.input) {
		return 0
	}
	return s.input[s.pos+1]
}

func (s *splitter) token(tok string) {
	s.content = true
	s.prev, s.last = s.last, tok
	if len(s.words) < 3 && isWordStart(tok[0]) {
		s.words = append(s.words, tok)
	}
}

func (s *splitter) inTrigger() bool {
	if len(s.words) < 2 || s.words[0] != "CREATE" {
		return false
	}
	if s.words[1] == "TRIGGER" {
		return true
	}
	return len(s.words) == 3 && (s.words[1] == "TEMP" || s.words[1] == "TEMPORARY") && s.words[2] == "TRIGGER"
}

func (s *splitter) emit(end int) {
	if s.content {
		s.stmts = append(s.stmts, strings.TrimSpace(s.input[s.start:end]))
	}
}

func (s *splitter) reset() {
	s.start = s.pos
	s.words = s.words[:0]
	s.last, s.prev = "", ""
	s.content = false
}

func (s *splitter) skipLineComment() {
	for s.pos < len(s.input) && s.input[s.pos] != '\n' {
		s.pos++
	}
}

func (s *splitter) skipBlockComment() {
	s.pos += 2
	for s.pos < len(s.input) {
		if s.input[s.pos] == '*' && s.peek() == '/' {
			s.pos += 2
			return
		}
		s.pos++
	}
}

// skipQuoted advances past a quoted run ending in closer. A doubled quote
// reads as the end of one run and the start of the next, which is
// equivalent for splitting purposes.
func (s *splitter) skipQuoted(closer byte) {
	s.pos++
	for s.pos < len(s.input) {
		if s.input[s.pos] == closer {
			s.pos++
			return
		}
		s.pos++
	}
}

func (s *splitter) readWord() string {
	start := s.pos
	for s.pos < len(s.input) && isWordPart(s.input[s.pos]) {
		s.pos++
	}
	return s.input[start:s.pos]
}

func isWordStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordPart(ch byte) bool {
	return isWordStart(ch) || ch == '$' || (ch >= '0' && ch <= '9')
}
