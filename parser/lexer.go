package parser

// Lexer is a single pass, zero-copy scanner for Beancount source. Tokens
// carry byte offsets into the source; comments and whitespace are dropped and
// line structure survives through each token's Line and Column.
type Lexer struct {
	source   []byte
	filename string
	pos      int
	line     int
	column   int
	tokens   []Token
	interner *Interner
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source []byte, filename string) *Lexer {
	// Roughly one token per 20 bytes of ledger text.
	estimatedTokens := len(source)/20 + 64

	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		column:   1,
		tokens:   make([]Token, 0, estimatedTokens),
		interner: NewInterner(len(source)/40 + 64),
	}
}

// Interner returns the string pool shared with the parser.
func (l *Lexer) Interner() *Interner {
	return l.interner
}

// ScanAll lexes the entire source and returns all tokens, terminated by EOF.
func (l *Lexer) ScanAll() []Token {
	for l.pos < len(l.source) {
		l.skipWhitespace()
		if l.pos >= len(l.source) {
			break
		}

		if l.peek() == ';' {
			l.skipComment()
			continue
		}

		l.tokens = append(l.tokens, l.scanToken())
	}

	l.tokens = append(l.tokens, Token{Type: EOF, Start: l.pos, End: l.pos, Line: l.line, Column: l.column})
	return l.tokens
}

func (l *Lexer) scanToken() Token {
	start, line, col := l.pos, l.line, l.column
	ch := l.advance()

	switch {
	case isDigit(ch):
		if l.isDatePattern(start) {
			return l.scanDate(start, line, col)
		}
		return l.scanNumber(start, line, col)
	case ch == '-' && isDigit(l.peek()):
		return l.scanNumber(start, line, col)
	case ch == '"':
		return l.scanString(start, line, col)
	case ch == '#':
		return l.scanWord(TAG, start, line, col)
	case ch == '^':
		return l.scanWord(LINK, start, line, col)
	case ch >= 'A' && ch <= 'Z' || ch >= 0x80:
		return l.scanAccountOrIdent(start, line, col)
	case ch >= 'a' && ch <= 'z':
		return l.scanKeywordOrIdent(start, line, col)
	}

	single := ILLEGAL
	switch ch {
	case '*':
		single = ASTERISK
	case '!':
		single = EXCLAIM
	case ':':
		single = COLON
	case ',':
		single = COMMA
	case '+':
		single = PLUS
	case '-':
		single = MINUS
	case '/':
		single = SLASH
	case '(':
		single = LPAREN
	case ')':
		single = RPAREN
	case '{':
		single = LBRACE
		if l.peek() == '{' {
			l.advance()
			single = LDBRACE
		}
	case '}':
		single = RBRACE
		if l.peek() == '}' {
			l.advance()
			single = RDBRACE
		}
	case '@':
		single = AT
		if l.peek() == '@' {
			l.advance()
			single = ATAT
		}
	}
	return Token{single, start, l.pos, line, col}
}

// isDatePattern checks for YYYY-MM-DD at start.
func (l *Lexer) isDatePattern(start int) bool {
	if start+10 > len(l.source) {
		return false
	}
	src := l.source[start:]
	for i := 0; i < 10; i++ {
		switch i {
		case 4, 7:
			if src[i] != '-' {
				return false
			}
		default:
			if !isDigit(src[i]) {
				return false
			}
		}
	}
	return true
}

func (l *Lexer) scanDate(start, line, col int) Token {
	// First digit already consumed.
	for i := 0; i < 9; i++ {
		l.advance()
	}
	return Token{DATE, start, l.pos, line, col}
}

// scanNumber scans -?[0-9][0-9,]*(\.[0-9]+)?. Thousands separators are only
// accepted when followed by a digit, so "{10 USD, 2024-01-01}" still splits.
func (l *Lexer) scanNumber(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if isDigit(ch) {
			l.advance()
			continue
		}
		if ch == ',' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1]) {
			l.advance()
			continue
		}
		break
	}

	if l.peek() == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1]) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	return Token{NUMBER, start, l.pos, line, col}
}

// scanString scans a quoted string. Strings may span lines.
func (l *Lexer) scanString(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == '"' {
			l.advance()
			return Token{STRING, start, l.pos, line, col}
		}
		if ch == '\\' && l.pos+1 < len(l.source) {
			l.advance()
		}
		l.advance()
	}
	// Unterminated
	return Token{ILLEGAL, start, l.pos, line, col}
}

// scanWord scans the body of a tag or link: [A-Za-z0-9_./-]+
func (l *Lexer) scanWord(typ TokenType, start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if !isLetter(ch) && !isDigit(ch) && ch != '_' && ch != '-' && ch != '.' && ch != '/' {
			break
		}
		l.advance()
	}
	if l.pos == start+1 {
		return Token{ILLEGAL, start, l.pos, line, col}
	}
	return Token{typ, start, l.pos, line, col}
}

// scanAccountOrIdent scans an account (contains a colon) or a currency-like
// identifier. Non-ASCII bytes are accepted so that accounts may use any script.
func (l *Lexer) scanAccountOrIdent(start, line, col int) Token {
	hasColon := false

	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == ':' {
			// A trailing colon ("Key:") is not part of an account.
			if l.pos+1 >= len(l.source) || !isAccountStart(l.source[l.pos+1]) {
				break
			}
			hasColon = true
			l.advance()
			continue
		}
		if !isLetter(ch) && !isDigit(ch) && ch < 0x80 && ch != '-' && ch != '_' && ch != '.' && ch != '\'' {
			break
		}
		l.advance()
	}

	if hasColon {
		return Token{ACCOUNT, start, l.pos, line, col}
	}
	return Token{IDENT, start, l.pos, line, col}
}

func (l *Lexer) scanKeywordOrIdent(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if !isLetter(ch) && !isDigit(ch) && ch != '_' && ch != '-' {
			break
		}
		l.advance()
	}

	if typ, ok := keywords[string(l.source[start:l.pos])]; ok {
		return Token{typ, start, l.pos, line, col}
	}
	return Token{IDENT, start, l.pos, line, col}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		switch l.source[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) skipComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.advance()
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isLetter(ch byte) bool { return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' }

func isAccountStart(ch byte) bool { return ch >= 'A' && ch <= 'Z' || isDigit(ch) || ch >= 0x80 }
