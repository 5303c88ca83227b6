package parser

// TokenType identifies the kind of a lexical token.
type TokenType uint8

const (
	EOF TokenType = iota
	ILLEGAL

	// Keywords the parser models.
	TXN
	OPEN
	CLOSE
	OPTION
	INCLUDE
	PUSHTAG
	POPTAG

	// Dated keywords that are recognised and skipped.
	BALANCE
	COMMODITY
	PAD
	NOTE
	DOCUMENT
	PRICE
	EVENT
	CUSTOM
	QUERY

	// Undated keywords that are recognised and skipped.
	PLUGIN
	PUSHMETA
	POPMETA

	DATE    // 2024-01-31
	ACCOUNT // Assets:Bank:Checking
	STRING  // "quoted"
	NUMBER  // 123.45, -123.45, 1,234.56
	IDENT   // USD, metadata keys
	TAG     // #trip
	LINK    // ^invoice-12

	ASTERISK
	EXCLAIM
	COLON
	COMMA
	AT
	ATAT
	LBRACE
	RBRACE
	LDBRACE
	RDBRACE
	PLUS
	MINUS
	SLASH
	LPAREN
	RPAREN
)

// keywords maps reserved words to their token types.
var keywords = map[string]TokenType{
	"txn":       TXN,
	"open":      OPEN,
	"close":     CLOSE,
	"option":    OPTION,
	"include":   INCLUDE,
	"pushtag":   PUSHTAG,
	"poptag":    POPTAG,
	"balance":   BALANCE,
	"commodity": COMMODITY,
	"pad":       PAD,
	"note":      NOTE,
	"document":  DOCUMENT,
	"price":     PRICE,
	"event":     EVENT,
	"custom":    CUSTOM,
	"query":     QUERY,
	"plugin":    PLUGIN,
	"pushmeta":  PUSHMETA,
	"popmeta":   POPMETA,
}

// tokenNames renders keywords as the word itself and everything else by
// class or symbol.
var tokenNames = func() map[TokenType]string {
	names := map[TokenType]string{
		EOF: "EOF", ILLEGAL: "ILLEGAL",
		DATE: "DATE", ACCOUNT: "ACCOUNT", STRING: "STRING", NUMBER: "NUMBER",
		IDENT: "IDENT", TAG: "TAG", LINK: "LINK",
		ASTERISK: "*", EXCLAIM: "!", COLON: ":", COMMA: ",", AT: "@", ATAT: "@@",
		LBRACE: "{", RBRACE: "}", LDBRACE: "{{", RDBRACE: "}}",
		PLUS: "+", MINUS: "-", SLASH: "/", LPAREN: "(", RPAREN: ")",
	}
	for word, typ := range keywords {
		names[typ] = word
	}
	return names
}()

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= TXN && t <= POPMETA
}

// skippedDated reports whether t starts a dated directive that carries no
// transaction data.
func (t TokenType) skippedDated() bool {
	return t >= BALANCE && t <= QUERY
}

// skippedUndated reports whether t starts an undated directive without
// effect on analytics.
func (t TokenType) skippedUndated() bool {
	return t >= PLUGIN && t <= POPMETA
}

// Token is a lexical token. It stores offsets into the source buffer rather
// than the text itself.
type Token struct {
	Type   TokenType
	Start  int
	End    int
	Line   int
	Column int
}

func (t Token) valid(source []byte) bool {
	return t.Start <= t.End && t.End <= len(source) && t.Start < len(source)
}

// String returns the token text.
func (t Token) String(source []byte) string {
	if !t.valid(source) {
		return ""
	}
	return string(source[t.Start:t.End])
}

// Bytes returns the token text without copying.
func (t Token) Bytes(source []byte) []byte {
	if !t.valid(source) {
		return nil
	}
	return source[t.Start:t.End]
}
