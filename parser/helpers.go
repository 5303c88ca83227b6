package parser

import (
	"strconv"
	"strings"

	"github.com/robinvdvleuten/ourfinance/ast"
)

// parseDate parses a DATE token.
func (p *Parser) parseDate() (*ast.Date, error) {
	tok, err := p.expect(DATE, "date")
	if err != nil {
		return nil, err
	}

	var date ast.Date
	if err := date.Capture([]string{tok.String(p.source)}); err != nil {
		return nil, p.errorAtToken(tok, "%v", err)
	}
	return &date, nil
}

// parseAccount parses an ACCOUNT token. Account names are interned.
func (p *Parser) parseAccount() (ast.Account, error) {
	tok, err := p.expect(ACCOUNT, "account")
	if err != nil {
		return "", err
	}

	var account ast.Account
	if err := account.Capture([]string{p.interner.InternBytes(tok.Bytes(p.source))}); err != nil {
		return "", p.errorAtToken(tok, "invalid account: %v", err)
	}
	return account, nil
}

// parseCurrency parses an IDENT used as a commodity name.
func (p *Parser) parseCurrency() (string, error) {
	tok, err := p.expect(IDENT, "currency")
	if err != nil {
		return "", err
	}
	return p.interner.InternBytes(tok.Bytes(p.source)), nil
}

// parseAmount parses NUMBER CURRENCY, where the number may be an arithmetic
// expression:
//
//	100.50 USD
//	-50.00 USD
//	(40.00/3) USD
//	40.00/3 + 5 USD
func (p *Parser) parseAmount() (*ast.Amount, error) {
	var value string

	if p.check(NUMBER) && !p.isOperator(p.peekAhead(1).Type) {
		// Fast path keeps the literal as written.
		value = normalizeNumber(p.advance().String(p.source))
	} else {
		result, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		value = result.String()
	}

	currency, err := p.parseCurrency()
	if err != nil {
		return nil, err
	}

	return &ast.Amount{Value: value, Currency: currency}, nil
}

// normalizeNumber strips thousands separators.
func normalizeNumber(s string) string {
	if strings.IndexByte(s, ',') < 0 {
		return s
	}
	return strings.ReplaceAll(s, ",", "")
}

// parseCost parses a cost specification. Components may appear in any order:
//
//	{518.73 USD}  {{5187.30 USD}}  {518.73 USD, 2014-05-01, "lot"}  {}  {*}
func (p *Parser) parseCost() (*ast.Cost, error) {
	open := p.advance()
	cost := &ast.Cost{IsTotal: open.Type == LDBRACE}
	closing := RBRACE
	if cost.IsTotal {
		closing = RDBRACE
	}

	for !p.check(closing) {
		switch {
		case p.match(COMMA):
			continue
		case p.match(ASTERISK):
			cost.IsMerge = true
		case p.check(DATE):
			date, err := p.parseDate()
			if err != nil {
				return nil, err
			}
			cost.Date = date
		case p.check(STRING):
			label, err := p.parseString()
			if err != nil {
				return nil, err
			}
			cost.Label = label
		case p.isExpressionStart():
			amount, err := p.parseAmount()
			if err != nil {
				return nil, err
			}
			cost.Amount = amount
		default:
			return nil, p.error("unexpected %s in cost specification", p.peek().Type)
		}
	}
	p.advance()

	return cost, nil
}

// parseString parses a STRING token and unquotes it.
func (p *Parser) parseString() (string, error) {
	tok, err := p.expect(STRING, "string")
	if err != nil {
		return "", err
	}
	return unquoteString(tok.String(p.source)), nil
}

// parseTag parses a TAG token without its # prefix.
func (p *Parser) parseTag() (ast.Tag, error) {
	tok, err := p.expect(TAG, "tag")
	if err != nil {
		return "", err
	}

	var tag ast.Tag
	if err := tag.Capture([]string{p.interner.InternBytes(tok.Bytes(p.source))}); err != nil {
		return "", p.errorAtToken(tok, "invalid tag: %v", err)
	}
	return tag, nil
}

// parseLink parses a LINK token without its ^ prefix.
func (p *Parser) parseLink() (ast.Link, error) {
	tok, err := p.expect(LINK, "link")
	if err != nil {
		return "", err
	}

	var link ast.Link
	if err := link.Capture([]string{tok.String(p.source)}); err != nil {
		return "", p.errorAtToken(tok, "invalid link: %v", err)
	}
	return link, nil
}

// parseMetadata parses indented "key: value" lines following headerLine.
// Keys can be identifiers or keywords ("price:", "note:").
func (p *Parser) parseMetadata(headerLine int) []*ast.Metadata {
	var metadata []*ast.Metadata

	for {
		keyTok := p.peek()
		if keyTok.Line <= headerLine || keyTok.Column <= 1 {
			break
		}
		if (keyTok.Type != IDENT && !keyTok.Type.IsKeyword()) || p.peekAhead(1).Type != COLON {
			break
		}

		p.advance()
		colon := p.advance()

		metadata = append(metadata, &ast.Metadata{
			Key:   keyTok.String(p.source),
			Value: unquoteString(p.parseRestOfLine(colon.End)),
		})
		headerLine = keyTok.Line
	}

	return metadata
}

// parseRestOfLine consumes the remaining tokens on the current line and
// returns their source text, including the original spacing.
func (p *Parser) parseRestOfLine(prevEnd int) string {
	if p.isAtEnd() {
		return ""
	}

	line := p.previous().Line
	end := prevEnd
	for !p.isAtEnd() && p.peek().Line == line {
		end = p.advance().End
	}

	return strings.TrimSpace(string(p.source[prevEnd:end]))
}

// skipLine consumes every token on the current line.
func (p *Parser) skipLine() {
	line := p.peek().Line
	for !p.isAtEnd() && p.peek().Line == line {
		p.advance()
	}
}

// skipDirective consumes the current line and its indented body.
func (p *Parser) skipDirective() {
	p.skipLine()
	for !p.isAtEnd() && p.peek().Column > 1 {
		p.skipLine()
	}
}

func unquoteString(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unquoted, err := strconv.Unquote(s); err == nil {
			return unquoted
		}
		return s[1 : len(s)-1]
	}
	return s
}

// Token navigation

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAhead(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) previous() Token {
	if p.pos == 0 {
		return Token{Type: ILLEGAL}
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) match(types ...TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) expect(typ TokenType, what string) (Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	tok := p.peek()
	if tok.Type == EOF {
		return tok, p.errorAtToken(tok, "expected %s but reached end of file", what)
	}
	return tok, p.errorAtToken(tok, "expected %s but got %s %q", what, tok.Type, tok.String(p.source))
}

// Error helpers

func (p *Parser) errorAtToken(tok Token, format string, args ...interface{}) error {
	return newErrorf(tokenPosition(tok, p.filename), p.source, format, args...)
}

func (p *Parser) error(format string, args ...interface{}) error {
	return p.errorAtToken(p.peek(), format, args...)
}

func tokenPosition(tok Token, filename string) ast.Position {
	return ast.Position{
		Filename: filename,
		Offset:   tok.Start,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}
