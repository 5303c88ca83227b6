// Package parser turns Beancount source text into an ast.AST.
//
// The parser is a hand written recursive descent parser over the token
// stream produced by Lexer. It models the directives that carry analytical
// meaning (transactions, open, close, option, include) and recognises and
// skips every other dated directive together with its indented body.
// Directive bodies are detected by indentation: any token on a later line
// with a column greater than one belongs to the preceding directive.
package parser

import (
	"context"
	"unicode/utf8"

	"github.com/robinvdvleuten/ourfinance/ast"
	"github.com/robinvdvleuten/ourfinance/telemetry"
)

// Parser holds the state of a single parse.
type Parser struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
	interner *Interner

	// Tags pushed with pushtag, applied to every following transaction.
	pushed []ast.Tag
}

// ParseBytes parses source without a filename.
func ParseBytes(ctx context.Context, source []byte) (*ast.AST, error) {
	return ParseBytesWithFilename(ctx, "", source)
}

// ParseString parses source without a filename.
func ParseString(ctx context.Context, source string) (*ast.AST, error) {
	return ParseBytesWithFilename(ctx, "", []byte(source))
}

// ParseBytesWithFilename parses source, recording filename in positions.
// Directives in the result are sorted by date.
func ParseBytesWithFilename(ctx context.Context, filename string, source []byte) (*ast.AST, error) {
	timer := telemetry.StartTimer(ctx, "parser.parse "+displayName(filename))
	defer timer.End()

	if !utf8.Valid(source) {
		return nil, newErrorf(ast.Position{Filename: filename, Line: 1, Column: 1}, source, "file is not valid UTF-8")
	}

	lexTimer := timer.Child("parser.lex")
	lexer := NewLexer(source, filename)
	tokens := lexer.ScanAll()
	lexTimer.End()

	p := &Parser{
		source:   source,
		filename: filename,
		tokens:   tokens,
		interner: lexer.Interner(),
	}

	tree, err := p.parse(ctx)
	if err != nil {
		return nil, err
	}

	ast.SortDirectives(tree)
	return tree, nil
}

func displayName(filename string) string {
	if filename == "" {
		return "<input>"
	}
	return filename
}

// parse consumes the whole token stream.
func (p *Parser) parse(ctx context.Context) (*ast.AST, error) {
	tree := &ast.AST{}

	for !p.isAtEnd() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok := p.peek()
		switch tok.Type {
		case DATE:
			directive, err := p.parseDated()
			if err != nil {
				return nil, err
			}
			if directive == nil {
				tree.Skipped++
				continue
			}
			tree.Directives = append(tree.Directives, directive)

		case OPTION:
			opt, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			tree.Options = append(tree.Options, opt)

		case INCLUDE:
			inc, err := p.parseInclude()
			if err != nil {
				return nil, err
			}
			tree.Includes = append(tree.Includes, inc)

		case PUSHTAG, POPTAG:
			if err := p.parseTagStack(); err != nil {
				return nil, err
			}

		default:
			if tok.Type.skippedUndated() {
				p.skipDirective()
				continue
			}
			// Org-mode section headers ("* Banking") are allowed at column one.
			if tok.Type == ASTERISK && tok.Column == 1 {
				p.skipLine()
				continue
			}
			return nil, p.errorAtToken(tok, "unexpected %s %q", tok.Type, tok.String(p.source))
		}
	}

	return tree, nil
}

// parseDated parses a directive starting with a date. It returns nil for
// directives that are recognised but not modelled.
func (p *Parser) parseDated() (ast.Directive, error) {
	dateTok := p.peek()
	date, err := p.parseDate()
	if err != nil {
		return nil, err
	}
	pos := tokenPosition(dateTok, p.filename)

	next := p.peek()
	if next.Line != dateTok.Line {
		return nil, p.errorAtToken(dateTok, "expected directive after date")
	}

	switch next.Type {
	case TXN, ASTERISK, EXCLAIM, STRING:
		return p.parseTransaction(pos, date)
	case OPEN:
		return p.parseOpen(pos, date)
	case CLOSE:
		return p.parseClose(pos, date)
	default:
		if next.Type.skippedDated() {
			p.skipDirective()
			return nil, nil
		}
		return nil, p.errorAtToken(next, "unknown directive %q", next.String(p.source))
	}
}

// parseOpen parses: DATE open ACCOUNT [CURRENCY {, CURRENCY}] [BOOKING]
func (p *Parser) parseOpen(pos ast.Position, date *ast.Date) (*ast.Open, error) {
	p.advance() // open

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	open := &ast.Open{Pos: pos, Date: date, Account: account}

	for p.check(IDENT) && p.peek().Line == pos.Line {
		currency, err := p.parseCurrency()
		if err != nil {
			return nil, err
		}
		open.ConstraintCurrencies = append(open.ConstraintCurrencies, currency)
		if !p.match(COMMA) {
			break
		}
	}

	if p.check(STRING) && p.peek().Line == pos.Line {
		method, err := p.parseString()
		if err != nil {
			return nil, err
		}
		open.BookingMethod = method
	}

	open.Metadata = p.parseMetadata(pos.Line)
	return open, nil
}

// parseClose parses: DATE close ACCOUNT
func (p *Parser) parseClose(pos ast.Position, date *ast.Date) (*ast.Close, error) {
	p.advance() // close

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	return &ast.Close{
		Pos:      pos,
		Date:     date,
		Account:  account,
		Metadata: p.parseMetadata(pos.Line),
	}, nil
}

// parseOption parses: option STRING STRING
func (p *Parser) parseOption() (*ast.Option, error) {
	tok := p.advance()

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}
	value, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Option{Pos: tokenPosition(tok, p.filename), Name: name, Value: value}, nil
}

// parseInclude parses: include STRING
func (p *Parser) parseInclude() (*ast.Include, error) {
	tok := p.advance()

	filename, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Include{Pos: tokenPosition(tok, p.filename), Filename: filename}, nil
}

// parseTagStack handles pushtag/poptag. Popping a tag that was never pushed
// is an error, as it almost always is a typo.
func (p *Parser) parseTagStack() error {
	keyword := p.advance()

	tag, err := p.parseTag()
	if err != nil {
		return err
	}

	if keyword.Type == PUSHTAG {
		p.pushed = append(p.pushed, tag)
		return nil
	}

	for i := len(p.pushed) - 1; i >= 0; i-- {
		if p.pushed[i] == tag {
			p.pushed = append(p.pushed[:i], p.pushed[i+1:]...)
			return nil
		}
	}
	return p.errorAtToken(keyword, "attempting to pop absent tag %q", string(tag))
}
