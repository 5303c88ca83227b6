package parser

import (
	"github.com/shopspring/decimal"
)

// Arithmetic in amounts is evaluated at parse time with decimal precision.
//
//	expression → term (('+' | '-') term)*
//	term       → factor (('*' | '/') factor)*
//	factor     → NUMBER | '-' factor | '+' factor | '(' expression ')'

// divisionPrecision is the number of decimal places kept by division.
const divisionPrecision = 16

func (p *Parser) parseExpression() (decimal.Decimal, error) {
	left, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}

	for p.check(PLUS) || p.check(MINUS) {
		op := p.advance().Type
		right, err := p.parseTerm()
		if err != nil {
			return decimal.Zero, err
		}
		if op == PLUS {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}

	return left, nil
}

func (p *Parser) parseTerm() (decimal.Decimal, error) {
	left, err := p.parseFactor()
	if err != nil {
		return decimal.Zero, err
	}

	for p.check(ASTERISK) || p.check(SLASH) {
		opTok := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}

		if opTok.Type == ASTERISK {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return decimal.Zero, p.errorAtToken(opTok, "division by zero")
		}
		left = left.DivRound(right, divisionPrecision)
	}

	return left, nil
}

func (p *Parser) parseFactor() (decimal.Decimal, error) {
	tok := p.peek()

	switch tok.Type {
	case NUMBER:
		p.advance()
		d, err := decimal.NewFromString(normalizeNumber(tok.String(p.source)))
		if err != nil {
			return decimal.Zero, p.errorAtToken(tok, "invalid number %q", tok.String(p.source))
		}
		return d, nil

	case MINUS, PLUS:
		p.advance()
		value, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		if tok.Type == MINUS {
			return value.Neg(), nil
		}
		return value, nil

	case LPAREN:
		p.advance()
		result, err := p.parseExpression()
		if err != nil {
			return decimal.Zero, err
		}
		if _, err := p.expect(RPAREN, "')' after expression"); err != nil {
			return decimal.Zero, err
		}
		return result, nil
	}

	return decimal.Zero, p.errorAtToken(tok, "expected number or '(' in expression, got %s", tok.Type)
}

func (p *Parser) isOperator(typ TokenType) bool {
	return typ == PLUS || typ == MINUS || typ == ASTERISK || typ == SLASH
}

// isExpressionStart reports whether the current token can begin an amount.
func (p *Parser) isExpressionStart() bool {
	return p.check(NUMBER) || p.check(LPAREN) || p.check(MINUS) || p.check(PLUS)
}
