package parser

import "github.com/robinvdvleuten/ourfinance/ast"

// parseTransaction parses:
//
//	DATE [txn] [FLAG] [[PAYEE] NARRATION] [TAG|LINK]*
//	  [METADATA]*
//	  POSTING*
func (p *Parser) parseTransaction(pos ast.Position, date *ast.Date) (*ast.Transaction, error) {
	txn := &ast.Transaction{Pos: pos, Date: date, Flag: "*"}

	p.match(TXN)
	if p.match(EXCLAIM) {
		txn.Flag = "!"
	} else {
		p.match(ASTERISK)
	}

	// One string is the narration, two are payee and narration.
	if p.check(STRING) {
		first, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if p.check(STRING) {
			second, err := p.parseString()
			if err != nil {
				return nil, err
			}
			txn.Payee = first
			txn.Narration = second
		} else {
			txn.Narration = first
		}
	}

	for p.peek().Line == pos.Line && (p.check(TAG) || p.check(LINK)) {
		if p.check(TAG) {
			tag, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			txn.Tags = appendTag(txn.Tags, tag)
			continue
		}
		link, err := p.parseLink()
		if err != nil {
			return nil, err
		}
		txn.Links = append(txn.Links, link)
	}

	if tok := p.peek(); tok.Line == pos.Line && !p.isAtEnd() {
		return nil, p.errorAtToken(tok, "unexpected %s %q in transaction header", tok.Type, tok.String(p.source))
	}

	for _, tag := range p.pushed {
		txn.Tags = appendTag(txn.Tags, tag)
	}

	txn.Metadata = p.parseMetadata(pos.Line)

	postings, err := p.parsePostings()
	if err != nil {
		return nil, err
	}
	txn.Postings = postings

	return txn, nil
}

func appendTag(tags []ast.Tag, tag ast.Tag) []ast.Tag {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

// parsePostings parses the indented posting lines of a transaction.
// Indentation separates postings from org-mode headers like "* Banking".
func (p *Parser) parsePostings() ([]*ast.Posting, error) {
	postings := make([]*ast.Posting, 0, 4)

	for !p.isAtEnd() {
		tok := p.peek()
		if tok.Column <= 1 {
			break
		}
		if tok.Type != ASTERISK && tok.Type != EXCLAIM && tok.Type != ACCOUNT {
			return nil, p.errorAtToken(tok, "expected posting but got %s %q", tok.Type, tok.String(p.source))
		}

		posting, err := p.parsePosting()
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}

	return postings, nil
}

// parsePosting parses:
//
//	[FLAG] ACCOUNT [AMOUNT] [COST] [@|@@ PRICE]
//	  [METADATA]*
func (p *Parser) parsePosting() (*ast.Posting, error) {
	start := p.peek()
	posting := &ast.Posting{Pos: tokenPosition(start, p.filename)}

	if p.match(ASTERISK) {
		posting.Flag = "*"
	} else if p.match(EXCLAIM) {
		posting.Flag = "!"
	}

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	posting.Account = account

	sameLine := func() bool { return p.peek().Line == start.Line && !p.isAtEnd() }

	if sameLine() && p.isExpressionStart() {
		amount, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Amount = amount
	}

	if sameLine() && (p.check(LBRACE) || p.check(LDBRACE)) {
		cost, err := p.parseCost()
		if err != nil {
			return nil, err
		}
		posting.Cost = cost
	}

	if sameLine() && (p.check(AT) || p.check(ATAT)) {
		posting.PriceTotal = p.advance().Type == ATAT
		price, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Price = price
	}

	if sameLine() {
		tok := p.peek()
		return nil, p.errorAtToken(tok, "unexpected %s %q in posting", tok.Type, tok.String(p.source))
	}

	posting.Metadata = p.parseMetadata(start.Line)
	return posting, nil
}
