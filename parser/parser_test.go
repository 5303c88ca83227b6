package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ourfinance/ast"
)

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "transaction symbols",
			input: "* !",
			want:  []TokenType{ASTERISK, EXCLAIM, EOF},
		},
		{
			name:  "price annotations",
			input: "@ @@",
			want:  []TokenType{AT, ATAT, EOF},
		},
		{
			name:  "cost braces",
			input: "{ } {{ }}",
			want:  []TokenType{LBRACE, RBRACE, LDBRACE, RDBRACE, EOF},
		},
		{
			name:  "arithmetic",
			input: "( + / )",
			want:  []TokenType{LPAREN, PLUS, SLASH, RPAREN, EOF},
		},
		{
			name:  "open directive",
			input: `2024-01-01 open Assets:Checking USD`,
			want:  []TokenType{DATE, OPEN, ACCOUNT, IDENT, EOF},
		},
		{
			name:  "negative number",
			input: "-1,234.50 USD",
			want:  []TokenType{NUMBER, IDENT, EOF},
		},
		{
			name:  "tags and links",
			input: `"Narration" #trip ^invoice-12`,
			want:  []TokenType{STRING, TAG, LINK, EOF},
		},
		{
			name:  "comment skipped",
			input: "; a comment\noption",
			want:  []TokenType{OPTION, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := NewLexer([]byte(tt.input), "test").ScanAll()
			types := make([]TokenType, len(tokens))
			for i, tok := range tokens {
				types[i] = tok.Type
			}
			assert.Equal(t, tt.want, types)
		})
	}
}

func TestLexerPositions(t *testing.T) {
	source := []byte("2024-01-01 open Assets:Checking\n  Assets:Savings")
	tokens := NewLexer(source, "test").ScanAll()

	assert.Equal(t, 5, len(tokens))
	assert.Equal(t, "Assets:Checking", tokens[2].String(source))
	assert.Equal(t, 1, tokens[2].Line)
	assert.Equal(t, 17, tokens[2].Column)
	assert.Equal(t, 2, tokens[3].Line)
	assert.Equal(t, 3, tokens[3].Column)
	assert.Equal(t, "open", tokens[1].Type.String())
}

func TestParseTransaction(t *testing.T) {
	source := `2024-01-15 * "Cafe Mogador" "Lamb tagine" #food ^receipt-1
  category: "dining"
  Liabilities:CreditCard   -37.45 USD
  Expenses:Food:Restaurant
`

	result, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(result.Directives))

	txn, ok := result.Directives[0].(*ast.Transaction)
	assert.True(t, ok)
	assert.Equal(t, "*", txn.Flag)
	assert.Equal(t, "Cafe Mogador", txn.Payee)
	assert.Equal(t, "Lamb tagine", txn.Narration)
	assert.Equal(t, []ast.Tag{"food"}, txn.Tags)
	assert.Equal(t, []ast.Link{"receipt-1"}, txn.Links)
	assert.Equal(t, 1, len(txn.Metadata))
	assert.Equal(t, "category", txn.Metadata[0].Key)

	assert.Equal(t, 2, len(txn.Postings))
	assert.Equal(t, ast.Account("Liabilities:CreditCard"), txn.Postings[0].Account)
	assert.Equal(t, &ast.Amount{Value: "-37.45", Currency: "USD"}, txn.Postings[0].Amount)
	assert.Zero(t, txn.Postings[1].Amount)
}

func TestParseTransactionVariants(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		flag      string
		payee     string
		narration string
	}{
		{"Pending", "2024-01-15 ! \"Pending\"\n  Assets:Checking  1 USD\n  Equity:Opening\n", "!", "", "Pending"},
		{"Txn", "2024-01-15 txn \"Keyword\"\n  Assets:Checking  1 USD\n  Equity:Opening\n", "*", "", "Keyword"},
		{"NarrationOnly", "2024-01-15 \"Bare\"\n  Assets:Checking  1 USD\n  Equity:Opening\n", "*", "", "Bare"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseString(context.Background(), tt.source)
			assert.NoError(t, err)
			txn := result.Directives[0].(*ast.Transaction)
			assert.Equal(t, tt.flag, txn.Flag)
			assert.Equal(t, tt.payee, txn.Payee)
			assert.Equal(t, tt.narration, txn.Narration)
		})
	}
}

func TestParseAmounts(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"Plain", "100.50", "100.50"},
		{"Thousands", "1,234.56", "1234.56"},
		{"Expression", "(40.00/4)", "10"},
		{"Sum", "10 + 2.5", "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "2024-01-15 * \"Test\"\n  Assets:Checking  " + tt.amount + " USD\n  Equity:Opening\n"
			result, err := ParseString(context.Background(), source)
			assert.NoError(t, err)
			txn := result.Directives[0].(*ast.Transaction)
			assert.Equal(t, tt.want, txn.Postings[0].Amount.Value)
		})
	}
}

func TestParseCostAndPrice(t *testing.T) {
	source := `2024-01-15 * "Buy"
  Assets:Brokerage   10 HOOL {518.73 USD}
  Assets:Cash       200 EUR @@ 270 USD
  Assets:Checking
`

	result, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	txn := result.Directives[0].(*ast.Transaction)

	assert.NotZero(t, txn.Postings[0].Cost)
	assert.Equal(t, &ast.Amount{Value: "518.73", Currency: "USD"}, txn.Postings[0].Cost.Amount)
	assert.True(t, txn.Postings[1].PriceTotal)
	assert.Equal(t, &ast.Amount{Value: "270", Currency: "USD"}, txn.Postings[1].Price)
}

func TestParseOpenCloseOptionInclude(t *testing.T) {
	source := `option "operating_currency" "USD"
include "accounts.beancount"

2024-01-01 open Assets:Checking USD, EUR "FIFO"
2024-12-31 close Assets:Checking
`

	result, err := ParseString(context.Background(), source)
	assert.NoError(t, err)

	assert.Equal(t, 1, len(result.Options))
	assert.Equal(t, "operating_currency", result.Options[0].Name)
	assert.Equal(t, "USD", result.Options[0].Value)
	assert.Equal(t, 1, len(result.Includes))
	assert.Equal(t, "accounts.beancount", result.Includes[0].Filename)

	assert.Equal(t, 2, len(result.Directives))
	open := result.Directives[0].(*ast.Open)
	assert.Equal(t, []string{"USD", "EUR"}, open.ConstraintCurrencies)
	assert.Equal(t, "FIFO", open.BookingMethod)
	assert.Equal(t, "close", result.Directives[1].Kind())
}

func TestParseSkipsUnmodelledDirectives(t *testing.T) {
	source := `* Banking
2024-01-01 commodity USD
  name: "US Dollar"
2024-01-02 price HOOL 500 USD
2024-01-03 balance Assets:Checking 0 USD
plugin "beancount.plugins.auto"
2024-01-04 open Assets:Checking
`

	result, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(result.Directives))
	assert.Equal(t, 3, result.Skipped)
}

func TestParseTagStack(t *testing.T) {
	source := `pushtag #trip
2024-01-15 * "Hotel"
  Expenses:Travel  100 USD
  Assets:Checking
poptag #trip
2024-01-16 * "Home"
  Expenses:Food  10 USD
  Assets:Checking
`

	result, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	assert.Equal(t, []ast.Tag{"trip"}, result.Directives[0].(*ast.Transaction).Tags)
	assert.Equal(t, 0, len(result.Directives[1].(*ast.Transaction).Tags))

	_, err = ParseString(context.Background(), "poptag #missing\n")
	assert.Error(t, err)
}

func TestParseSortsByDate(t *testing.T) {
	source := `2024-02-01 open Assets:Savings
2024-01-01 open Assets:Checking
`

	result, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	assert.Equal(t, ast.Account("Assets:Checking"), result.Directives[0].(*ast.Open).Account)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		line    int
		message string
	}{
		{"UnknownDirective", "2024-01-01 invalid directive\n", 1, "unknown directive"},
		{"MissingCurrency", "2024-01-01 * \"Test\"\n  Assets:Checking  10\n  Equity:Opening\n", 3, ""},
		{"DivisionByZero", "2024-01-01 * \"Test\"\n  Assets:Checking  10/0 USD\n  Equity:Opening\n", 2, "division by zero"},
		{"TopLevelGarbage", "Assets:Checking\n", 1, "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytesWithFilename(context.Background(), "main.beancount", []byte(tt.source))
			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
			assert.Equal(t, "main.beancount", parseErr.Pos.Filename)
			assert.Equal(t, tt.line, parseErr.GetPosition().Line)
			assert.Contains(t, parseErr.Error(), tt.message)
			assert.Equal(t, tt.source, string(parseErr.Source))
		})
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := ParseBytes(context.Background(), []byte{0xff, 0xfe})
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "line 1: file is not valid UTF-8", parseErr.Error())
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseString(ctx, "2024-01-01 open Assets:Checking\n")
	assert.IsError(t, err, context.Canceled)
}
