package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type currencyFormat struct {
	symbol   string
	thousand string
	decimal  string
}

var currencyFormats = map[string]currencyFormat{
	"BRL": {symbol: "R$ ", thousand: ".", decimal: ","},
	"EUR": {symbol: "€ ", thousand: ".", decimal: ","},
	"USD": {symbol: "$", thousand: ",", decimal: "."},
	"CNY": {symbol: "¥", thousand: ",", decimal: "."},
}

// FormatCurrency 按币种格式化金额，如 BRL 1234.5 -> "R$ 1.234,50"
func FormatCurrency(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	f, ok := currencyFormats[code]
	if !ok {
		f = currencyFormat{symbol: code + " ", thousand: ",", decimal: "."}
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(f.thousand)
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%s%s%s%s%s", sign, f.symbol, b.String(), f.decimal, fracPart)
}
