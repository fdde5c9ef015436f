package main

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type moneyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

func newMoneyFormatter(unit currency.Unit) *moneyFormatter {
	return &moneyFormatter{
		unit:    unit,
		printer: message.NewPrinter(language.English),
	}
}

// format renders amount for display only; arithmetic stays in decimal.
func (m *moneyFormatter) format(amount decimal.Decimal) string {
	return m.printer.Sprint(currency.Symbol(m.unit.Amount(amount.InexactFloat64())))
}

// stripeCurrency is the lower-case code stored on checkout records.
func (m *moneyFormatter) stripeCurrency() stripe.Currency {
	return stripe.Currency(strings.ToLower(m.unit.String()))
}
