package currency

import (
	"math"
	"strings"

	"github.com/fekuna/chronostore/internal/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Canonical is the currency every stored price is expressed in.
const Canonical = "KZT"

type Currency struct {
	Code   string
	Symbol string
	// Rate is the number of KZT in one unit of the currency.
	Rate decimal.Decimal
}

var table = []Currency{
	{Code: "KZT", Symbol: "₸", Rate: decimal.NewFromInt(1)},
	{Code: "USD", Symbol: "$", Rate: decimal.NewFromInt(450)},
	{Code: "EUR", Symbol: "€", Rate: decimal.NewFromInt(490)},
	{Code: "RUB", Symbol: "₽", Rate: decimal.NewFromInt(5)},
	{Code: "CNY", Symbol: "¥", Rate: decimal.NewFromInt(62)},
	{Code: "KGS", Symbol: "сом", Rate: decimal.RequireFromString("5.2")},
	{Code: "UZS", Symbol: "сўм", Rate: decimal.RequireFromString("0.036")},
}

var aliases = map[string]string{
	"$":   "USD",
	"€":   "EUR",
	"₽":   "RUB",
	"руб": "RUB",
	"₸":   "KZT",
	"тг":  "KZT",
	"¥":   "CNY",
}

type Converter struct {
	byCode map[string]Currency
	locale language.Tag
	logger logger.ZapLogger
}

func NewConverter(log logger.ZapLogger) *Converter {
	byCode := make(map[string]Currency, len(table))
	for _, c := range table {
		byCode[c.Code] = c
	}
	return &Converter{
		byCode: byCode,
		locale: language.Russian,
		logger: log,
	}
}

// Codes lists the supported currency codes.
func (c *Converter) Codes() []string {
	codes := make([]string, 0, len(table))
	for _, cur := range table {
		codes = append(codes, cur.Code)
	}
	return codes
}

// Resolve accepts a code in any case or a symbol alias.
func (c *Converter) Resolve(codeOrSymbol string) (Currency, bool) {
	key := strings.TrimSpace(codeOrSymbol)
	if code, ok := aliases[strings.ToLower(key)]; ok {
		key = code
	}
	cur, ok := c.byCode[strings.ToUpper(key)]
	return cur, ok
}

// Convert turns a canonical amount into the target currency. Unknown codes
// and non-finite amounts leave the amount unchanged.
func (c *Converter) Convert(amount float64, code string) float64 {
	if !finite(amount) {
		return amount
	}
	cur, ok := c.lookup(code)
	if !ok || cur.Code == Canonical {
		return amount
	}
	return decimal.NewFromFloat(amount).Div(cur.Rate).InexactFloat64()
}

// ToCanonical is the inverse of Convert.
func (c *Converter) ToCanonical(amount float64, code string) float64 {
	if !finite(amount) {
		return amount
	}
	cur, ok := c.lookup(code)
	if !ok || cur.Code == Canonical {
		return amount
	}
	return decimal.NewFromFloat(amount).Mul(cur.Rate).InexactFloat64()
}

type formatOptions struct {
	decimals int
	locale   *language.Tag
}

type FormatOption func(*formatOptions)

func WithDecimals(n int) FormatOption {
	return func(o *formatOptions) {
		if n >= 0 {
			o.decimals = n
		}
	}
}

func WithLocale(tag language.Tag) FormatOption {
	return func(o *formatOptions) { o.locale = &tag }
}

// Format converts a canonical amount and renders it as "<number> <symbol>".
// A nil, NaN or infinite amount renders as an empty string.
func (c *Converter) Format(amount *float64, codeOrSymbol string, opts ...FormatOption) string {
	if amount == nil || !finite(*amount) {
		return ""
	}
	o := formatOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	locale := c.locale
	if o.locale != nil {
		locale = *o.locale
	}

	cur, ok := c.lookup(codeOrSymbol)
	if !ok {
		cur = c.byCode[Canonical]
	}
	value := *amount
	if cur.Code != Canonical {
		value = decimal.NewFromFloat(value).Div(cur.Rate).Round(int32(o.decimals)).InexactFloat64()
	}

	p := message.NewPrinter(locale)
	formatted := p.Sprint(number.Decimal(value,
		number.MinFractionDigits(o.decimals),
		number.MaxFractionDigits(o.decimals),
	))
	return formatted + " " + cur.Symbol
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (c *Converter) lookup(code string) (Currency, bool) {
	cur, ok := c.Resolve(code)
	if !ok {
		c.logger.Warn("unknown currency, using canonical rate", zap.String("currency", code))
	}
	return cur, ok
}
