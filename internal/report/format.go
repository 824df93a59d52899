package report

import (
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders numbers for chart labels in one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter returns a formatter for a BCP 47 tag such as "en" or "de".
func NewFormatter(locale string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, errors.Wrapf(err, "locale %q", locale)
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}, nil
}

func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Float formats v with two decimals.
func (f *Formatter) Float(v float64) string {
	return f.printer.Sprintf("%.2f", v)
}

// Sci formats v as a one-decimal mantissa times a power of ten, e.g. 6.9×10^8.
func (f *Formatter) Sci(v float64) string {
	if v == 0 || !finite(v) {
		return f.Float(v)
	}
	exp := int(math.Floor(math.Log10(math.Abs(v))))
	return f.printer.Sprintf("%.1f×10^%d", v/math.Pow10(exp), exp)
}

// Value picks Sci for large magnitudes and Float otherwise.
func (f *Formatter) Value(v float64) string {
	if math.Abs(v) >= 1e5 {
		return f.Sci(v)
	}
	return f.Float(v)
}
