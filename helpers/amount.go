package helpers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexibleAmount accepts money as a JSON number or string, with optional
// thousands separators ("12,000.50").
type FlexibleAmount string

func (fa *FlexibleAmount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fa = FlexibleAmount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*fa = FlexibleAmount(n.String())
		return nil
	}

	return fmt.Errorf("unable to parse %s as an amount", string(data))
}

func (fa FlexibleAmount) IsZero() bool {
	return strings.TrimSpace(string(fa)) == ""
}

func (fa FlexibleAmount) Decimal() (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(string(fa)), ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", string(fa))
	}
	return d.Round(2), nil
}
