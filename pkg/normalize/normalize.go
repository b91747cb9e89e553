// Package normalize turns raw inventory feed tokens into the integer stock
// counts and prices the marketplaces accept.
package normalize

import (
	"strconv"
	"strings"

	"github.com/agentstation/marketsync/pkg/constants"
	"github.com/agentstation/marketsync/pkg/errors"
)

// Quantity maps a feed quantity token to a stock count.
//
// ">10" becomes 100, a large but bounded restock signal. "1" becomes 0: a
// single unit is a display or reserved piece and is treated as sold out. Any
// other token must be a non-negative base-10 integer.
func Quantity(token string) (int, error) {
	token = strings.TrimSpace(token)
	switch token {
	case constants.QuantityMoreThanTen:
		return constants.QuantityMoreThanTenStock, nil
	case constants.QuantitySingleUnit:
		return 0, nil
	}

	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, errors.NewParseError("quantity", token, err)
	}
	if n < 0 {
		return 0, errors.NewParseError("quantity", token, errors.New("negative stock"))
	}
	return n, nil
}

// Price extracts the integer part of a formatted price as a digit string.
// Everything before the first '.' is kept and every non-digit rune is
// removed, so "5'990.00 руб" becomes "5990". An input without digits yields "".
func Price(text string) string {
	if i := strings.IndexByte(text, '.'); i >= 0 {
		text = text[:i]
	}
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
}

// PriceValue is Price followed by integer conversion.
// An empty digit string is a parse error.
func PriceValue(text string) (int, error) {
	digits := Price(text)
	if digits == "" {
		return 0, errors.NewParseError("price", text, errors.New("no digits"))
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, errors.NewParseError("price", text, err)
	}
	return n, nil
}
