package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Cost is a fixed two-decimal monetary amount stored as integer cents.
// The wire representation is a two-decimal string, e.g. "100.00".
type Cost int64

// ParseCost accepts "100", "100.5" and "100.50". More than two fractional
// digits or a negative amount is rejected.
func ParseCost(s string) (Cost, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("cost cannot be empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("cost cannot be negative: %s", s)
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("cost has more than two decimal places: %s", s)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cost: %s", s)
	}
	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cost: %s", s)
	}

	return Cost(units*100 + cents), nil
}

func (c Cost) String() string {
	return fmt.Sprintf("%d.%02d", int64(c)/100, int64(c)%100)
}

func (c Cost) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

// UnmarshalJSON accepts either a JSON string ("100.00") or a bare number.
func (c *Cost) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParseCost(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
