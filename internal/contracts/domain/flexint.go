package domain

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// FlexInt is a whole number submitted by form-driven clients that may send it as a
// JSON number, a float such as 3.0, a numeric string, or an empty string. Empty and
// null decode to zero; fractional values round half away from zero.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("flexint: %w", err)
		}
		b = bytes.TrimSpace([]byte(s))
		if len(b) == 0 {
			*n = 0
			return nil
		}
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("flexint: %q is not a number", b)
	}
	*n = FlexInt(d.Round(0).IntPart())
	return nil
}

// Int returns n as a plain int.
func (n FlexInt) Int() int { return int(n) }
