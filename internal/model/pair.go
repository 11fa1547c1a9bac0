package model

import (
	"strconv"

	"github.com/shopspring/decimal"

	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

// 交易品种。pip为该品种的最小价格增量，价格和pip之间的换算都在这里完成
type Pair struct {
	Name string
	Pip  decimal.Decimal
}

func NewPair(name, pip string) (Pair, error) {
	d, err := ParsePrice(pip)
	if err != nil {
		return Pair{}, err
	}
	if !d.IsPositive() {
		return Pair{}, errors.Newf(ecode.InvalidPriceErr, "pip must be positive: %s", pip)
	}
	return Pair{Name: name, Pip: d}, nil
}

// ParsePrice 把字符串解析为十进制价格。无法解析时返回InvalidPriceErr
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, ecode.InvalidPriceErr, "cannot parse price %q", s)
	}
	return d, nil
}

// PipsOf 把价格换算成pip数
func (p Pair) PipsOf(price decimal.Decimal) decimal.Decimal {
	return price.Div(p.Pip)
}

// AddPips 在价格上加减指定pip数（负数为减）
func (p Pair) AddPips(price decimal.Decimal, pips int64) decimal.Decimal {
	return price.Add(decimal.NewFromInt(pips).Mul(p.Pip))
}

// GridKey 把价格离散成整pip粒度的键，用于网格状态map
func (p Pair) GridKey(price decimal.Decimal) string {
	return strconv.FormatInt(price.Div(p.Pip).IntPart(), 10)
}
