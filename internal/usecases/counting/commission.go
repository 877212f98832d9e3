package counting

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/vfg2006/sales-performance-api/internal/domain"
)

var (
	errNegativeAmount = errors.New("valor negativo")
	errNegativeRate   = errors.New("taxa de comissão negativa")
)

// Commission calcula round(amount × rate) em unidades menores, arredondando metade para cima
func Commission(amount domain.Money, rate decimal.Decimal) (domain.Money, error) {
	if amount < 0 {
		return 0, errNegativeAmount
	}
	if rate.IsNegative() {
		return 0, errNegativeRate
	}

	// para valores não negativos, Round(0) equivale a arredondar metade para cima
	commission := decimal.NewFromInt(int64(amount)).Mul(rate).Round(0)
	return domain.Money(commission.IntPart()), nil
}
