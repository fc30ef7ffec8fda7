package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"DealSentinel/internal/model"
)

// TotalCompensation sums cash, goods and other items. It is recomputed on
// every call and never stored on the deal.
func TotalCompensation(deal *model.DealTerms) (decimal.Decimal, error) {
	total, err := deal.CashAmount.Decimal("cashAmount")
	if err != nil {
		return decimal.Zero, err
	}
	for i, g := range deal.GoodsItems {
		v, err := g.EstimatedValue.Decimal(fmt.Sprintf("goodsItems[%d].estimatedValue", i))
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	for i, o := range deal.OtherItems {
		v, err := o.EstimatedValue.Decimal(fmt.Sprintf("otherItems[%d].estimatedValue", i))
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, nil
}
