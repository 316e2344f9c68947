package engine

import (
	"github.com/shopspring/decimal"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// candidateIndex narrows the external pool to items sharing an
// indexable key with a system item, avoiding a full cross product per
// rule. Order rules index by normalized order number; time-range rules
// by one-unit amount bucket. Customer similarity has no usable key, so
// that variant scans the pool. Entries killed mid-rule are filtered by
// the caller's aliveness check.
type candidateIndex struct {
	byOrderNo    map[string][]int
	byBucket     map[int64][]int
	tolerance    decimal.Decimal
	tolerancePct decimal.Decimal
	all          []int
}

func newCandidateIndex(rule model.Rule, ext []model.Item, alive []bool) *candidateIndex {
	index := &candidateIndex{}
	switch r := rule.(type) {
	case model.OrderRule:
		index.byOrderNo = make(map[string][]int)
		for i, it := range ext {
			if !alive[i] {
				continue
			}
			key := NormalizeOrderNo(it.OrderNo)
			if key == "" {
				continue
			}
			index.byOrderNo[key] = append(index.byOrderNo[key], i)
		}
	case model.TimeRangeRule:
		index.byBucket = make(map[int64][]int)
		index.tolerance = r.AmountTolerance
		index.tolerancePct = r.AmountTolerancePct
		for i, it := range ext {
			if !alive[i] {
				continue
			}
			b := bucketKey(it.Amount)
			index.byBucket[b] = append(index.byBucket[b], i)
		}
	default:
		for i := range ext {
			if alive[i] {
				index.all = append(index.all, i)
			}
		}
	}
	return index
}

// candidates returns external pool indices worth evaluating for sys.
// The returned order does not decide ties; the caller's comparator does.
func (x *candidateIndex) candidates(sys model.Item) []int {
	switch {
	case x.byOrderNo != nil:
		key := NormalizeOrderNo(sys.OrderNo)
		if key == "" {
			return nil
		}
		return x.byOrderNo[key]
	case x.byBucket != nil:
		span := x.tolerance
		if x.tolerancePct.IsPositive() {
			pctSpan := sys.Amount.Mul(x.tolerancePct).Div(decimal.NewFromInt(100))
			if pctSpan.GreaterThan(span) {
				span = pctSpan
			}
		}
		lo := bucketKey(sys.Amount.Sub(span))
		hi := bucketKey(sys.Amount.Add(span))
		var out []int
		for b := lo; b <= hi; b++ {
			out = append(out, x.byBucket[b]...)
		}
		return out
	default:
		return x.all
	}
}

// bucketKey groups amounts into one-unit buckets.
func bucketKey(amount decimal.Decimal) int64 {
	return amount.Floor().IntPart()
}
