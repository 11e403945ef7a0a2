package ledger

import (
	"math/big"
	"sort"
)

// Tier 价格档位：累计售出代币数达到CumulativeCap之前，按UnitPrice计价
type Tier struct {
	Index         int
	CumulativeCap *big.Int
	UnitPrice     *big.Int
}

// TierTable 价格档位表
//
// 档位按任意下标写入（允许稀疏、乱序覆盖），报价时按累计上限
// 升序动态解析为单调价格区间，而不依赖写入顺序。
type TierTable struct {
	tiers map[int]Tier
}

// NewTierTable 创建空档位表
func NewTierTable() *TierTable {
	return &TierTable{tiers: make(map[int]Tier)}
}

// Set 写入或覆盖档位
func (t *TierTable) Set(index int, cumulativeCap, unitPrice *big.Int) error {
	if index < 0 {
		return ErrInvalidTier
	}
	if !isPositive(cumulativeCap) || !isPositive(unitPrice) {
		return ErrInvalidTier
	}
	t.tiers[index] = Tier{
		Index:         index,
		CumulativeCap: cloneAmount(cumulativeCap),
		UnitPrice:     cloneAmount(unitPrice),
	}
	return nil
}

// Get 按下标读取档位
func (t *TierTable) Get(index int) (Tier, bool) {
	tier, ok := t.tiers[index]
	if !ok {
		return Tier{}, false
	}
	return copyTier(tier), true
}

// Len 档位数量
func (t *TierTable) Len() int {
	return len(t.tiers)
}

// List 按累计上限升序返回所有档位
func (t *TierTable) List() []Tier {
	bands := t.bands()
	out := make([]Tier, len(bands))
	for i, tier := range bands {
		out[i] = copyTier(tier)
	}
	return out
}

// HardCap 最高档位的累计上限，未设置档位时返回0
func (t *TierTable) HardCap() *big.Int {
	cap := new(big.Int)
	for _, tier := range t.tiers {
		if tier.CumulativeCap.Cmp(cap) > 0 {
			cap.Set(tier.CumulativeCap)
		}
	}
	return cap
}

// Quote 报价结果
type Quote struct {
	// Tokens 本次可兑换的代币数
	Tokens *big.Int
	// Consumed 实际消耗的支付金额
	Consumed *big.Int
	// Remainder 无法兑换整数代币的尾款，必须退还给付款方
	Remainder *big.Int
	// SoldOut 档位耗尽后仍有未消化的资金，整笔支付应被拒绝
	SoldOut bool
}

// QuoteFor 从已售出sold个代币的位置开始，对payment金额报价
//
// 按累计上限升序逐档消化资金；单档内可兑换数为
// min(档位剩余量, payment/单价)。终止条件：资金耗尽、
// 档位耗尽（售罄）、或剩余资金不足一个代币（作为尾款返回）。
func (t *TierTable) QuoteFor(sold, payment *big.Int) Quote {
	q := Quote{
		Tokens:    new(big.Int),
		Consumed:  new(big.Int),
		Remainder: new(big.Int),
	}
	remaining := cloneAmount(payment)
	cursor := cloneAmount(sold)

	for _, tier := range t.bands() {
		if tier.CumulativeCap.Cmp(cursor) <= 0 {
			continue
		}
		available := new(big.Int).Sub(tier.CumulativeCap, cursor)
		affordable := new(big.Int).Div(remaining, tier.UnitPrice)
		if affordable.Sign() == 0 {
			// 剩余资金不足当前档位一个代币
			q.Remainder.Set(remaining)
			return q
		}
		granted := available
		if affordable.Cmp(available) < 0 {
			granted = affordable
		}
		cost := new(big.Int).Mul(granted, tier.UnitPrice)
		q.Tokens.Add(q.Tokens, granted)
		q.Consumed.Add(q.Consumed, cost)
		remaining.Sub(remaining, cost)
		cursor.Add(cursor, granted)
		if remaining.Sign() == 0 {
			return q
		}
	}

	if remaining.Sign() > 0 {
		// 所有档位耗尽，资金仍有剩余：硬顶已到
		q.SoldOut = true
		q.Remainder.Set(remaining)
	}
	return q
}

// bands 档位按累计上限升序排列，上限相同时低下标优先
func (t *TierTable) bands() []Tier {
	out := make([]Tier, 0, len(t.tiers))
	for _, tier := range t.tiers {
		out = append(out, tier)
	}
	sort.Slice(out, func(i, j int) bool {
		c := out[i].CumulativeCap.Cmp(out[j].CumulativeCap)
		if c != 0 {
			return c < 0
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func copyTier(tier Tier) Tier {
	return Tier{
		Index:         tier.Index,
		CumulativeCap: cloneAmount(tier.CumulativeCap),
		UnitPrice:     cloneAmount(tier.UnitPrice),
	}
}
