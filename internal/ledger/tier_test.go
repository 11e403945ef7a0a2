package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTierTableSetValidation(t *testing.T) {
	table := NewTierTable()
	require.ErrorIs(t, table.Set(-1, big.NewInt(100), big.NewInt(1)), ErrInvalidTier)
	require.ErrorIs(t, table.Set(0, big.NewInt(0), big.NewInt(1)), ErrInvalidTier)
	require.ErrorIs(t, table.Set(0, big.NewInt(100), big.NewInt(0)), ErrInvalidTier)
	require.ErrorIs(t, table.Set(0, nil, big.NewInt(1)), ErrInvalidTier)
	require.NoError(t, table.Set(0, big.NewInt(100), big.NewInt(1)))
	require.Equal(t, 1, table.Len())
}

func TestTierTableSparseOutOfOrder(t *testing.T) {
	table := NewTierTable()
	// 乱序稀疏写入，报价顺序只取决于累计上限
	require.NoError(t, table.Set(7, big.NewInt(3000), big.NewInt(30)))
	require.NoError(t, table.Set(2, big.NewInt(1000), big.NewInt(10)))
	require.NoError(t, table.Set(4, big.NewInt(2000), big.NewInt(20)))

	list := table.List()
	require.Len(t, list, 3)
	require.Equal(t, []int{2, 4, 7}, []int{list[0].Index, list[1].Index, list[2].Index})
	require.Equal(t, "3000", table.HardCap().String())

	// 覆盖已有下标
	require.NoError(t, table.Set(2, big.NewInt(500), big.NewInt(5)))
	tier, ok := table.Get(2)
	require.True(t, ok)
	require.Equal(t, "500", tier.CumulativeCap.String())
	require.Equal(t, 3, table.Len())
}

func TestQuoteSingleTier(t *testing.T) {
	table := NewTierTable()
	require.NoError(t, table.Set(0, big.NewInt(1000), big.NewInt(10)))

	q := table.QuoteFor(big.NewInt(0), big.NewInt(105))
	require.Equal(t, "10", q.Tokens.String())
	require.Equal(t, "100", q.Consumed.String())
	require.Equal(t, "5", q.Remainder.String())
	require.False(t, q.SoldOut)
}

func TestQuoteSpansTiers(t *testing.T) {
	table := NewTierTable()
	require.NoError(t, table.Set(0, big.NewInt(100), big.NewInt(10)))
	require.NoError(t, table.Set(1, big.NewInt(300), big.NewInt(20)))

	// 第一档100个共1000，剩下50按第二档兑2个，余10做尾款
	q := table.QuoteFor(big.NewInt(0), big.NewInt(1050))
	require.Equal(t, "102", q.Tokens.String())
	require.Equal(t, "1040", q.Consumed.String())
	require.Equal(t, "10", q.Remainder.String())
	require.False(t, q.SoldOut)
}

func TestQuoteFromMidTier(t *testing.T) {
	table := NewTierTable()
	require.NoError(t, table.Set(0, big.NewInt(100), big.NewInt(10)))
	require.NoError(t, table.Set(1, big.NewInt(300), big.NewInt(20)))

	q := table.QuoteFor(big.NewInt(150), big.NewInt(100))
	require.Equal(t, "5", q.Tokens.String())
	require.Equal(t, "100", q.Consumed.String())
	require.Equal(t, "0", q.Remainder.String())
}

func TestQuoteSoldOut(t *testing.T) {
	table := NewTierTable()
	require.NoError(t, table.Set(0, big.NewInt(100), big.NewInt(10)))

	q := table.QuoteFor(big.NewInt(100), big.NewInt(50))
	require.True(t, q.SoldOut)
	require.Equal(t, "0", q.Tokens.String())
	require.Equal(t, "50", q.Remainder.String())

	// 剩余资金跨过硬顶同样算售罄
	q = table.QuoteFor(big.NewInt(90), big.NewInt(200))
	require.True(t, q.SoldOut)
	require.Equal(t, "10", q.Tokens.String())
	require.Equal(t, "100", q.Consumed.String())
	require.Equal(t, "100", q.Remainder.String())
}

func TestQuoteBelowOneToken(t *testing.T) {
	table := NewTierTable()
	require.NoError(t, table.Set(0, big.NewInt(100), big.NewInt(10)))

	q := table.QuoteFor(big.NewInt(0), big.NewInt(9))
	require.Equal(t, "0", q.Tokens.String())
	require.Equal(t, "9", q.Remainder.String())
	require.False(t, q.SoldOut)
}
