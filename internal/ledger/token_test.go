package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	tokOwner = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	tokSale  = common.HexToAddress("0x00000000000000000000000000000000000000A2")
	tokUser1 = common.HexToAddress("0x0000000000000000000000000000000000000011")
	tokUser2 = common.HexToAddress("0x0000000000000000000000000000000000000012")
	tokUser3 = common.HexToAddress("0x0000000000000000000000000000000000000013")
)

func newToken(t *testing.T, supply int64) *TokenLedger {
	t.Helper()
	return NewTokenLedger("Test Token", "TST", tokOwner, big.NewInt(supply))
}

func TestTokenGenesis(t *testing.T) {
	token := newToken(t, 10000)
	require.Equal(t, "Test Token", token.Name())
	require.Equal(t, "TST", token.Symbol())
	require.Equal(t, "10000", token.TotalSupply().String())
	require.Equal(t, "10000", token.BalanceOf(tokOwner).String())
	require.False(t, token.PublicTransfersEnabled())
}

func TestTokenTransferGating(t *testing.T) {
	token := newToken(t, 10000)

	// 公开转账开启前只有所有者和众筹账户能转
	require.NoError(t, token.Transfer(tokOwner, tokUser1, big.NewInt(1337), 0))
	require.Equal(t, "1337", token.BalanceOf(tokUser1).String())
	require.ErrorIs(t, token.Transfer(tokUser1, tokUser2, big.NewInt(1), 0), ErrTransfersDisabled)

	require.NoError(t, token.SetCrowdsaleAccount(tokOwner, tokSale))
	require.NoError(t, token.Transfer(tokOwner, tokSale, big.NewInt(500), 0))
	require.NoError(t, token.Transfer(tokSale, tokUser2, big.NewInt(200), 0))
	require.Equal(t, "200", token.BalanceOf(tokUser2).String())

	require.ErrorIs(t, token.EnablePublicTransfers(tokUser1), ErrNotOwner)
	require.NoError(t, token.EnablePublicTransfers(tokOwner))
	require.NoError(t, token.Transfer(tokUser1, tokUser2, big.NewInt(37), 0))
	require.Equal(t, "1300", token.BalanceOf(tokUser1).String())
	require.Equal(t, "237", token.BalanceOf(tokUser2).String())

	// 单向开关
	require.ErrorIs(t, token.EnablePublicTransfers(tokOwner), ErrTransfersEnabled)
}

func TestTokenTransferInsufficient(t *testing.T) {
	token := newToken(t, 100)
	require.ErrorIs(t, token.Transfer(tokOwner, tokUser1, big.NewInt(101), 0), ErrInsufficientTokens)
	require.ErrorIs(t, token.Transfer(tokOwner, tokUser1, nil, 0), ErrInvalidAmount)
}

func TestTokenAllowance(t *testing.T) {
	token := newToken(t, 10000)
	require.NoError(t, token.EnablePublicTransfers(tokOwner))

	require.NoError(t, token.Approve(tokOwner, tokUser1, big.NewInt(300)))
	require.Equal(t, "300", token.Allowance(tokOwner, tokUser1).String())

	require.NoError(t, token.TransferFrom(tokUser1, tokOwner, tokUser2, big.NewInt(200), 0))
	require.Equal(t, "100", token.Allowance(tokOwner, tokUser1).String())
	require.Equal(t, "200", token.BalanceOf(tokUser2).String())

	require.ErrorIs(t, token.TransferFrom(tokUser1, tokOwner, tokUser2, big.NewInt(101), 0), ErrAllowanceExceeded)
}

func TestTokenBulkTransferEqual(t *testing.T) {
	token := newToken(t, 10000)
	require.NoError(t, token.SetCrowdsaleAccount(tokOwner, tokSale))
	recipients := []common.Address{tokUser1, tokUser2, tokUser3}

	require.ErrorIs(t, token.BulkTransferEqual(tokSale, tokOwner, nil, big.NewInt(10), 0), ErrNoRecipients)

	// 授权不足时整批不执行
	require.NoError(t, token.Approve(tokOwner, tokSale, big.NewInt(29)))
	require.ErrorIs(t, token.BulkTransferEqual(tokSale, tokOwner, recipients, big.NewInt(10), 0), ErrAllowanceExceeded)
	require.Equal(t, "0", token.BalanceOf(tokUser1).String())

	require.NoError(t, token.Approve(tokOwner, tokSale, big.NewInt(30)))
	require.NoError(t, token.BulkTransferEqual(tokSale, tokOwner, recipients, big.NewInt(10), 0))
	for _, addr := range recipients {
		require.Equal(t, "10", token.BalanceOf(addr).String())
	}
	require.Equal(t, "0", token.Allowance(tokOwner, tokSale).String())

	// 自有资金批量转出不走授权额度
	require.NoError(t, token.BulkTransferEqual(tokOwner, tokOwner, recipients, big.NewInt(5), 0))
	require.Equal(t, "15", token.BalanceOf(tokUser1).String())
}

func TestTokenMintAndBurn(t *testing.T) {
	token := newToken(t, 1000)
	require.ErrorIs(t, token.Mint(tokUser1, tokUser1, big.NewInt(10)), ErrNotOwner)
	require.NoError(t, token.Mint(tokOwner, tokUser1, big.NewInt(10)))
	require.Equal(t, "1010", token.TotalSupply().String())

	require.NoError(t, token.SetCrowdsaleAccount(tokOwner, tokSale))
	require.NoError(t, token.Mint(tokSale, tokSale, big.NewInt(90)))
	require.Equal(t, "1100", token.TotalSupply().String())

	// 销毁需要显式授权，众筹账户在指定时已获授权
	require.ErrorIs(t, token.Burn(tokUser1, tokUser1, big.NewInt(1)), ErrBurnNotGranted)
	require.NoError(t, token.Burn(tokSale, tokSale, big.NewInt(40)))
	require.Equal(t, "50", token.BalanceOf(tokSale).String())
	require.Equal(t, "1060", token.TotalSupply().String())
	require.ErrorIs(t, token.Burn(tokSale, tokSale, big.NewInt(51)), ErrInsufficientTokens)

	require.NoError(t, token.GrantBurnAccess(tokOwner, tokUser1))
	require.NoError(t, token.Burn(tokUser1, tokUser1, big.NewInt(10)))
	require.Equal(t, "1050", token.TotalSupply().String())
}

func TestTokenLocks(t *testing.T) {
	token := newToken(t, 1000)
	now := int64(1000)

	_, err := token.AddTokenLock(tokUser1, big.NewInt(100), now+100, now)
	require.ErrorIs(t, err, ErrNotOwner)
	_, err = token.AddTokenLock(tokOwner, big.NewInt(1001), now+100, now)
	require.ErrorIs(t, err, ErrInsufficientTokens)

	index, err := token.AddTokenLock(tokOwner, big.NewInt(600), now+100, now)
	require.NoError(t, err)
	require.Equal(t, 0, index)

	// 锁定期内所有者余额不得低于锁定量
	require.ErrorIs(t, token.Transfer(tokOwner, tokUser1, big.NewInt(500), now), ErrLockedFunds)
	require.NoError(t, token.Transfer(tokOwner, tokUser1, big.NewInt(400), now))

	require.ErrorIs(t, token.ReleaseLockedTokens(tokOwner, 5, now), ErrNoSuchLock)
	require.ErrorIs(t, token.ReleaseLockedTokens(tokOwner, index, now), ErrTooEarly)
	require.ErrorIs(t, token.ReleaseLockedTokens(tokOwner, index, now+99), ErrTooEarly)

	// 到期后锁自动失效，无需显式释放
	require.NoError(t, token.Transfer(tokOwner, tokUser1, big.NewInt(500), now+100))

	require.NoError(t, token.ReleaseLockedTokens(tokOwner, index, now+100))
	require.ErrorIs(t, token.ReleaseLockedTokens(tokOwner, index, now+100), ErrLockReleased)
}

func TestTokenReleaseMaturedLocks(t *testing.T) {
	token := newToken(t, 1000)
	a, err := token.AddTokenLock(tokOwner, big.NewInt(100), 50, 0)
	require.NoError(t, err)
	b, err := token.AddTokenLock(tokOwner, big.NewInt(100), 200, 0)
	require.NoError(t, err)

	require.Empty(t, token.ReleaseMaturedLocks(10))
	require.Equal(t, []int{a}, token.ReleaseMaturedLocks(60))
	require.Equal(t, []int{b}, token.ReleaseMaturedLocks(300))
	require.Empty(t, token.ReleaseMaturedLocks(400))

	locks := token.Locks()
	require.Len(t, locks, 2)
	require.True(t, locks[0].Released)
	require.True(t, locks[1].Released)
}
