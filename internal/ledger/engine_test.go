package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	saleOwner = common.HexToAddress("0x00000000000000000000000000000000000000B1")
	saleAdmin = common.HexToAddress("0x00000000000000000000000000000000000000B2")
	saleAcct  = common.HexToAddress("0x00000000000000000000000000000000000000B3")
	saleBenef = common.HexToAddress("0x00000000000000000000000000000000000000B4")
	alice     = common.HexToAddress("0x0000000000000000000000000000000000000021")
	bob       = common.HexToAddress("0x0000000000000000000000000000000000000022")
	carol     = common.HexToAddress("0x0000000000000000000000000000000000000023")
)

type engineOption func(*EngineConfig)

func withLimit(limit int64) engineOption {
	return func(cfg *EngineConfig) { cfg.UnidentifiedLimit = big.NewInt(limit) }
}

func withSuspend(suspend bool) engineOption {
	return func(cfg *EngineConfig) { cfg.SuspendUnidentified = suspend }
}

func withReplayPolicy(policy ReplayPolicy) engineOption {
	return func(cfg *EngineConfig) { cfg.ReplayPolicy = policy }
}

func withReleaseThreshold(threshold int64) engineOption {
	return func(cfg *EngineConfig) { cfg.ReleaseThreshold = big.NewInt(threshold) }
}

func newSaleEngine(t *testing.T, opts ...engineOption) *Engine {
	t.Helper()
	token := NewTokenLedger("Test Token", "TST", saleOwner, big.NewInt(100000))
	cfg := EngineConfig{
		Admin:               saleAdmin,
		Beneficiary:         saleBenef,
		SaleAccount:         saleAcct,
		MinSale:             big.NewInt(10),
		UnidentifiedLimit:   big.NewInt(1000),
		SuspendUnidentified: true,
		TokenAllotment:      big.NewInt(50000),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewEngine(token, cfg)
}

// startedEngine 启动后的引擎，默认一个档位：1万个代币、单价1
func startedEngine(t *testing.T, opts ...engineOption) *Engine {
	t.Helper()
	e := newSaleEngine(t, opts...)
	require.NoError(t, e.SetTier(saleAdmin, 0, big.NewInt(10000), big.NewInt(1)))
	require.NoError(t, e.Start(saleAdmin, 1000))
	e.TakeEvents()
	return e
}

func pay(t *testing.T, e *Engine, from common.Address, amount int64) *PaymentResult {
	t.Helper()
	result, err := e.ProcessPayment(from, big.NewInt(amount), 2000)
	require.NoError(t, err)
	return result
}

func hasEvent(events []Event, typ EventType) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func countEvents(events []Event, typ EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestStart(t *testing.T) {
	e := newSaleEngine(t)
	require.ErrorIs(t, e.Start(alice, 1000), ErrNotAdmin)

	_, err := e.ProcessPayment(alice, big.NewInt(100), 1000)
	require.ErrorIs(t, err, ErrNotActive)

	require.NoError(t, e.Start(saleAdmin, 1000))
	require.Equal(t, StateActive, e.State())
	require.Equal(t, "50000", e.BalanceOf(saleAcct).String())
	require.Equal(t, "50000", e.BalanceOf(saleOwner).String())
	account, ok := e.CrowdsaleAccount()
	require.True(t, ok)
	require.Equal(t, saleAcct, account)
	require.True(t, hasEvent(e.TakeEvents(), EventCrowdsaleStarted))

	require.ErrorIs(t, e.Start(saleAdmin, 1000), ErrAlreadyStarted)
}

func TestPaymentExchangesTokens(t *testing.T) {
	e := startedEngine(t)

	result := pay(t, e, alice, 500)
	require.Equal(t, "500", result.Tokens.String())
	require.Equal(t, "500", result.Consumed.String())
	require.Equal(t, "0", result.Remainder.String())
	require.False(t, result.Suspended)

	require.Equal(t, "500", e.BalanceOf(alice).String())
	require.Equal(t, "500", e.TokensSold().String())
	require.Equal(t, "500", e.NetContribution(alice).String())
	require.Equal(t, "500", e.EscrowInfo().TotalNet.String())
	require.True(t, hasEvent(e.TakeEvents(), EventPaymentProcessed))
}

func TestPaymentSpansTiers(t *testing.T) {
	e := newSaleEngine(t, withLimit(5000))
	require.NoError(t, e.SetTier(saleAdmin, 1, big.NewInt(300), big.NewInt(20)))
	require.NoError(t, e.SetTier(saleAdmin, 0, big.NewInt(100), big.NewInt(10)))
	require.NoError(t, e.Start(saleAdmin, 1000))

	result := pay(t, e, alice, 1050)
	require.Equal(t, "102", result.Tokens.String())
	require.Equal(t, "1040", result.Consumed.String())
	require.Equal(t, "10", result.Remainder.String())

	// 尾款不计入净出资
	require.Equal(t, "1040", e.NetContribution(alice).String())
}

func TestPaymentValidation(t *testing.T) {
	e := startedEngine(t)

	_, err := e.ProcessPayment(common.Address{}, big.NewInt(100), 2000)
	require.ErrorIs(t, err, ErrInvalidAddress)
	_, err = e.ProcessPayment(alice, nil, 2000)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = e.ProcessPayment(alice, big.NewInt(9), 2000)
	require.ErrorIs(t, err, ErrBelowMinSale)
	// 金额过了门槛但不够当前档位一个代币
	require.NoError(t, e.UpdateMinSale(saleAdmin, big.NewInt(0)))
	require.NoError(t, e.SetTier(saleAdmin, 0, big.NewInt(10000), big.NewInt(100)))
	_, err = e.ProcessPayment(alice, big.NewInt(99), 2000)
	require.ErrorIs(t, err, ErrBelowMinSale)
}

func TestPaymentWithoutExchangeRate(t *testing.T) {
	e := newSaleEngine(t)
	require.NoError(t, e.Start(saleAdmin, 1000))
	_, err := e.ProcessPayment(alice, big.NewInt(100), 2000)
	require.ErrorIs(t, err, ErrNoExchangeRate)
}

func TestPauseAndUnpause(t *testing.T) {
	e := startedEngine(t)
	require.ErrorIs(t, e.Pause(alice), ErrNotAdmin)
	require.ErrorIs(t, e.Unpause(saleAdmin), ErrNotPaused)

	require.NoError(t, e.Pause(saleAdmin))
	require.Equal(t, StatePaused, e.State())
	_, err := e.ProcessPayment(alice, big.NewInt(100), 2000)
	require.ErrorIs(t, err, ErrPaused)
	require.ErrorIs(t, e.Pause(saleAdmin), ErrPaused)

	require.NoError(t, e.Unpause(saleAdmin))
	pay(t, e, alice, 100)
}

func TestSoldOutSignalledOnce(t *testing.T) {
	e := newSaleEngine(t, withLimit(10000))
	require.NoError(t, e.SetTier(saleAdmin, 0, big.NewInt(100), big.NewInt(1)))
	require.NoError(t, e.Start(saleAdmin, 1000))
	e.TakeEvents()

	pay(t, e, alice, 100)
	require.Equal(t, "100", e.TokensSold().String())

	_, err := e.ProcessPayment(bob, big.NewInt(50), 2000)
	require.ErrorIs(t, err, ErrSoldOut)
	// 失败的操作也会留下售罄信号
	require.Equal(t, 1, countEvents(e.TakeEvents(), EventTokensSoldOut))

	_, err = e.ProcessPayment(carol, big.NewInt(50), 2000)
	require.ErrorIs(t, err, ErrSoldOut)
	require.Equal(t, 0, countEvents(e.TakeEvents(), EventTokensSoldOut))
}

func TestUnidentifiedLimitSuspends(t *testing.T) {
	e := startedEngine(t)

	pay(t, e, alice, 600)
	e.TakeEvents()

	// 超限支付整笔挂起，不兑换也不退尾款
	result := pay(t, e, alice, 600)
	require.True(t, result.Suspended)
	require.Equal(t, uint64(1), result.SuspendedID)
	require.Equal(t, "0", result.Tokens.String())
	require.Equal(t, "600", e.BalanceOf(alice).String())
	require.Equal(t, "600", e.EscrowInfo().SuspendedHeld.String())
	require.Equal(t, "600", e.EscrowInfo().TotalNet.String())
	require.True(t, hasEvent(e.TakeEvents(), EventPaymentSuspended))

	result = pay(t, e, alice, 600)
	require.True(t, result.Suspended)
	require.Equal(t, uint64(2), result.SuspendedID)
	require.Equal(t, "1200", e.ReservedTokens(alice).String())

	// 身份验证后按先进先出逐笔兑换
	identify, err := e.MarkIdentified(saleAdmin, alice, 3000)
	require.NoError(t, err)
	require.Empty(t, identify.Kept)
	require.Len(t, identify.Processed, 2)
	require.Equal(t, uint64(1), identify.Processed[0].ID)
	require.Equal(t, uint64(2), identify.Processed[1].ID)

	require.Equal(t, "1800", e.BalanceOf(alice).String())
	require.Equal(t, "0", e.EscrowInfo().SuspendedHeld.String())
	require.Equal(t, "1800", e.EscrowInfo().TotalNet.String())
	require.Equal(t, "0", e.ReservedTokens(alice).String())

	events := e.TakeEvents()
	require.True(t, hasEvent(events, EventParticipantIdentified))
	require.Equal(t, 2, countEvents(events, EventPaymentProcessed))
}

func TestSuspendDisabledRejects(t *testing.T) {
	e := startedEngine(t, withSuspend(false))
	pay(t, e, alice, 600)
	_, err := e.ProcessPayment(alice, big.NewInt(600), 2000)
	require.ErrorIs(t, err, ErrIdentificationRequired)
	require.Equal(t, "600", e.EscrowInfo().TotalNet.String())
	require.Equal(t, "0", e.EscrowInfo().SuspendedHeld.String())
}

func TestIdentifiedBypassesLimit(t *testing.T) {
	e := startedEngine(t)
	_, err := e.MarkIdentified(saleAdmin, alice, 1000)
	require.NoError(t, err)

	result := pay(t, e, alice, 5000)
	require.False(t, result.Suspended)
	require.Equal(t, "5000", e.BalanceOf(alice).String())

	// 撤销标记后重新受限
	require.NoError(t, e.MarkNotIdentified(saleAdmin, alice))
	result = pay(t, e, alice, 600)
	require.True(t, result.Suspended)
}

func TestMarkIdentifiedKeepsUnreleasable(t *testing.T) {
	e := newSaleEngine(t, withLimit(500))
	require.NoError(t, e.SetTier(saleAdmin, 0, big.NewInt(1000), big.NewInt(1)))
	require.NoError(t, e.Start(saleAdmin, 1000))
	e.TakeEvents()

	pay(t, e, alice, 400)
	result := pay(t, e, alice, 300)
	require.True(t, result.Suspended)

	// 其他人买光剩余配额后，挂起支付无法重新兑换
	pay(t, e, bob, 300)
	pay(t, e, carol, 300)
	require.Equal(t, "1000", e.TokensSold().String())
	e.TakeEvents()

	identify, err := e.MarkIdentified(saleAdmin, alice, 3000)
	require.NoError(t, err)
	require.Empty(t, identify.Processed)
	require.Equal(t, []uint64{result.SuspendedID}, identify.Kept)
	require.Equal(t, "300", e.EscrowInfo().SuspendedHeld.String())
	require.True(t, hasEvent(e.TakeEvents(), EventPaymentSuspendKept))

	// 留队资金始终可退
	refunded, err := e.RefundSuspended(saleAdmin, alice)
	require.NoError(t, err)
	require.Len(t, refunded, 1)
	require.Equal(t, "300", refunded[0].Amount.String())
	require.Equal(t, "0", e.EscrowInfo().SuspendedHeld.String())

	_, err = e.RefundSuspended(saleAdmin, alice)
	require.ErrorIs(t, err, ErrAlreadyReturned)
}

func TestMarkIdentifiedOutsideSaleKeepsAll(t *testing.T) {
	e := startedEngine(t)
	pay(t, e, alice, 600)
	result := pay(t, e, alice, 600)
	require.True(t, result.Suspended)
	require.NoError(t, e.Pause(saleAdmin))

	identify, err := e.MarkIdentified(saleAdmin, alice, 3000)
	require.NoError(t, err)
	require.Empty(t, identify.Processed)
	require.Equal(t, []uint64{result.SuspendedID}, identify.Kept)

	// 恢复销售后再次验证即可兑换
	require.NoError(t, e.Unpause(saleAdmin))
	identify, err = e.MarkIdentified(saleAdmin, alice, 4000)
	require.NoError(t, err)
	require.Len(t, identify.Processed, 1)
}

func TestProxyExchangeDeduplicates(t *testing.T) {
	e := startedEngine(t)
	checksum := common.HexToHash("0x01")

	_, err := e.ProxyExchange(bob, alice, big.NewInt(100), "wire-1", checksum, 2000)
	require.ErrorIs(t, err, ErrNotAdmin)

	_, err = e.ProxyExchange(saleAdmin, alice, big.NewInt(100), "wire-1", common.Hash{}, 2000)
	require.ErrorIs(t, err, ErrInvalidChecksum)

	result, err := e.ProxyExchange(saleAdmin, alice, big.NewInt(100), "wire-1", checksum, 2000)
	require.NoError(t, err)
	require.Equal(t, "100", result.Tokens.String())
	require.Equal(t, "100", e.BalanceOf(alice).String())

	external := e.ExternalPayments()
	require.Len(t, external, 1)
	require.Equal(t, checksum, external[0].Checksum)
	require.Equal(t, "wire-1", external[0].Reference)

	// 同校验和不同引用恒拒绝
	_, err = e.ProxyExchange(saleAdmin, alice, big.NewInt(100), "wire-2", checksum, 2000)
	require.ErrorIs(t, err, ErrDuplicateChecksum)
	// 完整重放按策略处理，默认拒绝
	_, err = e.ProxyExchange(saleAdmin, alice, big.NewInt(100), "wire-1", checksum, 2000)
	require.ErrorIs(t, err, ErrDuplicatePayment)
	require.Equal(t, "100", e.BalanceOf(alice).String())
}

func TestProxyExchangeReplayIgnored(t *testing.T) {
	e := startedEngine(t, withReplayPolicy(ReplayIgnore))
	checksum := common.HexToHash("0x02")

	_, err := e.ProxyExchange(saleAdmin, alice, big.NewInt(100), "wire-1", checksum, 2000)
	require.NoError(t, err)
	e.TakeEvents()

	result, err := e.ProxyExchange(saleAdmin, alice, big.NewInt(100), "wire-1", checksum, 2000)
	require.NoError(t, err)
	require.True(t, result.Duplicate)
	require.Equal(t, "0", result.Tokens.String())
	require.Equal(t, "100", e.BalanceOf(alice).String())
	require.True(t, hasEvent(e.TakeEvents(), EventExternalPaymentIgnored))

	_, err = e.ProxyExchange(saleAdmin, alice, big.NewInt(100), "wire-2", checksum, 2000)
	require.ErrorIs(t, err, ErrDuplicateChecksum)
}

func TestBanBlocksPayments(t *testing.T) {
	e := startedEngine(t)
	require.NoError(t, e.Ban(saleAdmin, alice))
	require.True(t, hasEvent(e.TakeEvents(), EventParticipantBanned))

	_, err := e.ProcessPayment(alice, big.NewInt(100), 2000)
	require.ErrorIs(t, err, ErrBanned)
	_, err = e.ProxyExchange(saleAdmin, alice, big.NewInt(100), "wire-1", common.HexToHash("0x03"), 2000)
	require.ErrorIs(t, err, ErrBanned)

	// 重复封禁不再发事件
	require.NoError(t, e.Ban(saleAdmin, alice))
	require.False(t, hasEvent(e.TakeEvents(), EventParticipantBanned))

	require.NoError(t, e.Unban(saleAdmin, alice))
	pay(t, e, alice, 100)
}

func TestEndSuccessPaysOutNetOnly(t *testing.T) {
	e := startedEngine(t)
	pay(t, e, alice, 500)
	pay(t, e, bob, 600)
	result := pay(t, e, bob, 600)
	require.True(t, result.Suspended)

	end, err := e.End(saleAdmin, true, 3000)
	require.NoError(t, err)
	require.True(t, end.Success)
	// 挂起的600不结算给受益人
	require.Equal(t, "1100", end.BeneficiaryPayout.String())
	require.Equal(t, "8900", end.Leftover.String())
	require.True(t, e.SaleSucceeded())
	require.Equal(t, "0", e.EscrowInfo().Withdrawable.String())

	_, err = e.ProcessPayment(carol, big.NewInt(100), 3000)
	require.ErrorIs(t, err, ErrNotActive)
	_, err = e.End(saleAdmin, true, 3000)
	require.ErrorIs(t, err, ErrEnded)
	_, err = e.Refund(saleAdmin, alice)
	require.ErrorIs(t, err, ErrRefundsUnavailable)

	// 挂起资金与众筹结果无关，仍可退还
	refunded, err := e.RefundSuspended(saleAdmin, bob)
	require.NoError(t, err)
	require.Len(t, refunded, 1)
	require.Equal(t, "600", refunded[0].Amount.String())
}

func TestEndFailureEnablesRefunds(t *testing.T) {
	e := startedEngine(t)
	pay(t, e, alice, 500)
	pay(t, e, bob, 300)

	_, err := e.Refund(saleAdmin, alice)
	require.ErrorIs(t, err, ErrNotEnded)

	end, err := e.End(saleAdmin, false, 3000)
	require.NoError(t, err)
	require.False(t, end.Success)
	require.Equal(t, "0", end.BeneficiaryPayout.String())

	refunded, err := e.Refund(saleAdmin, alice)
	require.NoError(t, err)
	require.Equal(t, "500", refunded.String())
	_, err = e.Refund(saleAdmin, alice)
	require.ErrorIs(t, err, ErrAlreadyRefunded)

	// 失败结束后任何支付触发自动退款，本笔原路退回
	result, err := e.ProcessPayment(bob, big.NewInt(50), 4000)
	require.NoError(t, err)
	require.Equal(t, "300", result.Refunded.String())
	require.Equal(t, "50", result.Remainder.String())
	require.Equal(t, "0", result.Tokens.String())

	_, err = e.ProcessPayment(carol, big.NewInt(50), 4000)
	require.ErrorIs(t, err, ErrNotActive)
}

func TestBurnLeftover(t *testing.T) {
	e := newSaleEngine(t, withLimit(10000))
	require.NoError(t, e.SetTier(saleAdmin, 0, big.NewInt(1000), big.NewInt(1)))
	require.NoError(t, e.Start(saleAdmin, 1000))
	pay(t, e, alice, 400)

	_, err := e.BurnLeftover(saleAdmin, 50)
	require.ErrorIs(t, err, ErrNotEnded)
	_, err = e.BurnLeftover(saleAdmin, 101)
	require.ErrorIs(t, err, ErrInvalidPercent)

	_, err = e.End(saleAdmin, true, 3000)
	require.NoError(t, err)
	require.Equal(t, "600", e.Leftover().String())

	burned, err := e.BurnLeftover(saleAdmin, 50)
	require.NoError(t, err)
	require.Equal(t, "300", burned.String())
	require.Equal(t, "300", e.Leftover().String())
	require.Equal(t, "99700", e.TotalSupply().String())
	require.Equal(t, "49300", e.BalanceOf(saleAcct).String())

	// 比例相对当前剩余量，可反复销毁直到清零
	burned, err = e.BurnLeftover(saleAdmin, 100)
	require.NoError(t, err)
	require.Equal(t, "300", burned.String())
	require.Equal(t, "0", e.Leftover().String())

	burned, err = e.BurnLeftover(saleAdmin, 100)
	require.NoError(t, err)
	require.Equal(t, "0", burned.String())
}

func TestBurnLeftoverRequiresSuccess(t *testing.T) {
	e := startedEngine(t)
	_, err := e.End(saleAdmin, false, 3000)
	require.NoError(t, err)
	_, err = e.BurnLeftover(saleAdmin, 100)
	require.ErrorIs(t, err, ErrSaleNotSuccess)
}

func TestTransferFundsThreshold(t *testing.T) {
	e := startedEngine(t, withReleaseThreshold(100))

	require.ErrorIs(t, e.TransferFunds(saleAdmin, big.NewInt(10)), ErrFundsLocked)

	pay(t, e, alice, 150)
	require.NoError(t, e.TransferFunds(saleAdmin, big.NewInt(100)))
	require.Equal(t, "50", e.EscrowInfo().Withdrawable.String())
	require.Equal(t, "100", e.EscrowInfo().Withdrawn.String())
	require.ErrorIs(t, e.TransferFunds(saleAdmin, big.NewInt(60)), ErrInsufficientFunds)

	// 成功结束时剩余资金一并结算
	end, err := e.End(saleAdmin, true, 3000)
	require.NoError(t, err)
	require.Equal(t, "50", end.BeneficiaryPayout.String())
	require.ErrorIs(t, e.TransferFunds(saleAdmin, big.NewInt(1)), ErrInsufficientFunds)
}

func TestTransferFundsLockedBeforeThreshold(t *testing.T) {
	e := startedEngine(t)
	pay(t, e, alice, 500)
	// 未配置释放阈值时结束前一律锁定
	require.ErrorIs(t, e.TransferFunds(saleAdmin, big.NewInt(10)), ErrFundsLocked)

	_, err := e.End(saleAdmin, false, 3000)
	require.NoError(t, err)
	require.ErrorIs(t, e.TransferFunds(saleAdmin, big.NewInt(10)), ErrRefundsUnavailable)
}

func TestAdminSettings(t *testing.T) {
	e := startedEngine(t)
	require.ErrorIs(t, e.UpdateMinSale(alice, big.NewInt(50)), ErrNotAdmin)
	require.ErrorIs(t, e.SetTier(alice, 1, big.NewInt(2), big.NewInt(2)), ErrNotAdmin)

	require.NoError(t, e.UpdateMinSale(saleAdmin, big.NewInt(50)))
	_, err := e.ProcessPayment(alice, big.NewInt(20), 2000)
	require.ErrorIs(t, err, ErrBelowMinSale)

	require.NoError(t, e.UpdateUnidentifiedLimit(saleAdmin, big.NewInt(100)))
	result := pay(t, e, alice, 200)
	require.True(t, result.Suspended)

	require.NoError(t, e.SetSuspendUnidentified(saleAdmin, false))
	_, err = e.ProcessPayment(alice, big.NewInt(200), 2000)
	require.ErrorIs(t, err, ErrIdentificationRequired)

	// 所有者与管理员拥有相同的管理能力
	require.NoError(t, e.UpdateMinSale(saleOwner, big.NewInt(10)))

	_, err = e.End(saleAdmin, true, 3000)
	require.NoError(t, err)
	require.ErrorIs(t, e.SetTier(saleAdmin, 1, big.NewInt(2), big.NewInt(2)), ErrEnded)
}

func TestAirdrop(t *testing.T) {
	e := startedEngine(t)
	recipients := []common.Address{alice, bob, carol}

	require.ErrorIs(t, e.Airdrop(alice, recipients, big.NewInt(10), 2000), ErrNotAdmin)
	require.ErrorIs(t, e.Airdrop(saleAdmin, recipients, big.NewInt(10), 2000), ErrAllowanceExceeded)

	require.NoError(t, e.TokenApprove(saleOwner, saleAcct, big.NewInt(30)))
	require.NoError(t, e.Airdrop(saleAdmin, recipients, big.NewInt(10), 2000))
	for _, addr := range recipients {
		require.Equal(t, "10", e.BalanceOf(addr).String())
	}
	// 空投动用所有者授权的资金，不占用众筹配额
	require.Equal(t, "49970", e.BalanceOf(saleOwner).String())
	require.Equal(t, "50000", e.BalanceOf(saleAcct).String())
	require.True(t, hasEvent(e.TakeEvents(), EventAirdropSent))
}

func TestEngineTokenLocks(t *testing.T) {
	e := startedEngine(t)
	index, err := e.AddTokenLock(saleOwner, big.NewInt(40000), 5000, 2000)
	require.NoError(t, err)
	require.True(t, hasEvent(e.TakeEvents(), EventTokensLocked))

	require.ErrorIs(t, e.TokenTransfer(saleOwner, alice, big.NewInt(20000), 2000), ErrLockedFunds)
	require.ErrorIs(t, e.ReleaseLockedTokens(saleOwner, index, 2000), ErrTooEarly)

	require.Empty(t, e.ReleaseMaturedLocks(4999))
	require.Equal(t, []int{index}, e.ReleaseMaturedLocks(5000))
	require.True(t, hasEvent(e.TakeEvents(), EventLockReleased))
	require.NoError(t, e.TokenTransfer(saleOwner, alice, big.NewInt(20000), 6000))
}

func TestEnablePublicTransfers(t *testing.T) {
	e := startedEngine(t)
	pay(t, e, alice, 100)

	require.ErrorIs(t, e.TokenTransfer(alice, bob, big.NewInt(10), 2000), ErrTransfersDisabled)
	require.ErrorIs(t, e.EnablePublicTransfers(saleAdmin), ErrNotOwner)
	require.NoError(t, e.EnablePublicTransfers(saleOwner))
	require.True(t, hasEvent(e.TakeEvents(), EventTransfersEnabled))
	require.NoError(t, e.TokenTransfer(alice, bob, big.NewInt(10), 2000))
	require.Equal(t, "10", e.BalanceOf(bob).String())
}

func TestExportImportRoundTrip(t *testing.T) {
	e := startedEngine(t)
	pay(t, e, alice, 500)
	result := pay(t, e, alice, 600)
	require.True(t, result.Suspended)
	_, err := e.ProxyExchange(saleAdmin, bob, big.NewInt(200), "wire-1", common.HexToHash("0x04"), 2000)
	require.NoError(t, err)
	require.NoError(t, e.Ban(saleAdmin, carol))
	require.NoError(t, e.SetTier(saleAdmin, 1, big.NewInt(20000), big.NewInt(2)))
	_, err = e.AddTokenLock(saleOwner, big.NewInt(1000), 9000, 2000)
	require.NoError(t, err)
	e.TakeEvents()

	snapshot := e.ExportState()

	restored := NewEngine(NewTokenLedger("Test Token", "TST", saleOwner, nil), EngineConfig{
		Admin:       saleAdmin,
		Beneficiary: saleBenef,
		SaleAccount: saleAcct,
	})
	require.NoError(t, restored.ImportState(snapshot))
	require.Equal(t, snapshot, restored.ExportState())

	// 恢复后的引擎与原引擎行为一致
	for _, engine := range []*Engine{e, restored} {
		identify, err := engine.MarkIdentified(saleAdmin, alice, 5000)
		require.NoError(t, err)
		require.Len(t, identify.Processed, 1)
	}
	require.Equal(t, e.ExportState(), restored.ExportState())
	require.Equal(t, e.BalanceOf(alice), restored.BalanceOf(alice))
}
