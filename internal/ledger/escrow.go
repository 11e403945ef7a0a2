package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EscrowLedger 资金托管账本
//
// 记录每个参与者成功兑换的净出资（退款依据）、挂起支付占用的
// 资金、以及已向受益人划转的金额。挂起资金不计入净出资，
// 因此结算给受益人的金额天然排除仍挂起的款项。
type EscrowLedger struct {
	contributions map[common.Address]*big.Int
	totalNet      *big.Int
	suspendedHeld *big.Int
	withdrawn     *big.Int
}

// NewEscrowLedger 创建空托管账本
func NewEscrowLedger() *EscrowLedger {
	return &EscrowLedger{
		contributions: make(map[common.Address]*big.Int),
		totalNet:      new(big.Int),
		suspendedHeld: new(big.Int),
		withdrawn:     new(big.Int),
	}
}

// Credit 记入净出资
func (e *EscrowLedger) Credit(addr common.Address, amount *big.Int) {
	if e.contributions[addr] == nil {
		e.contributions[addr] = new(big.Int)
	}
	e.contributions[addr].Add(e.contributions[addr], amount)
	e.totalNet.Add(e.totalNet, amount)
}

// NetContribution 参与者当前净出资
func (e *EscrowLedger) NetContribution(addr common.Address) *big.Int {
	return cloneAmount(e.contributions[addr])
}

// Refund 清零并返回参与者净出资
func (e *EscrowLedger) Refund(addr common.Address) *big.Int {
	amount := e.contributions[addr]
	if amount == nil || amount.Sign() == 0 {
		return new(big.Int)
	}
	refunded := cloneAmount(amount)
	e.totalNet.Sub(e.totalNet, refunded)
	amount.SetInt64(0)
	return refunded
}

// HoldSuspended 登记挂起支付占用的资金
func (e *EscrowLedger) HoldSuspended(amount *big.Int) {
	e.suspendedHeld.Add(e.suspendedHeld, amount)
}

// ReleaseSuspended 解除挂起资金占用（兑换成功或退还）
func (e *EscrowLedger) ReleaseSuspended(amount *big.Int) {
	e.suspendedHeld.Sub(e.suspendedHeld, amount)
}

// SuspendedHeld 当前挂起占用的资金合计
func (e *EscrowLedger) SuspendedHeld() *big.Int {
	return cloneAmount(e.suspendedHeld)
}

// TotalNet 净出资合计
func (e *EscrowLedger) TotalNet() *big.Int {
	return cloneAmount(e.totalNet)
}

// Withdrawn 已划转给受益人的金额合计
func (e *EscrowLedger) Withdrawn() *big.Int {
	return cloneAmount(e.withdrawn)
}

// Withdrawable 当前可划转给受益人的金额
func (e *EscrowLedger) Withdrawable() *big.Int {
	return new(big.Int).Sub(e.totalNet, e.withdrawn)
}

// RecordWithdrawal 登记一笔向受益人的划转
func (e *EscrowLedger) RecordWithdrawal(amount *big.Int) {
	e.withdrawn.Add(e.withdrawn, amount)
}
