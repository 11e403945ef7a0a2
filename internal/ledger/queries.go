package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 只读查询接口，不产生事件，不修改状态

// State 当前众筹状态
func (e *Engine) State() SaleState { return e.state }

// SaleSucceeded 众筹是否成功结束
func (e *Engine) SaleSucceeded() bool { return e.state == StateEnded && e.saleSucceeded }

// TokensSold 已售出代币数
func (e *Engine) TokensSold() *big.Int { return cloneAmount(e.tokensSold) }

// HardCap 档位表中的硬顶
func (e *Engine) HardCap() *big.Int { return e.tiers.HardCap() }

// Leftover 成功结束后的剩余可销毁配额
func (e *Engine) Leftover() *big.Int { return cloneAmount(e.leftover) }

// MinSale 最低支付金额
func (e *Engine) MinSale() *big.Int { return cloneAmount(e.minSale) }

// UnidentifiedLimit 未验证参与者累计支付上限
func (e *Engine) UnidentifiedLimit() *big.Int { return cloneAmount(e.unidentifiedLimit) }

// Admin 管理员地址
func (e *Engine) Admin() common.Address { return e.admin }

// Beneficiary 受益人地址
func (e *Engine) Beneficiary() common.Address { return e.beneficiary }

// SaleAccount 众筹账户地址
func (e *Engine) SaleAccount() common.Address { return e.saleAccount }

// Allowance 代币授权剩余额度
func (e *Engine) Allowance(owner, spender common.Address) *big.Int {
	return e.token.Allowance(owner, spender)
}

// TokenLocks 全部时间锁视图
func (e *Engine) TokenLocks() []TokenLock { return e.token.Locks() }

// CrowdsaleAccount 代币账本里登记的众筹账户
func (e *Engine) CrowdsaleAccount() (common.Address, bool) { return e.token.CrowdsaleAccount() }

// Tier 按下标读取档位
func (e *Engine) Tier(index int) (Tier, bool) { return e.tiers.Get(index) }

// Tiers 按累计上限升序返回全部档位
func (e *Engine) Tiers() []Tier { return e.tiers.List() }

// SuspendedView 挂起支付视图
type SuspendedView struct {
	ID        uint64
	Amount    *big.Int
	Tokens    *big.Int
	Reference string
	External  bool
}

// ParticipantView 参与者视图，net出资来自托管账本
type ParticipantView struct {
	Address                common.Address
	Identified             bool
	Banned                 bool
	UnverifiedContribution *big.Int
	NetContribution        *big.Int
	Suspended              []SuspendedView
}

// ParticipantInfo 参与者完整视图，未知地址返回零值视图
func (e *Engine) ParticipantInfo(addr common.Address) ParticipantView {
	view := ParticipantView{
		Address:                addr,
		UnverifiedContribution: new(big.Int),
		NetContribution:        e.escrow.NetContribution(addr),
	}
	p := e.participants.Get(addr)
	if p == nil {
		return view
	}
	view.Identified = p.Identified
	view.Banned = p.Banned
	view.UnverifiedContribution = cloneAmount(p.UnverifiedContribution)
	for _, sp := range p.Suspended {
		view.Suspended = append(view.Suspended, SuspendedView{
			ID:        sp.ID,
			Amount:    cloneAmount(sp.Amount),
			Tokens:    cloneAmount(sp.Tokens),
			Reference: sp.ExternalRef,
			External:  sp.External,
		})
	}
	return view
}

// ReservedTokens 参与者挂起支付对应的代币报价合计
func (e *Engine) ReservedTokens(addr common.Address) *big.Int {
	p := e.participants.Get(addr)
	if p == nil {
		return new(big.Int)
	}
	return p.ReservedTokens()
}

// BalanceOf 代币余额
func (e *Engine) BalanceOf(addr common.Address) *big.Int { return e.token.BalanceOf(addr) }

// TotalSupply 代币总供应量
func (e *Engine) TotalSupply() *big.Int { return e.token.TotalSupply() }

// EscrowView 托管资金视图
type EscrowView struct {
	TotalNet      *big.Int
	SuspendedHeld *big.Int
	Withdrawn     *big.Int
	Withdrawable  *big.Int
}

// EscrowInfo 托管资金汇总
func (e *Engine) EscrowInfo() EscrowView {
	return EscrowView{
		TotalNet:      e.escrow.TotalNet(),
		SuspendedHeld: e.escrow.SuspendedHeld(),
		Withdrawn:     e.escrow.Withdrawn(),
		Withdrawable:  e.escrow.Withdrawable(),
	}
}

// NetContribution 参与者净出资
func (e *Engine) NetContribution(addr common.Address) *big.Int {
	return e.escrow.NetContribution(addr)
}

// ExternalPayment 已登记的外部支付
type ExternalPayment struct {
	Checksum  common.Hash
	Reference string
}

// ExternalPayments 按登记顺序返回全部外部支付记录
func (e *Engine) ExternalPayments() []ExternalPayment {
	out := make([]ExternalPayment, 0, len(e.externalOrder))
	for _, checksum := range e.externalOrder {
		out = append(out, ExternalPayment{Checksum: checksum, Reference: e.external[checksum]})
	}
	return out
}
