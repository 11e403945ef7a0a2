package logic

import (
	"github.com/ethereum/go-ethereum/common"
)

// 只读查询，金额统一转为十进制字符串

// StatusView 众筹状态视图
type StatusView struct {
	State             string `json:"state"`
	SaleSucceeded     bool   `json:"sale_succeeded"`
	TokensSold        string `json:"tokens_sold"`
	HardCap           string `json:"hard_cap"`
	Leftover          string `json:"leftover"`
	MinSale           string `json:"min_sale"`
	UnidentifiedLimit string `json:"unidentified_limit"`
	TotalSupply       string `json:"total_supply"`
	Admin             string `json:"admin"`
	Beneficiary       string `json:"beneficiary"`
	SaleAccount       string `json:"sale_account"`
}

// SuspendedView 挂起支付视图
type SuspendedView struct {
	ID        uint64 `json:"id"`
	Amount    string `json:"amount"`
	Tokens    string `json:"tokens"`
	Reference string `json:"reference,omitempty"`
	External  bool   `json:"external"`
}

// ParticipantView 参与者视图
type ParticipantView struct {
	Address                string          `json:"address"`
	Identified             bool            `json:"identified"`
	Banned                 bool            `json:"banned"`
	UnverifiedContribution string          `json:"unverified_contribution"`
	NetContribution        string          `json:"net_contribution"`
	ReservedTokens         string          `json:"reserved_tokens"`
	TokenBalance           string          `json:"token_balance"`
	Suspended              []SuspendedView `json:"suspended,omitempty"`
}

// EscrowView 托管资金视图
type EscrowView struct {
	TotalNet      string `json:"total_net"`
	SuspendedHeld string `json:"suspended_held"`
	Withdrawn     string `json:"withdrawn"`
	Withdrawable  string `json:"withdrawable"`
}

// TierView 价格档位视图
type TierView struct {
	Index         int    `json:"index"`
	CumulativeCap string `json:"cumulative_cap"`
	UnitPrice     string `json:"unit_price"`
}

// LockView 时间锁视图
type LockView struct {
	Index       int    `json:"index"`
	Amount      string `json:"amount"`
	ReleaseTime int64  `json:"release_time"`
	Released    bool   `json:"released"`
}

// ExternalPaymentView 外部支付记录视图
type ExternalPaymentView struct {
	Checksum  string `json:"checksum"`
	Reference string `json:"reference"`
}

// Status 众筹状态汇总
func (l *CrowdsaleLogic) Status() StatusView {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.engine
	return StatusView{
		State:             string(e.State()),
		SaleSucceeded:     e.SaleSucceeded(),
		TokensSold:        e.TokensSold().String(),
		HardCap:           e.HardCap().String(),
		Leftover:          e.Leftover().String(),
		MinSale:           e.MinSale().String(),
		UnidentifiedLimit: e.UnidentifiedLimit().String(),
		TotalSupply:       e.TotalSupply().String(),
		Admin:             e.Admin().Hex(),
		Beneficiary:       e.Beneficiary().Hex(),
		SaleAccount:       e.SaleAccount().Hex(),
	}
}

// Participant 参与者详情，未知地址返回零值视图
func (l *CrowdsaleLogic) Participant(address string) ParticipantView {
	l.mu.Lock()
	defer l.mu.Unlock()
	addr := common.HexToAddress(address)
	info := l.engine.ParticipantInfo(addr)
	view := ParticipantView{
		Address:                info.Address.Hex(),
		Identified:             info.Identified,
		Banned:                 info.Banned,
		UnverifiedContribution: info.UnverifiedContribution.String(),
		NetContribution:        info.NetContribution.String(),
		ReservedTokens:         l.engine.ReservedTokens(addr).String(),
		TokenBalance:           l.engine.BalanceOf(addr).String(),
	}
	for _, sp := range info.Suspended {
		view.Suspended = append(view.Suspended, SuspendedView{
			ID:        sp.ID,
			Amount:    sp.Amount.String(),
			Tokens:    sp.Tokens.String(),
			Reference: sp.Reference,
			External:  sp.External,
		})
	}
	return view
}

// Escrow 托管资金汇总
func (l *CrowdsaleLogic) Escrow() EscrowView {
	l.mu.Lock()
	defer l.mu.Unlock()
	info := l.engine.EscrowInfo()
	return EscrowView{
		TotalNet:      info.TotalNet.String(),
		SuspendedHeld: info.SuspendedHeld.String(),
		Withdrawn:     info.Withdrawn.String(),
		Withdrawable:  info.Withdrawable.String(),
	}
}

// Tiers 价格档位表
func (l *CrowdsaleLogic) Tiers() []TierView {
	l.mu.Lock()
	defer l.mu.Unlock()
	tiers := l.engine.Tiers()
	out := make([]TierView, len(tiers))
	for i, tier := range tiers {
		out[i] = TierView{
			Index:         tier.Index,
			CumulativeCap: tier.CumulativeCap.String(),
			UnitPrice:     tier.UnitPrice.String(),
		}
	}
	return out
}

// Balance 代币余额
func (l *CrowdsaleLogic) Balance(address string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.BalanceOf(common.HexToAddress(address)).String()
}

// Allowance 剩余授权额度
func (l *CrowdsaleLogic) Allowance(owner, spender string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Allowance(common.HexToAddress(owner), common.HexToAddress(spender)).String()
}

// Locks 时间锁列表
func (l *CrowdsaleLogic) Locks() []LockView {
	l.mu.Lock()
	defer l.mu.Unlock()
	locks := l.engine.TokenLocks()
	out := make([]LockView, len(locks))
	for i, lock := range locks {
		out[i] = LockView{
			Index:       i,
			Amount:      lock.Amount.String(),
			ReleaseTime: lock.ReleaseTime,
			Released:    lock.Released,
		}
	}
	return out
}

// ExternalPayments 外部支付记录
func (l *CrowdsaleLogic) ExternalPayments() []ExternalPaymentView {
	l.mu.Lock()
	defer l.mu.Unlock()
	payments := l.engine.ExternalPayments()
	out := make([]ExternalPaymentView, len(payments))
	for i, p := range payments {
		out[i] = ExternalPaymentView{
			Checksum:  p.Checksum.Hex(),
			Reference: p.Reference,
		}
	}
	return out
}
