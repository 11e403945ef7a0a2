package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pause 暂停众筹，暂停期间拒绝支付
func (e *Engine) Pause(caller common.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	switch e.state {
	case StateActive:
		e.state = StatePaused
		e.emit(Event{Type: EventCrowdsalePaused})
		return nil
	case StatePaused:
		return ErrPaused
	default:
		return ErrNotActive
	}
}

// Unpause 恢复众筹
func (e *Engine) Unpause(caller common.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if e.state != StatePaused {
		return ErrNotPaused
	}
	e.state = StateActive
	e.emit(Event{Type: EventCrowdsaleUnpaused})
	return nil
}

// EndResult 结束众筹的结算结果
type EndResult struct {
	Success bool
	// BeneficiaryPayout 立即划转给受益人的金额，不含仍挂起的资金
	BeneficiaryPayout *big.Int
	// Leftover 未售出的代币配额，可分批销毁
	Leftover *big.Int
}

// End 结束众筹，终态不可逆
//
// 成功结束时净出资全额结算给受益人（挂起资金不计入，保持可退）；
// 失败结束时净出资转为可退款。
func (e *Engine) End(caller common.Address, success bool, now int64) (*EndResult, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	switch e.state {
	case StateEnded:
		return nil, ErrEnded
	case StateActive, StatePaused:
	default:
		return nil, ErrNotActive
	}
	e.state = StateEnded
	e.saleSucceeded = success

	result := &EndResult{
		Success:           success,
		BeneficiaryPayout: new(big.Int),
		Leftover:          new(big.Int),
	}
	if success {
		payout := e.escrow.Withdrawable()
		e.escrow.RecordWithdrawal(payout)
		result.BeneficiaryPayout = payout

		leftover := new(big.Int).Sub(e.tiers.HardCap(), e.tokensSold)
		if leftover.Sign() < 0 {
			leftover.SetInt64(0)
		}
		e.leftover = leftover
		result.Leftover = cloneAmount(leftover)
	}
	e.emit(Event{
		Type:    EventCrowdsaleEnded,
		Amount:  amountString(result.BeneficiaryPayout),
		Tokens:  amountString(result.Leftover),
		Success: boolPtr(success),
	})
	return result, nil
}

// BurnLeftover 销毁当前剩余配额的percent%，仅在成功结束后可用，
// 可用不同比例反复调用直到剩余配额清零
func (e *Engine) BurnLeftover(caller common.Address, percent int) (*big.Int, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if percent < 0 || percent > 100 {
		return nil, ErrInvalidPercent
	}
	if e.state != StateEnded {
		return nil, ErrNotEnded
	}
	if !e.saleSucceeded {
		return nil, ErrSaleNotSuccess
	}
	burn := new(big.Int).Mul(e.leftover, big.NewInt(int64(percent)))
	burn.Div(burn, hundred)
	if burn.Sign() > 0 {
		if err := e.token.Burn(e.saleAccount, e.saleAccount, burn); err != nil {
			return nil, err
		}
		e.leftover.Sub(e.leftover, burn)
	}
	e.emit(Event{
		Type:    EventTokensBurned,
		Tokens:  amountString(burn),
		Percent: intPtr(percent),
	})
	return burn, nil
}

// TransferFunds 向受益人划转资金
//
// 结束前要求已售代币数达到释放阈值；失败结束后资金属于参与者，
// 不允许划转。
func (e *Engine) TransferFunds(caller common.Address, amount *big.Int) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if !isPositive(amount) {
		return ErrInvalidAmount
	}
	if e.state == StateEnded {
		if !e.saleSucceeded {
			return ErrRefundsUnavailable
		}
	} else {
		if !isPositive(e.releaseThreshold) || e.tokensSold.Cmp(e.releaseThreshold) < 0 {
			return ErrFundsLocked
		}
	}
	if e.escrow.Withdrawable().Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	e.escrow.RecordWithdrawal(amount)
	e.emit(Event{
		Type:        EventFundsTransferred,
		Participant: e.beneficiary.Hex(),
		Amount:      amountString(amount),
	})
	return nil
}

// SetTier 写入价格档位，结束前可随时调整
func (e *Engine) SetTier(caller common.Address, index int, cumulativeCap, unitPrice *big.Int) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if e.state == StateEnded {
		return ErrEnded
	}
	if err := e.tiers.Set(index, cumulativeCap, unitPrice); err != nil {
		return err
	}
	e.emit(Event{
		Type:      EventTierUpdated,
		Amount:    amountString(unitPrice),
		Tokens:    amountString(cumulativeCap),
		TierIndex: intPtr(index),
	})
	return nil
}

// UpdateMinSale 更新最低支付金额
func (e *Engine) UpdateMinSale(caller common.Address, minSale *big.Int) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if minSale == nil || minSale.Sign() < 0 {
		return ErrInvalidAmount
	}
	e.minSale = cloneAmount(minSale)
	e.emit(Event{Type: EventMinSaleUpdated, Amount: amountString(minSale)})
	return nil
}

// UpdateUnidentifiedLimit 更新未验证参与者的累计支付上限
func (e *Engine) UpdateUnidentifiedLimit(caller common.Address, limit *big.Int) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if limit == nil || limit.Sign() < 0 {
		return ErrInvalidAmount
	}
	e.unidentifiedLimit = cloneAmount(limit)
	e.emit(Event{Type: EventUnidentifiedLimitUpdated, Amount: amountString(limit)})
	return nil
}

// SetSuspendUnidentified 设置超限未验证支付是挂起还是直接拒绝
func (e *Engine) SetSuspendUnidentified(caller common.Address, suspend bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.suspendUnidentified = suspend
	e.emit(Event{Type: EventSuspendPolicyUpdated, Enabled: boolPtr(suspend)})
	return nil
}

// TokenTransfer 代币转账
func (e *Engine) TokenTransfer(from, to common.Address, amount *big.Int, now int64) error {
	if err := e.token.Transfer(from, to, amount, now); err != nil {
		return err
	}
	e.emit(Event{
		Type:        EventTokensTransferred,
		Participant: from.Hex(),
		Counterpart: to.Hex(),
		Tokens:      amountString(amount),
	})
	return nil
}

// TokenApprove 设置代币授权额度
func (e *Engine) TokenApprove(owner, spender common.Address, amount *big.Int) error {
	if err := e.token.Approve(owner, spender, amount); err != nil {
		return err
	}
	e.emit(Event{
		Type:        EventAllowanceApproved,
		Participant: owner.Hex(),
		Counterpart: spender.Hex(),
		Tokens:      amountString(amount),
	})
	return nil
}

// TokenTransferFrom 通过授权额度转账
func (e *Engine) TokenTransferFrom(spender, from, to common.Address, amount *big.Int, now int64) error {
	if err := e.token.TransferFrom(spender, from, to, amount, now); err != nil {
		return err
	}
	e.emit(Event{
		Type:        EventTokensTransferred,
		Participant: from.Hex(),
		Counterpart: to.Hex(),
		Tokens:      amountString(amount),
	})
	return nil
}

// MintTokens 增发代币
func (e *Engine) MintTokens(caller, to common.Address, amount *big.Int) error {
	if err := e.token.Mint(caller, to, amount); err != nil {
		return err
	}
	e.emit(Event{
		Type:        EventTokensMinted,
		Participant: to.Hex(),
		Tokens:      amountString(amount),
	})
	return nil
}

// Airdrop 空投：众筹账户动用所有者预先授权的额度，向每个地址
// 转出等量代币
func (e *Engine) Airdrop(caller common.Address, recipients []common.Address, amount *big.Int, now int64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if !isPositive(amount) {
		return ErrInvalidAmount
	}
	if err := e.token.BulkTransferEqual(e.saleAccount, e.token.Owner(), recipients, amount, now); err != nil {
		return err
	}
	e.emit(Event{
		Type:   EventAirdropSent,
		Tokens: amountString(amount),
		Amount: amountString(new(big.Int).Mul(amount, big.NewInt(int64(len(recipients))))),
	})
	return nil
}

// EnablePublicTransfers 开启代币公开转账
func (e *Engine) EnablePublicTransfers(caller common.Address) error {
	if err := e.token.EnablePublicTransfers(caller); err != nil {
		return err
	}
	e.emit(Event{Type: EventTransfersEnabled})
	return nil
}

// AddTokenLock 给所有者代币加时间锁
func (e *Engine) AddTokenLock(caller common.Address, amount *big.Int, releaseTime, now int64) (int, error) {
	index, err := e.token.AddTokenLock(caller, amount, releaseTime, now)
	if err != nil {
		return 0, err
	}
	e.emit(Event{
		Type:      EventTokensLocked,
		Tokens:    amountString(amount),
		LockIndex: intPtr(index),
	})
	return index, nil
}

// ReleaseLockedTokens 释放指定时间锁
func (e *Engine) ReleaseLockedTokens(caller common.Address, index int, now int64) error {
	if err := e.token.ReleaseLockedTokens(caller, index, now); err != nil {
		return err
	}
	e.emit(Event{Type: EventLockReleased, LockIndex: intPtr(index)})
	return nil
}

// ReleaseMaturedLocks 释放所有已到期的时间锁，由计划任务周期性调用
func (e *Engine) ReleaseMaturedLocks(now int64) []int {
	released := e.token.ReleaseMaturedLocks(now)
	for _, index := range released {
		e.emit(Event{Type: EventLockReleased, LockIndex: intPtr(index)})
	}
	return released
}
