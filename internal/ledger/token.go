package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenLock 时间锁：Released之前对应数量的代币不可转出
type TokenLock struct {
	Amount      *big.Int
	ReleaseTime int64
	Released    bool
}

// TokenLedger 代币账本
//
// 创世时全部供应量铸给所有者。公开转账开启之前，只有所有者
// 和众筹账户可以转账，且所有者额外受时间锁约束。
type TokenLedger struct {
	name   string
	symbol string
	owner  common.Address

	crowdsale    common.Address
	crowdsaleSet bool

	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int

	publicTransfers bool
	burnGrants      map[common.Address]bool
	locks           []*TokenLock
}

// NewTokenLedger 创建代币账本并把初始供应量铸给所有者
func NewTokenLedger(name, symbol string, owner common.Address, initialSupply *big.Int) *TokenLedger {
	t := &TokenLedger{
		name:        name,
		symbol:      symbol,
		owner:       owner,
		totalSupply: new(big.Int),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		burnGrants:  make(map[common.Address]bool),
	}
	if isPositive(initialSupply) {
		t.credit(owner, initialSupply)
		t.totalSupply.Set(initialSupply)
	}
	return t
}

func (t *TokenLedger) Name() string          { return t.name }
func (t *TokenLedger) Symbol() string        { return t.symbol }
func (t *TokenLedger) Owner() common.Address { return t.owner }

// TotalSupply 当前总供应量
func (t *TokenLedger) TotalSupply() *big.Int {
	return cloneAmount(t.totalSupply)
}

// BalanceOf 地址余额
func (t *TokenLedger) BalanceOf(addr common.Address) *big.Int {
	return cloneAmount(t.balances[addr])
}

// Allowance 剩余授权额度
func (t *TokenLedger) Allowance(owner, spender common.Address) *big.Int {
	return cloneAmount(t.allowances[owner][spender])
}

// PublicTransfersEnabled 公开转账是否已开启
func (t *TokenLedger) PublicTransfersEnabled() bool {
	return t.publicTransfers
}

// CrowdsaleAccount 众筹账户
func (t *TokenLedger) CrowdsaleAccount() (common.Address, bool) {
	return t.crowdsale, t.crowdsaleSet
}

// SetCrowdsaleAccount 指定众筹账户并授予销毁权限，仅所有者可调用
func (t *TokenLedger) SetCrowdsaleAccount(caller, account common.Address) error {
	if caller != t.owner {
		return ErrNotOwner
	}
	if account == (common.Address{}) {
		return ErrInvalidAddress
	}
	t.crowdsale = account
	t.crowdsaleSet = true
	t.burnGrants[account] = true
	return nil
}

// Mint 增发代币，仅所有者或众筹账户可调用
func (t *TokenLedger) Mint(caller, to common.Address, amount *big.Int) error {
	if caller != t.owner && !(t.crowdsaleSet && caller == t.crowdsale) {
		return ErrNotOwner
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	t.credit(to, amount)
	t.totalSupply.Add(t.totalSupply, amount)
	return nil
}

// Transfer 代币转账
func (t *TokenLedger) Transfer(from, to common.Address, amount *big.Int, now int64) error {
	if err := t.checkTransfer(from, amount, now); err != nil {
		return err
	}
	t.move(from, to, amount)
	return nil
}

// Approve 设置授权额度
func (t *TokenLedger) Approve(owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = cloneAmount(amount)
	return nil
}

// TransferFrom 通过授权额度转账
func (t *TokenLedger) TransferFrom(spender, from, to common.Address, amount *big.Int, now int64) error {
	if err := t.checkTransfer(from, amount, now); err != nil {
		return err
	}
	allowance := t.allowances[from][spender]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return ErrAllowanceExceeded
	}
	allowance.Sub(allowance, amount)
	t.move(from, to, amount)
	return nil
}

// BulkTransferEqual 向每个收币地址转出等量代币，资金来自funder的授权额度
//
// 整批先校验再执行，任何一项不满足都不会发生转账。
func (t *TokenLedger) BulkTransferEqual(caller, funder common.Address, recipients []common.Address, amount *big.Int, now int64) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	total := new(big.Int).Mul(amount, big.NewInt(int64(len(recipients))))
	if err := t.checkTransfer(funder, total, now); err != nil {
		return err
	}
	if caller != funder {
		allowance := t.allowances[funder][caller]
		if allowance == nil || allowance.Cmp(total) < 0 {
			return ErrAllowanceExceeded
		}
		allowance.Sub(allowance, total)
	}
	for _, to := range recipients {
		t.move(funder, to, amount)
	}
	return nil
}

// GrantBurnAccess 授予销毁权限，仅所有者可调用
func (t *TokenLedger) GrantBurnAccess(caller, grantee common.Address) error {
	if caller != t.owner {
		return ErrNotOwner
	}
	t.burnGrants[grantee] = true
	return nil
}

// Burn 销毁from名下的代币并减少总供应量，调用者需持有销毁权限
func (t *TokenLedger) Burn(caller, from common.Address, amount *big.Int) error {
	if !t.burnGrants[caller] {
		return ErrBurnNotGranted
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	balance := t.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientTokens
	}
	balance.Sub(balance, amount)
	t.totalSupply.Sub(t.totalSupply, amount)
	return nil
}

// EnablePublicTransfers 开启公开转账，单向开关，仅所有者可调用
func (t *TokenLedger) EnablePublicTransfers(caller common.Address) error {
	if caller != t.owner {
		return ErrNotOwner
	}
	if t.publicTransfers {
		return ErrTransfersEnabled
	}
	t.publicTransfers = true
	return nil
}

// AddTokenLock 给所有者的代币加时间锁，仅所有者可调用
func (t *TokenLedger) AddTokenLock(caller common.Address, amount *big.Int, releaseTime int64, now int64) (int, error) {
	if caller != t.owner {
		return 0, ErrNotOwner
	}
	if !isPositive(amount) {
		return 0, ErrInvalidAmount
	}
	locked := t.lockedTotal(now)
	locked.Add(locked, amount)
	if balance := t.balances[t.owner]; balance == nil || balance.Cmp(locked) < 0 {
		return 0, ErrInsufficientTokens
	}
	t.locks = append(t.locks, &TokenLock{
		Amount:      cloneAmount(amount),
		ReleaseTime: releaseTime,
	})
	return len(t.locks) - 1, nil
}

// ReleaseLockedTokens 释放指定下标的时间锁，仅所有者可调用
func (t *TokenLedger) ReleaseLockedTokens(caller common.Address, index int, now int64) error {
	if caller != t.owner {
		return ErrNotOwner
	}
	if index < 0 || index >= len(t.locks) {
		return ErrNoSuchLock
	}
	lock := t.locks[index]
	if lock.Released {
		return ErrLockReleased
	}
	if now < lock.ReleaseTime {
		return ErrTooEarly
	}
	lock.Released = true
	return nil
}

// ReleaseMaturedLocks 释放所有已到期且未释放的时间锁，返回释放的下标
func (t *TokenLedger) ReleaseMaturedLocks(now int64) []int {
	var released []int
	for i, lock := range t.locks {
		if !lock.Released && now >= lock.ReleaseTime {
			lock.Released = true
			released = append(released, i)
		}
	}
	return released
}

// Locks 时间锁列表
func (t *TokenLedger) Locks() []TokenLock {
	out := make([]TokenLock, len(t.locks))
	for i, lock := range t.locks {
		out[i] = TokenLock{
			Amount:      cloneAmount(lock.Amount),
			ReleaseTime: lock.ReleaseTime,
			Released:    lock.Released,
		}
	}
	return out
}

// checkTransfer 转账前置校验，通过后转账不会再失败
func (t *TokenLedger) checkTransfer(from common.Address, amount *big.Int, now int64) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if !t.publicTransfers && from != t.owner && !(t.crowdsaleSet && from == t.crowdsale) {
		return ErrTransfersDisabled
	}
	balance := t.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientTokens
	}
	if from == t.owner {
		// 所有者转账后余额不得低于仍锁定中的数量
		after := new(big.Int).Sub(balance, amount)
		if after.Cmp(t.lockedTotal(now)) < 0 {
			return ErrLockedFunds
		}
	}
	return nil
}

// lockedTotal 未释放且未到期的锁定总量
func (t *TokenLedger) lockedTotal(now int64) *big.Int {
	total := new(big.Int)
	for _, lock := range t.locks {
		if !lock.Released && lock.ReleaseTime > now {
			total.Add(total, lock.Amount)
		}
	}
	return total
}

func (t *TokenLedger) credit(addr common.Address, amount *big.Int) {
	if t.balances[addr] == nil {
		t.balances[addr] = new(big.Int)
	}
	t.balances[addr].Add(t.balances[addr], amount)
}

func (t *TokenLedger) move(from, to common.Address, amount *big.Int) {
	t.balances[from].Sub(t.balances[from], amount)
	t.credit(to, amount)
}
