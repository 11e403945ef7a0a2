package ledger

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// 快照导出/导入，用于崩溃恢复：最近一次快照加上其后的操作日志
// 重放即可恢复到最后一次已提交操作。所有金额序列化为十进制字符串。

// TierState 档位快照
type TierState struct {
	Index         int    `json:"index"`
	CumulativeCap string `json:"cumulative_cap"`
	UnitPrice     string `json:"unit_price"`
}

// BalanceState 余额快照
type BalanceState struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// AllowanceState 授权额度快照
type AllowanceState struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

// LockState 时间锁快照
type LockState struct {
	Amount      string `json:"amount"`
	ReleaseTime int64  `json:"release_time"`
	Released    bool   `json:"released"`
}

// TokenState 代币账本快照
type TokenState struct {
	Name            string           `json:"name"`
	Symbol          string           `json:"symbol"`
	Owner           string           `json:"owner"`
	Crowdsale       string           `json:"crowdsale,omitempty"`
	CrowdsaleSet    bool             `json:"crowdsale_set"`
	TotalSupply     string           `json:"total_supply"`
	PublicTransfers bool             `json:"public_transfers"`
	Balances        []BalanceState   `json:"balances"`
	Allowances      []AllowanceState `json:"allowances,omitempty"`
	BurnGrants      []string         `json:"burn_grants,omitempty"`
	Locks           []LockState      `json:"locks,omitempty"`
}

// SuspendedState 挂起支付快照
type SuspendedState struct {
	ID        uint64 `json:"id"`
	Amount    string `json:"amount"`
	Tokens    string `json:"tokens"`
	Reference string `json:"reference,omitempty"`
	External  bool   `json:"external,omitempty"`
}

// ParticipantState 参与者快照
type ParticipantState struct {
	Address                string           `json:"address"`
	Identified             bool             `json:"identified"`
	Banned                 bool             `json:"banned"`
	UnverifiedContribution string           `json:"unverified_contribution"`
	Suspended              []SuspendedState `json:"suspended,omitempty"`
}

// EscrowState 托管账本快照
type EscrowState struct {
	Contributions []BalanceState `json:"contributions"`
	TotalNet      string         `json:"total_net"`
	SuspendedHeld string         `json:"suspended_held"`
	Withdrawn     string         `json:"withdrawn"`
}

// ExternalState 外部支付记录快照
type ExternalState struct {
	Checksum  string `json:"checksum"`
	Reference string `json:"reference"`
}

// State快照根结构
type State struct {
	SaleState        SaleState          `json:"sale_state"`
	SaleSucceeded    bool               `json:"sale_succeeded"`
	SoldOutSignalled bool               `json:"sold_out_signalled"`
	TokensSold       string             `json:"tokens_sold"`
	Leftover         string             `json:"leftover,omitempty"`
	MinSale          string             `json:"min_sale"`
	UnidentifiedLim  string             `json:"unidentified_limit"`
	SuspendPolicy    bool               `json:"suspend_unidentified"`
	SuspendedSeq     uint64             `json:"suspended_seq"`
	Tiers            []TierState        `json:"tiers"`
	Token            TokenState         `json:"token"`
	Participants     []ParticipantState `json:"participants"`
	Escrow           EscrowState        `json:"escrow"`
	External         []ExternalState    `json:"external,omitempty"`
}

// ExportState 导出当前账本完整状态，字段顺序确定，便于比对
func (e *Engine) ExportState() *State {
	s := &State{
		SaleState:        e.state,
		SaleSucceeded:    e.saleSucceeded,
		SoldOutSignalled: e.soldOutSignalled,
		TokensSold:       amountString(e.tokensSold),
		MinSale:          amountString(e.minSale),
		UnidentifiedLim:  amountString(e.unidentifiedLimit),
		SuspendPolicy:    e.suspendUnidentified,
		SuspendedSeq:     e.suspendedSeq,
	}
	if e.leftover != nil {
		s.Leftover = amountString(e.leftover)
	}

	for _, tier := range e.tiers.bands() {
		s.Tiers = append(s.Tiers, TierState{
			Index:         tier.Index,
			CumulativeCap: amountString(tier.CumulativeCap),
			UnitPrice:     amountString(tier.UnitPrice),
		})
	}

	s.Token = e.exportToken()

	for _, addr := range e.participants.Addresses() {
		p := e.participants.Get(addr)
		ps := ParticipantState{
			Address:                addr.Hex(),
			Identified:             p.Identified,
			Banned:                 p.Banned,
			UnverifiedContribution: amountString(p.UnverifiedContribution),
		}
		for _, sp := range p.Suspended {
			ps.Suspended = append(ps.Suspended, SuspendedState{
				ID:        sp.ID,
				Amount:    amountString(sp.Amount),
				Tokens:    amountString(sp.Tokens),
				Reference: sp.ExternalRef,
				External:  sp.External,
			})
		}
		s.Participants = append(s.Participants, ps)
	}

	s.Escrow = EscrowState{
		Contributions: balanceStates(e.escrow.contributions),
		TotalNet:      amountString(e.escrow.totalNet),
		SuspendedHeld: amountString(e.escrow.suspendedHeld),
		Withdrawn:     amountString(e.escrow.withdrawn),
	}

	for _, checksum := range e.externalOrder {
		s.External = append(s.External, ExternalState{
			Checksum:  checksum.Hex(),
			Reference: e.external[checksum],
		})
	}
	return s
}

func (e *Engine) exportToken() TokenState {
	t := e.token
	ts := TokenState{
		Name:            t.name,
		Symbol:          t.symbol,
		Owner:           t.owner.Hex(),
		CrowdsaleSet:    t.crowdsaleSet,
		TotalSupply:     amountString(t.totalSupply),
		PublicTransfers: t.publicTransfers,
		Balances:        balanceStates(t.balances),
	}
	if t.crowdsaleSet {
		ts.Crowdsale = t.crowdsale.Hex()
	}
	var owners []common.Address
	for owner := range t.allowances {
		owners = append(owners, owner)
	}
	sortAddresses(owners)
	for _, owner := range owners {
		var spenders []common.Address
		for spender := range t.allowances[owner] {
			spenders = append(spenders, spender)
		}
		sortAddresses(spenders)
		for _, spender := range spenders {
			ts.Allowances = append(ts.Allowances, AllowanceState{
				Owner:   owner.Hex(),
				Spender: spender.Hex(),
				Amount:  amountString(t.allowances[owner][spender]),
			})
		}
	}
	var grants []common.Address
	for addr, granted := range t.burnGrants {
		if granted {
			grants = append(grants, addr)
		}
	}
	sortAddresses(grants)
	for _, addr := range grants {
		ts.BurnGrants = append(ts.BurnGrants, addr.Hex())
	}
	for _, lock := range t.locks {
		ts.Locks = append(ts.Locks, LockState{
			Amount:      amountString(lock.Amount),
			ReleaseTime: lock.ReleaseTime,
			Released:    lock.Released,
		})
	}
	return ts
}

// ImportState 用快照覆盖引擎当前状态
func (e *Engine) ImportState(s *State) error {
	tokensSold, err := ParseAmount(s.TokensSold)
	if err != nil {
		return fmt.Errorf("恢复已售数量失败: %w", err)
	}
	minSale, err := ParseAmount(s.MinSale)
	if err != nil {
		return fmt.Errorf("恢复最低支付金额失败: %w", err)
	}
	limit, err := ParseAmount(s.UnidentifiedLim)
	if err != nil {
		return fmt.Errorf("恢复未验证上限失败: %w", err)
	}

	tiers := NewTierTable()
	for _, tier := range s.Tiers {
		cap, err := ParseAmount(tier.CumulativeCap)
		if err != nil {
			return fmt.Errorf("恢复档位%d失败: %w", tier.Index, err)
		}
		price, err := ParseAmount(tier.UnitPrice)
		if err != nil {
			return fmt.Errorf("恢复档位%d失败: %w", tier.Index, err)
		}
		if err := tiers.Set(tier.Index, cap, price); err != nil {
			return fmt.Errorf("恢复档位%d失败: %w", tier.Index, err)
		}
	}

	token, err := importToken(s.Token)
	if err != nil {
		return err
	}

	participants := NewParticipantRegistry()
	for _, ps := range s.Participants {
		p := participants.Ensure(common.HexToAddress(ps.Address))
		p.Identified = ps.Identified
		p.Banned = ps.Banned
		p.UnverifiedContribution, err = ParseAmount(ps.UnverifiedContribution)
		if err != nil {
			return fmt.Errorf("恢复参与者%s失败: %w", ps.Address, err)
		}
		for _, ss := range ps.Suspended {
			amount, err := ParseAmount(ss.Amount)
			if err != nil {
				return fmt.Errorf("恢复挂起支付%d失败: %w", ss.ID, err)
			}
			tokens, err := ParseAmount(ss.Tokens)
			if err != nil {
				return fmt.Errorf("恢复挂起支付%d失败: %w", ss.ID, err)
			}
			p.Suspended = append(p.Suspended, &SuspendedPayment{
				ID:          ss.ID,
				Amount:      amount,
				Tokens:      tokens,
				ExternalRef: ss.Reference,
				External:    ss.External,
			})
		}
	}

	escrow := NewEscrowLedger()
	for _, c := range s.Escrow.Contributions {
		amount, err := ParseAmount(c.Amount)
		if err != nil {
			return fmt.Errorf("恢复净出资失败: %w", err)
		}
		escrow.contributions[common.HexToAddress(c.Address)] = amount
	}
	if escrow.totalNet, err = ParseAmount(s.Escrow.TotalNet); err != nil {
		return fmt.Errorf("恢复净出资合计失败: %w", err)
	}
	if escrow.suspendedHeld, err = ParseAmount(s.Escrow.SuspendedHeld); err != nil {
		return fmt.Errorf("恢复挂起占用失败: %w", err)
	}
	if escrow.withdrawn, err = ParseAmount(s.Escrow.Withdrawn); err != nil {
		return fmt.Errorf("恢复已划转金额失败: %w", err)
	}

	external := make(map[common.Hash]string, len(s.External))
	externalOrder := make([]common.Hash, 0, len(s.External))
	for _, ep := range s.External {
		checksum := common.HexToHash(ep.Checksum)
		external[checksum] = ep.Reference
		externalOrder = append(externalOrder, checksum)
	}

	e.state = s.SaleState
	e.saleSucceeded = s.SaleSucceeded
	e.soldOutSignalled = s.SoldOutSignalled
	e.tokensSold = tokensSold
	e.leftover = nil
	if s.Leftover != "" {
		if e.leftover, err = ParseAmount(s.Leftover); err != nil {
			return fmt.Errorf("恢复剩余配额失败: %w", err)
		}
	}
	e.minSale = minSale
	e.unidentifiedLimit = limit
	e.suspendUnidentified = s.SuspendPolicy
	e.suspendedSeq = s.SuspendedSeq
	e.tiers = tiers
	e.token = token
	e.participants = participants
	e.escrow = escrow
	e.external = external
	e.externalOrder = externalOrder
	e.events = nil
	return nil
}

func importToken(ts TokenState) (*TokenLedger, error) {
	token := NewTokenLedger(ts.Name, ts.Symbol, common.HexToAddress(ts.Owner), nil)
	var err error
	if token.totalSupply, err = ParseAmount(ts.TotalSupply); err != nil {
		return nil, fmt.Errorf("恢复总供应量失败: %w", err)
	}
	token.publicTransfers = ts.PublicTransfers
	token.crowdsaleSet = ts.CrowdsaleSet
	if ts.CrowdsaleSet {
		token.crowdsale = common.HexToAddress(ts.Crowdsale)
	}
	for _, b := range ts.Balances {
		amount, err := ParseAmount(b.Amount)
		if err != nil {
			return nil, fmt.Errorf("恢复余额失败: %w", err)
		}
		token.balances[common.HexToAddress(b.Address)] = amount
	}
	for _, a := range ts.Allowances {
		amount, err := ParseAmount(a.Amount)
		if err != nil {
			return nil, fmt.Errorf("恢复授权额度失败: %w", err)
		}
		owner := common.HexToAddress(a.Owner)
		if token.allowances[owner] == nil {
			token.allowances[owner] = make(map[common.Address]*big.Int)
		}
		token.allowances[owner][common.HexToAddress(a.Spender)] = amount
	}
	for _, g := range ts.BurnGrants {
		token.burnGrants[common.HexToAddress(g)] = true
	}
	for _, l := range ts.Locks {
		amount, err := ParseAmount(l.Amount)
		if err != nil {
			return nil, fmt.Errorf("恢复时间锁失败: %w", err)
		}
		token.locks = append(token.locks, &TokenLock{
			Amount:      amount,
			ReleaseTime: l.ReleaseTime,
			Released:    l.Released,
		})
	}
	return token, nil
}

func balanceStates(m map[common.Address]*big.Int) []BalanceState {
	out := make([]BalanceState, 0, len(m))
	for addr, amount := range m {
		out = append(out, BalanceState{Address: addr.Hex(), Amount: amountString(amount)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func sortAddresses(addrs []common.Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Hex() < addrs[j].Hex()
	})
}
