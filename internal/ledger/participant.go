package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SuspendedPayment 挂起支付：资金已收到但代币尚未兑换
type SuspendedPayment struct {
	ID          uint64
	Amount      *big.Int
	Tokens      *big.Int // 挂起时的报价，释放时会按当前档位重新计算
	ExternalRef string
	External    bool
}

// Participant 众筹参与者，首次交互时惰性创建，永不删除。
// 净出资记在EscrowLedger中，不在这里重复记账。
type Participant struct {
	Address                common.Address
	Identified             bool
	Banned                 bool
	UnverifiedContribution *big.Int
	Suspended              []*SuspendedPayment
}

// SuspendedTotal 挂起支付金额合计
func (p *Participant) SuspendedTotal() *big.Int {
	total := new(big.Int)
	for _, sp := range p.Suspended {
		total.Add(total, sp.Amount)
	}
	return total
}

// ReservedTokens 挂起支付对应的代币报价合计
func (p *Participant) ReservedTokens() *big.Int {
	total := new(big.Int)
	for _, sp := range p.Suspended {
		total.Add(total, sp.Tokens)
	}
	return total
}

// ParticipantRegistry 参与者注册表，保留首次出现顺序以便遍历
type ParticipantRegistry struct {
	participants map[common.Address]*Participant
	order        []common.Address
}

// NewParticipantRegistry 创建空注册表
func NewParticipantRegistry() *ParticipantRegistry {
	return &ParticipantRegistry{participants: make(map[common.Address]*Participant)}
}

// Get 查找参与者，不存在时返回nil
func (r *ParticipantRegistry) Get(addr common.Address) *Participant {
	return r.participants[addr]
}

// Ensure 查找参与者，不存在时创建
func (r *ParticipantRegistry) Ensure(addr common.Address) *Participant {
	if p, ok := r.participants[addr]; ok {
		return p
	}
	p := &Participant{
		Address:                addr,
		UnverifiedContribution: new(big.Int),
	}
	r.participants[addr] = p
	r.order = append(r.order, addr)
	return p
}

// Addresses 按首次出现顺序返回所有参与者地址
func (r *ParticipantRegistry) Addresses() []common.Address {
	out := make([]common.Address, len(r.order))
	copy(out, r.order)
	return out
}

// Len 参与者数量
func (r *ParticipantRegistry) Len() int {
	return len(r.participants)
}
