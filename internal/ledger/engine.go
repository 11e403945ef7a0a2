package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SaleState 众筹状态
type SaleState string

const (
	StateNotStarted SaleState = "not_started"
	StateActive     SaleState = "active"
	StatePaused     SaleState = "paused"
	StateEnded      SaleState = "ended"
)

// ReplayPolicy 重复外部支付（校验和与引用都相同）的处理策略
type ReplayPolicy string

const (
	ReplayReject ReplayPolicy = "reject" // 返回重复错误
	ReplayIgnore ReplayPolicy = "ignore" // 幂等忽略
)

// EngineConfig 引擎初始参数
type EngineConfig struct {
	Admin               common.Address
	Beneficiary         common.Address
	SaleAccount         common.Address
	MinSale             *big.Int
	UnidentifiedLimit   *big.Int
	SuspendUnidentified bool
	ReplayPolicy        ReplayPolicy
	// ReleaseThreshold 售出代币数达到该值后，结束前也允许向受益人划转资金；
	// 为0表示结束前不允许划转
	ReleaseThreshold *big.Int
	// TokenAllotment 启动时从所有者划入众筹账户的代币数
	TokenAllotment *big.Int
}

// Engine 众筹引擎
//
// 持有全部可变账本状态（档位表、代币、参与者、托管资金），所有
// 修改只能通过这里的操作进行。引擎本身不做并发控制，调用方必须
// 串行执行每个操作（见logic层的互斥锁）。每个操作先完成全部校验
// 再写入状态，校验失败时不产生任何副作用。
type Engine struct {
	admin       common.Address
	beneficiary common.Address
	saleAccount common.Address

	state            SaleState
	saleSucceeded    bool
	soldOutSignalled bool

	minSale             *big.Int
	unidentifiedLimit   *big.Int
	suspendUnidentified bool
	replayPolicy        ReplayPolicy
	releaseThreshold    *big.Int
	tokenAllotment      *big.Int

	tokensSold *big.Int
	leftover   *big.Int // 成功结束时定格为硬顶减去已售数量

	tiers        *TierTable
	token        *TokenLedger
	participants *ParticipantRegistry
	escrow       *EscrowLedger

	external      map[common.Hash]string
	externalOrder []common.Hash

	suspendedSeq uint64
	events       []Event
}

// NewEngine 创建众筹引擎
func NewEngine(token *TokenLedger, cfg EngineConfig) *Engine {
	policy := cfg.ReplayPolicy
	if policy == "" {
		policy = ReplayReject
	}
	beneficiary := cfg.Beneficiary
	if beneficiary == (common.Address{}) {
		beneficiary = token.Owner()
	}
	return &Engine{
		admin:               cfg.Admin,
		beneficiary:         beneficiary,
		saleAccount:         cfg.SaleAccount,
		state:               StateNotStarted,
		minSale:             cloneAmount(cfg.MinSale),
		unidentifiedLimit:   cloneAmount(cfg.UnidentifiedLimit),
		suspendUnidentified: cfg.SuspendUnidentified,
		replayPolicy:        policy,
		releaseThreshold:    cloneAmount(cfg.ReleaseThreshold),
		tokenAllotment:      cloneAmount(cfg.TokenAllotment),
		tokensSold:          new(big.Int),
		tiers:               NewTierTable(),
		token:               token,
		participants:        NewParticipantRegistry(),
		escrow:              NewEscrowLedger(),
		external:            make(map[common.Hash]string),
	}
}

// PaymentResult 支付处理结果
type PaymentResult struct {
	// Tokens 兑换到的代币数
	Tokens *big.Int
	// Consumed 实际消耗的支付金额
	Consumed *big.Int
	// Remainder 必须退还给付款方的尾款（外部支付仅上报，不产生划转）
	Remainder *big.Int
	// Suspended 整笔支付被挂起，资金持有但未兑换
	Suspended bool
	// SuspendedID 挂起记录编号
	SuspendedID uint64
	// Refunded 失败结束后通过支付触发的净出资自动退款
	Refunded *big.Int
	// Duplicate 外部支付按策略被幂等忽略
	Duplicate bool
}

// Start 启动众筹：把代币配额划入众筹账户并开始接受支付
func (e *Engine) Start(caller common.Address, now int64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if e.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if e.saleAccount == (common.Address{}) {
		return ErrInvalidAddress
	}
	owner := e.token.Owner()
	if isPositive(e.tokenAllotment) {
		if err := e.token.Transfer(owner, e.saleAccount, e.tokenAllotment, now); err != nil {
			return err
		}
	}
	if err := e.token.SetCrowdsaleAccount(owner, e.saleAccount); err != nil {
		return err
	}
	e.state = StateActive
	e.emit(Event{Type: EventCrowdsaleStarted, Amount: amountString(e.tokenAllotment)})
	return nil
}

// ProcessPayment 处理一笔直接支付
func (e *Engine) ProcessPayment(from common.Address, amount *big.Int, now int64) (*PaymentResult, error) {
	if from == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	// 失败结束后的任意支付触发自动退款：退还净出资并原路返还本笔支付
	if e.state == StateEnded && !e.saleSucceeded {
		refunded := e.escrow.Refund(from)
		if refunded.Sign() == 0 {
			return nil, ErrNotActive
		}
		e.emit(Event{
			Type:        EventRefundIssued,
			Participant: from.Hex(),
			Amount:      amountString(refunded),
			Remainder:   amountString(amount),
		})
		return &PaymentResult{
			Tokens:    new(big.Int),
			Consumed:  new(big.Int),
			Remainder: cloneAmount(amount),
			Refunded:  refunded,
		}, nil
	}

	if err := e.requireSaleOpen(); err != nil {
		return nil, err
	}
	if p := e.participants.Get(from); p != nil && p.Banned {
		return nil, ErrBanned
	}
	if e.minSale != nil && amount.Cmp(e.minSale) < 0 {
		return nil, ErrBelowMinSale
	}
	return e.exchange(from, amount, "", common.Hash{}, false, now)
}

// ProxyExchange 管理员代为登记的外部渠道支付，按校验和去重
func (e *Engine) ProxyExchange(caller, beneficiary common.Address, amount *big.Int, reference string, checksum common.Hash, now int64) (*PaymentResult, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if beneficiary == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if checksum == (common.Hash{}) {
		return nil, ErrInvalidChecksum
	}
	if ref, ok := e.external[checksum]; ok {
		if ref != reference {
			return nil, ErrDuplicateChecksum
		}
		if e.replayPolicy == ReplayIgnore {
			e.emit(Event{
				Type:        EventExternalPaymentIgnored,
				Participant: beneficiary.Hex(),
				Reference:   reference,
				Checksum:    checksum.Hex(),
			})
			return &PaymentResult{
				Tokens:    new(big.Int),
				Consumed:  new(big.Int),
				Remainder: new(big.Int),
				Duplicate: true,
			}, nil
		}
		return nil, ErrDuplicatePayment
	}
	if err := e.requireSaleOpen(); err != nil {
		return nil, err
	}
	if p := e.participants.Get(beneficiary); p != nil && p.Banned {
		return nil, ErrBanned
	}
	if e.minSale != nil && amount.Cmp(e.minSale) < 0 {
		return nil, ErrBelowMinSale
	}
	return e.exchange(beneficiary, amount, reference, checksum, true, now)
}

// exchange 报价并兑换或挂起整笔支付，调用前必须已通过状态和金额校验
func (e *Engine) exchange(addr common.Address, amount *big.Int, reference string, checksum common.Hash, external bool, now int64) (*PaymentResult, error) {
	if e.tiers.Len() == 0 {
		return nil, ErrNoExchangeRate
	}
	q := e.tiers.QuoteFor(e.tokensSold, amount)
	if q.SoldOut {
		if !e.soldOutSignalled {
			e.soldOutSignalled = true
			e.emit(Event{Type: EventTokensSoldOut, Tokens: amountString(e.tokensSold)})
		}
		return nil, ErrSoldOut
	}
	if q.Tokens.Sign() == 0 {
		// 金额不足以按当前档位兑换一个代币
		return nil, ErrBelowMinSale
	}

	p := e.participants.Ensure(addr)
	if !p.Identified {
		projected := new(big.Int).Add(p.UnverifiedContribution, q.Consumed)
		if e.unidentifiedLimit != nil && projected.Cmp(e.unidentifiedLimit) > 0 {
			if !e.suspendUnidentified {
				return nil, ErrIdentificationRequired
			}
			// 整笔挂起：资金全额持有，不铸币、不退尾款
			e.suspendedSeq++
			sp := &SuspendedPayment{
				ID:          e.suspendedSeq,
				Amount:      cloneAmount(amount),
				Tokens:      cloneAmount(q.Tokens),
				ExternalRef: reference,
				External:    external,
			}
			p.Suspended = append(p.Suspended, sp)
			e.escrow.HoldSuspended(amount)
			if external {
				e.recordExternal(checksum, reference)
			}
			e.emit(Event{
				Type:        EventPaymentSuspended,
				Participant: addr.Hex(),
				Amount:      amountString(amount),
				Tokens:      amountString(q.Tokens),
				Reference:   reference,
				SuspendedID: sp.ID,
				External:    external,
			})
			return &PaymentResult{
				Tokens:      new(big.Int),
				Consumed:    new(big.Int),
				Remainder:   new(big.Int),
				Suspended:   true,
				SuspendedID: sp.ID,
			}, nil
		}
	}

	if err := e.token.Transfer(e.saleAccount, addr, q.Tokens, now); err != nil {
		return nil, err
	}
	e.tokensSold.Add(e.tokensSold, q.Tokens)
	e.escrow.Credit(addr, q.Consumed)
	if !p.Identified {
		p.UnverifiedContribution.Add(p.UnverifiedContribution, q.Consumed)
	}
	if external {
		e.recordExternal(checksum, reference)
	}
	e.emit(Event{
		Type:        EventPaymentProcessed,
		Participant: addr.Hex(),
		Amount:      amountString(amount),
		Consumed:    amountString(q.Consumed),
		Remainder:   amountString(q.Remainder),
		Tokens:      amountString(q.Tokens),
		Reference:   reference,
		External:    external,
	})
	return &PaymentResult{
		Tokens:    q.Tokens,
		Consumed:  q.Consumed,
		Remainder: q.Remainder,
	}, nil
}

// ProcessedSuspended 身份验证后成功兑换的挂起支付
type ProcessedSuspended struct {
	ID        uint64
	Tokens    *big.Int
	Consumed  *big.Int
	Remainder *big.Int
	External  bool
	Reference string
}

// IdentifyResult 身份验证结果
type IdentifyResult struct {
	Processed []ProcessedSuspended
	// Kept 按当前档位重新校验失败、继续留在队列中的挂起记录
	Kept []uint64
}

// MarkIdentified 标记参与者已通过身份验证，并按先进先出顺序
// 逐笔处理其挂起支付；重新校验失败的记录保留在队列中，资金不丢失
func (e *Engine) MarkIdentified(caller, addr common.Address, now int64) (*IdentifyResult, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	p := e.participants.Ensure(addr)
	p.Identified = true
	e.emit(Event{Type: EventParticipantIdentified, Participant: addr.Hex()})

	result := &IdentifyResult{}
	if e.state != StateActive {
		// 非销售状态不尝试兑换，全部留队
		for _, sp := range p.Suspended {
			result.Kept = append(result.Kept, sp.ID)
		}
		return result, nil
	}

	var kept []*SuspendedPayment
	for _, sp := range p.Suspended {
		if !e.releaseSuspended(p, sp, result, now) {
			kept = append(kept, sp)
		}
	}
	p.Suspended = kept
	return result, nil
}

// releaseSuspended 尝试兑换单笔挂起支付，失败时保留并发出保留事件
func (e *Engine) releaseSuspended(p *Participant, sp *SuspendedPayment, result *IdentifyResult, now int64) bool {
	keep := func() bool {
		result.Kept = append(result.Kept, sp.ID)
		e.emit(Event{
			Type:        EventPaymentSuspendKept,
			Participant: p.Address.Hex(),
			Amount:      amountString(sp.Amount),
			SuspendedID: sp.ID,
			External:    sp.External,
		})
		return false
	}
	if e.tiers.Len() == 0 {
		return keep()
	}
	q := e.tiers.QuoteFor(e.tokensSold, sp.Amount)
	if q.SoldOut || q.Tokens.Sign() == 0 {
		return keep()
	}
	if err := e.token.Transfer(e.saleAccount, p.Address, q.Tokens, now); err != nil {
		return keep()
	}
	e.tokensSold.Add(e.tokensSold, q.Tokens)
	e.escrow.ReleaseSuspended(sp.Amount)
	e.escrow.Credit(p.Address, q.Consumed)
	e.emit(Event{
		Type:        EventPaymentProcessed,
		Participant: p.Address.Hex(),
		Amount:      amountString(sp.Amount),
		Consumed:    amountString(q.Consumed),
		Remainder:   amountString(q.Remainder),
		Tokens:      amountString(q.Tokens),
		Reference:   sp.ExternalRef,
		SuspendedID: sp.ID,
		External:    sp.External,
	})
	result.Processed = append(result.Processed, ProcessedSuspended{
		ID:        sp.ID,
		Tokens:    q.Tokens,
		Consumed:  q.Consumed,
		Remainder: q.Remainder,
		External:  sp.External,
		Reference: sp.ExternalRef,
	})
	return true
}

// MarkNotIdentified 撤销参与者的身份验证标记
func (e *Engine) MarkNotIdentified(caller, addr common.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	p := e.participants.Ensure(addr)
	if p.Identified {
		p.Identified = false
		e.emit(Event{Type: EventParticipantUnidentified, Participant: addr.Hex()})
	}
	return nil
}

// Ban 封禁参与者，其后续支付会被直接拒绝
func (e *Engine) Ban(caller, addr common.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	p := e.participants.Ensure(addr)
	if !p.Banned {
		p.Banned = true
		e.emit(Event{Type: EventParticipantBanned, Participant: addr.Hex()})
	}
	return nil
}

// Unban 解除封禁
func (e *Engine) Unban(caller, addr common.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	p := e.participants.Ensure(addr)
	if p.Banned {
		p.Banned = false
		e.emit(Event{Type: EventParticipantUnbanned, Participant: addr.Hex()})
	}
	return nil
}

// RefundedSuspended 已退还的挂起支付
type RefundedSuspended struct {
	Participant common.Address
	ID          uint64
	Amount      *big.Int
	External    bool
	Reference   string
}

// RefundSuspended 退还参与者全部挂起支付，与众筹结果无关；
// 重复调用返回AlreadyReturned
func (e *Engine) RefundSuspended(caller, addr common.Address) ([]RefundedSuspended, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	p := e.participants.Get(addr)
	if p == nil || len(p.Suspended) == 0 {
		return nil, ErrAlreadyReturned
	}
	return e.refundSuspendedEntries(p), nil
}

// RefundSuspendedAll 退还所有参与者的全部挂起支付
func (e *Engine) RefundSuspendedAll(caller common.Address) ([]RefundedSuspended, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	var refunded []RefundedSuspended
	for _, addr := range e.participants.Addresses() {
		p := e.participants.Get(addr)
		if len(p.Suspended) == 0 {
			continue
		}
		refunded = append(refunded, e.refundSuspendedEntries(p)...)
	}
	return refunded, nil
}

func (e *Engine) refundSuspendedEntries(p *Participant) []RefundedSuspended {
	out := make([]RefundedSuspended, 0, len(p.Suspended))
	for _, sp := range p.Suspended {
		e.escrow.ReleaseSuspended(sp.Amount)
		e.emit(Event{
			Type:        EventSuspendedRefunded,
			Participant: p.Address.Hex(),
			Amount:      amountString(sp.Amount),
			SuspendedID: sp.ID,
			Reference:   sp.ExternalRef,
			External:    sp.External,
		})
		out = append(out, RefundedSuspended{
			Participant: p.Address,
			ID:          sp.ID,
			Amount:      cloneAmount(sp.Amount),
			External:    sp.External,
			Reference:   sp.ExternalRef,
		})
	}
	p.Suspended = nil
	return out
}

// Refund 失败结束后退还参与者净出资
func (e *Engine) Refund(caller, addr common.Address) (*big.Int, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if e.state != StateEnded {
		return nil, ErrNotEnded
	}
	if e.saleSucceeded {
		return nil, ErrRefundsUnavailable
	}
	refunded := e.escrow.Refund(addr)
	if refunded.Sign() == 0 {
		return nil, ErrAlreadyRefunded
	}
	e.emit(Event{
		Type:        EventRefundIssued,
		Participant: addr.Hex(),
		Amount:      amountString(refunded),
	})
	return refunded, nil
}

// requireSaleOpen 校验当前状态是否接受支付
func (e *Engine) requireSaleOpen() error {
	switch e.state {
	case StateActive:
		return nil
	case StatePaused:
		return ErrPaused
	default:
		return ErrNotActive
	}
}

// requireAdmin 管理操作入口处统一做一次能力检查
func (e *Engine) requireAdmin(caller common.Address) error {
	if caller == e.admin || caller == e.token.Owner() {
		return nil
	}
	return ErrNotAdmin
}

func (e *Engine) recordExternal(checksum common.Hash, reference string) {
	e.external[checksum] = reference
	e.externalOrder = append(e.externalOrder, checksum)
}

func (e *Engine) emit(ev Event) {
	e.events = append(e.events, ev)
}

// TakeEvents 取走并清空自上次调用以来累计的事件。
// 失败操作也可能留下事件（例如售罄信号），调用方必须在
// 操作返回后立即取走，无论成功与否。
func (e *Engine) TakeEvents() []Event {
	events := e.events
	e.events = nil
	return events
}
