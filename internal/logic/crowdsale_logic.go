package logic

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blues/cts/internal/config"
	"github.com/blues/cts/internal/ledger"
	"github.com/blues/cts/internal/logger"
	"github.com/blues/cts/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// 操作类型，写入操作日志
const (
	OpStart                = "start"
	OpPay                  = "pay"
	OpProxyExchange        = "proxy_exchange"
	OpIdentify             = "identify"
	OpUnidentify           = "unidentify"
	OpBan                  = "ban"
	OpUnban                = "unban"
	OpRefundSuspended      = "refund_suspended"
	OpRefundSuspendedAll   = "refund_suspended_all"
	OpRefund               = "refund"
	OpPause                = "pause"
	OpUnpause              = "unpause"
	OpEnd                  = "end"
	OpBurnLeftover         = "burn_leftover"
	OpTransferFunds        = "transfer_funds"
	OpSetTier              = "set_tier"
	OpSetMinSale           = "set_min_sale"
	OpSetUnidentifiedLimit = "set_unidentified_limit"
	OpSetSuspendPolicy     = "set_suspend_policy"
	OpAirdrop              = "airdrop"
	OpTokenTransfer        = "token_transfer"
	OpTokenApprove         = "token_approve"
	OpTokenTransferFrom    = "token_transfer_from"
	OpMint                 = "mint"
	OpEnableTransfers      = "enable_transfers"
	OpAddLock              = "add_lock"
	OpReleaseLock          = "release_lock"
	OpReleaseMatured       = "release_matured"
)

// opParams 操作参数，序列化到操作日志，重放时原样解析
type opParams struct {
	Caller      string   `json:"caller,omitempty"`
	Address     string   `json:"address,omitempty"`
	Counterpart string   `json:"counterpart,omitempty"`
	Amount      string   `json:"amount,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	Checksum    string   `json:"checksum,omitempty"`
	Recipients  []string `json:"recipients,omitempty"`
	Index       int      `json:"index,omitempty"`
	Cap         string   `json:"cap,omitempty"`
	Price       string   `json:"price,omitempty"`
	Percent     int      `json:"percent,omitempty"`
	Success     bool     `json:"success,omitempty"`
	Enabled     bool     `json:"enabled,omitempty"`
	ReleaseTime int64    `json:"release_time,omitempty"`
}

// CrowdsaleLogic 众筹业务逻辑
//
// 引擎的唯一写入口。每个操作在互斥锁内执行：取当前时刻、调用
// 引擎、取走事件、把操作（无论成功失败）连同事件写入同一个
// 数据库事务。重启时用最近快照加操作日志重放恢复引擎。
type CrowdsaleLogic struct {
	mu     sync.Mutex
	db     *gorm.DB
	engine *ledger.Engine
	cfg    *config.Config
	seq    int64
	clock  func() int64
}

// NewCrowdsaleLogic 创建众筹业务逻辑并从数据库恢复引擎状态
func NewCrowdsaleLogic(db *gorm.DB, cfg *config.Config) (*CrowdsaleLogic, error) {
	l := &CrowdsaleLogic{
		db:     db,
		cfg:    cfg,
		engine: buildEngine(cfg),
		clock:  func() int64 { return time.Now().Unix() },
	}
	if err := l.restore(); err != nil {
		return nil, err
	}
	return l, nil
}

// buildEngine 按配置组装引擎和代币账本
func buildEngine(cfg *config.Config) *ledger.Engine {
	token := ledger.NewTokenLedger(
		cfg.Token.Name,
		cfg.Token.Symbol,
		common.HexToAddress(cfg.Token.Owner),
		config.Amount(cfg.Token.InitialSupply),
	)
	admin := common.HexToAddress(cfg.Sale.Admin)
	engine := ledger.NewEngine(token, ledger.EngineConfig{
		Admin:               admin,
		Beneficiary:         common.HexToAddress(cfg.Sale.Beneficiary),
		SaleAccount:         common.HexToAddress(cfg.Sale.SaleAccount),
		MinSale:             config.Amount(cfg.Sale.MinSale),
		UnidentifiedLimit:   config.Amount(cfg.Sale.UnidentifiedLimit),
		SuspendUnidentified: cfg.Sale.SuspendUnidentified,
		ReplayPolicy:        ledger.ReplayPolicy(cfg.Sale.ReplayPolicy),
		ReleaseThreshold:    config.Amount(cfg.Sale.ReleaseThreshold),
		TokenAllotment:      config.Amount(cfg.Token.Allotment),
	})

	// 预置档位来自配置，不记入操作日志
	for _, tier := range cfg.Sale.Tiers {
		cap := config.Amount(tier.CumulativeCap)
		price := config.Amount(tier.UnitPrice)
		if cap == nil || price == nil {
			logger.Warn("Skipping invalid tier %d in config", tier.Index)
			continue
		}
		if err := engine.SetTier(admin, tier.Index, cap, price); err != nil {
			logger.Warn("Failed to preset tier %d: %v", tier.Index, err)
		}
	}
	engine.TakeEvents()
	return engine
}

// restore 用最近快照加其后的操作日志恢复引擎
func (l *CrowdsaleLogic) restore() error {
	var snapshot model.SnapshotRecordModel
	err := l.db.Order("operation_seq DESC").First(&snapshot).Error
	switch {
	case err == nil:
		var state ledger.State
		if err := json.Unmarshal([]byte(snapshot.State), &state); err != nil {
			return fmt.Errorf("解析快照失败: %w", err)
		}
		if err := l.engine.ImportState(&state); err != nil {
			return fmt.Errorf("导入快照失败: %w", err)
		}
		l.seq = snapshot.OperationSeq
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 无快照，从空引擎重放全部日志
	default:
		return fmt.Errorf("读取快照失败: %w", err)
	}

	var ops []model.OperationRecordModel
	if err := l.db.Where("seq > ?", l.seq).Order("seq ASC").Find(&ops).Error; err != nil {
		return fmt.Errorf("读取操作日志失败: %w", err)
	}

	for _, op := range ops {
		var p opParams
		if err := json.Unmarshal([]byte(op.Params), &p); err != nil {
			return fmt.Errorf("解析操作%d参数失败: %w", op.Seq, err)
		}
		// 失败过的操作重放时同样失败，不中断恢复
		if _, err := l.apply(op.Kind, p, op.Timestamp); err != nil && op.Status == model.OperationStatusOK {
			return fmt.Errorf("重放操作%d(%s)失败: %v", op.Seq, op.Kind, err)
		}
		l.engine.TakeEvents()
		l.seq = op.Seq
	}

	if len(ops) > 0 || l.seq > 0 {
		logger.Info("Crowdsale engine restored: seq=%d state=%s sold=%s",
			l.seq, l.engine.State(), l.engine.TokensSold().String())
	}
	return nil
}

// apply 执行单个操作，在线执行和日志重放共用同一条路径
func (l *CrowdsaleLogic) apply(kind string, p opParams, now int64) (interface{}, error) {
	caller := common.HexToAddress(p.Caller)
	addr := common.HexToAddress(p.Address)

	switch kind {
	case OpStart:
		return nil, l.engine.Start(caller, now)
	case OpPay:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return l.engine.ProcessPayment(addr, amount, now)
	case OpProxyExchange:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return l.engine.ProxyExchange(caller, addr, amount, p.Reference, common.HexToHash(p.Checksum), now)
	case OpIdentify:
		return l.engine.MarkIdentified(caller, addr, now)
	case OpUnidentify:
		return nil, l.engine.MarkNotIdentified(caller, addr)
	case OpBan:
		return nil, l.engine.Ban(caller, addr)
	case OpUnban:
		return nil, l.engine.Unban(caller, addr)
	case OpRefundSuspended:
		return l.engine.RefundSuspended(caller, addr)
	case OpRefundSuspendedAll:
		return l.engine.RefundSuspendedAll(caller)
	case OpRefund:
		return l.engine.Refund(caller, addr)
	case OpPause:
		return nil, l.engine.Pause(caller)
	case OpUnpause:
		return nil, l.engine.Unpause(caller)
	case OpEnd:
		return l.engine.End(caller, p.Success, now)
	case OpBurnLeftover:
		return l.engine.BurnLeftover(caller, p.Percent)
	case OpTransferFunds:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return nil, l.engine.TransferFunds(caller, amount)
	case OpSetTier:
		cap, err := ledger.ParseAmount(p.Cap)
		if err != nil {
			return nil, err
		}
		price, err := ledger.ParseAmount(p.Price)
		if err != nil {
			return nil, err
		}
		return nil, l.engine.SetTier(caller, p.Index, cap, price)
	case OpSetMinSale:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return nil, l.engine.UpdateMinSale(caller, amount)
	case OpSetUnidentifiedLimit:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return nil, l.engine.UpdateUnidentifiedLimit(caller, amount)
	case OpSetSuspendPolicy:
		return nil, l.engine.SetSuspendUnidentified(caller, p.Enabled)
	case OpAirdrop:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		recipients := make([]common.Address, len(p.Recipients))
		for i, r := range p.Recipients {
			recipients[i] = common.HexToAddress(r)
		}
		return nil, l.engine.Airdrop(caller, recipients, amount, now)
	case OpTokenTransfer:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return nil, l.engine.TokenTransfer(caller, addr, amount, now)
	case OpTokenApprove:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return nil, l.engine.TokenApprove(caller, addr, amount)
	case OpTokenTransferFrom:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return nil, l.engine.TokenTransferFrom(caller, addr, common.HexToAddress(p.Counterpart), amount, now)
	case OpMint:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return nil, l.engine.MintTokens(caller, addr, amount)
	case OpEnableTransfers:
		return nil, l.engine.EnablePublicTransfers(caller)
	case OpAddLock:
		amount, err := ledger.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		return l.engine.AddTokenLock(caller, amount, p.ReleaseTime, now)
	case OpReleaseLock:
		return nil, l.engine.ReleaseLockedTokens(caller, p.Index, now)
	case OpReleaseMatured:
		return l.engine.ReleaseMaturedLocks(now), nil
	default:
		return nil, fmt.Errorf("未知操作类型: %s", kind)
	}
}

// run 在锁内执行操作并连同事件写入操作日志。
// 日志落库失败时把引擎回滚到操作前的状态，内存状态必须和日志一致，
// 否则重启恢复出的状态会和对外提供过的状态不同
func (l *CrowdsaleLogic) run(kind string, p opParams) (interface{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	before := l.engine.ExportState()
	result, opErr := l.apply(kind, p, now)
	events := l.engine.TakeEvents()
	if err := l.journal(kind, p, now, opErr, events); err != nil {
		l.rollback(before, kind)
		return nil, err
	}
	return result, opErr
}

// rollback 引擎回退到操作前导出的状态
func (l *CrowdsaleLogic) rollback(before *ledger.State, kind string) {
	if err := l.engine.ImportState(before); err != nil {
		// 自身导出的状态导入失败说明引擎已不可信，只能崩溃后重建
		logger.Fatal("Failed to roll back engine after journal failure for %s: %v", kind, err)
	}
	logger.Warn("Operation %s rolled back: journal write failed", kind)
}

// journal 操作日志与事件在同一事务里落库，失败的操作也要记录，
// 因为失败操作可能产生状态变化（例如售罄信号）
func (l *CrowdsaleLogic) journal(kind string, p opParams, now int64, opErr error, events []ledger.Event) error {
	params, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("序列化操作参数失败: %w", err)
	}

	seq := l.seq + 1
	record := model.OperationRecordModel{
		Seq:       seq,
		Kind:      kind,
		Params:    string(params),
		Timestamp: now,
		Status:    model.OperationStatusOK,
	}
	if opErr != nil {
		record.Status = model.OperationStatusFailed
		record.ErrorCode = errorCode(opErr)
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for _, ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			eventRecord := model.EventRecordModel{
				OperationSeq: seq,
				EventType:    string(ev.Type),
				Participant:  ev.Participant,
				Data:         string(data),
			}
			if err := tx.Create(&eventRecord).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("写入操作日志失败: %w", err)
	}

	l.seq = seq
	return nil
}

// errorCode 操作日志里的错误码
func errorCode(err error) string {
	var ledgerErr *ledger.Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr.Code
	}
	return "internal"
}

// Seq 当前操作序号
func (l *CrowdsaleLogic) Seq() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Snapshot 导出引擎状态并写入快照表，返回快照覆盖的操作序号
func (l *CrowdsaleLogic) Snapshot() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var existing model.SnapshotRecordModel
	err := l.db.Where("operation_seq = ?", l.seq).First(&existing).Error
	if err == nil {
		return l.seq, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("查询快照失败: %w", err)
	}

	state, err := json.Marshal(l.engine.ExportState())
	if err != nil {
		return 0, fmt.Errorf("序列化引擎状态失败: %w", err)
	}
	record := model.SnapshotRecordModel{
		OperationSeq: l.seq,
		State:        string(state),
	}
	if err := l.db.Create(&record).Error; err != nil {
		return 0, fmt.Errorf("写入快照失败: %w", err)
	}
	return l.seq, nil
}

// Start 启动众筹
func (l *CrowdsaleLogic) Start(caller string) error {
	_, err := l.run(OpStart, opParams{Caller: caller})
	return err
}

// Pay 处理直接支付
func (l *CrowdsaleLogic) Pay(address, amount string) (*ledger.PaymentResult, error) {
	result, err := l.run(OpPay, opParams{Address: address, Amount: amount})
	if err != nil {
		return nil, err
	}
	return result.(*ledger.PaymentResult), nil
}

// ProxyExchange 登记外部渠道支付
func (l *CrowdsaleLogic) ProxyExchange(caller, beneficiary, amount, reference, checksum string) (*ledger.PaymentResult, error) {
	result, err := l.run(OpProxyExchange, opParams{
		Caller:    caller,
		Address:   beneficiary,
		Amount:    amount,
		Reference: reference,
		Checksum:  checksum,
	})
	if err != nil {
		return nil, err
	}
	return result.(*ledger.PaymentResult), nil
}

// Identify 标记参与者已通过身份验证
func (l *CrowdsaleLogic) Identify(caller, address string) (*ledger.IdentifyResult, error) {
	result, err := l.run(OpIdentify, opParams{Caller: caller, Address: address})
	if err != nil {
		return nil, err
	}
	return result.(*ledger.IdentifyResult), nil
}

// Unidentify 撤销参与者身份验证标记
func (l *CrowdsaleLogic) Unidentify(caller, address string) error {
	_, err := l.run(OpUnidentify, opParams{Caller: caller, Address: address})
	return err
}

// Ban 封禁参与者
func (l *CrowdsaleLogic) Ban(caller, address string) error {
	_, err := l.run(OpBan, opParams{Caller: caller, Address: address})
	return err
}

// Unban 解除封禁
func (l *CrowdsaleLogic) Unban(caller, address string) error {
	_, err := l.run(OpUnban, opParams{Caller: caller, Address: address})
	return err
}

// RefundSuspended 退还参与者全部挂起支付
func (l *CrowdsaleLogic) RefundSuspended(caller, address string) ([]ledger.RefundedSuspended, error) {
	result, err := l.run(OpRefundSuspended, opParams{Caller: caller, Address: address})
	if err != nil {
		return nil, err
	}
	return result.([]ledger.RefundedSuspended), nil
}

// RefundSuspendedAll 退还所有参与者的全部挂起支付
func (l *CrowdsaleLogic) RefundSuspendedAll(caller string) ([]ledger.RefundedSuspended, error) {
	result, err := l.run(OpRefundSuspendedAll, opParams{Caller: caller})
	if err != nil {
		return nil, err
	}
	return result.([]ledger.RefundedSuspended), nil
}

// Refund 失败结束后退还净出资
func (l *CrowdsaleLogic) Refund(caller, address string) (string, error) {
	result, err := l.run(OpRefund, opParams{Caller: caller, Address: address})
	if err != nil {
		return "", err
	}
	return result.(*big.Int).String(), nil
}

// Pause 暂停众筹
func (l *CrowdsaleLogic) Pause(caller string) error {
	_, err := l.run(OpPause, opParams{Caller: caller})
	return err
}

// Unpause 恢复众筹
func (l *CrowdsaleLogic) Unpause(caller string) error {
	_, err := l.run(OpUnpause, opParams{Caller: caller})
	return err
}

// End 结束众筹
func (l *CrowdsaleLogic) End(caller string, success bool) (*ledger.EndResult, error) {
	result, err := l.run(OpEnd, opParams{Caller: caller, Success: success})
	if err != nil {
		return nil, err
	}
	return result.(*ledger.EndResult), nil
}

// BurnLeftover 销毁剩余配额的指定百分比
func (l *CrowdsaleLogic) BurnLeftover(caller string, percent int) (string, error) {
	result, err := l.run(OpBurnLeftover, opParams{Caller: caller, Percent: percent})
	if err != nil {
		return "", err
	}
	return result.(*big.Int).String(), nil
}

// TransferFunds 向受益人划转资金
func (l *CrowdsaleLogic) TransferFunds(caller, amount string) error {
	_, err := l.run(OpTransferFunds, opParams{Caller: caller, Amount: amount})
	return err
}

// SetTier 写入价格档位
func (l *CrowdsaleLogic) SetTier(caller string, index int, cumulativeCap, unitPrice string) error {
	_, err := l.run(OpSetTier, opParams{Caller: caller, Index: index, Cap: cumulativeCap, Price: unitPrice})
	return err
}

// SetMinSale 更新最低支付金额
func (l *CrowdsaleLogic) SetMinSale(caller, amount string) error {
	_, err := l.run(OpSetMinSale, opParams{Caller: caller, Amount: amount})
	return err
}

// SetUnidentifiedLimit 更新未验证参与者累计支付上限
func (l *CrowdsaleLogic) SetUnidentifiedLimit(caller, amount string) error {
	_, err := l.run(OpSetUnidentifiedLimit, opParams{Caller: caller, Amount: amount})
	return err
}

// SetSuspendPolicy 设置超限未验证支付的处理策略
func (l *CrowdsaleLogic) SetSuspendPolicy(caller string, suspend bool) error {
	_, err := l.run(OpSetSuspendPolicy, opParams{Caller: caller, Enabled: suspend})
	return err
}

// Airdrop 空投
func (l *CrowdsaleLogic) Airdrop(caller string, recipients []string, amount string) error {
	_, err := l.run(OpAirdrop, opParams{Caller: caller, Recipients: recipients, Amount: amount})
	return err
}

// TokenTransfer 代币转账
func (l *CrowdsaleLogic) TokenTransfer(from, to, amount string) error {
	_, err := l.run(OpTokenTransfer, opParams{Caller: from, Address: to, Amount: amount})
	return err
}

// TokenApprove 设置代币授权额度
func (l *CrowdsaleLogic) TokenApprove(owner, spender, amount string) error {
	_, err := l.run(OpTokenApprove, opParams{Caller: owner, Address: spender, Amount: amount})
	return err
}

// TokenTransferFrom 通过授权额度转账
func (l *CrowdsaleLogic) TokenTransferFrom(spender, from, to, amount string) error {
	_, err := l.run(OpTokenTransferFrom, opParams{Caller: spender, Address: from, Counterpart: to, Amount: amount})
	return err
}

// Mint 增发代币
func (l *CrowdsaleLogic) Mint(caller, to, amount string) error {
	_, err := l.run(OpMint, opParams{Caller: caller, Address: to, Amount: amount})
	return err
}

// EnablePublicTransfers 开启代币公开转账
func (l *CrowdsaleLogic) EnablePublicTransfers(caller string) error {
	_, err := l.run(OpEnableTransfers, opParams{Caller: caller})
	return err
}

// AddTokenLock 给所有者代币加时间锁
func (l *CrowdsaleLogic) AddTokenLock(caller, amount string, releaseTime int64) (int, error) {
	result, err := l.run(OpAddLock, opParams{Caller: caller, Amount: amount, ReleaseTime: releaseTime})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// ReleaseLock 释放指定时间锁
func (l *CrowdsaleLogic) ReleaseLock(caller string, index int) error {
	_, err := l.run(OpReleaseLock, opParams{Caller: caller, Index: index})
	return err
}

// ReleaseMaturedLocks 释放所有到期时间锁，无锁到期时不写操作日志
func (l *CrowdsaleLogic) ReleaseMaturedLocks() ([]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	before := l.engine.ExportState()
	released := l.engine.ReleaseMaturedLocks(now)
	events := l.engine.TakeEvents()
	if len(released) == 0 {
		return nil, nil
	}
	if err := l.journal(OpReleaseMatured, opParams{}, now, nil, events); err != nil {
		l.rollback(before, OpReleaseMatured)
		return nil, err
	}
	return released, nil
}
