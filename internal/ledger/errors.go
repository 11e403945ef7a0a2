package ledger

// ErrorKind 错误分类
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"    // 入参错误，状态未改变
	KindState         ErrorKind = "state"         // 当前状态不允许该操作
	KindAuthorization ErrorKind = "authorization" // 权限不足或被封禁
	KindConsistency   ErrorKind = "consistency"   // 与已有账本记录冲突
)

// Error 账本操作错误
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// 销售状态错误
	ErrAlreadyStarted = newError(KindState, "already_started", "众筹已经启动")
	ErrNotActive      = newError(KindState, "not_active", "众筹未开始或已结束")
	ErrPaused         = newError(KindState, "paused", "众筹已暂停")
	ErrNotPaused      = newError(KindState, "not_paused", "众筹未处于暂停状态")
	ErrEnded          = newError(KindState, "ended", "众筹已结束")
	ErrNotEnded       = newError(KindState, "not_ended", "众筹尚未结束")
	ErrSaleNotSuccess = newError(KindState, "sale_not_success", "众筹未成功结束")
	ErrSoldOut        = newError(KindState, "sold_out", "代币已售罄")
	ErrNoExchangeRate = newError(KindState, "no_exchange_rate", "尚未设置兑换价格")
	ErrFundsLocked    = newError(KindState, "funds_locked", "未达到资金释放阈值")

	// 入参校验错误
	ErrBelowMinSale    = newError(KindValidation, "below_min_sale", "支付金额低于最低限额")
	ErrInvalidAmount   = newError(KindValidation, "invalid_amount", "金额必须为非负整数")
	ErrInvalidTier     = newError(KindValidation, "invalid_tier", "无效的价格档位")
	ErrInvalidPercent  = newError(KindValidation, "invalid_percent", "百分比必须在0到100之间")
	ErrInvalidAddress  = newError(KindValidation, "invalid_address", "地址不能为空")
	ErrInvalidChecksum = newError(KindValidation, "invalid_checksum", "校验和不能为空")
	ErrNoRecipients    = newError(KindValidation, "no_recipients", "收币地址列表不能为空")

	// 权限错误
	ErrNotAdmin               = newError(KindAuthorization, "not_admin", "仅管理员可执行该操作")
	ErrNotOwner               = newError(KindAuthorization, "not_owner", "仅代币所有者可执行该操作")
	ErrBanned                 = newError(KindAuthorization, "banned", "参与者已被封禁")
	ErrIdentificationRequired = newError(KindAuthorization, "identification_required", "参与者未通过身份验证")
	ErrBurnNotGranted         = newError(KindAuthorization, "burn_not_granted", "调用者没有销毁权限")

	// 一致性错误
	ErrDuplicateChecksum  = newError(KindConsistency, "duplicate_checksum", "外部支付校验和已存在且引用不一致")
	ErrDuplicatePayment   = newError(KindConsistency, "duplicate_payment", "外部支付已处理过")
	ErrAlreadyRefunded    = newError(KindConsistency, "already_refunded", "净出资已退还")
	ErrRefundsUnavailable = newError(KindState, "refunds_unavailable", "众筹成功结束后不提供退款")
	ErrAlreadyReturned    = newError(KindConsistency, "already_returned", "挂起支付已退还")
	ErrInsufficientFunds  = newError(KindConsistency, "insufficient_funds", "可提取资金不足")
	ErrTransfersEnabled   = newError(KindConsistency, "transfers_enabled", "公开转账已经开启")
	ErrNoSuchLock         = newError(KindConsistency, "no_such_lock", "锁定记录不存在")
	ErrLockReleased       = newError(KindConsistency, "lock_released", "锁定记录已释放")
	ErrTooEarly           = newError(KindConsistency, "too_early", "未到释放时间")
	ErrTransfersDisabled  = newError(KindState, "transfers_disabled", "公开转账尚未开启")
	ErrInsufficientTokens = newError(KindConsistency, "insufficient_balance", "代币余额不足")
	ErrLockedFunds        = newError(KindConsistency, "locked_funds", "转账会动用仍处于锁定中的代币")
	ErrAllowanceExceeded  = newError(KindConsistency, "allowance_exceeded", "超出授权额度")
)

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind ErrorKind) bool {
	le, ok := err.(*Error)
	return ok && le.Kind == kind
}
