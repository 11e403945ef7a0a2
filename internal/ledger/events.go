package ledger

// EventType 账本事件类型
type EventType string

const (
	EventCrowdsaleStarted         EventType = "CrowdsaleStarted"
	EventCrowdsalePaused          EventType = "CrowdsalePaused"
	EventCrowdsaleUnpaused        EventType = "CrowdsaleUnpaused"
	EventCrowdsaleEnded           EventType = "CrowdsaleEnded"
	EventPaymentProcessed         EventType = "PaymentProcessed"
	EventPaymentSuspended         EventType = "PaymentSuspended"
	EventPaymentSuspendKept       EventType = "PaymentSuspendKept"
	EventExternalPaymentIgnored   EventType = "ExternalPaymentIgnored"
	EventTokensSoldOut            EventType = "TokensSoldOut"
	EventRefundIssued             EventType = "RefundIssued"
	EventSuspendedRefunded        EventType = "SuspendedRefunded"
	EventParticipantIdentified    EventType = "ParticipantIdentified"
	EventParticipantUnidentified  EventType = "ParticipantUnidentified"
	EventParticipantBanned        EventType = "ParticipantBanned"
	EventParticipantUnbanned      EventType = "ParticipantUnbanned"
	EventTierUpdated              EventType = "TierUpdated"
	EventMinSaleUpdated           EventType = "MinSaleUpdated"
	EventUnidentifiedLimitUpdated EventType = "UnidentifiedLimitUpdated"
	EventSuspendPolicyUpdated     EventType = "SuspendPolicyUpdated"
	EventTokensBurned             EventType = "TokensBurned"
	EventFundsTransferred         EventType = "FundsTransferred"
	EventTransfersEnabled         EventType = "TransfersEnabled"
	EventTokensLocked             EventType = "TokensLocked"
	EventLockReleased             EventType = "LockReleased"
	EventAirdropSent              EventType = "AirdropSent"
	EventTokensMinted             EventType = "TokensMinted"
	EventTokensTransferred        EventType = "TokensTransferred"
	EventAllowanceApproved        EventType = "AllowanceApproved"
)

// Event 账本事件，携带重建该操作影响所需的全部字段。
// 金额一律为十进制字符串，外部索引工具按此解析。
type Event struct {
	Type        EventType `json:"type"`
	Participant string    `json:"participant,omitempty"`
	Counterpart string    `json:"counterpart,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Consumed    string    `json:"consumed,omitempty"`
	Remainder   string    `json:"remainder,omitempty"`
	Tokens      string    `json:"tokens,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	Checksum    string    `json:"checksum,omitempty"`
	SuspendedID uint64    `json:"suspended_id,omitempty"`
	TierIndex   *int      `json:"tier_index,omitempty"`
	LockIndex   *int      `json:"lock_index,omitempty"`
	Percent     *int      `json:"percent,omitempty"`
	Success     *bool     `json:"success,omitempty"`
	Enabled     *bool     `json:"enabled,omitempty"`
	External    bool      `json:"external,omitempty"`
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }
