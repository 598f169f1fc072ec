package domain

import "time"

// AuditLog records an important account or admin action.
type AuditLog struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Action    string         `db:"action" json:"action"`
	Category  string         `db:"category" json:"category"`
	Details   map[string]any `db:"details" json:"details"`
	IP        string         `db:"ip" json:"ip,omitempty"`
	UserAgent string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

const (
	AuditCategoryAuth       = "auth"
	AuditCategoryAds        = "ads"
	AuditCategoryGame       = "game"
	AuditCategoryWithdrawal = "withdrawal"
	AuditCategoryFraud      = "fraud"
	AuditCategoryAdmin      = "admin"
)

const (
	AuditActionRegister = "register"
	AuditActionLogin    = "login"

	AuditActionAdReward = "ad_reward"
	AuditActionGamePlay = "game_play"

	AuditActionWithdrawRequest = "withdraw_request"
	AuditActionWithdrawApprove = "withdraw_approve"
	AuditActionWithdrawReject  = "withdraw_reject"

	AuditActionFraudFlag    = "fraud_flag"
	AuditActionClearSuspect = "clear_suspect"
	AuditActionSetStatus    = "set_status"
)

// AdminEvent is pushed to admin channels (bot, websocket feed).
type AdminEvent struct {
	Type       string      `json:"type"`
	UserID     string      `json:"user_id"`
	Withdrawal *Withdrawal `json:"withdrawal,omitempty"`
	Flag       *FraudFlag  `json:"flag,omitempty"`
	At         time.Time   `json:"at"`
}

const (
	EventWithdrawalRequested = "withdrawal_requested"
	EventWithdrawalResolved  = "withdrawal_resolved"
	EventUserFlagged         = "user_flagged"
)
