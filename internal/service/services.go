package service

import "playearn/internal/domain"

// Services bundles the application services built over one ledger.
type Services struct {
	Ledger      Ledger
	Events      *Dispatcher
	Audit       *AuditService
	Accounts    *AccountService
	AdGate      *AdGate
	Ads         *AdService
	Fraud       *FraudDetector
	Games       *GameService
	Withdrawals *WithdrawalService
	Admin       *AdminService
}

// Store is a ledger that also keeps the audit trail.
type Store interface {
	Ledger
	AuditStore
}

func NewServices(store Store, limits domain.Limits, adminEmails []string) *Services {
	events := &Dispatcher{}
	audit := NewAuditService(store)
	windows := NewWindowCounter(store)
	gate := NewAdGate(store, windows, limits)
	fraud := NewFraudDetector(store, windows, limits, audit, events)
	withdrawals := NewWithdrawalService(store, windows, limits, audit, events)

	return &Services{
		Ledger:      store,
		Events:      events,
		Audit:       audit,
		Accounts:    NewAccountService(store, audit, adminEmails),
		AdGate:      gate,
		Ads:         NewAdService(store, gate, fraud, limits),
		Fraud:       fraud,
		Games:       NewGameService(store, limits, audit),
		Withdrawals: withdrawals,
		Admin:       NewAdminService(store, withdrawals, audit),
	}
}
