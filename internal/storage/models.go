package storage

import (
	"encoding/json"
	"time"

	"playearn/internal/domain"
)

type UserRecord struct {
	ID               string `gorm:"primaryKey;size:36"`
	Name             string `gorm:"not null"`
	Email            string `gorm:"uniqueIndex;not null"`
	PasswordHash     string `gorm:"not null"`
	DeviceID         string `gorm:"index;not null"`
	Status           string `gorm:"size:16;not null"`
	Coins            int64  `gorm:"not null"`
	TotalPlaySeconds int64  `gorm:"not null"`
	DistinctGames    int    `gorm:"not null"`
	AdsToday         int    `gorm:"not null"`
	BonusAdsToday    int    `gorm:"not null"`
	DailyUnlocked    bool   `gorm:"not null"`
	FirstGameAdDone  bool   `gorm:"not null"`
	AdsTotal         int64  `gorm:"not null"`
	Suspect          bool   `gorm:"index;not null"`
	LastAdAt         *time.Time
	LastDailyReset   time.Time `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null"`
}

func (UserRecord) TableName() string { return "users" }

type AdEventRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"index:idx_ad_events_user_time;not null"`
	AdType      string    `gorm:"size:32;not null"`
	GameID      string    `gorm:"size:64"`
	RewardCoins int64     `gorm:"not null"`
	Rewarded    bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index:idx_ad_events_user_time;not null"`
}

func (AdEventRecord) TableName() string { return "ad_events" }

type WithdrawalRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        string `gorm:"index;not null"`
	DeviceID      string `gorm:"index;not null"`
	AmountCents   int64  `gorm:"not null"`
	CoinsDeducted int64  `gorm:"not null"`
	Method        string `gorm:"size:32;not null"`
	Destination   string `gorm:"not null"`
	Status        string `gorm:"size:16;index;not null"`
	RejectReason  string
	RequestedAt   time.Time `gorm:"not null"`
	ProcessedAt   *time.Time
}

func (WithdrawalRecord) TableName() string { return "withdrawals" }

type FraudFlagRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"index;not null"`
	FlagType  string    `gorm:"size:32;not null"`
	Details   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (FraudFlagRecord) TableName() string { return "fraud_flags" }

type UserGameRecord struct {
	UserID        string    `gorm:"primaryKey"`
	GameID        string    `gorm:"primaryKey"`
	FirstPlayedAt time.Time `gorm:"not null"`
}

func (UserGameRecord) TableName() string { return "user_games" }

type GameSessionRecord struct {
	ID             string    `gorm:"primaryKey;size:36"`
	UserID         string    `gorm:"index;not null"`
	GameID         string    `gorm:"size:64;not null"`
	StartedAt      time.Time `gorm:"not null"`
	EndedAt        *time.Time
	ElapsedSeconds int64 `gorm:"not null"`
}

func (GameSessionRecord) TableName() string { return "game_sessions" }

type AuditLogRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"index"`
	Action    string `gorm:"size:64;not null"`
	Category  string `gorm:"size:32;not null"`
	Details   string `gorm:"not null"`
	IP        string
	UserAgent string
	CreatedAt time.Time `gorm:"index;not null"`
}

func (AuditLogRecord) TableName() string { return "audit_logs" }

func userRecordFrom(u *domain.User) *UserRecord {
	return &UserRecord{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		DeviceID:         u.DeviceID,
		Status:           string(u.Status),
		Coins:            u.Coins,
		TotalPlaySeconds: u.TotalPlaySeconds,
		DistinctGames:    u.DistinctGames,
		AdsToday:         u.AdsToday,
		BonusAdsToday:    u.BonusAdsToday,
		DailyUnlocked:    u.DailyUnlocked,
		FirstGameAdDone:  u.FirstGameAdDone,
		AdsTotal:         u.AdsTotal,
		Suspect:          u.Suspect,
		LastAdAt:         utcPtr(u.LastAdAt),
		LastDailyReset:   u.LastDailyReset.UTC(),
		CreatedAt:        u.CreatedAt.UTC(),
	}
}

func (r *UserRecord) toDomain() domain.User {
	return domain.User{
		ID:               r.ID,
		Name:             r.Name,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		DeviceID:         r.DeviceID,
		Status:           domain.UserStatus(r.Status),
		Coins:            r.Coins,
		TotalPlaySeconds: r.TotalPlaySeconds,
		DistinctGames:    r.DistinctGames,
		AdsToday:         r.AdsToday,
		BonusAdsToday:    r.BonusAdsToday,
		DailyUnlocked:    r.DailyUnlocked,
		FirstGameAdDone:  r.FirstGameAdDone,
		AdsTotal:         r.AdsTotal,
		Suspect:          r.Suspect,
		LastAdAt:         utcPtr(r.LastAdAt),
		LastDailyReset:   r.LastDailyReset.UTC(),
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

func (r *AdEventRecord) toDomain() domain.AdEvent {
	return domain.AdEvent{
		ID:          r.ID,
		UserID:      r.UserID,
		AdType:      domain.AdType(r.AdType),
		GameID:      r.GameID,
		RewardCoins: r.RewardCoins,
		Rewarded:    r.Rewarded,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func withdrawalRecordFrom(w *domain.Withdrawal) *WithdrawalRecord {
	return &WithdrawalRecord{
		ID:            w.ID,
		UserID:        w.UserID,
		DeviceID:      w.DeviceID,
		AmountCents:   w.AmountCents,
		CoinsDeducted: w.CoinsDeducted,
		Method:        w.Method,
		Destination:   w.Destination,
		Status:        string(w.Status),
		RejectReason:  w.RejectReason,
		RequestedAt:   w.RequestedAt.UTC(),
		ProcessedAt:   utcPtr(w.ProcessedAt),
	}
}

func (r *WithdrawalRecord) toDomain() domain.Withdrawal {
	return domain.Withdrawal{
		ID:            r.ID,
		UserID:        r.UserID,
		DeviceID:      r.DeviceID,
		AmountCents:   r.AmountCents,
		CoinsDeducted: r.CoinsDeducted,
		Method:        r.Method,
		Destination:   r.Destination,
		Status:        domain.WithdrawalStatus(r.Status),
		RejectReason:  r.RejectReason,
		RequestedAt:   r.RequestedAt.UTC(),
		ProcessedAt:   utcPtr(r.ProcessedAt),
	}
}

func (r *FraudFlagRecord) toDomain() domain.FraudFlag {
	return domain.FraudFlag{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      r.FlagType,
		Details:   r.Details,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (r *GameSessionRecord) toDomain() domain.GameSession {
	return domain.GameSession{
		ID:             r.ID,
		UserID:         r.UserID,
		GameID:         r.GameID,
		StartedAt:      r.StartedAt.UTC(),
		EndedAt:        utcPtr(r.EndedAt),
		ElapsedSeconds: r.ElapsedSeconds,
	}
}

func (r *AuditLogRecord) toDomain() domain.AuditLog {
	l := domain.AuditLog{
		ID:        r.ID,
		UserID:    r.UserID,
		Action:    r.Action,
		Category:  r.Category,
		IP:        r.IP,
		UserAgent: r.UserAgent,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Details), &l.Details); err != nil {
		l.Details = make(map[string]any)
	}
	return l
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
