package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"playearn/internal/domain"
	"playearn/internal/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SqliteStorage is the embedded ledger backend. It is used for local runs
// and by the service and handler tests.
type SqliteStorage struct {
	db *gorm.DB
}

// NewSqliteStorage opens (or creates) the database at dsn and migrates the
// schema. Writers are serialised through a single connection.
func NewSqliteStorage(dsn string) (*SqliteStorage, error) {
	logger.Debug("initializing sqlite storage", "dsn", dsn)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&UserRecord{},
		&AdEventRecord{},
		&WithdrawalRecord{},
		&FraudFlagRecord{},
		&UserGameRecord{},
		&GameSessionRecord{},
		&AuditLogRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SqliteStorage{db: db}, nil
}

// MemoryDSN returns a DSN for a named in-memory database.
func MemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared&_busy_timeout=5000"
}

// FileDSN returns a DSN for an on-disk database.
func FileDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
}

func (s *SqliteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqliteStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SqliteStorage) CreateUser(ctx context.Context, u *domain.User) error {
	err := s.db.WithContext(ctx).Create(userRecordFrom(u)).Error
	if err != nil && isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (s *SqliteStorage) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(s.db.WithContext(ctx), "id = ?", id)
}

func (s *SqliteStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(s.db.WithContext(ctx), "email = ?", strings.ToLower(email))
}

func (s *SqliteStorage) findUser(db *gorm.DB, query string, arg any) (*domain.User, error) {
	var rec UserRecord
	if err := db.Where(query, arg).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u := rec.toDomain()
	return &u, nil
}

func (s *SqliteStorage) ResetDaily(ctx context.Context, userID string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&UserRecord{}).
		Where("id = ? AND last_daily_reset < ?", userID, domain.StartOfDay(now)).
		Updates(map[string]any{
			"ads_today":          0,
			"bonus_ads_today":    0,
			"daily_unlocked":     false,
			"first_game_ad_done": false,
			"last_daily_reset":   now.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *SqliteStorage) AdWindow(ctx context.Context, userID string, since time.Time, rewardedOnly bool) (domain.WindowCount, error) {
	scope := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&AdEventRecord{}).
			Where("user_id = ? AND created_at >= ?", userID, since.UTC())
		if rewardedOnly {
			q = q.Where("rewarded = ?", true)
		}
		return q
	}

	var wc domain.WindowCount
	var count int64
	if err := scope().Count(&count).Error; err != nil {
		return wc, err
	}
	wc.Count = int(count)
	if count == 0 {
		return wc, nil
	}

	if err := scope().Select("COALESCE(SUM(reward_coins), 0)").Row().Scan(&wc.SumCoins); err != nil {
		return wc, err
	}

	var oldest []AdEventRecord
	if err := scope().Order("created_at ASC").Limit(1).Find(&oldest).Error; err != nil {
		return wc, err
	}
	if len(oldest) > 0 {
		t := oldest[0].CreatedAt.UTC()
		wc.Oldest = &t
	}
	return wc, nil
}

func (s *SqliteStorage) RecordAdWatch(ctx context.Context, w *domain.AdWatch) error {
	ev := w.Event
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"last_ad_at": ev.CreatedAt.UTC()}
		if ev.GameID != "" {
			updates["first_game_ad_done"] = true
		}
		if ev.Rewarded {
			updates["coins"] = gorm.Expr("coins + ?", ev.RewardCoins)
			updates["ads_today"] = gorm.Expr("ads_today + 1")
			updates["ads_total"] = gorm.Expr("ads_total + 1")
			updates["daily_unlocked"] = gorm.Expr("daily_unlocked OR ads_today + 1 >= ?", w.UnlockThreshold)
			if w.BonusUsed {
				updates["bonus_ads_today"] = gorm.Expr("bonus_ads_today + 1")
			}
		}

		res := tx.Model(&UserRecord{}).Where("id = ?", ev.UserID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}

		return tx.Create(&AdEventRecord{
			ID:          ev.ID,
			UserID:      ev.UserID,
			AdType:      string(ev.AdType),
			GameID:      ev.GameID,
			RewardCoins: ev.RewardCoins,
			Rewarded:    ev.Rewarded,
			CreatedAt:   ev.CreatedAt.UTC(),
		}).Error
	})
}

func (s *SqliteStorage) RecentRewards(ctx context.Context, userID string, limit int) ([]domain.AdEvent, error) {
	var recs []AdEventRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND rewarded = ?", userID, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.AdEvent, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

func (s *SqliteStorage) TopEarners(ctx context.Context, since time.Time, limit int) ([]domain.RankEntry, error) {
	var rows []struct {
		UserID string
		Name   string
		Coins  int64
	}
	err := s.db.WithContext(ctx).Raw(`
		select e.user_id as user_id, u.name as name, sum(e.reward_coins) as coins
		from ad_events e
			join users u on u.id = e.user_id
		where e.rewarded = ? and e.created_at >= ?
		group by e.user_id, u.name
		order by coins desc, e.user_id
		limit ?
	`, true, since.UTC(), limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.RankEntry, 0, len(rows))
	for i, r := range rows {
		out = append(out, domain.RankEntry{Rank: i + 1, UserID: r.UserID, Name: r.Name, Coins: r.Coins})
	}
	return out, nil
}

func (s *SqliteStorage) FlagUser(ctx context.Context, f *domain.FraudFlag) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserRecord{}).Where("id = ?", f.UserID).Update("suspect", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return tx.Create(&FraudFlagRecord{
			ID:        f.ID,
			UserID:    f.UserID,
			FlagType:  f.Type,
			Details:   f.Details,
			CreatedAt: f.CreatedAt.UTC(),
		}).Error
	})
}

func (s *SqliteStorage) ClearSuspect(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Model(&UserRecord{}).Where("id = ?", userID).Update("suspect", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *SqliteStorage) SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	res := s.db.WithContext(ctx).Model(&UserRecord{}).Where("id = ?", userID).Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *SqliteStorage) ListSuspects(ctx context.Context) ([]domain.User, error) {
	var recs []UserRecord
	if err := s.db.WithContext(ctx).Where("suspect = ?", true).Order("created_at").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

func (s *SqliteStorage) ListFraudFlags(ctx context.Context, userID string, limit int) ([]domain.FraudFlag, error) {
	var recs []FraudFlagRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.FraudFlag, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

func (s *SqliteStorage) StartGameSession(ctx context.Context, gs *domain.GameSession) error {
	return s.db.WithContext(ctx).Create(&GameSessionRecord{
		ID:        gs.ID,
		UserID:    gs.UserID,
		GameID:    gs.GameID,
		StartedAt: gs.StartedAt.UTC(),
	}).Error
}

func (s *SqliteStorage) GetGameSession(ctx context.Context, id string) (*domain.GameSession, error) {
	var rec GameSessionRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	gs := rec.toDomain()
	return &gs, nil
}

func (s *SqliteStorage) RecordGamePlay(ctx context.Context, p *domain.GamePlay) (domain.GamePlayResult, error) {
	var result domain.GamePlayResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.SessionID != "" {
			closed := tx.Model(&GameSessionRecord{}).
				Where("id = ? AND user_id = ? AND ended_at IS NULL", p.SessionID, p.UserID).
				Updates(map[string]any{"ended_at": p.EndedAt.UTC(), "elapsed_seconds": p.SessionSeconds})
			if closed.Error != nil {
				return closed.Error
			}
			if closed.RowsAffected == 0 {
				return domain.ErrSessionClosed
			}
		}

		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&UserGameRecord{
			UserID:        p.UserID,
			GameID:        p.GameID,
			FirstPlayedAt: p.EndedAt.UTC(),
		})
		if ins.Error != nil {
			return ins.Error
		}
		result.NewGame = ins.RowsAffected > 0

		newGames := 0
		if result.NewGame {
			newGames = 1
		}
		res := tx.Model(&UserRecord{}).Where("id = ?", p.UserID).Updates(map[string]any{
			"total_play_seconds": gorm.Expr("total_play_seconds + ?", p.SessionSeconds),
			"distinct_games":     gorm.Expr("distinct_games + ?", newGames),
			"coins":              gorm.Expr("coins + ?", p.BonusCoins),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}

		var rec UserRecord
		if err := tx.Where("id = ?", p.UserID).First(&rec).Error; err != nil {
			return err
		}
		result.TotalPlaySeconds = rec.TotalPlaySeconds
		result.DistinctGames = rec.DistinctGames
		result.Coins = rec.Coins
		return nil
	})
	return result, err
}

func (s *SqliteStorage) LastProcessedWithdrawalAt(ctx context.Context, deviceID string) (*time.Time, error) {
	var recs []WithdrawalRecord
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND status = ?", deviceID, string(domain.WithdrawalProcessed)).
		Order("processed_at DESC").
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return utcPtr(recs[0].ProcessedAt), nil
}

func (s *SqliteStorage) ProcessedWithdrawalSum(ctx context.Context, userID string, since time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Raw(`
		select coalesce(sum(amount_cents), 0)
		from withdrawals
		where user_id = ? and status = ? and processed_at >= ?
	`, userID, string(domain.WithdrawalProcessed), since.UTC()).Scan(&total).Error
	return total, err
}

func (s *SqliteStorage) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserRecord{}).
			Where("id = ? AND coins >= ?", w.UserID, w.CoinsDeducted).
			Update("coins", gorm.Expr("coins - ?", w.CoinsDeducted))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&UserRecord{}).Where("id = ?", w.UserID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return domain.ErrUserNotFound
			}
			return domain.ErrInsufficientFunds
		}
		return tx.Create(withdrawalRecordFrom(w)).Error
	})
}

func (s *SqliteStorage) ResolveWithdrawal(ctx context.Context, id string, r domain.Resolution) (*domain.Withdrawal, error) {
	var out domain.Withdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec WithdrawalRecord
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrWithdrawalNotFound
			}
			return err
		}
		if rec.Status != string(domain.WithdrawalPending) {
			return domain.ErrInvalidTransition
		}

		processedAt := r.At.UTC()
		if r.Status == domain.WithdrawalProcessed && r.WeeklyCapCents > 0 {
			var processed int64
			err := tx.Raw(`
				select coalesce(sum(amount_cents), 0)
				from withdrawals
				where user_id = ? and status = ? and processed_at >= ?
			`, rec.UserID, string(domain.WithdrawalProcessed), processedAt.Add(-domain.WeeklyWindow)).Scan(&processed).Error
			if err != nil {
				return err
			}
			if processed+rec.AmountCents > r.WeeklyCapCents {
				return domain.ErrWeeklyCapExceeded
			}
		}

		res := tx.Model(&WithdrawalRecord{}).
			Where("id = ? AND status = ?", id, string(domain.WithdrawalPending)).
			Updates(map[string]any{
				"status":        string(r.Status),
				"reject_reason": r.Reason,
				"processed_at":  processedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidTransition
		}

		if r.Status == domain.WithdrawalRejected {
			err := tx.Model(&UserRecord{}).Where("id = ?", rec.UserID).
				Update("coins", gorm.Expr("coins + ?", rec.CoinsDeducted)).Error
			if err != nil {
				return err
			}
		}

		rec.Status = string(r.Status)
		rec.RejectReason = r.Reason
		rec.ProcessedAt = &processedAt
		out = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SqliteStorage) GetWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error) {
	var rec WithdrawalRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, err
	}
	w := rec.toDomain()
	return &w, nil
}

func (s *SqliteStorage) ListWithdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	var recs []WithdrawalRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("requested_at DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return withdrawalsToDomain(recs), nil
}

func (s *SqliteStorage) ListPendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	var recs []WithdrawalRecord
	err := s.db.WithContext(ctx).Where("status = ?", string(domain.WithdrawalPending)).Order("requested_at ASC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return withdrawalsToDomain(recs), nil
}

func withdrawalsToDomain(recs []WithdrawalRecord) []domain.Withdrawal {
	out := make([]domain.Withdrawal, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
