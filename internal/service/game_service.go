package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playearn/internal/domain"

	"github.com/google/uuid"
)

var ErrInvalidSessionTime = errors.New("invalid session time")

// maxSessionSeconds bounds a single reported session when no server side
// session exists to clamp it against.
const maxSessionSeconds = 3 * 60 * 60

// GameService tracks play time and the set of games each user played.
type GameService struct {
	ledger Ledger
	limits domain.Limits
	audit  *AuditService
}

// NewGameService creates a new game service
func NewGameService(ledger Ledger, limits domain.Limits, audit *AuditService) *GameService {
	return &GameService{ledger: ledger, limits: limits, audit: audit}
}

// GameStart is returned when a user opens a game.
type GameStart struct {
	SessionID     string `json:"session_id"`
	GameID        string `json:"game_id"`
	NeedsEntryAd  bool   `json:"needs_entry_ad"`
	DailyUnlocked bool   `json:"daily_unlocked"`
}

// GameResult is what the client reports when a game ends.
type GameResult struct {
	GameID         string
	SessionID      string
	SessionSeconds int64
	LevelCompleted bool
}

func (s *GameService) Catalog() []domain.GameInfo {
	return domain.Games()
}

// Start opens a play session for gameID.
func (s *GameService) Start(ctx context.Context, userID, gameID string, now time.Time) (*GameStart, error) {
	if _, ok := domain.LookupGame(gameID); !ok {
		return nil, domain.ErrUnknownGame
	}
	if _, err := s.ledger.ResetDaily(ctx, userID, now); err != nil {
		return nil, fmt.Errorf("daily reset: %w", err)
	}
	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	session := &domain.GameSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		GameID:    gameID,
		StartedAt: now,
	}
	if err := s.ledger.StartGameSession(ctx, session); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	return &GameStart{
		SessionID:     session.ID,
		GameID:        gameID,
		NeedsEntryAd:  !u.FirstGameAdDone,
		DailyUnlocked: u.DailyUnlocked,
	}, nil
}

// Complete credits play time, marks the game as played and pays the level
// completion bonus. When the session is known, the reported duration is
// capped at the wall time since it started; a session completes at most once.
func (s *GameService) Complete(ctx context.Context, userID string, r GameResult, now time.Time) (domain.GamePlayResult, error) {
	if _, ok := domain.LookupGame(r.GameID); !ok {
		return domain.GamePlayResult{}, domain.ErrUnknownGame
	}
	if r.SessionSeconds < 0 || r.SessionSeconds > maxSessionSeconds {
		return domain.GamePlayResult{}, ErrInvalidSessionTime
	}

	seconds := r.SessionSeconds
	sessionID := ""
	if r.SessionID != "" {
		gs, err := s.ledger.GetGameSession(ctx, r.SessionID)
		if err != nil {
			return domain.GamePlayResult{}, fmt.Errorf("load session: %w", err)
		}
		if gs != nil && gs.UserID == userID && gs.EndedAt != nil {
			return domain.GamePlayResult{}, domain.ErrSessionClosed
		}
		if gs != nil && gs.UserID == userID && gs.GameID == r.GameID {
			sessionID = gs.ID
			if wall := int64(now.Sub(gs.StartedAt) / time.Second); seconds > wall {
				seconds = max(wall, 0)
			}
		}
	}

	var bonus int64
	if r.LevelCompleted {
		bonus = s.limits.LevelCompleteCoins
	}

	res, err := s.ledger.RecordGamePlay(ctx, &domain.GamePlay{
		UserID:         userID,
		GameID:         r.GameID,
		SessionID:      sessionID,
		SessionSeconds: seconds,
		BonusCoins:     bonus,
		EndedAt:        now,
	})
	if err != nil {
		return res, fmt.Errorf("record play: %w", err)
	}

	s.audit.Log(ctx, userID, domain.AuditActionGamePlay, domain.AuditCategoryGame, map[string]any{
		"game_id":         r.GameID,
		"session_seconds": seconds,
		"bonus_coins":     bonus,
	})
	return res, nil
}
