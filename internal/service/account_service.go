package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"playearn/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidRegistration = errors.New("name, valid email, password of 8+ characters and device id are required")

// AccountService handles registration, login and profile reads.
type AccountService struct {
	ledger      Ledger
	audit       *AuditService
	adminEmails map[string]bool
}

func NewAccountService(ledger Ledger, audit *AuditService, adminEmails []string) *AccountService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}
	return &AccountService{ledger: ledger, audit: audit, adminEmails: admins}
}

type Registration struct {
	Name     string
	Email    string
	Password string
	DeviceID string
}

// Session is an authenticated user plus a signed token.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
	Admin bool         `json:"admin"`
}

func (s *AccountService) Register(ctx context.Context, r Registration, now time.Time) (*Session, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DeviceID = strings.TrimSpace(r.DeviceID)
	if r.Name == "" || r.DeviceID == "" || len(r.Password) < 8 {
		return nil, ErrInvalidRegistration
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return nil, ErrInvalidRegistration
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:             uuid.NewString(),
		Name:           r.Name,
		Email:          r.Email,
		PasswordHash:   string(hash),
		DeviceID:       r.DeviceID,
		Status:         domain.UserStatusActive,
		LastDailyReset: now,
		CreatedAt:      now,
	}
	if err := s.ledger.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, u.ID, domain.AuditActionRegister, domain.AuditCategoryAuth, map[string]any{"device_id": u.DeviceID})
	return s.session(u)
}

func (s *AccountService) Login(ctx context.Context, email, password, ip, userAgent string) (*Session, error) {
	u, err := s.ledger.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if u.Status != domain.UserStatusActive {
		return nil, domain.ErrAccountBlocked
	}

	s.audit.LogLogin(ctx, u.ID, ip, userAgent)
	return s.session(u)
}

// Profile returns the user as of now, with stale daily counters shown as reset.
func (s *AccountService) Profile(ctx context.Context, userID string, now time.Time) (*domain.User, error) {
	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view, _ := u.WithDailyReset(now)
	return &view, nil
}

func (s *AccountService) IsAdmin(u *domain.User) bool {
	return s.adminEmails[strings.ToLower(u.Email)]
}

func (s *AccountService) session(u *domain.User) (*Session, error) {
	admin := s.IsAdmin(u)
	token, err := GenerateJWT(u.ID, admin)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, User: u, Admin: admin}, nil
}
