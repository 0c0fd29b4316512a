package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"dialbed/internal/logger"
	"dialbed/internal/models"
	"dialbed/internal/repository"
)

// DefaultTokenTTL bounds how long a paired client stays authorized without
// re-entering the PIN.
const DefaultTokenTTL = 24 * time.Hour

// Domain errors for pairing flows.
var (
	ErrInvalidPIN   = errors.New("invalid pin")
	ErrInvalidToken = errors.New("invalid token")
)

// PairingConfig comes from the config file.
type PairingConfig struct {
	// PIN is the device pairing code shown in the settings UI.
	PIN string
	// SigningKey signs issued tokens.
	SigningKey string
	// TokenTTL defaults to DefaultTokenTTL when zero.
	TokenTTL time.Duration
}

// PairingService exchanges the device PIN for a bearer token. The PIN is
// held only as a bcrypt hash after startup.
type PairingService struct {
	pinHash    []byte
	signingKey []byte
	ttl        time.Duration
	events     repository.EventRepo
	log        *logger.Logger
}

func NewPairingService(cfg PairingConfig, events repository.EventRepo, log *logger.Logger) (*PairingService, error) {
	if strings.TrimSpace(cfg.PIN) == "" {
		return nil, errors.New("pairing pin is empty")
	}
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return nil, errors.New("pairing signing key is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.PIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &PairingService{
		pinHash:    hash,
		signingKey: []byte(cfg.SigningKey),
		ttl:        ttl,
		events:     events,
		log:        log,
	}, nil
}

// Pair verifies the PIN and returns a signed token. Attempts are recorded
// either way.
func (s *PairingService) Pair(ctx context.Context, pin string) (string, error) {
	err := bcrypt.CompareHashAndPassword(s.pinHash, []byte(pin))
	s.record(ctx, err == nil)
	if err != nil {
		return "", ErrInvalidPIN
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "dialbed",
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token.
func (s *PairingService) ParseToken(accessToken string) error {
	token, err := jwt.ParseWithClaims(accessToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (s *PairingService) record(ctx context.Context, ok bool) {
	desc := "pairing rejected"
	if ok {
		desc = "pairing accepted"
	}
	if err := s.events.Append(ctx, models.DeviceEvent{
		Type:        models.EventPairAttempt,
		Description: desc,
		Metadata:    map[string]any{"ok": ok},
	}); err != nil {
		s.log.Warnw("event append failed", "type", models.EventPairAttempt, "err", err)
	}
}
