package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"stock-trader/utils"
)

var ErrInvalid = errors.New("invalid session")

// Store issues signed session tokens and keeps the live session ids in Redis.
// A token is only accepted while its id is present, so Destroy revokes it.
type Store struct {
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
}

func NewStore(rdb *redis.Client, secret string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, secret: []byte(secret), ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create starts a session for userID and returns its signed token.
func (s *Store) Create(ctx context.Context, userID uint) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	now := time.Now()

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	if err := s.rdb.Set(ctx, sessionKey(claims.ID), userID, s.ttl).Err(); err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return "", fmt.Errorf("store session: %w", err)
	}

	slog.Debug("session created", slog.String("rqID", rqID), slog.Uint64("userID", uint64(userID)))
	return token, nil
}

// Resolve returns the user bound to token.
func (s *Store) Resolve(ctx context.Context, token string) (uint, error) {
	claims, err := s.parse(token, true)
	if err != nil {
		return 0, err
	}

	stored, err := s.rdb.Get(ctx, sessionKey(claims.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}

	if stored != claims.Subject {
		return 0, ErrInvalid
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalid
	}
	return uint(userID), nil
}

// Destroy revokes the session behind token. Expired or unknown tokens are ignored.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.parse(token, false)
	if err != nil {
		return nil
	}

	if err := s.rdb.Del(ctx, sessionKey(claims.ID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) parse(token string, validate bool) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !validate {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
