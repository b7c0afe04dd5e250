// Package session keeps admin sessions in Redis. Clients hold a signed token
// naming the session; the session body never leaves the server.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidSession is returned for unknown, expired or tampered tokens.
var ErrInvalidSession = errors.New("invalid or expired session")

const keyPrefix = "session:"

// Session is the server-side state of a logged-in admin.
type Session struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"adminId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store creates, resolves and destroys sessions.
type Store struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a session Store. ttl defaults to 24h.
func NewStore(client *redis.Client, secret string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create stores a new session for the admin and returns the cookie token.
func (s *Store) Create(ctx context.Context, adminID, email, role string) (string, *Session, error) {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		AdminID:   adminID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	body, err := json.Marshal(sess)
	if err != nil {
		return "", nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.ID, body, s.ttl).Err(); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.sign(sess)
	if err != nil {
		_ = s.client.Del(ctx, keyPrefix+sess.ID).Err()
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return token, sess, nil
}

// Resolve validates token and loads its session.
func (s *Store) Resolve(ctx context.Context, token string) (*Session, error) {
	id, err := s.parse(token)
	if err != nil {
		return nil, ErrInvalidSession
	}

	body, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Destroy removes the session named by token. Unknown tokens are ignored.
func (s *Store) Destroy(ctx context.Context, token string) error {
	id, err := s.parse(token)
	if err != nil {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DestroyAll removes every session belonging to adminID.
func (s *Store) DestroyAll(ctx context.Context, adminID string) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		body, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if json.Unmarshal(body, &sess) == nil && sess.AdminID == adminID {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan sessions: %w", err)
	}
	return nil
}

func (s *Store) sign(sess *Session) (string, error) {
	claims := jwt.MapClaims{
		"sid": sess.ID,
		"sub": sess.AdminID,
		"iat": sess.CreatedAt.Unix(),
		"exp": sess.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Store) parse(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidSession
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidSession
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidSession
	}
	id, _ := claims["sid"].(string)
	if id == "" {
		return "", ErrInvalidSession
	}
	return id, nil
}
