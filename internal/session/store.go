package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spendsmart/spendsmart/internal/domain/user"
)

// Data is the server-held session payload: the persisted identity of the
// logged-in user, without the password hash.
type Data struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("session not found")

const keyPrefix = "sess:"

// Store keeps sessions server-side in Redis, keyed by an opaque identifier
// that the client only ever sees inside an HTTP-only cookie. Expiry is
// absolute: the TTL is set once at creation and never refreshed.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Store{
		client: client,
		ttl:    ttl,
	}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create stores the identity under a fresh opaque id and returns the id.
func (s *Store) Create(ctx context.Context, u user.User) (string, error) {
	id := uuid.NewString()

	data := Data{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(data)

	if err != nil {
		return "", err
	}

	err = s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err()

	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (Data, error) {
	if id == "" {
		return Data{}, ErrNotFound
	}

	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Data{}, ErrNotFound
		}

		return Data{}, err
	}

	var data Data

	err = json.Unmarshal(payload, &data)

	if err != nil {
		return Data{}, err
	}

	return data, nil
}

// Destroy removes the session. Deleting a session that is already gone is
// not an error, which keeps logout idempotent.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	return s.client.Del(ctx, keyPrefix+id).Err()
}
