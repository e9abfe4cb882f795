package store

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Status is the stored lifecycle record of one request.
type Status struct {
	State     string     `json:"status"`
	Mode      string     `json:"mode"`
	Message   string     `json:"message,omitempty"`
	Provider  string     `json:"provider,omitempty"`
	ReportURL string     `json:"report_url,omitempty"`
	Start     *time.Time `json:"start_time,omitempty"`
	End       *time.Time `json:"end_time,omitempty"`
}

// RedisStatus keeps request status hashes that expire after ttl.
type RedisStatus struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

func NewRedisStatus(redisURL string, ttl time.Duration) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStatus{client: c, keyNS: "request", ttl: ttl}, nil
}

func (s *RedisStatus) key(requestID string) string {
	return fmt.Sprintf("%s:%s:status", s.keyNS, requestID)
}

// Set merges st into the stored hash; empty fields leave earlier values alone.
func (s *RedisStatus) Set(ctx context.Context, requestID string, st Status) error {
	m := map[string]any{"status": st.State}
	if st.Mode != "" {
		m["mode"] = st.Mode
	}
	if st.Message != "" {
		m["message"] = st.Message
	}
	if st.Provider != "" {
		m["provider"] = st.Provider
	}
	if st.ReportURL != "" {
		m["report_url"] = st.ReportURL
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}

	key := s.key(requestID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, m)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStatus) Get(ctx context.Context, requestID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(requestID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	st := Status{
		State:     res["status"],
		Mode:      res["mode"],
		Message:   res["message"],
		Provider:  res["provider"],
		ReportURL: res["report_url"],
	}
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	return st, true, nil
}

// Ping checks connectivity.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStatus) Close() error { return s.client.Close() }
