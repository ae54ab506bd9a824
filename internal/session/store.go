package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	sessionTTL = 24 * time.Hour
	metricsTTL = 7 * 24 * time.Hour
	dateLayout = "2006-01-02"
)

type Store struct {
	redis *redis.Client
	now   func() time.Time
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient, now: time.Now}
}

// CreateSession stores sess as active and indexes it by conversation.
func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = shared.NewID("sess_")
	}
	now := s.now()
	sess.Status = StatusActive
	sess.StartedAt = now
	sess.LastActiveAt = now

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, sess.RedisKey(), data, sessionTTL)
	if sess.ConversationID != "" {
		pipe.Set(ctx, conversationKey(sess.ConversationID), sess.ID, sessionTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) GetByConversation(ctx context.Context, conversationID string) (*Session, error) {
	id, err := s.redis.Get(ctx, conversationKey(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, id)
}

func (s *Store) UpdateSession(ctx context.Context, sess *Session) error {
	sess.LastActiveAt = s.now()
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sess.RedisKey(), data, sessionTTL).Err()
}

func (s *Store) EndSession(ctx context.Context, id string, status Status) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	sess.Status = status
	return s.UpdateSession(ctx, sess)
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	keys := []string{sess.RedisKey()}
	if sess.ConversationID != "" {
		keys = append(keys, conversationKey(sess.ConversationID))
	}
	return s.redis.Del(ctx, keys...).Err()
}

// GetActiveSessions lists the active sessions of agentID.
func (s *Store) GetActiveSessions(ctx context.Context, agentID string) ([]*Session, error) {
	var sessions []*Session

	iter := s.redis.Scan(ctx, 0, "session:sess_*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.redis.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if sess.AgentID == agentID && sess.Status == StatusActive {
			sessions = append(sessions, &sess)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) currentMetricsKey(agentID string) string {
	now := s.now().UTC()
	return MetricsRedisKey(agentID, now.Format(dateLayout), now.Hour())
}

func (s *Store) IncrementMetric(ctx context.Context, agentID string, field string, value int64) error {
	key := s.currentMetricsKey(agentID)

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, field, value)
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) IncrementSessions(ctx context.Context, agentID string) error {
	return s.IncrementMetric(ctx, agentID, fieldSessions, 1)
}

// RecordTurn folds one turn into the current hour in a single round trip.
func (s *Store) RecordTurn(ctx context.Context, agentID string, t TurnStats) error {
	key := s.currentMetricsKey(agentID)

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, fieldTurns, 1)
	if !t.Successful {
		pipe.HIncrBy(ctx, key, fieldFailures, 1)
	}
	if t.Spoken {
		pipe.HIncrBy(ctx, key, fieldVoiceReplies, 1)
	}
	if t.RecordFailed {
		pipe.HIncrBy(ctx, key, fieldRecordFailures, 1)
	}
	if t.LatencyMs >= 0 {
		pipe.HIncrBy(ctx, key, fieldTotalLatency, t.LatencyMs)
		pipe.HIncrBy(ctx, key, fieldLatencyCount, 1)
	}
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetMetrics returns the non-empty hours among the last hours, most recent
// first.
func (s *Store) GetMetrics(ctx context.Context, agentID string, hours int) ([]*Metrics, error) {
	now := s.now().UTC()

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, hours)
	stamps := make([]time.Time, hours)
	for i := 0; i < hours; i++ {
		t := now.Add(-time.Duration(i) * time.Hour)
		stamps[i] = t
		cmds[i] = pipe.HGetAll(ctx, MetricsRedisKey(agentID, t.Format(dateLayout), t.Hour()))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var metrics []*Metrics
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		metrics = append(metrics, parseMetrics(agentID, stamps[i], data))
	}
	return metrics, nil
}

func (s *Store) GetMetricsForLast7Days(ctx context.Context, agentID string) ([]*Metrics, error) {
	return s.GetMetrics(ctx, agentID, 7*24)
}

func parseMetrics(agentID string, t time.Time, data map[string]string) *Metrics {
	field := func(name string) int64 {
		v, _ := strconv.ParseInt(data[name], 10, 64)
		return v
	}

	m := &Metrics{
		AgentID:        agentID,
		Date:           t.Format(dateLayout),
		Hour:           t.Hour(),
		Sessions:       field(fieldSessions),
		Turns:          field(fieldTurns),
		Failures:       field(fieldFailures),
		VoiceReplies:   field(fieldVoiceReplies),
		RecordFailures: field(fieldRecordFailures),
	}
	if count := field(fieldLatencyCount); count > 0 {
		m.AvgLatencyMs = field(fieldTotalLatency) / count
	}
	return m
}
