package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mergington-activities/internal/models"
	"github.com/noah-isme/mergington-activities/internal/observability"
)

const (
	rosterBufferSize   = 16
	redisRetryMinDelay = 500 * time.Millisecond
	redisRetryMaxDelay = 30 * time.Second
)

// RosterEvents fans roster events out to local subscribers and to other replicas.
type RosterEvents interface {
	RosterPublisher
	Subscribe() (<-chan models.RosterEvent, func())
	Start(ctx context.Context)
}

type rosterEvents struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
	retryMin     time.Duration
	retryMax     time.Duration

	mu          sync.RWMutex
	subscribers map[chan models.RosterEvent]struct{}
}

type rosterEnvelope struct {
	Source string             `json:"source"`
	Event  models.RosterEvent `json:"event"`
	SentAt time.Time          `json:"sent_at"`
}

// NewRosterEvents constructs the roster event hub. Nil clients or an empty
// channel base keep events local to this process.
func NewRosterEvents(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) RosterEvents {
	channel := ""
	subject := ""
	if channelBase = strings.TrimSpace(channelBase); channelBase != "" {
		channel = channelBase + ":roster"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".roster"
	}

	return &rosterEvents{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "roster_events").Logger(),
		nodeID:       uuid.NewString(),
		retryMin:     redisRetryMinDelay,
		retryMax:     redisRetryMaxDelay,
		subscribers:  make(map[chan models.RosterEvent]struct{}),
	}
}

// Start consumes events from other replicas until ctx is cancelled. Events are
// published to every configured broker but consumed from one, NATS first.
func (r *rosterEvents) Start(ctx context.Context) {
	switch {
	case r.nats != nil && r.natsSubject != "":
		r.consumeNATS(ctx)
	case r.redis != nil && r.redisChannel != "":
		go r.consumeRedis(ctx)
	}
}

func (r *rosterEvents) Publish(ctx context.Context, event models.RosterEvent) {
	r.broadcast(event, "local")

	if err := r.forward(ctx, event); err != nil {
		r.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to forward roster event")
	}
}

func (r *rosterEvents) Subscribe() (<-chan models.RosterEvent, func()) {
	ch := make(chan models.RosterEvent, rosterBufferSize)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, ch)
			close(ch)
			r.mu.Unlock()
		})
	}

	return ch, cleanup
}

func (r *rosterEvents) broadcast(event models.RosterEvent, origin string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for ch := range r.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	observability.RosterEvents().WithLabelValues(origin).Inc()
}

func (r *rosterEvents) forward(ctx context.Context, event models.RosterEvent) error {
	if (r.redis == nil || r.redisChannel == "") && (r.nats == nil || r.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(rosterEnvelope{
		Source: r.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	var errs []error
	if r.redis != nil && r.redisChannel != "" {
		if err := r.redis.Publish(ctx, r.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.nats != nil && r.natsSubject != "" {
		if err := r.nats.Publish(r.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// consumeRedis keeps receiving until ctx is cancelled. After a receive error
// the pubsub reconnects and resubscribes on the next call, so the loop only
// backs off before trying again.
func (r *rosterEvents) consumeRedis(ctx context.Context) {
	pubsub := r.redis.Subscribe(ctx, r.redisChannel)
	defer func() { _ = pubsub.Close() }()

	delay := r.retryMin
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				return
			}
			r.logger.Warn().Err(err).Dur("retry_in", delay).Msg("roster redis receive failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, r.retryMax)
			continue
		}
		delay = r.retryMin
		r.handleEnvelope([]byte(msg.Payload), "redis")
	}
}

func (r *rosterEvents) consumeNATS(ctx context.Context) {
	sub, err := r.nats.Subscribe(r.natsSubject, func(msg *nats.Msg) {
		r.handleEnvelope(msg.Data, "nats")
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to subscribe to nats roster subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to drain roster nats subscription")
		}
	}()
}

func (r *rosterEvents) handleEnvelope(payload []byte, origin string) {
	var envelope rosterEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		r.logger.Warn().Err(err).Str("origin", origin).Msg("invalid roster event payload")
		return
	}

	if envelope.Source == r.nodeID {
		return
	}

	r.broadcast(envelope.Event, origin)
}
