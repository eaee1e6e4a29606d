package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/mergington-activities/internal/dto"
	"github.com/noah-isme/mergington-activities/internal/models"
	"github.com/noah-isme/mergington-activities/internal/observability"
	"github.com/noah-isme/mergington-activities/internal/repository"
)

var (
	// ErrActivityNotFound indicates the requested activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadySignedUp indicates the email is already on the activity roster.
	ErrAlreadySignedUp = errors.New("already signed up")
	// ErrNotRegistered indicates the email is not on the activity roster.
	ErrNotRegistered = errors.New("not registered")
)

// RosterPublisher receives roster events after successful mutations.
type RosterPublisher interface {
	Publish(ctx context.Context, event models.RosterEvent)
}

// ActivityService exposes the activity listing and roster workflows.
type ActivityService interface {
	List(ctx context.Context) (dto.ActivityMap, error)
	Signup(ctx context.Context, req dto.RosterRequest) (dto.MessageResponse, error)
	Unregister(ctx context.Context, req dto.RosterRequest) (dto.MessageResponse, error)
}

type activityService struct {
	repo      repository.ActivityRepository
	validator *validator.Validate
	publisher RosterPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewActivityService constructs the activity service. A nil publisher disables roster events.
func NewActivityService(repo repository.ActivityRepository, validator *validator.Validate, publisher RosterPublisher, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		logger:    logger.With().Str("component", "activity_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/mergington-activities/internal/service/activity"),
		now:       time.Now,
	}
}

func (s *activityService) List(ctx context.Context) (dto.ActivityMap, error) {
	ctx, span := s.tracer.Start(ctx, "activities.list")
	defer span.End()

	activities, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("activities.count", len(activities)))
	return dto.NewActivityMap(activities), nil
}

func (s *activityService) Signup(ctx context.Context, req dto.RosterRequest) (dto.MessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activities.signup", trace.WithAttributes(
		attribute.String("activity.name", req.Activity),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		observability.RosterChanges().WithLabelValues(models.RosterEventSignup, "invalid").Inc()
		return dto.MessageResponse{}, err
	}

	activity, err := s.repo.AddParticipant(ctx, req.Activity, req.Email)
	if err != nil {
		err = s.translate(err)
		s.recordFailure(span, models.RosterEventSignup, err)
		return dto.MessageResponse{}, err
	}

	observability.RosterChanges().WithLabelValues(models.RosterEventSignup, "ok").Inc()
	s.logger.Info().Str("activity", req.Activity).Str("email", maskEmail(req.Email)).Int("participants", len(activity.Participants)).Int("spots_left", activity.SpotsLeft()).Msg("participant signed up")
	if activity.SpotsLeft() < 0 {
		// capacity is advisory; the roster keeps growing past it
		s.logger.Warn().Str("activity", req.Activity).Int("max_participants", activity.MaxParticipants).Msg("activity over capacity")
	}
	s.publish(ctx, models.RosterEventSignup, req, activity)
	span.SetStatus(codes.Ok, "signed up")

	return dto.MessageResponse{Message: fmt.Sprintf("Signed up %s for %s", req.Email, req.Activity)}, nil
}

func (s *activityService) Unregister(ctx context.Context, req dto.RosterRequest) (dto.MessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activities.unregister", trace.WithAttributes(
		attribute.String("activity.name", req.Activity),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		observability.RosterChanges().WithLabelValues(models.RosterEventUnregister, "invalid").Inc()
		return dto.MessageResponse{}, err
	}

	activity, err := s.repo.RemoveParticipant(ctx, req.Activity, req.Email)
	if err != nil {
		err = s.translate(err)
		s.recordFailure(span, models.RosterEventUnregister, err)
		return dto.MessageResponse{}, err
	}

	observability.RosterChanges().WithLabelValues(models.RosterEventUnregister, "ok").Inc()
	s.logger.Info().Str("activity", req.Activity).Str("email", maskEmail(req.Email)).Int("participants", len(activity.Participants)).Msg("participant unregistered")
	s.publish(ctx, models.RosterEventUnregister, req, activity)
	span.SetStatus(codes.Ok, "unregistered")

	return dto.MessageResponse{Message: fmt.Sprintf("Unregistered %s from %s", req.Email, req.Activity)}, nil
}

func (s *activityService) translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrActivityNotFound):
		return ErrActivityNotFound
	case errors.Is(err, repository.ErrParticipantExists):
		return ErrAlreadySignedUp
	case errors.Is(err, repository.ErrParticipantMissing):
		return ErrNotRegistered
	default:
		return err
	}
}

func (s *activityService) recordFailure(span trace.Span, action string, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, ErrActivityNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrAlreadySignedUp), errors.Is(err, ErrNotRegistered):
		outcome = "conflict"
	default:
		span.RecordError(err)
		s.logger.Error().Err(err).Str("action", action).Msg("roster update failed")
	}

	span.SetStatus(codes.Error, outcome)
	observability.RosterChanges().WithLabelValues(action, outcome).Inc()
}

func (s *activityService) publish(ctx context.Context, eventType string, req dto.RosterRequest, activity models.Activity) {
	if s.publisher == nil {
		return
	}

	s.publisher.Publish(ctx, models.RosterEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		Activity:     req.Activity,
		Email:        req.Email,
		Participants: len(activity.Participants),
		OccurredAt:   s.now().UTC(),
	})
}

func maskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return "***"
	}
	local := []rune(parts[0])
	masked := string(local[:1]) + "***"
	if len(local) > 2 {
		masked += string(local[len(local)-1:])
	}
	return masked + "@" + parts[1]
}
