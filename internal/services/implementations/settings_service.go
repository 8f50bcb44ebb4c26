package implementations

import (
	"context"
	"errors"

	"user-management/internal/domain/settings"
	"user-management/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationScope = "user-management/service/settings"

// Operation names used in spans, logs and metrics
const (
	opFetch  = "fetch"
	opUpsert = "upsert"
)

// SettingsServiceImpl implements the settings.SettingsService interface
type SettingsServiceImpl struct {
	store    settings.Store
	identity settings.IdentityResolver
	logger   *observability.Logger

	// Observability
	tracer               trace.Tracer
	settingsReadCounter  metric.Int64Counter
	settingsWriteCounter metric.Int64Counter
}

// NewSettingsService creates a new settings service implementation
func NewSettingsService(
	store settings.Store,
	identity settings.IdentityResolver,
	logger *observability.Logger,
) *SettingsServiceImpl {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	tracer := otel.Tracer(instrumentationScope)
	meter := otel.Meter(instrumentationScope)

	// Create metrics (ignore errors for graceful degradation)
	readCounter, err := meter.Int64Counter(
		"settings.read.total",
		metric.WithDescription("Total number of settings read operations"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		readCounter = nil
	}

	writeCounter, err := meter.Int64Counter(
		"settings.write.total",
		metric.WithDescription("Total number of settings write operations"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		writeCounter = nil
	}

	return &SettingsServiceImpl{
		store:                store,
		identity:             identity,
		logger:               logger,
		tracer:               tracer,
		settingsReadCounter:  readCounter,
		settingsWriteCounter: writeCounter,
	}
}

// FetchSettings returns the caller's settings document
func (s *SettingsServiceImpl) FetchSettings(ctx context.Context) (*settings.UserSettings, error) {
	ctx, span := s.tracer.Start(ctx, "FetchSettings")
	defer span.End()

	userID, ok := s.identity.Subject(ctx)
	if !ok {
		return nil, s.unauthorized(ctx, span, opFetch)
	}
	span.SetAttributes(attribute.String("settings.user_id", userID))

	result, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		s.recordRead(ctx, "error")
		return nil, s.internalFailure(ctx, span, opFetch, userID, err)
	}

	if result == nil {
		s.recordRead(ctx, "not_found")
		span.SetAttributes(attribute.Bool("settings.found", false))
		s.logger.Info(ctx).Str("user_id", userID).Msg("No settings found for user")
		return nil, settings.ErrNotFound
	}

	s.recordRead(ctx, "found")
	span.SetAttributes(
		attribute.Bool("settings.found", true),
		attribute.String("settings.document_id", result.ID),
	)
	span.SetStatus(codes.Ok, "")
	s.logger.Info(ctx).Str("user_id", userID).Msg("Settings fetched")
	return result, nil
}

// UpsertSettings creates the caller's settings document or fully replaces
// the existing one. The user_id is always the authenticated subject.
func (s *SettingsServiceImpl) UpsertSettings(ctx context.Context, req *settings.UpsertRequest) (*settings.UpsertResult, error) {
	ctx, span := s.tracer.Start(ctx, "UpsertSettings")
	defer span.End()

	userID, ok := s.identity.Subject(ctx)
	if !ok {
		return nil, s.unauthorized(ctx, span, opUpsert)
	}
	span.SetAttributes(attribute.String("settings.user_id", userID))

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid settings")
		s.logger.Warn(ctx).Err(err).Str("user_id", userID).Msg("Rejected invalid settings")
		return nil, err
	}

	doc := req.ToSettings(userID)

	existing, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.internalFailure(ctx, span, opUpsert, userID, err)
	}

	if existing != nil {
		return s.replace(ctx, span, existing.ID, doc)
	}

	id, err := s.store.Insert(ctx, doc)
	if errors.Is(err, settings.ErrDuplicateUser) {
		// another request created the document after our lookup
		span.AddEvent("insert_conflict")
		s.logger.Info(ctx).Str("user_id", userID).Msg("Concurrent create detected, retrying as update")

		existing, err = s.store.GetByUserID(ctx, userID)
		if err != nil {
			return nil, s.internalFailure(ctx, span, opUpsert, userID, err)
		}
		if existing == nil {
			return nil, s.internalFailure(ctx, span, opUpsert, userID, errors.New("conflicting settings document vanished"))
		}
		return s.replace(ctx, span, existing.ID, doc)
	}
	if err != nil {
		return nil, s.internalFailure(ctx, span, opUpsert, userID, err)
	}

	doc.ID = id
	s.recordWrite(ctx, "created")
	span.SetAttributes(
		attribute.Bool("settings.created", true),
		attribute.String("settings.document_id", id),
	)
	span.SetStatus(codes.Ok, "")
	s.logger.Info(ctx).Str("user_id", userID).Str("document_id", id).Msg("Settings created")

	return &settings.UpsertResult{Created: true, Settings: doc}, nil
}

func (s *SettingsServiceImpl) replace(ctx context.Context, span trace.Span, documentID string, doc *settings.UserSettings) (*settings.UpsertResult, error) {
	if err := s.store.ReplaceByDocumentID(ctx, documentID, doc); err != nil {
		return nil, s.internalFailure(ctx, span, opUpsert, doc.UserID, err)
	}

	doc.ID = documentID
	s.recordWrite(ctx, "updated")
	span.SetAttributes(
		attribute.Bool("settings.created", false),
		attribute.String("settings.document_id", documentID),
	)
	span.SetStatus(codes.Ok, "")
	s.logger.Info(ctx).Str("user_id", doc.UserID).Str("document_id", documentID).Msg("Settings updated")

	return &settings.UpsertResult{Created: false, Settings: doc}, nil
}

func (s *SettingsServiceImpl) unauthorized(ctx context.Context, span trace.Span, operation string) error {
	span.SetStatus(codes.Error, "missing identity")
	s.logger.Warn(ctx).Str("operation", operation).Msg("Unauthorized settings access: no subject in token")
	return settings.ErrUnauthorized
}

// internalFailure logs and traces the store error and returns the generic
// ErrInternal, which never carries it
func (s *SettingsServiceImpl) internalFailure(ctx context.Context, span trace.Span, operation, userID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "store failure")
	s.logger.Error(ctx).
		Err(err).
		Str("user_id", userID).
		Str("operation", operation).
		Msg("Settings store operation failed")
	return settings.ErrInternal
}

func (s *SettingsServiceImpl) recordRead(ctx context.Context, result string) {
	if s.settingsReadCounter != nil {
		s.settingsReadCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

func (s *SettingsServiceImpl) recordWrite(ctx context.Context, result string) {
	if s.settingsWriteCounter != nil {
		s.settingsWriteCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}
