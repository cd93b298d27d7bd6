// Package keypad serves calculator engines over HTTP: one engine per session,
// plus a stateless replay endpoint.
package keypad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"keypad-calculator/internal/calculator"
	"keypad-calculator/internal/handlers"
	"keypad-calculator/internal/observability"
	"keypad-calculator/internal/session"
)

// tracer is the keypad's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

const (
	maxBodyBytes        = 64 << 10
	maxTokensPerRequest = 1024
)

var errNoTokens = errors.New("tokens array is empty")

// Handler serves the calculator endpoints backed by a session store.
type Handler struct {
	store *session.Store
}

func NewHandler(store *session.Store) *Handler {
	return &Handler{store: store}
}

// keypad is the part of calculator.Engine the handlers drive.
type keypad interface {
	HandleInput(token string)
	State() calculator.State
}

// ---------------------------------------------------------------------------
// Handlers — sessions
// ---------------------------------------------------------------------------

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "calculator.session.create")
	defer span.End()

	id, st, err := h.store.Create()
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "create", err.Error(), err, statusFor(err), w)
		return
	}

	sessionsCounter.Add(ctx, 1)
	span.SetAttributes(attribute.String("calculator.session.id", id))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session created",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusCreated, snapshotOf(id, st))
}

// GetSession handles GET /calculator/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	id := chi.URLParam(r, "sessionID")

	ctx, span := tracer.Start(ctx, "calculator.session.get",
		trace.WithAttributes(attribute.String("calculator.session.id", id)),
	)
	defer span.End()

	st, err := h.store.Get(id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "get", err.Error(), err, statusFor(err), w)
		return
	}

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, snapshotOf(id, st))
}

// DeleteSession handles DELETE /calculator/sessions/{sessionID}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	id := chi.URLParam(r, "sessionID")

	ctx, span := tracer.Start(ctx, "calculator.session.delete",
		trace.WithAttributes(attribute.String("calculator.session.id", id)),
	)
	defer span.End()

	if err := h.store.Delete(id); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "delete", err.Error(), err, statusFor(err), w)
		return
	}

	span.SetStatus(codes.Ok, "")
	logger.Info("calculator session deleted",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// Input handles POST /calculator/sessions/{sessionID}/input — presses each
// token on the session's calculator in order.
func (h *Handler) Input(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	id := chi.URLParam(r, "sessionID")

	ctx, span := tracer.Start(ctx, "calculator.input",
		trace.WithAttributes(
			attribute.String("calculator.session.id", id),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req InputRequest
	if err := decodeBody(w, r, &req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "input", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	tokens := req.all()
	if err := checkTokens(tokens); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "input", err.Error(), err, http.StatusBadRequest, w)
		return
	}
	span.SetAttributes(attribute.Int("calculator.tokens_count", len(tokens)))

	start := time.Now()
	var ignored int
	st, err := h.store.Do(id, func(e *calculator.Engine) {
		_, ignored = press(ctx, logger, e, tokens)
	})
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "input", err.Error(), err, statusFor(err), w)
		return
	}

	inputHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("operation", "input")))
	recordDisplay(ctx, st)

	span.SetAttributes(
		attribute.String("calculator.display", st.Display()),
		attribute.Int("calculator.tokens_ignored", ignored),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator input applied",
		zap.String("session_id", id),
		zap.Int("tokens", len(tokens)),
		zap.Int("ignored", ignored),
		zap.String("display", st.Display()),
		zap.String("operation_trace", st.OperationTrace()),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, InputResponse{
		Snapshot: snapshotOf(id, st),
		Ignored:  ignored,
	})
}

// ---------------------------------------------------------------------------
// Handler — stateless replay (demonstrates nested spans)
// ---------------------------------------------------------------------------

// Replay handles POST /calculator/replay — presses the tokens on a fresh
// calculator and returns the displays after every step. Each token gets its
// own child span.
func (h *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.replay",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req ReplayRequest
	if err := decodeBody(w, r, &req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "replay", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	if err := checkTokens(req.Tokens); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "replay", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(attribute.Int("calculator.tokens_count", len(req.Tokens)))

	start := time.Now()
	e := calculator.New()
	steps, ignored := press(ctx, logger, e, req.Tokens)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	st := e.State()
	inputHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("operation", "replay")))
	recordDisplay(ctx, st)

	span.AddEvent("replay.complete", trace.WithAttributes(
		attribute.String("display", st.Display()),
		attribute.Int("total_steps", len(steps)),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator replay completed",
		zap.Int("tokens", len(req.Tokens)),
		zap.Int("ignored", ignored),
		zap.String("display", st.Display()),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, ReplayResponse{
		Steps:          steps,
		Display:        st.Display(),
		OperationTrace: st.OperationTrace(),
		Error:          st.Failed(),
		Ignored:        ignored,
	})
}

// press feeds tokens to kp one at a time, with a child span, a token metric
// and a debug log per token. It returns the displays after each token and
// the number of unrecognised tokens.
func press(ctx context.Context, logger *zap.Logger, kp keypad, tokens []string) ([]ReplayStep, int) {
	steps := make([]ReplayStep, 0, len(tokens))
	ignored := 0

	for i, tok := range tokens {
		class := calculator.Classify(tok)

		_, stepSpan := tracer.Start(ctx, fmt.Sprintf("calculator.press.%d.%s", i, class),
			trace.WithAttributes(
				attribute.Int("calculator.step.index", i),
				attribute.String("calculator.token", tok),
				attribute.String("calculator.token.class", string(class)),
			),
		)

		before := kp.State()
		kp.HandleInput(tok)
		after := kp.State()

		tokensCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("class", string(class))))

		step := ReplayStep{
			Token:          tok,
			Display:        after.Display(),
			OperationTrace: after.OperationTrace(),
			Ignored:        class == calculator.ClassUnknown,
		}
		if step.Ignored {
			ignored++
			stepSpan.AddEvent("token.ignored")
		}

		if after.Failed() && !before.Failed() {
			err := fmt.Errorf("%s produced no finite result", before.Pending())
			stepSpan.RecordError(err)
			errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", before.Pending().String())))
			logger.Warn("calculator entered error state",
				zap.Int("step", i),
				zap.String("token", tok),
				zap.String("operation_trace", before.OperationTrace()),
				zap.String("display", before.Display()),
			)
		}

		stepSpan.SetAttributes(
			attribute.String("calculator.display", step.Display),
			attribute.String("calculator.operation_trace", step.OperationTrace),
		)
		stepSpan.SetStatus(codes.Ok, "")
		stepSpan.End()

		logger.Debug("calculator token pressed",
			zap.Int("step", i),
			zap.String("token", tok),
			zap.String("class", string(class)),
			zap.String("display", step.Display),
			zap.String("operation_trace", step.OperationTrace),
		)

		steps = append(steps, step)
	}

	return steps, ignored
}

func recordDisplay(ctx context.Context, st calculator.State) {
	if st.Failed() {
		return
	}
	v, err := strconv.ParseFloat(st.Display(), 64)
	if err != nil {
		return
	}
	displayGauge.Record(ctx, v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func checkTokens(tokens []string) error {
	if len(tokens) == 0 {
		return errNoTokens
	}
	if len(tokens) > maxTokensPerRequest {
		return fmt.Errorf("too many tokens: %d > %d", len(tokens), maxTokensPerRequest)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrCapacity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
