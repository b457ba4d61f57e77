package authz

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/cedar-policy/cedar-go"
)

// Config contains options for the Authorizer.
type Config struct {
	// Logger for structured decision logging. If nil, uses slog.Default().
	Logger *slog.Logger

	// Parallelism bounds concurrent request evaluation within one batch.
	// Values below 2 evaluate sequentially. Parallel evaluation is safe
	// because the normalized policy/entity/schema context is read-only for
	// the duration of the batch.
	Parallelism int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Logger:      nil, // Will use slog.Default() in New
		Parallelism: 1,
	}
}

// Authorizer orchestrates authorization requests against the Cedar engine.
// It holds no mutable state across calls and is safe for concurrent use.
type Authorizer struct {
	logger      *slog.Logger
	parallelism int
}

// New creates an authorizer with the given configuration.
func New(cfg Config) *Authorizer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &Authorizer{logger: logger, parallelism: parallelism}
}

// IsAuthorized evaluates a single authorization request. It behaves exactly
// like a batch of size one: a malformed request is reported inside the
// returned Result, while malformed policies, entities, or schema are
// returned as a SharedContextError.
func (a *Authorizer) IsAuthorized(ctx context.Context, req Request, policies PolicySource, entities EntitySource, schema SchemaSource) (Result, error) {
	results, err := a.IsAuthorizedBatch(ctx, []Request{req}, policies, entities, schema)
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// evaluate normalizes and evaluates one request against the shared batch
// context. Normalization failures become the slot's error result; they never
// propagate to sibling requests.
func (a *Authorizer) evaluate(req Request, ps *cedar.PolicySet, entities cedar.EntityMap, shared map[string]int64) Result {
	start := time.Now()
	metrics := maps.Clone(shared)

	cedarReq, err := normalizeRequest(req)
	if err != nil {
		metrics["total_duration_micros"] = time.Since(start).Microseconds()
		a.logger.Warn("request rejected",
			"error", err,
			"correlation_id", req.CorrelationID,
		)
		return errorResult(err, req.CorrelationID, metrics)
	}

	tAuthz := time.Now()
	decision, diagnostic := cedar.Authorize(ps, entities, cedarReq)
	metrics["authz_duration_micros"] = time.Since(tAuthz).Microseconds()
	metrics["total_duration_micros"] = time.Since(start).Microseconds()

	result := marshalResult(decision, diagnostic, req.CorrelationID, metrics)
	a.logDecision(cedarReq, result)
	return result
}

// logDecision logs the authorization decision with structured fields.
func (a *Authorizer) logDecision(req cedar.Request, result Result) {
	a.logger.Info("authorization decision",
		"principal", req.Principal,
		"action", req.Action,
		"resource", req.Resource,
		"decision", result.Allowed(),
		"reasons", result.reasons,
		"correlation_id", result.correlationID,
		"duration_us", result.metrics["total_duration_micros"],
	)

	for _, err := range result.errors {
		a.logger.Error("policy evaluation error",
			"policy", err.PolicyID,
			"error", err.Message,
		)
	}
}
