package logger

import (
	"context"

	"github.com/briarworks/briarkeep/internal/observability/reqctx"
	"go.uber.org/zap"
)

// FromContext returns the global logger annotated with the request id, when
// one is present on the context.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if requestID := reqctx.RequestIDFromContext(ctx); requestID != "" {
		log = log.With(zap.String("request_id", requestID))
	}
	return log
}
