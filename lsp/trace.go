// Copyright © 2024 The wlscope authors

package lsp

import (
	"context"
	"fmt"
	"time"

	"github.com/tliron/glsp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "wlscope.lsp"

// request wraps a request handler with a span, metrics and panic recovery.
func request[P, R any](s *Server, method string, h func(*glsp.Context, P) (R, error)) func(*glsp.Context, P) (R, error) {
	return func(ctx *glsp.Context, params P) (result R, err error) {
		end := s.startSpan(method)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s: internal error: %v", method, r)
				log.Errorf("%v", err)
			}
			end(err)
		}()
		return h(ctx, params)
	}
}

// notification wraps a notification handler like request.
func notification[P any](s *Server, method string, h func(*glsp.Context, P) error) func(*glsp.Context, P) error {
	return func(ctx *glsp.Context, params P) (err error) {
		end := s.startSpan(method)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s: internal error: %v", method, r)
				log.Errorf("%v", err)
			}
			end(err)
		}()
		return h(ctx, params)
	}
}

// startSpan starts the span of one LSP message.  The returned function
// ends it and records the outcome.
func (s *Server) startSpan(method string) func(error) {
	start := time.Now()
	_, span := s.tracer.Start(context.Background(), method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("rpc.method", method)))
	return func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		requestsTotal.WithLabelValues(method, status).Inc()
		requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}
