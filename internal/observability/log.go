// Package observability implements the broker's structured event log: one
// JSON line per pipeline stage transition, tagged with the correlation
// identifiers carried in the request context. It is intentionally a thin
// wrapper over the standard library logger rather than a framework — the
// broker core has exactly one consumer of these events (stdout, captured
// by whatever process supervisor runs it) and does not need pluggable
// sinks.
package observability

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"
)

var logger = log.New(os.Stdout, "", 0)

// LogEvent writes a single structured event line.
func LogEvent(ctx context.Context, level, event string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"event": event,
	}

	info := RunInfoFromContext(ctx)
	if info.AccountID != "" {
		payload["account_id"] = info.AccountID
	}
	if info.RequestID != "" {
		payload["request_id"] = info.RequestID
	}
	if info.Symbol != "" {
		payload["symbol"] = info.Symbol
	}

	for k, v := range fields {
		if err, ok := v.(error); ok {
			payload[k] = err.Error()
			continue
		}
		payload[k] = v
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("{\"level\":\"error\",\"event\":\"log_marshal_failed\",\"error\":%q}", err.Error())
		return
	}
	logger.Print(string(raw))
}

// LogOrderDecision logs a terminal order decision (rejected or filled)
// emitted by the execution pipeline. Orders parked as OPEN are not logged.
func LogOrderDecision(ctx context.Context, orderID, status, reason string) {
	fields := map[string]any{"order_id": orderID, "status": status}
	if reason != "" {
		fields["reason"] = reason
	}
	LogEvent(ctx, "info", "order_decision", fields)
}

// LogMaintenance logs a lifecycle-maintenance side effect (settlement
// drained, borrow fee accrued, forced liquidation attempted).
func LogMaintenance(ctx context.Context, kind string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["kind"] = kind
	LogEvent(ctx, "info", "maintenance", fields)
}
