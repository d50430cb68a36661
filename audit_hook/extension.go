// Package audithook bridges subwave lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit store. Callers inject a RecorderFunc adapter, or use
// NewSlogRecorder to write events to the structured log.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/id"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/plugin"
	"github.com/xraph/subwave/subscription"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnMerchantRegistered   = (*Extension)(nil)
	_ plugin.OnConfigCreated        = (*Extension)(nil)
	_ plugin.OnConfigUpdated        = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated  = (*Extension)(nil)
	_ plugin.OnSubscriptionRenewed  = (*Extension)(nil)
	_ plugin.OnSubscriptionCanceled = (*Extension)(nil)
	_ plugin.OnEntitlementChecked   = (*Extension)(nil)
	_ plugin.OnPaymentFailed        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges subwave lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Merchant & config hooks
// ──────────────────────────────────────────────────

// OnMerchantRegistered implements plugin.OnMerchantRegistered.
func (e *Extension) OnMerchantRegistered(ctx context.Context, m *merchant.Merchant, c *merchant.Config) error {
	return e.record(ctx, ActionMerchantRegistered, SeverityInfo, OutcomeSuccess,
		ResourceMerchant, m.Address.String(), CategoryBilling, nil,
		"authority", m.Authority.String(),
		"token_mint", m.TokenMint.String(),
		"config", c.Address.String(),
		"product_name", c.ProductName,
	)
}

// OnConfigCreated implements plugin.OnConfigCreated.
func (e *Extension) OnConfigCreated(ctx context.Context, c *merchant.Config) error {
	return e.record(ctx, ActionConfigCreated, SeverityInfo, OutcomeSuccess,
		ResourceConfig, c.Address.String(), CategoryBilling, nil,
		"merchant", c.Merchant.String(),
		"product_name", c.ProductName,
		"price", c.Price,
		"interval_days", c.IntervalDays,
	)
}

// OnConfigUpdated implements plugin.OnConfigUpdated. Turning a config off is
// recorded as a deactivation at warning severity.
func (e *Extension) OnConfigUpdated(ctx context.Context, oldConfig, newConfig *merchant.Config) error {
	action, severity := ActionConfigUpdated, SeverityInfo
	if oldConfig.Active && !newConfig.Active {
		action, severity = ActionConfigDeactivated, SeverityWarning
	}
	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceConfig, newConfig.Address.String(), CategoryBilling, nil,
		"old_price", oldConfig.Price,
		"new_price", newConfig.Price,
		"old_interval_days", oldConfig.IntervalDays,
		"new_interval_days", newConfig.IntervalDays,
		"active", newConfig.Active,
	)
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription, r *payment.Receipt) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.Address.String(), CategorySubscription, nil,
		"subscriber", sub.Subscriber.String(),
		"config", sub.Config.String(),
		"expiry_timestamp", sub.ExpiryTimestamp,
		"amount", r.Transfer.Amount,
		"receipt", r.ID.String(),
	)
}

// OnSubscriptionRenewed implements plugin.OnSubscriptionRenewed.
func (e *Extension) OnSubscriptionRenewed(ctx context.Context, sub *subscription.Subscription, r *payment.Receipt) error {
	return e.record(ctx, ActionSubscriptionRenewed, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.Address.String(), CategorySubscription, nil,
		"subscriber", sub.Subscriber.String(),
		"expiry_timestamp", sub.ExpiryTimestamp,
		"total_paid", sub.TotalPaid,
		"amount", r.Transfer.Amount,
		"receipt", r.ID.String(),
	)
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (e *Extension) OnSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCanceled, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.Address.String(), CategorySubscription, nil,
		"subscriber", sub.Subscriber.String(),
		"expiry_timestamp", sub.ExpiryTimestamp,
	)
}

// ──────────────────────────────────────────────────
// Entitlement & payment hooks
// ──────────────────────────────────────────────────

// OnEntitlementChecked implements plugin.OnEntitlementChecked.
// Only denied checks are audited.
func (e *Extension) OnEntitlementChecked(ctx context.Context, result *entitlement.Result) error {
	if result.Entitled {
		return nil
	}
	return e.record(ctx, ActionEntitlementDenied, SeverityInfo, OutcomeFailure,
		ResourceEntitlement, result.Subscription.String(), CategoryAccess, nil,
		"subscriber", result.Subscriber.String(),
		"state", string(result.State),
		"reason", result.Reason,
	)
}

// OnPaymentFailed implements plugin.OnPaymentFailed.
func (e *Extension) OnPaymentFailed(ctx context.Context, t payment.Transfer, err error) error {
	return e.record(ctx, ActionPaymentFailed, SeverityError, OutcomeFailure,
		ResourcePayment, t.Reference, CategoryPayment, err,
		"from", t.From.String(),
		"to", t.To.String(),
		"amount", t.Amount,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditID().String(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
