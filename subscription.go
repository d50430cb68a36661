package subwave

import (
	"context"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/subscription"
)

// ──────────────────────────────────────────────────
// Subscription Lifecycle
// ──────────────────────────────────────────────────

// Subscribe opens the subscriber's subscription to a config and collects the
// first payment. The payment is taken only after every check passes, and the
// subscription is created only if the payment succeeded. If the commit fails
// after payment, the payment is reversed when the gateway supports it.
func (e *Engine) Subscribe(ctx context.Context, subscriber, configAddr address.Address) (*subscription.Subscription, error) {
	subAddr := address.SubscriptionAddress(subscriber, configAddr)

	var (
		sub  *subscription.Subscription
		rcpt *payment.Receipt
	)

	err := e.withLock(ctx, func() error {
		cfg, err := e.records.getConfig(ctx, configAddr)
		if err != nil {
			return err
		}
		if !cfg.Active {
			return ErrSubscriptionInactive
		}

		m, err := e.records.getMerchant(ctx, cfg.Merchant)
		if err != nil {
			return err
		}

		if _, err := e.records.getSubscription(ctx, subAddr); err == nil {
			return ErrAlreadyExists
		} else if !isNotFound(err) {
			return err
		}

		now := e.clock.Now()
		expiry, ok := subscription.ExpiryFrom(now, cfg.IntervalDays)
		if !ok {
			return ErrMathOverflow
		}

		next := &subscription.Subscription{
			Address:         subAddr,
			Subscriber:      subscriber,
			Merchant:        m.Address,
			Config:          cfg.Address,
			StartTimestamp:  now,
			ExpiryTimestamp: expiry,
			Active:          true,
			TotalPaid:       cfg.Price,
		}

		rcpt, err = e.pay(ctx, payment.Transfer{
			From:      subscriber,
			To:        m.Authority,
			Mint:      m.TokenMint,
			Amount:    cfg.Price,
			Authority: subscriber,
			Reference: paymentReference(subAddr, "subscribe", next.TotalPaid),
		})
		if err != nil {
			return err
		}

		if err := e.records.createSubscription(ctx, next); err != nil {
			e.compensate(ctx, rcpt, err)
			return err
		}
		sub = next
		return nil
	}, subAddr)
	if err != nil {
		return nil, err
	}

	e.logger.Info("subscription created",
		"subscription", sub.Address.String(),
		"subscriber", subscriber.String(),
		"config", configAddr.String(),
		"expiry", sub.ExpiryTimestamp,
		"receipt", rcpt.ID.String(),
	)
	e.plugins.EmitSubscriptionCreated(ctx, sub, rcpt)

	return sub, nil
}

// Renew extends an active subscription by one interval and collects the
// price. An unexpired subscription extends from its current expiry; an
// expired one extends from now, so the lapsed gap is never granted.
func (e *Engine) Renew(ctx context.Context, subscriber, subAddr address.Address) (*subscription.Subscription, error) {
	var (
		sub  *subscription.Subscription
		rcpt *payment.Receipt
	)

	err := e.withLock(ctx, func() error {
		cur, err := e.records.getSubscription(ctx, subAddr)
		if err != nil {
			return err
		}
		if cur.Subscriber != subscriber {
			return ErrUnauthorized
		}
		if !cur.Active {
			return ErrSubscriptionInactive
		}

		cfg, err := e.records.getConfig(ctx, cur.Config)
		if err != nil {
			return err
		}
		if !cfg.Active {
			return ErrSubscriptionInactive
		}

		m, err := e.records.getMerchant(ctx, cur.Merchant)
		if err != nil {
			return err
		}

		base := subscription.RenewalBase(cur.ExpiryTimestamp, e.clock.Now())
		expiry, ok := subscription.ExpiryFrom(base, cfg.IntervalDays)
		if !ok {
			return ErrMathOverflow
		}
		total, ok := subscription.AddPaid(cur.TotalPaid, cfg.Price)
		if !ok {
			return ErrMathOverflow
		}

		next := *cur
		next.ExpiryTimestamp = expiry
		next.TotalPaid = total

		rcpt, err = e.pay(ctx, payment.Transfer{
			From:      subscriber,
			To:        m.Authority,
			Mint:      m.TokenMint,
			Amount:    cfg.Price,
			Authority: subscriber,
			Reference: paymentReference(subAddr, "renew", total),
		})
		if err != nil {
			return err
		}

		if err := e.records.updateSubscription(ctx, &next); err != nil {
			e.compensate(ctx, rcpt, err)
			return err
		}
		sub = &next
		return nil
	}, subAddr)
	if err != nil {
		return nil, err
	}

	e.logger.Info("subscription renewed",
		"subscription", subAddr.String(),
		"expiry", sub.ExpiryTimestamp,
		"total_paid", sub.TotalPaid,
		"receipt", rcpt.ID.String(),
	)
	e.plugins.EmitSubscriptionRenewed(ctx, sub, rcpt)

	return sub, nil
}

// Cancel ends a subscription. Only its subscriber may cancel it, cancellation
// is terminal, and nothing is refunded. Canceling twice fails with
// ErrSubscriptionAlreadyCanceled.
func (e *Engine) Cancel(ctx context.Context, subscriber, subAddr address.Address) (*subscription.Subscription, error) {
	var sub *subscription.Subscription

	err := e.withLock(ctx, func() error {
		cur, err := e.records.getSubscription(ctx, subAddr)
		if err != nil {
			return err
		}
		if cur.Subscriber != subscriber {
			return ErrUnauthorized
		}
		if !cur.Active {
			return ErrSubscriptionAlreadyCanceled
		}

		cur.Active = false
		if err := e.records.updateSubscription(ctx, cur); err != nil {
			return err
		}
		sub = cur
		return nil
	}, subAddr)
	if err != nil {
		return nil, err
	}

	e.logger.Info("subscription canceled",
		"subscription", subAddr.String(),
		"subscriber", subscriber.String(),
	)
	e.plugins.EmitSubscriptionCanceled(ctx, sub)

	return sub, nil
}

// CheckEntitlement reports whether a subscription grants access now.
//
// The check is unauthenticated. Any party holding the subscription's address
// may ask.
func (e *Engine) CheckEntitlement(ctx context.Context, subAddr address.Address) (*entitlement.Result, error) {
	sub, err := e.records.getSubscription(ctx, subAddr)
	if err != nil {
		return nil, err
	}

	result := entitlement.Evaluate(sub, e.clock.Now())

	e.logger.Debug("entitlement checked",
		"subscription", subAddr.String(),
		"entitled", result.Entitled,
		"expiry", result.ExpiryTimestamp,
	)
	e.plugins.EmitEntitlementChecked(ctx, result)

	return result, nil
}

// Entitled reports whether subscriber currently holds valid entitlement to
// the config. A subscriber that never subscribed is not entitled.
func (e *Engine) Entitled(ctx context.Context, subscriber, configAddr address.Address) (bool, error) {
	result, err := e.CheckEntitlement(ctx, address.SubscriptionAddress(subscriber, configAddr))
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return result.Entitled, nil
}

// GetSubscription retrieves a subscription by address.
func (e *Engine) GetSubscription(ctx context.Context, addr address.Address) (*subscription.Subscription, error) {
	return e.records.getSubscription(ctx, addr)
}
