package subwave

import (
	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/subscription"
)

// Re-export common types for convenience so users don't have to import the
// model packages.

// Address is re-exported from the address package.
type Address = address.Address

// Merchant is re-exported from the merchant package.
type Merchant = merchant.Merchant

// Config is re-exported from the merchant package.
type Config = merchant.Config

// ConfigPatch is re-exported from the merchant package.
type ConfigPatch = merchant.ConfigPatch

// Subscription is re-exported from the subscription package.
type Subscription = subscription.Subscription

// EntitlementResult is re-exported from the entitlement package.
type EntitlementResult = entitlement.Result

// Receipt is re-exported from the payment package.
type Receipt = payment.Receipt

// Re-export address helpers.
var (
	ParseAddress        = address.Parse
	MerchantAddress     = address.MerchantAddress
	ConfigAddress       = address.ConfigAddress
	SubscriptionAddress = address.SubscriptionAddress
)
