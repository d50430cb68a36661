package audithook

// Action constants for audit events.
const (
	// Merchant actions
	ActionMerchantRegistered = "merchant.registered"

	// Config actions
	ActionConfigCreated     = "config.created"
	ActionConfigUpdated     = "config.updated"
	ActionConfigDeactivated = "config.deactivated"

	// Subscription actions
	ActionSubscriptionCreated  = "subscription.created"
	ActionSubscriptionRenewed  = "subscription.renewed"
	ActionSubscriptionCanceled = "subscription.canceled"

	// Entitlement actions
	ActionEntitlementDenied = "entitlement.denied"

	// Payment actions
	ActionPaymentFailed = "payment.failed"
)

// Resource constants for audit events.
const (
	ResourceMerchant     = "merchant"
	ResourceConfig       = "config"
	ResourceSubscription = "subscription"
	ResourceEntitlement  = "entitlement"
	ResourcePayment      = "payment"
)

// Category constants for audit events.
const (
	CategoryBilling      = "billing"
	CategorySubscription = "subscription"
	CategoryAccess       = "access"
	CategoryPayment      = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
