// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthForbiddenRole      = "auth.forbidden_role"

	// User Management
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserVerified       = "user.verification_updated"

	// Products
	KeyProductCreated     = "product.created"
	KeyProductUpdated     = "product.updated"
	KeyProductDeleted     = "product.deleted"
	KeyProductNotFound    = "product.not_found"
	KeyProductViewed      = "product.viewed"
	KeyProductReviewAdded = "product.review_added"
	KeyProductNotOwner    = "product.not_owner"
	KeyProductOpenOrders  = "product.has_open_orders"

	// Orders
	KeyOrderCreated           = "order.created"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderStatusUpdated     = "order.status_updated"
	KeyOrderCancelled         = "order.cancelled"
	KeyOrderInvalidTransition = "order.invalid_transition"
	KeyOrderInsufficientStock = "order.insufficient_stock"
	KeyOrderNotOwner          = "order.not_owner"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"
	KeyNotificationRead     = "notification.read"
	KeyNotificationAllRead  = "notification.all_read"
	KeyNotificationNotOwner = "notification.not_owner"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	// Per-rule messages are looked up as "validation.<tag>".
	KeyValidationPrefix = "validation."

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"

	// Generic
	KeyConflict      = "error.conflict"
	KeyInternalError = "error.internal"
	KeyRateLimited   = "error.rate_limited"
)
