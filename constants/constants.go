package constants

// Order methods accepted by the checkout form.
const (
	ORDER_METHOD_ONLINE = "online"
	ORDER_METHOD_COD    = "cod"
)

var ORDER_METHODS = []string{ORDER_METHOD_ONLINE, ORDER_METHOD_COD}

// Page titles and messages
const (
	TITLE_CONFIRM_ORDER          = "Confirm Order"
	TITLE_CHECKOUT_FAILED        = "Payment checkout failed"
	TITLE_VERIFY_SUCCESS         = "Payment verification successful"
	TITLE_VERIFY_FAILED          = "Payment verification failed"
	TITLE_MY_ORDERS              = "My Orders"
	MESSAGE_CANT_PLACE_ORDER     = "Can't place order :("
	MESSAGE_PLEASE_LOGIN         = "Please log in to continue"
	MESSAGE_MISSING_PHONE_ADDR   = "Phone or Address are required"
	MESSAGE_INVALID_ORDER_METHOD = "Invalid order method"
	MESSAGE_PAYMENT_UNMATCHED    = "Payment received but no matching checkout was found"
	MESSAGE_PAYMENT_REJECTED     = "Payment could not be verified"
	ERROR_INTERNAL_ERROR         = "Internal server error"
	ERROR_INPUT                  = "Invalid input"
	NOT_FOUND_RECORDS            = "Record not found"
	UNAUTHORIZED                 = "Unauthorized"
	SERVICE_UNAVAILABLE          = "Service unavailable"
)

// Template names
const (
	VIEW_CHECKOUT       = "payment/checkout"
	VIEW_PAYMENT_FAIL   = "payment/fail"
	VIEW_PAYMENT_OK     = "payment/success"
	VIEW_CUSTOMER_ORDER = "customers/order"
	VIEW_ERROR          = "error"
	VIEW_LAYOUT         = "layouts/main"
)

const ROLE_ADMIN = "ADMIN"

// Redis keys and channels
const (
	REDIS_KEY_CART        = "cart:"
	REDIS_KEY_VERIFY_LOCK = "payment:verify:"
	REDIS_CHANNEL_ORDERS  = "orders:placed"
	EVENT_ORDER_PLACED    = "order.placed"
	SESSION_COOKIE        = "sid"
	ORDER_CODE_PREFIX     = "ORD-"
)
