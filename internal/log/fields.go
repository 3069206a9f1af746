package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldUserID     = "user_id"
	FieldBillID     = "bill_id"
	FieldBudgetID   = "budget_id"
	FieldEvent      = "event"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentNotify  = "notify"
	ComponentBudget  = "budget"
	ComponentBill    = "bill"
	ComponentWorker  = "worker"
	ComponentAuth    = "auth"
)
