package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldIncomeID    = "income_id"
	FieldCategoryID  = "category_id"
	FieldGoalID      = "goal_id"
	FieldDebtID      = "debt_id"
	FieldAmountCents = "amount_cents"
	FieldEventKind   = "event_kind"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentDashboard = "dashboard"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpActivate = "activate"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
