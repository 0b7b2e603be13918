package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldRevision    = "revision"
	FieldReason      = "reason"
	FieldBackend     = "backend"
	FieldKey         = "key"
	FieldBytes       = "bytes"
	FieldImported    = "imported"
	FieldSkipped     = "skipped"
	FieldRows        = "rows"
	FieldTransaction = "transaction_id"
	FieldGoal        = "goal_id"
	FieldMonth       = "month"
	FieldCategory    = "category_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStore   = "store"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpApply    = "apply"
	OpReset    = "reset"
	OpImport   = "import"
	OpExport   = "export"
	OpMirror   = "mirror"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
