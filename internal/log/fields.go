package log

// Field names shared across components.
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
	FieldPaymentID   = "payment_id"
	FieldInternID    = "intern_id"
	FieldClientID    = "client_id"
	FieldProjectID   = "project_id"
	FieldAmountPaise = "amount_paise"
	FieldOrigin      = "origin"
	FieldAction      = "action"
	FieldSheetsRef   = "sheets_ref"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentReports   = "reports"
	ComponentExport    = "export"
	ComponentRateLimit = "rate_limit"
)

// Operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSync     = "sync"
	OpRepair   = "repair"
	OpMirror   = "mirror"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields builds a key/value list for slog calls.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithPayment(paymentID string, amountPaise int64, origin string) LogFields {
	f[FieldPaymentID] = paymentID
	f[FieldAmountPaise] = amountPaise
	f[FieldOrigin] = origin
	return f
}

// ToSlice flattens the map into alternating key/value pairs for slog.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
