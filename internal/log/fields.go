package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldUserID    = "user_id"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldSequence  = "seq"
	FieldCount     = "count"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentGateway    = "gateway"
	ComponentSession    = "session"
	ComponentPrediction = "prediction"
	ComponentForm       = "form"
	ComponentDashboard  = "dashboard"
	ComponentNotify     = "notify"
	ComponentExport     = "export"
)

// Operations defines standard operation names
const (
	OpLogin    = "login"
	OpLogout   = "logout"
	OpRegister = "register"
	OpCreate   = "create"
	OpList     = "list"
	OpPredict  = "predict"
	OpRefresh  = "refresh"
	OpExport   = "export"
	OpPublish  = "publish"
)
