package middlewares

const (
	CtxUserID    = "auth.userID"
	CtxRole      = "auth.role"
	CtxEmail     = "auth.email"
	CtxStation   = "auth.station"
	CtxRequestID = "request_id"
)
