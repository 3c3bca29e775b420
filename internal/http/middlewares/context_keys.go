package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxSession   = "auth.session"
	CtxUserID    = "auth.userID"
)
