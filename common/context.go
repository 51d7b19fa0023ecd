package common

type PhosioContextKey string

const (
	ContextLogger     PhosioContextKey = "phosio.logger"
	ContextAction     PhosioContextKey = "phosio.action"
	ContextRequest    PhosioContextKey = "phosio.request"
	ContextRequestId  PhosioContextKey = "phosio.request_id"
	ContextConfig     PhosioContextKey = "phosio.config"
	ContextSession    PhosioContextKey = "phosio.session"
	ContextStatusCode PhosioContextKey = "phosio.status_code"
	ContextStartTime  PhosioContextKey = "phosio.start_time"
)
