package constants

import "github.com/go-playground/validator/v10"

// Validate is the process-wide validator instance used by request DTOs.
var Validate = validator.New()

type ContextKey string

const (
	AppKey       ContextKey = "app"
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	LoggerKey    ContextKey = "logger"
	ParamsKey    ContextKey = "params"
	RequestStart ContextKey = "requestStart"
)
