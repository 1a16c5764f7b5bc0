package router

// Logger defines the logging surface of the router.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=router
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
