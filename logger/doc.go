// Package logger provides structured logging on top of zerolog.
//
// Loggers are created once from Config and passed to the components that need
// them; WithComponent and WithContext derive child loggers that carry the
// component name, the request correlation id and the active trace ids.
//
//	log := logger.New(&cfg.Logging, "license-service")
//	svc := license.NewService(repo, selector, policies, log.WithComponent("license"))
package logger
