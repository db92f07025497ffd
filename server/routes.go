package server

import (
	"path"
	"strings"
)

// systemPaths are the operational endpoints registered by
// RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health":  true,
	"/info":    true,
	"/metrics": true,
	"/alive":   true,
	"/ready":   true,
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}

// formatHandlerName trims a Gin handler name such as
// "github.com/kbukum/licensing/license.(*Handler).Get-fm" to "license.Get".
// Closure suffixes (".func1") are dropped.
func formatHandlerName(name string) string {
	name = path.Base(name)
	name = strings.TrimSuffix(name, "-fm")
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return name
	}
	last := len(parts) - 1
	for last > 1 && isClosure(parts[last]) {
		last--
	}
	return parts[0] + "." + parts[last]
}

func isClosure(s string) bool {
	digits := strings.TrimPrefix(s, "func")
	return digits != "" && strings.Trim(digits, "0123456789") == ""
}
