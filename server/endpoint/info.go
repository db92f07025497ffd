package endpoint

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// startTime records when the process started for uptime calculation.
var startTime = time.Now()

// Info returns a handler that reports the service version and the VCS
// revision embedded by the Go toolchain.
func Info(serviceName, version string) gin.HandlerFunc {
	revision, modified, goVersion := buildInfo()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    version,
			"git_commit": revision,
			"is_dirty":   modified,
			"go_version": goVersion,
			"uptime":     time.Since(startTime).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func buildInfo() (revision string, modified bool, goVersion string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false, ""
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	return revision, modified, bi.GoVersion
}
