package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
)

var (
	loggerMu  sync.RWMutex
	sysLogger = newSysLogger(os.Stdout, os.Stderr)

	warnTag  = color.New(color.FgYellow).SprintFunc()
	errorTag = color.New(color.FgHiRed).SprintFunc()
	fatalTag = color.New(color.FgRed, color.Bold).SprintFunc()
)

type splitLogger struct {
	info *slog.Logger
	err  *slog.Logger
}

func newSysLogger(out, errOut io.Writer) splitLogger {
	return splitLogger{
		info: slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})),
		err:  slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// SetupGinLog routes both gin's request log and the system log to the same
// writers. Call it once before the router is created.
func SetupGinLog() {
	SetLogOutput(os.Stdout, os.Stderr)
}

// SetLogOutput redirects the system log. Tests use it to capture output.
func SetLogOutput(out, errOut io.Writer) {
	gin.DefaultWriter = out
	gin.DefaultErrorWriter = errOut

	loggerMu.Lock()
	sysLogger = newSysLogger(out, errOut)
	loggerMu.Unlock()
}

func current() splitLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return sysLogger
}

func SysLog(msg string, args ...any) {
	current().info.Info(msg, args...)
}

func SysWarn(msg string, args ...any) {
	current().err.Warn(warnTag("[WARN] ")+msg, args...)
}

func SysError(msg string, args ...any) {
	current().err.Error(errorTag("[ERR] ")+msg, args...)
}

func FatalLog(v ...any) {
	current().err.Error(fatalTag("[FATAL] ") + fmt.Sprint(v...))
	os.Exit(1)
}
