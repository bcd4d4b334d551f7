package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	once   sync.Once
	logger *log.Logger
)

func Init() {
	once.Do(func() {
		logger = log.New(os.Stdout, "APP_LOG: ", log.LstdFlags|log.Lshortfile)
	})
}

// SetOutput redirects the package logger, mainly for tests.
func SetOutput(w io.Writer) {
	Init()
	logger.SetOutput(w)
}

// Writer exposes the underlying output so other loggers (gin) can share it.
func Writer() io.Writer {
	Init()
	return logger.Writer()
}

func Info(message string, v ...interface{}) {
	output("INFO: "+message, v...)
}

func Warn(message string, v ...interface{}) {
	output("WARN: "+message, v...)
}

func Error(message string, v ...interface{}) {
	output("ERROR: "+message, v...)
}

func Debug(message string, v ...interface{}) {
	output("DEBUG: "+message, v...)
}

func output(message string, v ...interface{}) {
	if logger == nil {
		Init()
	}
	// skip output and the level helper so Lshortfile points at the caller
	_ = logger.Output(3, fmt.Sprintf(message, v...))
}
