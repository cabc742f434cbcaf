package logflags

import (
	"errors"
	"io"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var native = false
var procfs = false
var inject = false
var terminal = false

var logOut io.WriteCloser

func makeLogger(level logrus.Level, fields Fields) Logger {
	if lf := loggerFactory; lf != nil {
		return lf(level, fields, logOut)
	}
	var out io.Writer
	if logOut != nil {
		out = logOut
	}
	return defaultLoggerFactory(level, fields, out)
}

func makeFlaggableLogger(flag bool, fields Fields) Logger {
	level := logrus.ErrorLevel
	if flag {
		level = logrus.DebugLevel
	}
	return makeLogger(level, fields)
}

// Native returns true if the ptrace backend should log every request it
// issues and every stop it observes.
func Native() bool {
	return native
}

// NativeLogger returns a logger for the ptrace backend.
func NativeLogger() Logger {
	return makeFlaggableLogger(native, Fields{"layer": "native"})
}

// Procfs returns true if process name resolution should be logged.
func Procfs() bool {
	return procfs
}

// ProcfsLogger returns a logger for the /proc resolver.
func ProcfsLogger() Logger {
	return makeFlaggableLogger(procfs, Fields{"layer": "procfs"})
}

// Inject returns true if call and push injection should be logged.
func Inject() bool {
	return inject
}

// InjectLogger returns a logger for call and push injection.
func InjectLogger() Logger {
	return makeFlaggableLogger(inject, Fields{"layer": "proc", "kind": "inject"})
}

// Terminal returns true if the interactive console should log dispatch
// decisions.
func Terminal() bool {
	return terminal
}

// TerminalLogger returns a logger for the interactive console.
func TerminalLogger() Logger {
	return makeFlaggableLogger(terminal, Fields{"layer": "terminal"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets the logging flags based on the contents of logstr.
// If logDest is not empty logs will be redirected to the file descriptor or
// file path specified by logDest.
func Setup(logFlag bool, logstr, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "ptracectl-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return err
			}
			logOut = fh
		}
	}
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(ioutil.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logOut != nil {
		log.SetOutput(logOut)
	}
	if logstr == "" {
		logstr = "native"
	}
	v := strings.Split(logstr, ",")
	for _, logcmd := range v {
		switch logcmd {
		case "native":
			native = true
		case "procfs":
			procfs = true
		case "inject":
			inject = true
		case "terminal":
			terminal = true
		}
	}
	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != nil {
		logOut.Close()
	}
}
