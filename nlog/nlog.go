// Package nlog is the engine's own logger: leveled, verbosity-gated, and
// cheap enough to call from a hot dispatch path without a third-party
// logging dependency.
package nlog

import (
	"log"
	"os"
	"sync/atomic"
)

type severity int32

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var (
	std   = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	level int32 // atomic verbosity threshold; V(n) logs iff n <= level
)

// SetVerbosity sets the global verbosity threshold used by V().
func SetVerbosity(v int) { atomic.StoreInt32(&level, int32(v)) }

func write(sev severity, format string, args ...any) {
	prefix := "I "
	switch sev {
	case sevWarn:
		prefix = "W "
	case sevErr:
		prefix = "E "
	}
	if format == "" {
		std.Println(append([]any{prefix}, args...)...)
		return
	}
	std.Printf(prefix+format+"\n", args...)
}

func Infoln(args ...any)                  { write(sevInfo, "", args...) }
func Infof(format string, args ...any)    { write(sevInfo, format, args...) }
func Warningln(args ...any)               { write(sevWarn, "", args...) }
func Warningf(format string, args ...any) { write(sevWarn, format, args...) }
func Errorln(args ...any)                 { write(sevErr, "", args...) }
func Errorf(format string, args ...any)   { write(sevErr, format, args...) }

// Verbose gates a block of logging behind a verbosity threshold, mirroring
// glog/nlog-style "V(n).Infoln(...)" call sites without allocating a new
// logger per call when the level isn't enabled.
type Verbose bool

func V(v int) Verbose { return Verbose(int32(v) <= atomic.LoadInt32(&level)) }

func (vb Verbose) Infoln(args ...any) {
	if vb {
		write(sevInfo, "", args...)
	}
}

func (vb Verbose) Infof(format string, args ...any) {
	if vb {
		write(sevInfo, format, args...)
	}
}
