/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package klog is a trimmed descendant of the teacher's ingest/log
// package: leveled, RFC5424-framed diagnostic logging. Unlike the
// teacher's logger, klog never participates in kernel control flow — the
// kernel's correctness never depends on whether a log line was written —
// and it drops the multi-writer/relay machinery the ingest daemons need
// but a library does not.
package klog

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Level mirrors ingest/log.Level.
type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	}
	return rfc5424.User | rfc5424.Debug
}

func (l Level) String() string {
	switch l {
	case OFF:
		return "OFF"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Logger is a minimal RFC5424 writer. The zero value is not usable; build
// one with New or Discard.
type Logger struct {
	mtx      sync.Mutex
	wtr      io.Writer
	lvl      Level
	hostname string
	appname  string
}

// New builds a Logger at INFO level writing RFC5424-framed lines to wtr.
func New(wtr io.Writer) *Logger {
	hostname, _ := os.Hostname()
	return &Logger{wtr: wtr, lvl: INFO, hostname: hostname, appname: "amulet-core"}
}

// Discard returns a Logger whose output goes nowhere, the default a
// kernel.Config with no Logger set falls back to.
func Discard() *Logger {
	return New(io.Discard)
}

// SetLevel changes the minimum level this Logger emits.
func (l *Logger) SetLevel(lvl Level) {
	l.mtx.Lock()
	l.lvl = lvl
	l.mtx.Unlock()
}

func (l *Logger) emit(lvl Level, msgid, msg string) {
	if l == nil || l.lvl == OFF || lvl < l.lvl {
		return
	}
	m := rfc5424.Message{
		Priority:  lvl.priority(),
		Timestamp: time.Now(),
		Hostname:  l.hostname,
		AppName:   l.appname,
		MessageID: msgid,
		Message:   []byte(msg),
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	io.WriteString(l.wtr, strings.TrimRight(string(b), "\n\t\r"))
	io.WriteString(l.wtr, "\n")
}

func (l *Logger) Debug(msgid, msg string) { l.emit(DEBUG, msgid, msg) }
func (l *Logger) Info(msgid, msg string)  { l.emit(INFO, msgid, msg) }
func (l *Logger) Warn(msgid, msg string)  { l.emit(WARN, msgid, msg) }
func (l *Logger) Error(msgid, msg string) { l.emit(ERROR, msgid, msg) }
