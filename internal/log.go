// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package internal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
)

// Singleton log writer. Writes to stdout, and optionally to a file.
// Does not add prefixes, or force newlines. Safe for use from grid workers.

var logMutex  sync.Mutex
var logStdout io.Writer=os.Stdout

// The optional additional file to log into
var logFile   *bufio.Writer
var logFileOS *os.File

// Enables logging to file, closing any previous log file
func LogAlsoToFile(fileName string) error {
	logMutex.Lock()
	defer logMutex.Unlock()
	if err:=closeLogFile(); err!=nil { return err }
	f, err:=os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err!=nil { return errors.Wrapf(err, "opening log file %s", fileName) }
	logFileOS=f
	logFile=bufio.NewWriter(f)
	return nil
}

// Flushes and closes the log file, if any. Caller holds logMutex
func closeLogFile() error {
	if logFile==nil { return nil }
	err:=logFile.Flush()
	if cerr:=logFileOS.Close(); err==nil { err=cerr }
	logFile, logFileOS=nil, nil
	return errors.Wrap(err, "closing log file")
}

// A writer which duplicates into the log file. Handed to long-running operations as logWriter
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	logMutex.Lock()
	defer logMutex.Unlock()
	n, err=logStdout.Write(p)
	if err!=nil || logFile==nil { return n, err }
	return logFile.Write(p)
}

// Returns the log as an io.Writer
func LogWriter() io.Writer {
	return logWriter{}
}

func LogPrint(args ...interface{}) (n int, err error) {
	return fmt.Fprint(logWriter{}, args...)
}

func LogPrintln(args ...interface{}) (n int, err error) {
	return fmt.Fprintln(logWriter{}, args...)
}

func LogPrintf(format string, args ...interface{}) (n int, err error) {
	return fmt.Fprintf(logWriter{}, format, args...)
}

// Logs a warning which does not stop processing, such as a non-converged inversion
func LogWarnf(format string, args ...interface{}) {
	fmt.Fprintf(logWriter{}, "Warning: "+format, args...)
}

func LogFatal(args ...interface{}) {
	fmt.Fprintln(logWriter{}, args...)
	LogClose()
	os.Exit(1)
}

func LogFatalf(format string, args ...interface{}) {
	fmt.Fprintf(logWriter{}, format, args...)
	LogClose()
	os.Exit(1)
}

// Flushes pending log output to disk
func LogSync() {
	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile==nil { return }
	logFile.Flush()
	logFileOS.Sync()
}

// Flushes and closes the log file. Logging continues on stdout
func LogClose() error {
	logMutex.Lock()
	defer logMutex.Unlock()
	return closeLogFile()
}
