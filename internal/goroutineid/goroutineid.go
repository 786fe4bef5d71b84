// Package goroutineid reports the identity of the calling goroutine.
//
// The bridge uses it for one purpose: detecting that a blocking round trip
// or a synchronous hop onto a confined execution context is being requested
// from that very context, which would otherwise deadlock.
package goroutineid

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64)
		return &b
	},
}

var stackPrefix = []byte("goroutine ")

// Get returns the current goroutine id, or 0 when it cannot be determined.
func Get() int64 {
	bp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bp)
	n := runtime.Stack(*bp, false)
	return parse((*bp)[:n])
}

// Is reports whether the calling goroutine has the given id. An id of 0
// never matches.
func Is(id int64) bool {
	return id != 0 && Get() == id
}

// parse reads the id from the "goroutine N [state]:" header of a stack dump.
func parse(stack []byte) int64 {
	rest, ok := bytes.CutPrefix(stack, stackPrefix)
	if !ok {
		return 0
	}
	end := bytes.IndexByte(rest, ' ')
	if end < 0 {
		end = len(rest)
	}
	id, err := strconv.ParseInt(string(rest[:end]), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
