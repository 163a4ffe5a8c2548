// Copyright (C) 2024 The Basalt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Handler is the interface implemented by types that process log messages.
type Handler interface {
	Handle(*Message)
	Close()
}

type handler struct {
	handle func(*Message)
	close  func()
}

func (h handler) Handle(m *Message) { h.handle(m) }
func (h handler) Close()            { h.close() }

// NewHandler returns a Handler that calls handle for each message and close
// when the handler is closed. close may be nil.
func NewHandler(handle func(*Message), close func()) Handler {
	if close == nil {
		close = func() {}
	}
	return handler{handle, close}
}

// Writer returns a Handler that writes each message to w using the style s.
func Writer(s Style, w io.Writer) Handler {
	mutex := sync.Mutex{}
	return NewHandler(func(m *Message) {
		mutex.Lock()
		defer mutex.Unlock()
		fmt.Fprintln(w, s(m))
	}, nil)
}

// Stdout returns a Handler that writes to os.Stdout.
func Stdout(s Style) Handler { return Writer(s, os.Stdout) }

// Stderr returns a Handler that writes to os.Stderr.
func Stderr(s Style) Handler { return Writer(s, os.Stderr) }

// Fork returns a Handler that forwards each message to all of handlers.
func Fork(handlers ...Handler) Handler {
	return NewHandler(func(m *Message) {
		for _, h := range handlers {
			h.Handle(m)
		}
	}, func() {
		for _, h := range handlers {
			h.Close()
		}
	})
}
