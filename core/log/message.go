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
	"bytes"
	"fmt"
	"sort"
	"time"
)

// Message is a single log entry.
type Message struct {
	// Text is the message body.
	Text string
	// Time is the time the message was logged.
	Time time.Time
	// Severity is the importance of the message.
	Severity Severity
	// Tag is the optional identifier of the message source.
	Tag string
	// Values is the list of key-value pairs bound to the logging context.
	Values []Value
	// StopProcess is true if the message indicates the process should stop.
	StopProcess bool
}

// Value is a named value attached to a Message.
type Value struct {
	Name  string
	Value interface{}
}

// Style is a function that prints a message to a string.
type Style func(*Message) string

// Brief prints only the severity and text of the message.
func Brief(m *Message) string {
	return fmt.Sprintf("%s: %s", m.Severity.Short(), m.Text)
}

// Normal prints the severity, tag, text and values of the message.
func Normal(m *Message) string {
	buf := bytes.Buffer{}
	buf.WriteString(m.Severity.Short())
	if m.Tag != "" {
		fmt.Fprintf(&buf, " [%s]", m.Tag)
	}
	buf.WriteString(": ")
	buf.WriteString(m.Text)
	for _, v := range m.Values {
		fmt.Fprintf(&buf, " %s=%v", v.Name, v.Value)
	}
	return buf.String()
}

// Detailed prints everything Normal prints, prefixed with the time.
func Detailed(m *Message) string {
	return m.Time.Format("15:04:05.000") + " " + Normal(m)
}

func (m *Message) sortValues() {
	sort.Slice(m.Values, func(i, j int) bool { return m.Values[i].Name < m.Values[j].Name })
}
