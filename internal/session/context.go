// Package session tracks what the process is currently working on so every
// log record can carry it.
package session

import (
	"log/slog"
	"sync"
)

// Context holds the current command and recording state
type Context struct {
	mu        sync.RWMutex
	command   string
	recording string
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{}
}

// SetCommand sets the command currently executing
func (c *Context) SetCommand(command string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.command = command
}

// Command returns the command currently executing
func (c *Context) Command() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.command
}

// SetRecording sets the recording currently being processed
func (c *Context) SetRecording(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = name
}

// Recording returns the recording currently being processed
func (c *Context) Recording() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recording
}

// Attrs returns the non-empty state as slog attributes.
func (c *Context) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var attrs []slog.Attr
	if c.command != "" {
		attrs = append(attrs, slog.String("command", c.command))
	}
	if c.recording != "" {
		attrs = append(attrs, slog.String("recording", c.recording))
	}
	return attrs
}
