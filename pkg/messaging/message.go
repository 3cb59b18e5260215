// ============================================================================
// Messaging - Asynchronous Message Records
// ============================================================================
//
// Package: pkg/messaging
// File: message.go
// Purpose: The message record shared by sources, queues and writers
//
// The messaging layer is a collaborator built on the asyncq core: sources
// push Message records into a managed queue, and writers are ordinary
// asyncq consumers. Application goroutines therefore never block on or
// interleave their output.
//
// ============================================================================

package messaging

import "time"

// Message is one line of job output together with its context.
type Message struct {
	// Source is the name of the component that generated the message.
	Source string
	// Time is when the message was generated.
	Time time.Time
	// Level is the severity of the message.
	Level Level
	// Text is the message body. It may span multiple lines.
	Text string
}
