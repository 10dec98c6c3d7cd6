// Package comm carries commands and feedback between the planner and the
// renderer over bounded SPSC rings. Delivery within a direction is FIFO;
// under backpressure sends fail fast and the producer decides whether to
// retry, coalesce, or drop.
package comm

import "github.com/peekandpoke/klang-go/internal/voice"

// DefaultCapacity is the per-direction queue size used when the player
// does not override it.
const DefaultCapacity = 8192

// Cmd is a planner-to-renderer message.
type Cmd interface{ isCmd() }

// ScheduleVoice inserts one scheduled voice, optionally clearing pending
// voices with the same playback ID first.
type ScheduleVoice struct {
	Voice          voice.ScheduledVoice
	ClearScheduled bool
}

// ReplaceVoices atomically swaps all pending voices of one playback ID.
type ReplaceVoices struct {
	PlaybackID string
	Voices     []voice.ScheduledVoice
}

// ClearScheduled drops pending voices for the playback ID without touching
// active ones.
type ClearScheduled struct {
	PlaybackID string
}

// Cleanup drops pending voices and forces active ones of the playback ID
// into their release stage.
type Cleanup struct {
	PlaybackID string
}

// SampleComplete delivers resolved sample data for an earlier request.
type SampleComplete struct {
	Request voice.SampleRequest
	Note    string
	PitchHz float64
	Pcm     *voice.MonoSamplePcm
}

// SampleNotFound reports that a sample request resolved to nothing.
type SampleNotFound struct {
	Request voice.SampleRequest
}

func (ScheduleVoice) isCmd()  {}
func (ReplaceVoices) isCmd()  {}
func (ClearScheduled) isCmd() {}
func (Cleanup) isCmd()        {}
func (SampleComplete) isCmd() {}
func (SampleNotFound) isCmd() {}

// Feed is a renderer-to-planner message.
type Feed interface{ isFeed() }

// UpdateCursorFrame publishes the renderer cursor after each block.
type UpdateCursorFrame struct {
	Frame int64
}

// RequestSample asks the planner to resolve a sample the renderer does not
// hold yet.
type RequestSample struct {
	Request voice.SampleRequest
}

func (UpdateCursorFrame) isFeed() {}
func (RequestSample) isFeed()     {}

// Link is the duplex channel joining the planner and the renderer.
type Link struct {
	control  *Ring[Cmd]
	feedback *Ring[Feed]
}

// NewLink creates a link with the given per-direction capacity.
func NewLink(capacity int) *Link {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Link{
		control:  NewRing[Cmd](capacity),
		feedback: NewRing[Feed](capacity),
	}
}

// SendCmd enqueues a command for the renderer. False means the control
// queue is full.
func (l *Link) SendCmd(c Cmd) bool { return l.control.Send(c) }

// ReceiveCmd dequeues the next command on the renderer side.
func (l *Link) ReceiveCmd() (Cmd, bool) { return l.control.Receive() }

// SendFeed enqueues feedback for the planner. False means the feedback
// queue is full.
func (l *Link) SendFeed(f Feed) bool { return l.feedback.Send(f) }

// ReceiveFeed dequeues the next feedback message on the planner side.
func (l *Link) ReceiveFeed() (Feed, bool) { return l.feedback.Receive() }
