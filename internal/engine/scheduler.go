package engine

import (
	"container/heap"

	"github.com/peekandpoke/klang-go/internal/comm"
	"github.com/peekandpoke/klang-go/internal/voice"
)

// pendingVoice is one heap entry: a constructed voice waiting for the
// cursor to reach its start frame.
type pendingVoice struct {
	v Voice
}

// pendingHeap orders by start frame, breaking ties by arrival sequence so
// simultaneous voices render in FIFO order.
type pendingHeap []*pendingVoice

func (h pendingHeap) Len() int { return len(h) }
func (h pendingHeap) Less(i, j int) bool {
	si, sj := h[i].v.StartFrame(), h[j].v.StartFrame()
	if si != sj {
		return si < sj
	}
	return h[i].v.Seq() < h[j].v.Seq()
}
func (h pendingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *pendingHeap) Push(x any)   { *h = append(*h, x.(*pendingVoice)) }
func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// loadedSample is the renderer-side sample table entry.
type loadedSample struct {
	pitchHz float64
	pcm     *voice.MonoSamplePcm
}

// Scheduler turns commands into voices and walks them through pending and
// active life stages as the block cursor advances.
type Scheduler struct {
	sampleRate  int
	blockFrames int
	link        *comm.Link

	pending pendingHeap
	active  []Voice
	seq     uint64

	samples   map[voice.SampleRequest]*loadedSample
	waiting   map[voice.SampleRequest][]voice.ScheduledVoice
	requested map[voice.SampleRequest]bool
}

// NewScheduler creates an empty scheduler bound to the feedback side of
// the link.
func NewScheduler(sampleRate, blockFrames int, link *comm.Link) *Scheduler {
	return &Scheduler{
		sampleRate:  sampleRate,
		blockFrames: blockFrames,
		link:        link,
		samples:     map[voice.SampleRequest]*loadedSample{},
		waiting:     map[voice.SampleRequest][]voice.ScheduledVoice{},
		requested:   map[voice.SampleRequest]bool{},
	}
}

// HandleCmd applies one control message.
func (s *Scheduler) HandleCmd(c comm.Cmd) {
	switch cmd := c.(type) {
	case comm.ScheduleVoice:
		s.ScheduleVoice(cmd.Voice, cmd.ClearScheduled)
	case comm.ReplaceVoices:
		s.dropPending(cmd.PlaybackID)
		for _, sv := range cmd.Voices {
			s.ScheduleVoice(sv, false)
		}
	case comm.ClearScheduled:
		s.dropPending(cmd.PlaybackID)
	case comm.Cleanup:
		s.dropPending(cmd.PlaybackID)
		for _, v := range s.active {
			if v.PlaybackID() == cmd.PlaybackID {
				v.Release()
			}
		}
	case comm.SampleComplete:
		s.samples[cmd.Request] = &loadedSample{pitchHz: cmd.PitchHz, pcm: cmd.Pcm}
		for _, sv := range s.waiting[cmd.Request] {
			s.insert(sv)
		}
		delete(s.waiting, cmd.Request)
	case comm.SampleNotFound:
		// The stashed voices are silently discarded.
		delete(s.waiting, cmd.Request)
		delete(s.requested, cmd.Request)
	}
}

// ScheduleVoice converts times to frames and inserts the voice, first
// clearing same-playback pending entries when asked. Voices that need a
// sample the renderer does not hold are stashed and requested instead.
func (s *Scheduler) ScheduleVoice(sv voice.ScheduledVoice, clearScheduled bool) {
	if clearScheduled {
		s.dropPending(sv.PlaybackID)
	}
	s.insert(sv)
}

func (s *Scheduler) insert(sv voice.ScheduledVoice) {
	if req := sv.Data.Sample; req != nil {
		loaded, ok := s.samples[*req]
		if !ok {
			s.stash(*req, sv)
			return
		}
		if loaded.pcm == nil {
			return
		}
		s.seq++
		heap.Push(&s.pending, &pendingVoice{v: NewSampleVoice(sv, loaded.pcm, loaded.pitchHz, s.sampleRate, s.seq)})
		return
	}
	s.seq++
	heap.Push(&s.pending, &pendingVoice{v: NewSynthVoice(sv, s.sampleRate, s.seq)})
}

func (s *Scheduler) stash(req voice.SampleRequest, sv voice.ScheduledVoice) {
	s.waiting[req] = append(s.waiting[req], sv)
	if !s.requested[req] {
		if s.link.SendFeed(comm.RequestSample{Request: req}) {
			s.requested[req] = true
		}
	}
}

func (s *Scheduler) dropPending(playbackID string) {
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.v.PlaybackID() != playbackID {
			kept = append(kept, p)
		}
	}
	s.pending = kept
	heap.Init(&s.pending)
	for req, list := range s.waiting {
		keptW := list[:0]
		for _, sv := range list {
			if sv.PlaybackID != playbackID {
				keptW = append(keptW, sv)
			}
		}
		if len(keptW) == 0 {
			delete(s.waiting, req)
		} else {
			s.waiting[req] = keptW
		}
	}
}

// PendingCount returns the number of voices waiting for their start frame.
func (s *Scheduler) PendingCount() int { return len(s.pending) }

// ActiveCount returns the number of voices currently rendering.
func (s *Scheduler) ActiveCount() int { return len(s.active) }

// Process promotes due voices and renders the active set for the block
// starting at blockStart. Finished voices are dropped at the end.
func (s *Scheduler) Process(blockStart int64, orbits *Orbits, ctx *RenderContext) {
	blockEnd := blockStart + int64(s.blockFrames)
	for len(s.pending) > 0 && s.pending[0].v.StartFrame() < blockEnd {
		p := heap.Pop(&s.pending).(*pendingVoice)
		s.active = append(s.active, p.v)
	}

	block := blockStart / int64(s.blockFrames)
	kept := s.active[:0]
	for _, v := range s.active {
		ctx.Orbit = orbits.orbitForVoice(v.Data(), block)
		ctx.BlockStart = blockStart
		ctx.BlockFrames = s.blockFrames
		if finished := v.Render(ctx); !finished {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = kept
}
