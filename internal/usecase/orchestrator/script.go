package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/johnquangdev/focus-group-bot/internal/domain/meeting"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/speech"
)

func greetingText(greeting, title string, participants int) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(greeting))
	if title != "" {
		fmt.Fprintf(&b, " Today's discussion is %s.", sentence(title, false))
	}
	switch {
	case participants == 1:
		b.WriteString(" We have one participant with us.")
	case participants > 1:
		fmt.Fprintf(&b, " We have %d participants with us.", participants)
	}
	return strings.TrimSpace(b.String())
}

func questionText(i, total int, text string) string {
	return fmt.Sprintf("Question %d of %d: %s Please take a moment to share your thoughts.", i+1, total, sentence(text, true))
}

func summaryText(summary string) string {
	return "Let me summarize what I heard. " + strings.TrimSpace(summary)
}

// sentence trims text and, when terminate is set, makes sure it ends with
// punctuation.
func sentence(text string, terminate bool) string {
	text = strings.TrimSpace(text)
	if !terminate {
		return strings.TrimRight(text, ".")
	}
	if text == "" || strings.ContainsAny(text[len(text)-1:], ".?!") {
		return text
	}
	return text + "."
}

func (o *Orchestrator) voice() speech.Options {
	return speech.Options{Voice: o.prompts.Voice, Speed: o.prompts.Speed}
}

// clipCache holds clips synthesized during one run, keyed by text
type clipCache struct {
	mu    sync.Mutex
	clips map[string]*meeting.Clip
}

func newClipCache() *clipCache {
	return &clipCache{clips: make(map[string]*meeting.Clip)}
}

func (c *clipCache) get(ctx context.Context, s Synthesizer, text string, opts speech.Options) (*meeting.Clip, error) {
	key := opts.Voice + "|" + text
	c.mu.Lock()
	clip, ok := c.clips[key]
	c.mu.Unlock()
	if ok {
		return clip, nil
	}

	clip, err := s.Synthesize(ctx, text, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.clips[key] = clip
	c.mu.Unlock()
	return clip, nil
}

// fillerPlayer plays at most one transition filler at a time
type fillerPlayer struct {
	busy atomic.Bool
	wg   sync.WaitGroup
}

func (f *fillerPlayer) play(fn func()) bool {
	if !f.busy.CompareAndSwap(false, true) {
		return false
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer f.busy.Store(false)
		fn()
	}()
	return true
}

func (f *fillerPlayer) wait() {
	f.wg.Wait()
}
