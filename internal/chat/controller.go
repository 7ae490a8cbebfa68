package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"lingdang-cli/internal/api"
)

// DefaultTimeout bounds one assistant request end to end.
const DefaultTimeout = 60 * time.Second

// User-visible notices for terminal states. The raw transport error never
// reaches the view.
const (
	cancelledNotice    = "已取消本次回复。"
	timeoutNotice      = "请求超时，请稍后再试。"
	failedNotice       = "抱歉，查询失败了，请稍后重试。"
	genericServerError = "服务器错误"
)

// ErrEmptyQuestion is returned by Submit for blank input.
var ErrEmptyQuestion = errors.New("question is empty")

// Streamer opens the assistant event stream. *api.Client satisfies it.
type Streamer interface {
	QueryStream(ctx context.Context, query *api.QueryRequest, cb api.EventCallback) error
}

type abortReason int

const (
	reasonManual abortReason = iota + 1
	reasonTimeout
	reasonUnmount
)

// streamRequest is the controller-owned state of one in-flight query. Its id
// is a generation counter: every mutation path compares it against the
// controller's current request, so late effects of a superseded request are
// dropped without any further coordination.
type streamRequest struct {
	id        uint64
	turnIndex int
	cancel    context.CancelFunc
	timer     *time.Timer
	sched     *Scheduler
	answer    strings.Builder
	citations []Citation
	done      bool // done frame applied; only trailing citations may still land
}

// Options configures a Controller. Zero values fall back to sane defaults.
type Options struct {
	Mode    string        // assistant answer mode, default FLEXIBLE
	Timeout time.Duration // per-request deadline, default DefaultTimeout
	Tick    TickFunc      // commit coalescing tick source, default ~60Hz timer
	Notify  func()        // called after every visible-state commit
	Logf    func(format string, args ...any) // recoverable-anomaly log hook
}

// Controller orchestrates the conversation: it opens one stream per submitted
// question, applies decoded events to the targeted turn and guarantees that
// only the most recent request ever mutates visible state.
type Controller struct {
	mu      sync.Mutex
	client  Streamer
	mode    string
	timeout time.Duration
	tick    TickFunc
	notify  func()
	logf    func(string, ...any)

	turns  []Turn
	nextID uint64
	req    *streamRequest // nil when no request is attached
}

func NewController(client Streamer, opts Options) *Controller {
	if opts.Mode == "" {
		opts.Mode = "FLEXIBLE"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Tick == nil {
		opts.Tick = TimerTick(16 * time.Millisecond)
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	return &Controller{
		client:  client,
		mode:    opts.Mode,
		timeout: opts.Timeout,
		tick:    opts.Tick,
		notify:  opts.Notify,
		logf:    opts.Logf,
	}
}

// Submit starts a new question. Any request still in flight is cancelled
// first with the manual reason; its turn is finalized before the new
// placeholder appears, so at most one turn is ever streaming.
func (c *Controller) Submit(question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.req != nil {
		c.finalizeAbortLocked(reasonManual)
	}

	// History replays every prior turn, notices included, matching what
	// the conversation view shows. The new placeholder is excluded.
	history := make([]api.HistoryMessage, 0, len(c.turns))
	for _, t := range c.turns {
		history = append(history, api.HistoryMessage{Role: string(t.Role), Content: t.Content})
	}

	c.turns = append(c.turns, Turn{Role: RoleUser, Content: question})
	turnIndex := len(c.turns)
	c.turns = append(c.turns, Turn{Role: RoleAssistant, Streaming: true})

	c.nextID++
	id := c.nextID
	ctx, cancel := context.WithCancel(context.Background())
	req := &streamRequest{id: id, turnIndex: turnIndex, cancel: cancel}
	req.sched = NewScheduler(c.tick, func() { c.commit(id) })
	req.timer = time.AfterFunc(c.timeout, func() { c.abort(id, reasonTimeout) })
	c.req = req

	query := &api.QueryRequest{Question: question, Mode: c.mode, History: history}
	c.mu.Unlock()
	c.notifyView()

	go c.run(ctx, id, query)
	return nil
}

// Cancel aborts the in-flight request, if any, on the user's behalf.
func (c *Controller) Cancel() {
	c.abortCurrent(reasonManual)
}

// Close aborts any in-flight request because the view is going away. The
// target turn keeps whatever content it has accumulated.
func (c *Controller) Close() {
	c.abortCurrent(reasonUnmount)
}

// SetMode changes the answer mode for subsequent questions.
func (c *Controller) SetMode(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode != "" {
		c.mode = mode
	}
}

// Mode returns the current answer mode.
func (c *Controller) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Reset drops the whole conversation, aborting any in-flight request.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.req != nil {
		c.finalizeAbortLocked(reasonUnmount)
	}
	c.turns = nil
	c.mu.Unlock()
	c.notifyView()
}

// Turns returns a snapshot of the conversation.
func (c *Controller) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := make([]Turn, len(c.turns))
	copy(turns, c.turns)
	return turns
}

// Streaming reports whether a request is actively streaming into a turn.
func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req != nil && !c.req.done
}

func (c *Controller) run(ctx context.Context, id uint64, query *api.QueryRequest) {
	err := c.client.QueryStream(ctx, query, func(ev api.Event) {
		c.apply(id, ev)
	})
	c.finish(id, err)
}

// apply routes one decoded event to the target turn. Events carrying a stale
// id are dropped silently: their request has been superseded.
func (c *Controller) apply(id uint64, ev api.Event) {
	c.mu.Lock()
	req := c.req
	if req == nil || req.id != id {
		c.mu.Unlock()
		return
	}

	switch ev.Type {
	case api.EventMessage:
		if req.done {
			c.mu.Unlock()
			return
		}
		req.answer.WriteString(ev.Data)
		sched := req.sched
		c.mu.Unlock()
		sched.Request()

	case api.EventCitations:
		var citations []Citation
		if err := json.Unmarshal([]byte(ev.Data), &citations); err != nil {
			c.mu.Unlock()
			// Recoverable: keep the previous list, keep streaming.
			c.logf("malformed citations payload, keeping previous list: %v", err)
			return
		}
		req.citations = citations
		c.turns[req.turnIndex].Citations = citations
		c.mu.Unlock()
		c.notifyView()

	case api.EventDone:
		turn := &c.turns[req.turnIndex]
		turn.Content = req.answer.String()
		turn.Citations = req.citations
		turn.Streaming = false
		// Keep the request attached: the backend may flush citations as
		// the frame right after done, and those still apply.
		req.done = true
		req.timer.Stop()
		c.mu.Unlock()
		c.notifyView()

	case api.EventError:
		if req.done {
			// The turn is already final; a trailing error frame cannot
			// retract it.
			c.mu.Unlock()
			return
		}
		msg := ev.Data
		if strings.TrimSpace(msg) == "" {
			msg = genericServerError
		}
		turn := &c.turns[req.turnIndex]
		turn.Content = msg
		turn.Streaming = false
		turn.Error = true
		c.detachLocked(req)
		c.mu.Unlock()
		c.notifyView()

	default:
		c.mu.Unlock()
	}
}

// commit is the scheduler's flush: it publishes the accumulated answer to the
// target turn, provided the request is still current and not yet terminal.
func (c *Controller) commit(id uint64) {
	c.mu.Lock()
	req := c.req
	if req == nil || req.id != id || req.done {
		c.mu.Unlock()
		return
	}
	c.turns[req.turnIndex].Content = req.answer.String()
	c.mu.Unlock()
	c.notifyView()
}

// finish handles the stream goroutine returning, successfully or not. Aborted
// and superseded requests were already detached and are dropped here.
func (c *Controller) finish(id uint64, err error) {
	c.mu.Lock()
	req := c.req
	if req == nil || req.id != id {
		c.mu.Unlock()
		return
	}
	c.detachLocked(req)

	if !req.done {
		turn := &c.turns[req.turnIndex]
		if err != nil {
			// Transport failure mid-stream. The partial answer is
			// replaced by a retryable notice.
			turn.Content = failedNotice
			turn.Error = true
		} else {
			// Natural end without a done frame: keep what arrived.
			turn.Content = req.answer.String()
			turn.Citations = req.citations
		}
		turn.Streaming = false
	}
	c.mu.Unlock()
	c.notifyView()
}

func (c *Controller) abort(id uint64, reason abortReason) {
	c.mu.Lock()
	if c.req == nil || c.req.id != id {
		c.mu.Unlock()
		return
	}
	c.finalizeAbortLocked(reason)
	c.mu.Unlock()
	c.notifyView()
}

func (c *Controller) abortCurrent(reason abortReason) {
	c.mu.Lock()
	if c.req == nil {
		c.mu.Unlock()
		return
	}
	c.finalizeAbortLocked(reason)
	c.mu.Unlock()
	c.notifyView()
}

// finalizeAbortLocked finalizes the current request's turn with the
// reason-specific notice and detaches the request. The cancelled stream
// goroutine will return later and be ignored by the id guard.
func (c *Controller) finalizeAbortLocked(reason abortReason) {
	req := c.req
	if !req.done {
		turn := &c.turns[req.turnIndex]
		switch reason {
		case reasonManual:
			turn.Content = cancelledNotice
			turn.Error = false
		case reasonTimeout:
			turn.Content = timeoutNotice
			turn.Error = true
		case reasonUnmount:
			// View is gone; keep accumulated content as-is.
		}
		turn.Streaming = false
	}
	c.detachLocked(req)
}

func (c *Controller) detachLocked(req *streamRequest) {
	req.timer.Stop()
	req.cancel()
	c.req = nil
}

func (c *Controller) notifyView() {
	if c.notify != nil {
		c.notify()
	}
}
