package shell

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dwoolworth/mongoforge/apperr"
)

var log = logrus.WithField("component", "shell")

// CreateSessionTimeout bounds create_session: spinning up a scripting
// runtime (and its own driver connection) is slow relative to everything
// else the bridge does.
const CreateSessionTimeout = 45 * time.Second

// CompleteTimeout bounds complete: it backs editor autocomplete, so it must
// stay well under anything a typing user would notice.
const CompleteTimeout = 500 * time.Millisecond

// Bridge supervises one child process and serializes every request/response
// pair plus a fan-out of unsolicited events. It is a singleton per
// workbench: every shell tab's sessions run inside the same child.
type Bridge struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan response

	alive atomic.Bool

	events *eventBroadcast
}

// NewBridge builds a Bridge around the given command and arguments without
// starting it; call Start to spawn the child.
func NewBridge(name string, args ...string) *Bridge {
	return &Bridge{
		cmd:     exec.Command(name, args...),
		pending: make(map[int64]chan response),
		events:  newEventBroadcast(),
	}
}

// Start spawns the child process and begins reading its stdout.
func (b *Bridge) Start() error {
	stdin, err := b.cmd.StdinPipe()
	if err != nil {
		return apperr.Wrap(apperr.IO, "open shell stdin", err)
	}
	stdout, err := b.cmd.StdoutPipe()
	if err != nil {
		return apperr.Wrap(apperr.IO, "open shell stdout", err)
	}
	if err := b.cmd.Start(); err != nil {
		return apperr.Wrap(apperr.IO, "start shell process", err)
	}
	b.stdin = stdin
	b.stdout = stdout
	b.alive.Store(true)

	go b.readLoop()
	go b.reap()

	return nil
}

// Alive reports whether the child process is believed to still be running.
// It is updated by reap once the child exits; it is not a live poll.
func (b *Bridge) Alive() bool {
	return b.alive.Load()
}

// Stop kills the child process and reaps it. Safe to call more than once.
func (b *Bridge) Stop() {
	if b.cmd.Process != nil {
		_ = b.cmd.Process.Kill()
	}
	b.alive.Store(false)
}

// reap waits for the child to exit and flips the liveness flag, mirroring
// the spec's try_wait-based reaping without polling: Wait blocks until the
// process is gone, which is exactly the signal Alive needs.
func (b *Bridge) reap() {
	_ = b.cmd.Wait()
	b.alive.Store(false)
	b.failAllPending(apperr.New(apperr.IO, "shell process exited"))
}

func (b *Bridge) failAllPending(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.pending {
		ch <- response{ID: id, OK: false, Error: err.Error()}
		delete(b.pending, id)
	}
}

// readLoop parses each stdout line and routes it to either a pending
// request's channel or the event broadcast. Unrecognized payloads are
// logged and discarded, never terminating the loop.
func (b *Bridge) readLoop() {
	scanner := bufio.NewScanner(b.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var probe inbound
		if err := json.Unmarshal(line, &probe); err != nil {
			log.WithError(err).Warn("unrecognized shell rpc line")
			continue
		}
		if probe.Event != "" {
			var ev Event
			if err := json.Unmarshal(line, &ev); err != nil {
				log.WithError(err).Warn("malformed shell event")
				continue
			}
			b.events.publish(ev)
			continue
		}
		var res response
		if err := json.Unmarshal(line, &res); err != nil {
			log.WithError(err).Warn("malformed shell response")
			continue
		}
		b.deliver(res)
	}
}

func (b *Bridge) deliver(res response) {
	b.mu.Lock()
	ch, ok := b.pending[res.ID]
	if ok {
		delete(b.pending, res.ID)
	}
	b.mu.Unlock()
	if ok {
		ch <- res
	}
}

// call sends req and waits for its matching response, bounded by ctx. On
// timeout or cancellation the pending entry is removed so a late response
// does not leak the channel.
func (b *Bridge) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if !b.Alive() {
		return nil, apperr.New(apperr.IO, "shell process is not running")
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	ch := make(chan response, 1)
	b.pending[id] = ch
	b.mu.Unlock()

	req := request{ID: id, Method: method, Params: params}
	line, err := json.Marshal(req)
	if err != nil {
		b.dropPending(id)
		return nil, apperr.Wrap(apperr.Parse, "encode shell request", err)
	}

	b.writeMu.Lock()
	_, writeErr := b.stdin.Write(append(line, '\n'))
	b.writeMu.Unlock()
	if writeErr != nil {
		b.dropPending(id)
		return nil, apperr.Wrap(apperr.IO, "write shell request", writeErr)
	}

	select {
	case res := <-ch:
		if !res.OK {
			return nil, apperr.New(apperr.Driver, res.Error)
		}
		return res.Result, nil
	case <-ctx.Done():
		b.dropPending(id)
		return nil, apperr.Wrap(apperr.Timeout, fmt.Sprintf("%s timed out", method), ctx.Err())
	}
}

func (b *Bridge) dropPending(id int64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// CreateSession asks the child to start a scripting session bound to uri/db.
// A 45s diagnostic-bearing timeout applies: cold-starting a runtime and its
// own driver connection is the slowest call the bridge makes.
func (b *Bridge) CreateSession(ctx context.Context, sessionID, uri, database string) error {
	ctx, cancel := context.WithTimeout(ctx, CreateSessionTimeout)
	defer cancel()
	_, err := b.call(ctx, methodCreateSession, createSessionParams{SessionID: sessionID, URI: uri, Database: database})
	if apperr.IsTimeout(err) {
		return apperr.Wrap(apperr.Timeout, "scripting runtime did not respond within "+CreateSessionTimeout.String()+"; check the runtime image is installed and the connection URI is reachable from it", err)
	}
	return err
}

// Complete asks for autocomplete suggestions for a code fragment. Tight
// 500ms timeout to stay invisible to a typing user; a timeout here is
// treated as "no suggestions", not an error worth surfacing.
func (b *Bridge) Complete(ctx context.Context, sessionID, code string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, CompleteTimeout)
	defer cancel()
	raw, err := b.call(ctx, methodComplete, completeParams{SessionID: sessionID, Code: code})
	if err != nil {
		if apperr.IsTimeout(err) {
			return nil, nil
		}
		return nil, err
	}
	var result CompletionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperr.Wrap(apperr.Parse, "decode completion result", err)
	}
	return result.Suggestions, nil
}

// Evaluate runs code in sessionID under a fresh runID; output and results
// arrive asynchronously as Events carrying the same runID, not as the call's
// return value.
func (b *Bridge) Evaluate(ctx context.Context, sessionID, code, runID string) error {
	_, err := b.call(ctx, methodEvaluate, evaluateParams{SessionID: sessionID, Code: code, RunID: runID})
	return err
}

// DisposeSession tears down a session in the child runtime. Callers use
// this to free resources when a shell tab closes; any requests still
// pending for that session are left to their own context's timeout.
func (b *Bridge) DisposeSession(ctx context.Context, sessionID string) error {
	_, err := b.call(ctx, methodDisposeSession, disposeSessionParams{SessionID: sessionID})
	return err
}

// Subscribe registers fn to receive every event published by the child,
// across all sessions; callers filter by Event.SessionID themselves. It
// returns an unsubscribe function.
func (b *Bridge) Subscribe(fn func(Event)) func() {
	return b.events.subscribe(fn)
}
