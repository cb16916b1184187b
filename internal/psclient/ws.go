// Package psclient maintains the simulator connection: the websocket
// transport carrying raw protocol chunks and the HTTP login handshake.
package psclient

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// ChunkCallback receives one raw text frame from the simulator. Frames are
// delivered in arrival order from a single goroutine.
type ChunkCallback func(chunk string)

// StateCallback observes connection state transitions.
type StateCallback func(state ConnState)

// ConnState is the connection lifecycle state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type chunkCbEntry struct {
	id       int
	callback ChunkCallback
}

type stateCbEntry struct {
	id       int
	callback StateCallback
}

// Socket is a reconnecting websocket to the simulator. Chunks fan out to
// registered callbacks from the read loop.
type Socket struct {
	wsURL string

	conn   *websocket.Conn
	state  ConnState
	stateM sync.RWMutex

	chunkCbs []chunkCbEntry
	stateCbs []stateCbEntry
	cbM      sync.RWMutex

	maxReconnectAttempts int
	reconnectDelay       time.Duration
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// NewSocket returns an unconnected socket for the given simulator URL.
func NewSocket(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration) *Socket {
	return &Socket{
		wsURL:                wsURL,
		state:                StateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
	}
}

// Connect dials the simulator and starts the read and ping loops.
func (s *Socket) Connect(ctx context.Context) error {
	s.stateM.Lock()
	if s.state == StateConnected || s.state == StateConnecting {
		s.stateM.Unlock()
		return nil
	}
	s.stateM.Unlock()

	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
	s.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, s.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.setState(StateFailed)
		s.scheduleReconnect()
		return fmt.Errorf("psclient: dial %s: %w", s.wsURL, err)
	}
	// Protocol chunks can carry whole team previews; the default 32 KiB
	// read limit is too tight.
	conn.SetReadLimit(1 << 20)

	s.conn = conn
	s.setState(StateConnected)

	s.wg.Add(2)
	go s.listen()
	go s.pingLoop()
	return nil
}

func (s *Socket) listen() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		if s.conn == nil {
			return
		}
		typ, data, err := s.conn.Read(s.rootCtx)
		if err != nil {
			if s.isStopping() {
				return
			}
			s.setState(StateDisconnected)
			_ = s.closeConn(websocket.StatusGoingAway, "reconnect")
			s.scheduleReconnect()
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		chunk := string(data)
		s.cbM.RLock()
		callbacks := make([]chunkCbEntry, len(s.chunkCbs))
		copy(callbacks, s.chunkCbs)
		s.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(chunk)
			}
		}
	}
}

func (s *Socket) pingLoop() {
	defer s.wg.Done()
	t := time.NewTicker(s.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
			if s.conn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(s.rootCtx, 3*time.Second)
			err := s.conn.Ping(ctx)
			cancel()
			if err != nil {
				failures++
				if failures >= 2 {
					if s.isStopping() {
						return
					}
					s.setState(StateDisconnected)
					_ = s.closeConn(websocket.StatusGoingAway, "ping failure")
					s.scheduleReconnect()
					failures = 0
				}
				continue
			}
			failures = 0
		}
	}
}

func (s *Socket) scheduleReconnect() {
	if s.maxReconnectAttempts <= 0 {
		return
	}
	s.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= s.maxReconnectAttempts; attempt++ {
			select {
			case <-s.stopCh:
				return
			case <-time.After(backoffDuration(attempt, s.reconnectDelay)):
			}

			dialCtx, cancel := context.WithTimeout(s.rootCtx, 10*time.Second)
			conn, _, err := websocket.Dial(dialCtx, s.wsURL, &websocket.DialOptions{
				CompressionMode: websocket.CompressionNoContextTakeover,
			})
			cancel()
			if err != nil {
				continue
			}
			conn.SetReadLimit(1 << 20)

			s.conn = conn
			s.setState(StateConnected)

			s.wg.Add(2)
			go s.listen()
			go s.pingLoop()
			return
		}
		s.setState(StateFailed)
	}()
}

// Send writes one command frame, "room|text". A global command uses an
// empty room.
func (s *Socket) Send(ctx context.Context, room, text string) error {
	s.stateM.RLock()
	conn, state := s.conn, s.state
	s.stateM.RUnlock()
	if conn == nil || state != StateConnected {
		return fmt.Errorf("psclient: send while %s", state)
	}
	frame := room + "|" + text
	if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		return fmt.Errorf("psclient: send: %w", err)
	}
	return nil
}

// OnChunk registers a chunk callback and returns its id.
func (s *Socket) OnChunk(cb ChunkCallback) int {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	id := len(s.chunkCbs) + 1
	s.chunkCbs = append(s.chunkCbs, chunkCbEntry{id: id, callback: cb})
	return id
}

// RemoveChunkCallback unregisters a chunk callback.
func (s *Socket) RemoveChunkCallback(id int) {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	for i, cb := range s.chunkCbs {
		if cb.id == id {
			s.chunkCbs = append(s.chunkCbs[:i], s.chunkCbs[i+1:]...)
			break
		}
	}
}

// OnStateChange registers a state callback and returns its id.
func (s *Socket) OnStateChange(cb StateCallback) int {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	id := len(s.stateCbs) + 1
	s.stateCbs = append(s.stateCbs, stateCbEntry{id: id, callback: cb})
	return id
}

// State returns the current connection state.
func (s *Socket) State() ConnState {
	s.stateM.RLock()
	defer s.stateM.RUnlock()
	return s.state
}

func (s *Socket) setState(state ConnState) {
	s.stateM.Lock()
	s.state = state
	s.stateM.Unlock()

	s.cbM.RLock()
	callbacks := make([]stateCbEntry, len(s.stateCbs))
	copy(callbacks, s.stateCbs)
	s.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (s *Socket) isStopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Socket) closeConn(code websocket.StatusCode, reason string) error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close(code, reason)
	s.conn = nil
	return err
}

// Close stops the loops and closes the connection.
func (s *Socket) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.rootCancel != nil {
		s.rootCancel()
	}
	err := s.closeConn(websocket.StatusNormalClosure, "shutdown")
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.setState(StateDisconnected)
	return err
}

func backoffDuration(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 4))
	return d + jitter
}
