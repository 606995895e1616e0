// Package shuffle implements the distributed shuffler: N cooperating
// workers connected by TCP repartition a stream deterministically by
// key-hash so each worker's output contains exactly the items whose shard
// matches its own (spec §4.H).
package shuffle

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flowshard/core/hashutil"
	"github.com/flowshard/core/pipe"
	"github.com/flowshard/core/pipeerr"
)

// Config configures a Shuffler instance. Workers must be identical (same
// set, any order) across all N cooperating processes.
type Config[T any] struct {
	Port          int
	Self          HostPort
	Workers       []HostPort
	Codec         Codec[T]
	KeyExtractor  func(T) []byte // default: not set -> caller must provide for non-[]byte T
	FrameMaxBytes int
	DialTimeout   time.Duration // per-attempt dial timeout
	DialDeadline  time.Duration // cumulative deadline across retries -> Timeout
	Logger        *zap.Logger
}

func (c Config[T]) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// Shuffler is both a Listener[T] (it attaches to an upstream Async[T]
// producer) and an Async[T] (it fans local + network-received items out
// to its own listeners). N-1 outbound connections are dialed to peers and
// N-1 inbound connections accepted, one per peer, tagged by shard id via a
// handshake.
type Shuffler[T any] struct {
	cfg      Config[T]
	ownShard int
	n        int

	fan    pipe.Fanout[T]
	cancel *pipe.CancelFlag

	listener net.Listener

	mu        sync.Mutex
	outbound  map[int]*outboundConn
	inboundWG sync.WaitGroup

	upstreamDone  chan struct{}
	inboundDoneCt int
	inboundDoneMu sync.Mutex

	closeOnce sync.Once
	startOnce sync.Once
}

type outboundConn struct {
	shardID int
	conn    net.Conn
	ch      chan outboundMsg
	wg      sync.WaitGroup
}

type outboundMsgKind int

const (
	msgData outboundMsgKind = iota
	msgEndOK
	msgEndErr
)

type outboundMsg struct {
	kind    outboundMsgKind
	payload []byte
	errMsg  string
}

func NewShuffler[T any](cfg Config[T]) (*Shuffler[T], error) {
	id, ok := ShardID(cfg.Workers, cfg.Self)
	if !ok {
		return nil, pipeerr.New(pipeerr.Validation, "self not present in workers list")
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.DialDeadline == 0 {
		cfg.DialDeadline = 30 * time.Second
	}
	if cfg.FrameMaxBytes == 0 {
		cfg.FrameMaxBytes = 8 << 20
	}
	return &Shuffler[T]{
		cfg:          cfg,
		ownShard:     id,
		n:            len(cfg.Workers),
		cancel:       pipe.NewCancelFlag(),
		outbound:     make(map[int]*outboundConn),
		upstreamDone: make(chan struct{}),
	}, nil
}

func (s *Shuffler[T]) AddListener(l pipe.Listener[T]) { s.fan.Add(l) }

func (s *Shuffler[T]) Progress() float32 {
	if s.fan.IsTerminal() {
		return 1.0
	}
	return 0
}

// Start opens the listening socket, accepts N-1 inbound connections, and
// dials outbound connections to every peer with a different shard id,
// retrying with bounded exponential backoff until accepted or the
// cumulative deadline elapses.
func (s *Shuffler[T]) Start() error {
	var startErr error
	s.startOnce.Do(func() {
		startErr = s.start()
	})
	return startErr
}

func (s *Shuffler[T]) start() error {
	if s.n <= 1 {
		return nil // nothing to shuffle with; shard id is trivially 0.
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return pipeerr.Wrap(pipeerr.IO, "shuffler listen", err)
	}
	s.listener = ln

	peers := CanonicalOrder(s.cfg.Workers)

	var acceptWG sync.WaitGroup
	acceptWG.Add(1)
	go func() {
		defer acceptWG.Done()
		s.acceptLoop(s.n - 1)
	}()

	var dialWG sync.WaitGroup
	dialErrs := make(chan error, s.n-1)
	for i, peer := range peers {
		if i == s.ownShard {
			continue
		}
		dialWG.Add(1)
		go func(peerShard int, addr HostPort) {
			defer dialWG.Done()
			if err := s.dialPeer(peerShard, addr); err != nil {
				dialErrs <- err
			}
		}(i, peer)
	}
	dialWG.Wait()
	close(dialErrs)
	for err := range dialErrs {
		if err != nil {
			s.cancel.Set()
			ln.Close()
			return err
		}
	}

	acceptWG.Wait()
	return nil
}

func (s *Shuffler[T]) dialPeer(shardID int, addr HostPort) error {
	deadline := time.Now().Add(s.cfg.DialDeadline)
	backoff := 50 * time.Millisecond
	for {
		if s.cancel.IsSet() {
			return pipeerr.Interrupted
		}
		conn, err := net.DialTimeout("tcp", addr.String(), s.cfg.DialTimeout)
		if err == nil {
			if err := writeHandshake(conn, uint32(s.ownShard)); err != nil {
				conn.Close()
				return err
			}
			s.registerOutbound(shardID, conn)
			return nil
		}
		if time.Now().After(deadline) {
			return pipeerr.New(pipeerr.Timeout, "could not connect to peer "+addr.String())
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 2*time.Second {
			backoff = 2 * time.Second
		}
	}
}

func (s *Shuffler[T]) registerOutbound(shardID int, conn net.Conn) {
	oc := &outboundConn{shardID: shardID, conn: conn, ch: make(chan outboundMsg, 64)}
	s.mu.Lock()
	s.outbound[shardID] = oc
	s.mu.Unlock()
	oc.wg.Add(1)
	go s.runOutboundWriter(oc)
}

func (s *Shuffler[T]) runOutboundWriter(oc *outboundConn) {
	defer oc.wg.Done()
	for msg := range oc.ch {
		switch msg.kind {
		case msgData:
			if err := writeDataFrame(oc.conn, msg.payload); err != nil {
				s.fan.NotifyError(err)
				return
			}
		case msgEndOK:
			if err := writeEndOK(oc.conn); err != nil {
				s.fan.NotifyError(err)
			}
			if tc, ok := oc.conn.(*net.TCPConn); ok {
				tc.CloseWrite()
			}
			return
		case msgEndErr:
			writeEndErr(oc.conn, msg.errMsg)
			oc.conn.Close()
			return
		}
	}
}

func (s *Shuffler[T]) acceptLoop(want int) {
	accepted := 0
	for accepted < want {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.cancel.IsSet() {
				return
			}
			s.cfg.logger().Warn("shuffler accept error", zap.Error(err))
			continue
		}
		shardID, err := readHandshake(conn)
		if err != nil {
			conn.Close()
			s.fan.NotifyError(err)
			continue
		}
		accepted++
		s.inboundWG.Add(1)
		go s.runInboundReader(int(shardID), conn)
	}
}

func (s *Shuffler[T]) runInboundReader(peerShard int, conn net.Conn) {
	defer s.inboundWG.Done()
	defer conn.Close()
	for {
		if s.cancel.IsSet() {
			return
		}
		f, err := readFrame(conn)
		if err != nil {
			s.fan.NotifyError(pipeerr.Wrap(pipeerr.IO, "shuffler peer disconnected", err))
			return
		}
		switch f.tag {
		case tagData:
			v, err := s.cfg.Codec.Decode(f.payload)
			if err != nil {
				s.fan.NotifyError(pipeerr.Wrap(pipeerr.Validation, "decode shuffle frame", err))
				return
			}
			s.fan.NotifyItem(v)
		case tagEndOK:
			s.noteInboundDone()
			return
		case tagEndErr:
			s.fan.NotifyError(pipeerr.New(pipeerr.IO, "peer shard "+fmt.Sprint(peerShard)+" error: "+f.message))
			return
		}
	}
}

func (s *Shuffler[T]) noteInboundDone() {
	s.inboundDoneMu.Lock()
	s.inboundDoneCt++
	done := s.inboundDoneCt >= s.n-1
	s.inboundDoneMu.Unlock()
	if done {
		select {
		case <-s.upstreamDone:
			s.fan.NotifyDone()
		default:
		}
	}
}

// OnItem implements pipe.Listener: it is the entry point for every item
// from the upstream producer. Items whose shard matches ownShard are
// delivered locally; others are encoded and queued on the outbound
// connection for their shard (blocking once that connection's buffer is
// full, providing backpressure).
func (s *Shuffler[T]) OnItem(v T) {
	if s.cancel.IsSet() {
		return
	}
	key := v2bytes(s.cfg.KeyExtractor, v)
	shard := hashutil.Shard(key, s.n)
	if shard == s.ownShard {
		s.fan.NotifyItem(v)
		return
	}
	payload, err := s.cfg.Codec.Encode(v)
	if err != nil {
		s.fan.NotifyError(pipeerr.Wrap(pipeerr.Validation, "encode shuffle item", err))
		return
	}
	s.mu.Lock()
	oc := s.outbound[shard]
	s.mu.Unlock()
	if oc == nil {
		s.fan.NotifyError(pipeerr.New(pipeerr.Internal, "no outbound connection for shard"))
		return
	}
	select {
	case oc.ch <- outboundMsg{kind: msgData, payload: payload}:
	case <-s.cancel.Channel():
	}
}

func v2bytes[T any](extract func(T) []byte, v T) []byte {
	if extract != nil {
		return extract(v)
	}
	if b, ok := any(v).([]byte); ok {
		return b
	}
	return nil
}

// OnDone implements pipe.Listener: upstream has finished. A terminator
// frame is sent on every outbound connection and half-closed; the
// stage's own notifyDone fires only once every inbound connection has
// also observed its terminator.
func (s *Shuffler[T]) OnDone() {
	close(s.upstreamDone)
	if s.n <= 1 {
		s.fan.NotifyDone()
		return
	}
	s.mu.Lock()
	conns := make([]*outboundConn, 0, len(s.outbound))
	for _, oc := range s.outbound {
		conns = append(conns, oc)
	}
	s.mu.Unlock()
	for _, oc := range conns {
		select {
		case oc.ch <- outboundMsg{kind: msgEndOK}:
		case <-s.cancel.Channel():
		}
	}
	s.inboundDoneMu.Lock()
	done := s.inboundDoneCt >= s.n-1
	s.inboundDoneMu.Unlock()
	if done {
		s.fan.NotifyDone()
	}
}

// OnError implements pipe.Listener: upstream failed. An error terminator
// is sent on every outbound connection (best-effort) and the stage's own
// notifyError fires once.
func (s *Shuffler[T]) OnError(err error) {
	s.mu.Lock()
	conns := make([]*outboundConn, 0, len(s.outbound))
	for _, oc := range s.outbound {
		conns = append(conns, oc)
	}
	s.mu.Unlock()
	for _, oc := range conns {
		select {
		case oc.ch <- outboundMsg{kind: msgEndErr, errMsg: err.Error()}:
		default:
		}
	}
	s.fan.NotifyError(err)
}

// Close cancels all network activity: closes the listener, every outbound
// and inbound connection, and joins all goroutines.
func (s *Shuffler[T]) Close() error {
	s.closeOnce.Do(func() {
		s.cancel.Set()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Lock()
		for _, oc := range s.outbound {
			close(oc.ch)
			oc.conn.Close()
		}
		s.mu.Unlock()
		for _, oc := range s.snapshotOutbound() {
			oc.wg.Wait()
		}
		s.inboundWG.Wait()
	})
	return nil
}

func (s *Shuffler[T]) snapshotOutbound() []*outboundConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*outboundConn, 0, len(s.outbound))
	for _, oc := range s.outbound {
		out = append(out, oc)
	}
	return out
}
