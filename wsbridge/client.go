package wsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"uxscope/config"
	"uxscope/explore"
	"uxscope/store"
	"uxscope/streamers"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	requestTimeout = 30 * time.Second
)

// RunnerFactory builds a pipeline runner whose events go to the given
// handler. The bridge uses it to start explorations on request. The cleanup
// func is called after the run finishes and may be nil.
type RunnerFactory func(handler streamers.ExplorationHandler) (*explore.Runner, func(), error)

// Client manages the websocket connection from this instance to a UI server.
type Client struct {
	cfg       *config.Config
	st        store.ExplorationStore
	newRunner RunnerFactory
	version   string
	logger    hclog.Logger

	ws   *websocket.Conn
	send chan []byte

	mu         sync.Mutex
	pending    map[string]chan *Envelope // requestID to response channel
	instanceID string

	handlers map[MessageType]RequestHandler

	// Active runs, keyed by exploration ID, cancel func stops the run.
	runsMu sync.Mutex
	runs   map[string]context.CancelFunc

	done chan struct{}
	ctx  context.Context
	stop context.CancelFunc
}

// RequestHandler processes an incoming request and returns a response
// envelope, or nil for no reply.
type RequestHandler func(env *Envelope) (*Envelope, error)

func NewClient(cfg *config.Config, st store.ExplorationStore, newRunner RunnerFactory, version string, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	ctx, stop := context.WithCancel(context.Background())
	c := &Client{
		cfg:       cfg,
		st:        st,
		newRunner: newRunner,
		version:   version,
		logger:    logger,
		send:      make(chan []byte, 256),
		pending:   make(map[string]chan *Envelope),
		handlers:  make(map[MessageType]RequestHandler),
		runs:      make(map[string]context.CancelFunc),
		done:      make(chan struct{}),
		ctx:       ctx,
		stop:      stop,
	}
	c.registerHandlers()
	return c
}

// Connect dials the bridge endpoint, registers, and starts the read/write
// pumps.
func (c *Client) Connect() error {
	url := c.cfg.Bridge.URL
	c.logger.Info("connecting to bridge", "url", url)

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial bridge: %w", err)
	}
	c.ws = ws
	c.done = make(chan struct{})

	// Pumps must run before register, which waits for a response.
	go c.readPump()
	go c.writePump()

	if err := c.register(); err != nil {
		c.Close()
		return fmt.Errorf("register: %w", err)
	}

	c.logger.Info("registered with bridge", "instanceID", c.instanceID)
	return nil
}

// Run blocks until the connection drops or the client is closed.
func (c *Client) Run() error {
	select {
	case <-c.done:
		return fmt.Errorf("connection closed")
	case <-c.ctx.Done():
		return nil
	}
}

func (c *Client) Close() {
	c.stop()
	if c.ws != nil {
		c.ws.Close()
	}
}

func (c *Client) InstanceID() string {
	return c.instanceID
}

func (c *Client) register() error {
	req, err := NewRequest(TypeRegister, &RegisterPayload{
		InstanceName: "uxscope",
		Version:      c.version,
		Token:        c.cfg.Bridge.Token,
	})
	if err != nil {
		return err
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}

	var ack RegisterAckPayload
	if err := DecodePayload(resp, &ack); err != nil {
		return fmt.Errorf("decode register ack: %w", err)
	}
	if !ack.Accepted {
		return fmt.Errorf("registration rejected: %s", ack.Reason)
	}

	c.instanceID = ack.InstanceID
	return nil
}

func (c *Client) readPump() {
	defer func() {
		close(c.done)
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("websocket read", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.logger.Warn("invalid message from bridge", "error", err)
			continue
		}

		c.dispatch(&env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) dispatch(env *Envelope) {
	// Response to a pending request?
	if env.RequestID != "" {
		c.mu.Lock()
		ch, ok := c.pending[env.RequestID]
		c.mu.Unlock()
		if ok {
			ch <- env
			return
		}
	}

	switch env.Type {
	case TypeHeartbeat:
		ack, _ := NewResponse(env.RequestID, TypeHeartbeatAck, &HeartbeatAckPayload{})
		c.sendEnvelope(ack)
	default:
		handler, ok := c.handlers[env.Type]
		if !ok {
			c.logger.Warn("unhandled message type from bridge", "type", env.Type)
			return
		}
		resp, err := handler(env)
		if err != nil {
			errResp, _ := NewError(env.RequestID, "handler_error", err.Error())
			c.sendEnvelope(errResp)
			return
		}
		if resp != nil {
			c.sendEnvelope(resp)
		}
	}
}

func (c *Client) sendEnvelope(env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("client closed")
	}
}

// SendEvent sends a one-way event (no response expected).
func (c *Client) SendEvent(env *Envelope) error {
	return c.sendEnvelope(env)
}

func (c *Client) sendRequest(env *Envelope) (*Envelope, error) {
	ch := make(chan *Envelope, 1)

	c.mu.Lock()
	c.pending[env.RequestID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, env.RequestID)
		c.mu.Unlock()
	}()

	if err := c.sendEnvelope(env); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(requestTimeout):
		return nil, fmt.Errorf("request timed out")
	}
}
