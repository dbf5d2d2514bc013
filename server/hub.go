package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"rodfem/calculator"
	"rodfem/model"
)

// 消息类型
const (
	TypeEnv      = "env"
	TypeStart    = "start"
	TypeStop     = "stop"
	TypeEnvSet   = "envSet"
	TypeStarted  = "started"
	TypeStopped  = "stopped"
	TypeSolution = "solution"
	TypeError    = "error"
)

// Hub 一个连接对应一个 Hub，保存该连接自己的配置
type Hub struct {
	conn *websocket.Conn
	// request
	msg  chan model.Msg
	done chan struct{}

	mu  sync.Mutex // 保护 cfg 以及对 conn 的写
	cfg calculator.Config
}

func NewHub(conn *websocket.Conn, cfg calculator.Config) *Hub {
	return &Hub{
		conn: conn,
		msg:  make(chan model.Msg, 10),
		done: make(chan struct{}),
		cfg:  cfg,
	}
}

func (h *Hub) handleRequest() {
	for {
		select {
		case msg := <-h.msg:
			if err := h.send(h.reply(msg)); err != nil {
				log.WithError(err).Warn("write reply")
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) reply(msg model.Msg) model.Msg {
	switch msg.Type {
	case TypeEnv:
		cfg := h.config()
		if err := json.Unmarshal([]byte(msg.Content), &cfg); err != nil {
			return errorMsg(fmt.Errorf("decode env: %w", err))
		}
		if err := cfg.Validate(); err != nil {
			return errorMsg(err)
		}
		if err := cfg.CheckLimits(); err != nil {
			return errorMsg(err)
		}
		h.setConfig(cfg)
		return model.Msg{Type: TypeEnvSet, Content: "env is set"}
	case TypeStart:
		cfg := h.config()
		if err := cfg.CheckLimits(); err != nil {
			return errorMsg(err)
		}
		c, err := calculator.NewCalculator(cfg)
		if err != nil {
			return errorMsg(err)
		}
		reply, err := solution(c, TypeStarted)
		if err != nil {
			return errorMsg(err)
		}
		return reply
	case TypeStop:
		return model.Msg{Type: TypeStopped, Content: "stopped"}
	default:
		log.WithField("type", msg.Type).Warn("no such type")
		return errorMsg(fmt.Errorf("no such type %q", msg.Type))
	}
}

func (h *Hub) config() calculator.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

func (h *Hub) setConfig(cfg calculator.Config) {
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}

func (h *Hub) send(msg model.Msg) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn.WriteJSON(&msg)
}

func (h *Hub) close() {
	close(h.done)
}

// solution 求解并打包成消息
func solution(c calculator.Calculator, typ string) (model.Msg, error) {
	res, err := c.Solve()
	if err != nil {
		return model.Msg{}, err
	}
	data, err := res.BuildData(c.Config()).Marshal()
	if err != nil {
		return model.Msg{}, err
	}
	return model.Msg{Type: typ, Content: string(data)}, nil
}

func errorMsg(err error) model.Msg {
	return model.Msg{Type: TypeError, Content: err.Error()}
}
