package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"rodfem/calculator"
	"rodfem/model"
)

// Server 通过 websocket 把温度场推送给前端
type Server struct {
	addr     string
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	cfg  calculator.Config
	hubs map[*Hub]struct{}
}

func NewServer(addr string, upgrader websocket.Upgrader, cfg calculator.Config) *Server {
	return &Server{
		addr:     addr,
		upgrader: upgrader,
		cfg:      cfg,
		hubs:     make(map[*Hub]struct{}),
	}
}

func (s *Server) Config() calculator.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	hub := NewHub(conn, s.Config())
	s.register(hub)
	defer func() {
		s.unregister(hub)
		conn.Close()
	}()

	go hub.handleRequest()
	defer hub.close()

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("read message")
			}
			return
		}
		hub.msg <- msg
	}
}

func (s *Server) register(h *Hub) {
	s.mu.Lock()
	s.hubs[h] = struct{}{}
	n := len(s.hubs)
	s.mu.Unlock()
	log.WithField("clients", n).Info("客户端连接")
}

func (s *Server) unregister(h *Hub) {
	s.mu.Lock()
	delete(s.hubs, h)
	n := len(s.hubs)
	s.mu.Unlock()
	log.WithField("clients", n).Info("客户端断开")
}

// Reload 使用新配置求解并推送给所有客户端，配置无效时保留旧配置
func (s *Server) Reload(cfg calculator.Config) error {
	if err := cfg.CheckLimits(); err != nil {
		return err
	}
	c, err := calculator.NewCalculator(cfg)
	if err != nil {
		return err
	}
	reply, err := solution(c, TypeSolution)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	hubs := make([]*Hub, 0, len(s.hubs))
	for h := range s.hubs {
		hubs = append(hubs, h)
	}
	s.mu.Unlock()

	for _, h := range hubs {
		h.setConfig(cfg)
		if err := h.send(reply); err != nil {
			log.WithError(err).Warn("推送失败")
		}
	}
	log.WithField("clients", len(hubs)).Info("配置已更新，推送温度场")
	return nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	return mux
}

// Serve 阻塞直到 ctx 取消或监听失败
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.addr).Info("push server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
