package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/internal/records"
	"github.com/wonny/dqbreaks/internal/session"
	"github.com/wonny/dqbreaks/pkg/config"
	"github.com/wonny/dqbreaks/pkg/logger"
	"github.com/wonny/dqbreaks/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4 << 10
)

// Live message types
const (
	MsgSelect = "select" // client: request a selection
	MsgView   = "view"   // client: switch view, resets the guard
	MsgReady  = "ready"  // server: session open
	MsgReset  = "reset"  // server: view switched
)

// LiveRequest is a client message
type LiveRequest struct {
	Type     string `json:"type"`
	View     string `json:"view"`
	Days     int    `json:"days,omitempty"`
	Dataset  string `json:"dataset,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// LiveMessage is a server message
type LiveMessage struct {
	Type      string             `json:"type"`
	Selection *session.Selection `json:"selection,omitempty"`
	Outcome   string             `json:"outcome,omitempty"`
	State     string             `json:"state,omitempty"` // guard state on ready/reset
	Data      any                `json:"data,omitempty"`
	Error     *ErrorResponse     `json:"error,omitempty"`
}

// LiveHandler serves fetch-coordinated websocket sessions. Each connection
// owns one session.Coordinator.
type LiveHandler struct {
	dash     DashboardService
	recs     RecordsService
	cfg      config.DashboardConfig
	metrics  *metrics.Metrics
	logger   *logger.Logger
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewLiveHandler creates a live handler accepting origins (empty = any)
func NewLiveHandler(dash DashboardService, recs RecordsService, cfg config.DashboardConfig, origins []string, m *metrics.Metrics, log *logger.Logger) *LiveHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &LiveHandler{
		dash:    dash,
		recs:    recs,
		cfg:     cfg,
		metrics: m,
		logger:  log,
		now:     time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin] || allowed["*"]
			},
		},
	}
}

// liveConn serialises writes to one websocket
type liveConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *liveConn) write(msg LiveMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *liveConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// ServeHTTP upgrades the connection and runs the session until the client
// disconnects
// GET /api/live
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer ws.Close()

	conn := &liveConn{conn: ws}
	log := h.logger.WithField("remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := session.NewCoordinator(ctx, session.FetcherFunc(h.fetch), func(res session.Result) {
		if err := conn.write(toMessage(res)); err != nil {
			log.WithError(err).Debug("Live write failed")
		}
	}, h.metrics)

	h.metrics.LiveSessionOpened()
	defer h.metrics.LiveSessionClosed()
	log.Info("Live session opened")

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(ctx, conn)

	if err := conn.write(withState(LiveMessage{Type: MsgReady}, coord)); err != nil {
		coord.Close()
		return
	}

	for {
		var req LiveRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("Live session read failed")
			}
			break
		}
		h.handle(coord, conn, req)
	}

	coord.Close()
	cancel()
	coord.Wait()
	log.Info("Live session closed")
}

func (h *LiveHandler) pingLoop(ctx context.Context, conn *liveConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandler) handle(coord *session.Coordinator, conn *liveConn, req LiveRequest) {
	switch req.Type {
	case MsgSelect:
		sel, err := h.selection(req)
		if err != nil {
			_, body := ErrorStatus(err)
			_ = conn.write(LiveMessage{Type: session.ResultError, Error: &body})
			return
		}
		coord.Request(sel)

	case MsgView:
		view := req.View
		if !validView(view) {
			_, body := ErrorStatus(&ParamError{Param: "view", Reason: fmt.Sprintf("unknown view %q", view)})
			_ = conn.write(LiveMessage{Type: session.ResultError, Error: &body})
			return
		}
		coord.SwitchView(view)
		_ = conn.write(withState(LiveMessage{Type: MsgReset, Selection: &session.Selection{View: view}}, coord))

	default:
		_, body := ErrorStatus(&ParamError{Param: "type", Reason: fmt.Sprintf("unknown message type %q", req.Type)})
		_ = conn.write(LiveMessage{Type: session.ResultError, Error: &body})
	}
}

// withState stamps msg with the session guard's current state
func withState(msg LiveMessage, coord *session.Coordinator) LiveMessage {
	state, _ := coord.Guard().Snapshot()
	msg.State = state.String()
	return msg
}

// selection validates a select message and fills defaults
func (h *LiveHandler) selection(req LiveRequest) (session.Selection, error) {
	sel := session.Selection{View: req.View}
	if sel.View == "" {
		sel.View = session.ViewDashboard
	}
	if !validView(sel.View) {
		return sel, &ParamError{Param: "view", Reason: fmt.Sprintf("unknown view %q", sel.View)}
	}

	def := h.cfg.DefaultDatasetDays
	if sel.View == session.ViewDashboard {
		def = h.cfg.DefaultDashboardDays
	}
	days := req.Days
	if days == 0 {
		days = def
	}
	if days < 1 || (h.cfg.MaxWindowDays > 0 && days > h.cfg.MaxWindowDays) {
		return sel, &ParamError{Param: "days", Reason: fmt.Sprintf("must be between 1 and %d", h.cfg.MaxWindowDays)}
	}
	sel.Days = days

	if sel.View == session.ViewTable {
		if req.Dataset == "" {
			return sel, records.ErrDatasetRequired
		}
		sel.Dataset = req.Dataset
		sel.Page = req.Page
		if sel.Page == 0 {
			sel.Page = 1
		}
		sel.PageSize = req.PageSize
		if sel.PageSize == 0 {
			sel.PageSize = h.cfg.DefaultPageSize
		}
		if sel.Page < 1 || sel.PageSize < 1 {
			return sel, &ParamError{Param: "page", Reason: "page and pageSize must be positive"}
		}
	}
	return sel, nil
}

// fetch loads the data of sel
func (h *LiveHandler) fetch(ctx context.Context, sel session.Selection) (any, error) {
	switch sel.View {
	case session.ViewDashboard:
		return h.dash.Dashboard(ctx, sel.Days)
	case session.ViewDatasets:
		return h.recs.ListDatasets(ctx, contracts.NewWindow(sel.Days, h.now()))
	case session.ViewTable:
		return h.recs.ParseDataset(ctx, records.PageRequest{
			Dataset:  sel.Dataset,
			Window:   contracts.NewWindow(sel.Days, h.now()),
			Page:     sel.Page,
			PageSize: sel.PageSize,
		})
	default:
		return nil, errors.New("unknown view " + sel.View)
	}
}

func validView(v string) bool {
	return v == session.ViewDashboard || v == session.ViewTable || v == session.ViewDatasets
}

func toMessage(res session.Result) LiveMessage {
	sel := res.Selection
	msg := LiveMessage{Type: res.Type, Selection: &sel, Outcome: res.Outcome, Data: res.Data}
	if res.Err != nil {
		_, body := ErrorStatus(res.Err)
		msg.Error = &body
	}
	return msg
}
