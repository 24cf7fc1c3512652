package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"same-inventory/internal/model"
	"same-inventory/internal/scan"
	"same-inventory/internal/service"
	"same-inventory/internal/session"
	"same-inventory/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const authTimeout = 10 * time.Second

// Server -> client message types
const (
	msgSnapshot   = "snapshot"
	msgScanResult = "scan_result"
	msgSession    = "session"
)

type snapshotMessage struct {
	Type       string      `json:"type"`
	Collection string      `json:"collection"`
	Data       interface{} `json:"data"`
	Alerts     interface{} `json:"alerts,omitempty"`
}

type scanResultMessage struct {
	Type   string      `json:"type"`
	OK     bool        `json:"ok"`
	Sale   *model.Sale `json:"sale,omitempty"`
	Error  string      `json:"error,omitempty"`
	Status int         `json:"status,omitempty"`
}

type sessionMessage struct {
	Type    string `json:"type"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

var collections = []string{ws.Products, ws.Sales, ws.CashFlow, ws.Settings}

// moduleDisabledError names a module switched off in the tenant's settings.
type moduleDisabledError string

func (e moduleDisabledError) Error() string {
	return "Module '" + string(e) + "' is disabled"
}

// clientMessage is what the client sends. Only "scan" is understood.
type clientMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

type RealtimeHandler struct {
	auth      service.AuthService
	inventory service.InventoryService
	sales     service.SalesService
	cashflow  service.CashFlowService
	settings  service.SettingsService
	dashboard service.DashboardService
	hub       *ws.Hub
	guard     scan.Guard
}

func NewRealtimeHandler(auth service.AuthService, inventory service.InventoryService, sales service.SalesService,
	cashflow service.CashFlowService, settings service.SettingsService, dashboard service.DashboardService,
	hub *ws.Hub, guard scan.Guard) *RealtimeHandler {
	return &RealtimeHandler{
		auth:      auth,
		inventory: inventory,
		sales:     sales,
		cashflow:  cashflow,
		settings:  settings,
		dashboard: dashboard,
		hub:       hub,
		guard:     guard,
	}
}

// Upgrade rejects plain HTTP requests on the websocket route.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// Serve runs one realtime connection: authenticate, push snapshots of
// every collection, then push a fresh snapshot whenever one changes.
// Scans sent by the client are recorded as sales, one at a time per device.
func (h *RealtimeHandler) Serve(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gate := h.authenticate(ctx, conn.Query("token"))
	if gate.State() != session.Authenticated {
		h.write(conn, sessionMessage{Type: msgSession, State: gate.State().String(), Message: gate.Diagnostic()})
		return
	}
	sess := gate.Session()
	scope := sess.Scope()

	revoked, stopWatch := h.auth.Watch(sess)
	defer stopWatch()

	sub := h.hub.Subscribe(scope)
	defer sub.Cancel()

	h.write(conn, sessionMessage{Type: msgSession, State: gate.State().String()})
	for _, collection := range collections {
		if !h.pushSnapshot(ctx, conn, scope, collection) {
			return
		}
	}

	device := conn.Query("device")
	if device == "" {
		device = uuid.NewString()
	}
	scans := scan.NewDispatcher[*model.Sale](h.guard, 8)
	incoming := h.readLoop(conn, ctx.Done())

	for {
		select {
		case msg, ok := <-incoming:
			if !ok {
				return
			}
			h.submitScan(ctx, scans, scope, device, msg)

		case res := <-scans.Results():
			if !h.write(conn, scanResult(res)) {
				return
			}

		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			changed := []string{ev.Collection}
			if ev.Collection == ws.Settings {
				// module toggles decide what the other snapshots carry
				changed = collections
			}
			for _, collection := range changed {
				if !h.pushSnapshot(ctx, conn, scope, collection) {
					return
				}
			}

		case change := <-revoked:
			gate.Apply(change)
			h.write(conn, sessionMessage{Type: msgSession, State: gate.State().String(), Message: gate.Diagnostic()})
			return
		}
	}
}

// authenticate resolves the token through a Gate so a slow or failing
// lookup still ends in a definite state.
func (h *RealtimeHandler) authenticate(ctx context.Context, token string) *session.Gate {
	gate := session.NewGate()
	authCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	changes := make(chan session.Change, 1)
	go func() {
		defer close(changes)
		sess, err := h.auth.Authenticate(authCtx, token)
		changes <- session.Change{Session: sess, Err: err}
	}()
	gate.Run(authCtx, changes)
	return gate
}

func (h *RealtimeHandler) readLoop(conn *websocket.Conn, done <-chan struct{}) <-chan clientMessage {
	out := make(chan clientMessage)
	go func() {
		defer close(out)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "scan" {
				continue
			}
			select {
			case out <- msg:
			case <-done:
				return
			}
		}
	}()
	return out
}

func (h *RealtimeHandler) submitScan(ctx context.Context, scans *scan.Dispatcher[*model.Sale], scope session.Scope, device string, msg clientMessage) {
	key := scope.String() + ":" + device
	err := scans.Submit(ctx, key, func(ctx context.Context) (*model.Sale, error) {
		if err := h.requireModule(ctx, scope, model.ModuleSales); err != nil {
			return nil, err
		}
		return h.sales.RecordSale(ctx, scope, msg.Code, msg.Quantity)
	})
	if errors.Is(err, scan.ErrInProgress) {
		log.Debug().Str("device", device).Str("code", msg.Code).Msg("duplicate scan dropped")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("device", device).Msg("scan lock unavailable")
	}
}

func scanResult(res scan.Result[*model.Sale]) scanResultMessage {
	if res.Err == nil {
		return scanResultMessage{Type: msgScanResult, OK: true, Sale: res.Value}
	}

	msg := scanResultMessage{Type: msgScanResult, Error: res.Err.Error()}
	var verr *service.ValidationError
	var disabled moduleDisabledError
	switch {
	case errors.As(res.Err, &disabled):
		msg.Status = 403
	case errors.As(res.Err, &verr):
		msg.Status = 422
	case errors.Is(res.Err, service.ErrProductNotFound):
		msg.Status = 404
	case errors.Is(res.Err, service.ErrInsufficientStock):
		msg.Status = 409
	default:
		msg.Status = 503
		msg.Error = service.ErrTransactionFailed.Error()
	}
	return msg
}

// pushSnapshot re-reads collection and sends it. Derived values (alerts,
// cash flow totals) are recomputed from the fresh read.
func (h *RealtimeHandler) pushSnapshot(ctx context.Context, conn *websocket.Conn, scope session.Scope, collection string) bool {
	msg, err := h.snapshot(ctx, scope, collection)
	if err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("build snapshot")
		return true
	}
	if msg == nil {
		return true
	}
	return h.write(conn, msg)
}

// A nil message means the collection belongs to a disabled module and
// nothing is sent.
func (h *RealtimeHandler) snapshot(ctx context.Context, scope session.Scope, collection string) (*snapshotMessage, error) {
	msg := &snapshotMessage{Type: msgSnapshot, Collection: collection}
	var err error
	switch collection {
	case ws.Products:
		if msg.Data, err = h.inventory.ListProducts(ctx, scope); err != nil {
			return nil, err
		}
		if err = h.requireModule(ctx, scope, model.ModuleNotifications); err == nil {
			msg.Alerts, err = h.dashboard.GetAlerts(ctx, scope)
		} else if errors.As(err, new(moduleDisabledError)) {
			err = nil
		}
	case ws.Sales:
		if err = h.requireModule(ctx, scope, model.ModuleSales); err != nil {
			return skipDisabled(err)
		}
		msg.Data, err = h.sales.ListSales(ctx, scope)
	case ws.CashFlow:
		if err = h.requireModule(ctx, scope, model.ModuleCashflow); err != nil {
			return skipDisabled(err)
		}
		msg.Data, err = h.cashflow.Summary(ctx, scope, "")
	case ws.Settings:
		msg.Data, err = h.settings.Get(ctx, scope)
	default:
		return nil, errors.New("unknown collection " + collection)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// requireModule mirrors middleware.RequireModule for the websocket.
func (h *RealtimeHandler) requireModule(ctx context.Context, scope session.Scope, module string) error {
	enabled, err := h.settings.ModuleEnabled(ctx, scope, module)
	if err != nil {
		return err
	}
	if !enabled {
		return moduleDisabledError(module)
	}
	return nil
}

func skipDisabled(err error) (*snapshotMessage, error) {
	if errors.As(err, new(moduleDisabledError)) {
		return nil, nil
	}
	return nil, err
}

func (h *RealtimeHandler) write(conn *websocket.Conn, v interface{}) bool {
	if err := conn.WriteJSON(v); err != nil {
		log.Debug().Err(err).Msg("realtime write failed")
		return false
	}
	return true
}
