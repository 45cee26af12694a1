package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/gocells/spreadsheet/position"
)

// webhookWorkers is the size of the dispatcher's fixed worker pool, matching
// WebhookDispatcher.go's WebhookWorkersCount.
const webhookWorkers = 5

// CellNotification is the payload POSTed to a subscriber's webhook URL
// whenever the cell it subscribed to is written through SetCellAction and
// its filter (if any) passes. A cell whose value changes only because a cell
// it references was edited sends no notification, nor does clearing it.
type CellNotification struct {
	SheetID string `json:"sheet_id"`
	CellID  string `json:"cell_id"`
	Text    string `json:"text"`
	Value   string `json:"value"`
}

// filterEnv is the variable set a subscription's filter expression is
// compiled and run against, e.g. "is_error" or "value > 10".
type filterEnv struct {
	Text    string  `expr:"text"`
	Value   float64 `expr:"value"`
	IsError bool    `expr:"is_error"`
}

type subscription struct {
	url    string
	filter *vm.Program // nil means unconditional
}

type webhookSendCommand struct {
	url  string
	body CellNotification
}

// WebhookDispatcher holds at most one subscription per (sheet, cell) and
// delivers notifications through a bounded queue drained by a fixed worker
// pool, adapted from WebhookDispatcher.go's queue-and-worker-pool shape.
// Unlike the teacher's version, a subscription may carry an expr-lang/expr
// filter program that gates delivery on the cell's new value, following the
// expr.Function wiring ExternalRefFunction.go uses for its own formulas.
type WebhookDispatcher struct {
	mu   sync.Mutex
	subs map[string]map[position.Position]subscription

	queue chan webhookSendCommand
	once  sync.Once
}

// NewWebhookDispatcher returns a dispatcher with its workers already running.
func NewWebhookDispatcher() *WebhookDispatcher {
	d := &WebhookDispatcher{
		subs:  make(map[string]map[position.Position]subscription),
		queue: make(chan webhookSendCommand, 20),
	}
	for i := 0; i < webhookWorkers; i++ {
		go d.runWorker()
	}
	return d
}

// Subscribe records url as the webhook to notify when sheetID/pos changes,
// gated by filterExpr if non-empty. An empty url removes any existing
// subscription. A malformed filterExpr is reported back to the caller so
// the HTTP layer can reject the request instead of silently never firing.
func (d *WebhookDispatcher) Subscribe(sheetID string, pos position.Position, url, filterExpr string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.subs[sheetID]; !ok {
		d.subs[sheetID] = make(map[position.Position]subscription)
	}
	if url == "" {
		delete(d.subs[sheetID], pos)
		return nil
	}

	var program *vm.Program
	if filterExpr != "" {
		p, err := expr.Compile(filterExpr, expr.Env(filterEnv{}), expr.AsBool())
		if err != nil {
			return fmt.Errorf("webhook filter: %w", err)
		}
		program = p
	}

	d.subs[sheetID][pos] = subscription{url: url, filter: program}
	return nil
}

// Notify enqueues a delivery for sheetID/pos if a subscriber is registered
// for it and its filter (if any) accepts env. The HTTP round trip runs on a
// worker; Notify itself blocks only while all 20 queue slots are full.
func (d *WebhookDispatcher) Notify(sheetID string, pos position.Position, env filterEnv, body CellNotification) {
	d.mu.Lock()
	sub, ok := d.subs[sheetID][pos]
	d.mu.Unlock()
	if !ok {
		return
	}

	if sub.filter != nil {
		result, err := expr.Run(sub.filter, env)
		if err != nil {
			fmt.Printf("webhook filter error: %s\n", err)
			return
		}
		if pass, _ := result.(bool); !pass {
			return
		}
	}

	d.queue <- webhookSendCommand{url: sub.url, body: body}
}

// Close closes the delivery queue: workers send what is already queued and
// then exit. Close returns without waiting for them, and calls after the
// first are no-ops. A Notify that enqueues after Close panics.
func (d *WebhookDispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
}

func (d *WebhookDispatcher) runWorker() {
	client := &http.Client{Timeout: 5 * time.Second}

	for cmd := range d.queue {
		payload, err := json.Marshal(cmd.body)
		if err != nil {
			fmt.Printf("webhook marshal error: %s\n", err)
			continue
		}
		resp, err := client.Post(cmd.url, "application/json", bytes.NewReader(payload))
		if err != nil {
			fmt.Printf("webhook send error: %s\n", err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			fmt.Printf("unexpected webhook response status: %s\n", resp.Status)
		}
	}
}
