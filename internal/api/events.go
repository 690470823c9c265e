package api

import (
	"encoding/json"
	"net/http"

	"github.com/boltproto/BoltCheckout/internal/checkout"
	"github.com/gorilla/mux"
	"github.com/r3labs/sse"
	log "github.com/sirupsen/logrus"
	cmap "github.com/orcaman/concurrent-map"
)

// EventStream pushes session changes to browsers over server sent
// events. One stream per invoice.
type EventStream struct {
	server  *sse.Server
	watched cmap.ConcurrentMap
}

func NewEventStream() *EventStream {
	server := sse.New()
	server.AutoReplay = false
	return &EventStream{
		server:  server,
		watched: cmap.New(),
	}
}

// Watch forwards a session's events into its stream until the session
// ends. Watching the same session twice is a no-op.
func (e *EventStream) Watch(session *checkout.Session) {
	invoiceId := session.InvoiceID()
	if !e.watched.SetIfAbsent(invoiceId, true) {
		return
	}
	e.server.CreateStream(invoiceId)
	events, unsubscribe := session.Subscribe()
	go func() {
		defer unsubscribe()
		defer e.watched.Remove(invoiceId)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					log.Errorf("[SSE] could not marshal event: %s", err.Error())
					continue
				}
				e.server.Publish(invoiceId, &sse.Event{
					Event: []byte(string(event.Type)),
					Data:  data,
				})
			case <-session.Done():
				return
			}
		}
	}()
}

// Publish pushes a one-off message onto an invoice stream.
func (e *EventStream) Publish(invoiceId string, eventType string, data []byte) {
	if _, ok := e.watched.Get(invoiceId); !ok {
		return
	}
	e.server.Publish(invoiceId, &sse.Event{
		Event: []byte(eventType),
		Data:  data,
	})
}

// Handler serves the event stream. The stream name comes from the
// path, not a query parameter, so the browser EventSource URL stays
// clean.
func (e *EventStream) Handler(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	if _, ok := e.watched.Get(invoiceId); !ok {
		RespondError(w, http.StatusNotFound, "no active checkout for invoice")
		return
	}
	q := r.URL.Query()
	q.Add("stream", invoiceId)
	r.URL.RawQuery = q.Encode()
	e.server.HTTPHandler(w, r)
}
