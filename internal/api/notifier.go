package api

import (
	"encoding/json"

	"github.com/boltproto/BoltCheckout/internal/i18n"
	log "github.com/sirupsen/logrus"
)

type notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// StreamNotifier localizes checkout notifications and pushes them onto
// the invoice's event stream.
type StreamNotifier struct {
	Stream   *EventStream
	Language string
}

func NewStreamNotifier(stream *EventStream, language string) *StreamNotifier {
	if language == "" {
		language = "en"
	}
	return &StreamNotifier{Stream: stream, Language: language}
}

func (n *StreamNotifier) Success(invoiceId, messageId string) { n.push(invoiceId, "success", messageId) }
func (n *StreamNotifier) Info(invoiceId, messageId string)    { n.push(invoiceId, "info", messageId) }
func (n *StreamNotifier) Warning(invoiceId, messageId string) { n.push(invoiceId, "warning", messageId) }
func (n *StreamNotifier) Error(invoiceId, messageId string)   { n.push(invoiceId, "error", messageId) }

func (n *StreamNotifier) push(invoiceId, level, messageId string) {
	message := i18n.Translate(n.Language, messageId)
	log.Debugf("[Notify] %s %s: %s", invoiceId, level, message)
	if n.Stream == nil {
		return
	}
	data, err := json.Marshal(notification{Level: level, Message: message})
	if err != nil {
		return
	}
	n.Stream.Publish(invoiceId, "notification", data)
}
