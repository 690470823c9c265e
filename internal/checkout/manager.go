package checkout

import (
	"fmt"

	"github.com/boltproto/BoltCheckout/internal/errors"
	"github.com/boltproto/BoltCheckout/internal/storage"
	"github.com/boltproto/BoltCheckout/internal/wallet"
	cmap "github.com/orcaman/concurrent-map"
	log "github.com/sirupsen/logrus"
)

// sessionRecord is the persisted slice of a session. Terminal outcomes
// survive restarts so a reopened checkout shows what happened.
type sessionRecord struct {
	*storage.Base
	InvoiceID     string        `json:"invoice_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TxID          string        `json:"tx_id"`
}

func sessionKey(invoiceId string) string {
	return "session:" + invoiceId
}

// Manager owns the live checkout sessions, one per invoice.
type Manager struct {
	gateway  GatewayAPI
	wallet   wallet.Adapter
	notify   Notifier
	record   Recorder
	db       *storage.DB
	cfg      Config
	sessions cmap.ConcurrentMap
}

type ManagerOption func(*Manager)

func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) {
		if n != nil {
			m.notify = n
		}
	}
}

func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.record = r
		}
	}
}

func NewManager(gatewayApi GatewayAPI, walletAdapter wallet.Adapter, db *storage.DB, cfg Config, option ...ManagerOption) *Manager {
	m := &Manager{
		gateway:  gatewayApi,
		wallet:   walletAdapter,
		notify:   noopNotifier{},
		record:   noopRecorder{},
		db:       db,
		cfg:      cfg.withDefaults(),
		sessions: cmap.New(),
	}
	for _, opt := range option {
		opt(m)
	}
	return m
}

// Open returns the session for an invoice, starting one if none is
// live. A previously persisted terminal outcome is restored before the
// session starts, so background work is skipped for settled invoices.
func (m *Manager) Open(invoiceId string) (*Session, error) {
	if existing, ok := m.sessions.Get(invoiceId); ok {
		return existing.(*Session), nil
	}
	session := NewSession(invoiceId, m.gateway, m.wallet, m.cfg).
		WithNotifier(m.notify).
		WithRecorder(m.record).
		WithPersistence(func(snap Snapshot) {
			m.persistSnapshot(invoiceId, snap)
		})
	if rec := m.loadRecord(invoiceId); rec != nil {
		session.restore(rec.PaymentStatus, rec.TxID)
	}
	if !m.sessions.SetIfAbsent(invoiceId, session) {
		// lost the race, use the winner
		session.Close()
		winner, _ := m.sessions.Get(invoiceId)
		return winner.(*Session), nil
	}
	if err := session.Start(); err != nil {
		m.sessions.Remove(invoiceId)
		session.Close()
		return nil, err
	}
	return session, nil
}

// Get returns a live session without starting one.
func (m *Manager) Get(invoiceId string) (*Session, error) {
	if existing, ok := m.sessions.Get(invoiceId); ok {
		return existing.(*Session), nil
	}
	return nil, errors.New(errors.InvalidStateError, fmt.Errorf("no session for invoice %s", invoiceId))
}

// Close stops one session and drops it from the registry.
func (m *Manager) Close(invoiceId string) {
	if existing, ok := m.sessions.Get(invoiceId); ok {
		existing.(*Session).Close()
		m.sessions.Remove(invoiceId)
	}
}

// Shutdown stops every live session.
func (m *Manager) Shutdown() {
	for item := range m.sessions.IterBuffered() {
		item.Val.(*Session).Close()
	}
	m.sessions.Clear()
	log.Infof("[Manager] all sessions closed")
}

func (m *Manager) persistSnapshot(invoiceId string, snap Snapshot) {
	if m.db == nil {
		return
	}
	rec := &sessionRecord{
		Base:          storage.New(storage.ID(sessionKey(invoiceId))),
		InvoiceID:     invoiceId,
		PaymentStatus: snap.PaymentStatus,
		TxID:          snap.TxID,
	}
	if err := rec.Set(rec, m.db); err != nil {
		log.Errorf("[Manager] %s could not persist session: %s", invoiceId, err.Error())
	}
}

func (m *Manager) loadRecord(invoiceId string) *sessionRecord {
	if m.db == nil {
		return nil
	}
	rec := &sessionRecord{Base: storage.New(storage.ID(sessionKey(invoiceId)))}
	stored, err := rec.Get(rec, m.db)
	if err != nil {
		return nil
	}
	loaded, ok := stored.(*sessionRecord)
	if !ok {
		return nil
	}
	return loaded
}
