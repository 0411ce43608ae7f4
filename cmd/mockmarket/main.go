// mockmarket is a development stand-in for the marketplace transaction
// authority. It serves the same HTTP API the keeper's adapter speaks, signs
// envelopes with a dev key, and exposes /admin endpoints to script
// deliveries: new transactions, revocations, and promoted-purchase intents.
//
// Not for production use; state lives in memory and dies with the process.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MKhiriev/go-entitlement-keeper/internal/adapter"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	key := flag.String("key", "dev-signing-key", "envelope signing key")
	originVersion := flag.String("origin-version", "1.0", "original purchase version reported to clients")
	flag.Parse()

	log := logger.NewLogger("mockmarket")

	m := &market{
		signingKey:    []byte(*key),
		originVersion: *originVersion,
		entitlements:  make(map[string]models.TransactionRecord),
		logger:        log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/transactions", m.handleTransactionStream)
	r.Get("/api/promoted", m.handlePromotedStream)
	r.Get("/api/entitlements", m.handleEntitlements)
	r.Get("/api/original-version", m.handleOriginalVersion)
	r.Post("/api/purchase", m.handlePurchase)
	r.Post("/api/transactions/{transactionID}/finish", m.handleFinish)

	r.Post("/admin/transactions", m.adminDeliverTransaction)
	r.Post("/admin/revoke", m.adminRevoke)
	r.Post("/admin/promoted", m.adminPromote)

	log.Info().Str("addr", *addr).Msg("mockmarket listening")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal().Err(err).Msg("mockmarket server failed")
	}
}

// market holds the whole marketplace state in memory. txLog and promotedLog
// are append-only; stream cursors are plain indices into them.
type market struct {
	mu sync.Mutex

	signingKey    []byte
	originVersion string

	txLog       []string
	promotedLog []string

	entitlements map[string]models.TransactionRecord
	finished     []string

	nextTxID int

	logger *logger.Logger
}

func (m *market) newTransactionID() string {
	m.nextTxID++
	return fmt.Sprintf("mock-tx-%d", m.nextTxID)
}

func (m *market) sign(record models.TransactionRecord) (string, error) {
	return adapter.SignEnvelope(record, m.signingKey)
}

func cursorParam(r *http.Request) int {
	cursor, err := strconv.Atoi(r.URL.Query().Get("cursor"))
	if err != nil || cursor < 0 {
		return 0
	}
	return cursor
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (m *market) handleTransactionStream(w http.ResponseWriter, r *http.Request) {
	cursor := cursorParam(r)

	m.mu.Lock()
	defer m.mu.Unlock()

	if cursor > len(m.txLog) {
		cursor = len(m.txLog)
	}
	writeJSON(w, map[string]any{
		"envelopes":   m.txLog[cursor:],
		"next_cursor": len(m.txLog),
	})
}

func (m *market) handlePromotedStream(w http.ResponseWriter, r *http.Request) {
	cursor := cursorParam(r)

	m.mu.Lock()
	defer m.mu.Unlock()

	if cursor > len(m.promotedLog) {
		cursor = len(m.promotedLog)
	}
	writeJSON(w, map[string]any{
		"product_ids": m.promotedLog[cursor:],
		"next_cursor": len(m.promotedLog),
	})
}

func (m *market) handleEntitlements(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	envelopes := make([]string, 0, len(m.entitlements))
	for _, record := range m.entitlements {
		envelope, err := m.sign(record)
		if err != nil {
			m.logger.Error().Err(err).Msg("sign entitlement envelope")
			continue
		}
		envelopes = append(envelopes, envelope)
	}
	writeJSON(w, map[string]any{"envelopes": envelopes})
}

func (m *market) handleOriginalVersion(w http.ResponseWriter, _ *http.Request) {
	envelope, err := adapter.SignVersionEnvelope(m.originVersion, m.signingKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"envelope": envelope})
}

func (m *market) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "product_id required", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record := models.TransactionRecord{
		TransactionID: m.newTransactionID(),
		ProductID:     req.ProductID,
		Type:          models.NonConsumable,
		PurchasedAt:   time.Now().UTC(),
	}
	m.entitlements[req.ProductID] = record

	envelope, err := m.sign(record)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.logger.Info().Str("product_id", req.ProductID).Str("transaction_id", record.TransactionID).Msg("purchase completed")
	writeJSON(w, map[string]any{"state": string(models.PurchaseSuccess), "envelope": envelope})
}

func (m *market) handleFinish(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")

	m.mu.Lock()
	m.finished = append(m.finished, transactionID)
	m.mu.Unlock()

	m.logger.Debug().Str("transaction_id", transactionID).Msg("transaction finished")
	w.WriteHeader(http.StatusOK)
}

// adminDeliverTransaction appends a signed purchase to the live stream and
// to the entitlement list, as if the marketplace had processed an external
// purchase.
func (m *market) adminDeliverTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID   string `json:"product_id"`
		ProductType string `json:"product_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "product_id required", http.StatusBadRequest)
		return
	}
	if req.ProductType == "" {
		req.ProductType = string(models.NonConsumable)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record := models.TransactionRecord{
		TransactionID: m.newTransactionID(),
		ProductID:     req.ProductID,
		Type:          models.ProductType(req.ProductType),
		PurchasedAt:   time.Now().UTC(),
	}
	m.entitlements[req.ProductID] = record

	envelope, err := m.sign(record)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	m.txLog = append(m.txLog, envelope)

	m.logger.Info().Str("product_id", req.ProductID).Msg("transaction delivered")
	writeJSON(w, map[string]any{"transaction_id": record.TransactionID})
}

// adminRevoke removes a product's entitlement and delivers the revocation on
// the live stream.
func (m *market) adminRevoke(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "product_id required", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.entitlements[req.ProductID]
	if !ok {
		http.Error(w, "no entitlement for product", http.StatusNotFound)
		return
	}
	delete(m.entitlements, req.ProductID)

	revokedAt := time.Now().UTC()
	record.RevokedAt = &revokedAt

	envelope, err := m.sign(record)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	m.txLog = append(m.txLog, envelope)

	m.logger.Info().Str("product_id", req.ProductID).Msg("entitlement revoked")
	w.WriteHeader(http.StatusOK)
}

// adminPromote delivers a promoted-purchase intent on the promoted stream.
func (m *market) adminPromote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "product_id required", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.promotedLog = append(m.promotedLog, req.ProductID)
	m.mu.Unlock()

	m.logger.Info().Str("product_id", req.ProductID).Msg("promoted purchase delivered")
	w.WriteHeader(http.StatusOK)
}
