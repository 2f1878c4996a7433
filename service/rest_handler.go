package service

import (
	"encoding/hex"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/manelneto/ledger/ledger"
	"github.com/manelneto/ledger/network"
	"go.uber.org/zap"
)

// RESTHandler is the surface local clients use to talk to the node:
// content-addressed key-value storage, transaction submission and
// chain inspection.
type RESTHandler interface {
	// GetData gets the data for the given key. If the data is found it
	// is returned with status 200, otherwise status 404.
	GetData(w http.ResponseWriter, r *http.Request)

	// PutData stores the posted value into the network under its
	// content hash and returns the key.
	PutData(w http.ResponseWriter, r *http.Request)

	// SubmitTransaction signs the posted payload as a transaction of
	// this node and submits it to the pool and the network.
	SubmitTransaction(w http.ResponseWriter, r *http.Request)

	// GetChainInfo returns the best chain height, tip hash and number
	// of pending transactions.
	GetChainInfo(w http.ResponseWriter, r *http.Request)

	// GetBlock returns the block with the given hash, from the best
	// chain or a known side branch.
	GetBlock(w http.ResponseWriter, r *http.Request)

	// ForgeBlock packs pending transactions into the next block and
	// publishes it.
	ForgeBlock(w http.ResponseWriter, r *http.Request)
}

// KademliaRESTHandler is responsible for providing the functionality
// defined in the RESTHandler interface.
type KademliaRESTHandler struct {
	nodeCtx *NodeContext
}

// CreateKademliaRESTHandler creates a new instance which is
// responsible for handling incoming requests from the client.
func CreateKademliaRESTHandler(ctx *NodeContext) *KademliaRESTHandler {
	return &KademliaRESTHandler{nodeCtx: ctx}
}

// GetData retrieves the value for the hex key in the URL, first
// locally and then across the network.
func (h *KademliaRESTHandler) GetData(w http.ResponseWriter, r *http.Request) {
	key, keyParseErr := network.NodeIDFromHex(chi.URLParam(r, "key"))
	if keyParseErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	value, retrieveErr := h.nodeCtx.NodeDataContext.DataRetriever.RetrieveKVPair(r.Context(), key)
	if retrieveErr != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	render.JSON(w, r, map[string]string{
		"key":   key.String(),
		"value": string(value),
	})
}

// PutData stores the posted value under its content hash and answers
// with the derived key.
func (h *KademliaRESTHandler) PutData(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"value"`
	}
	if jsonDecodeErr := render.DecodeJSON(r.Body, &body); jsonDecodeErr != nil || body.Value == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	value := []byte(body.Value)
	key := ContentKey(value)
	if storeErr := h.nodeCtx.NodeDataContext.DataStorer.StoreKVPair(r.Context(), key, value, nil); storeErr != nil {
		h.nodeCtx.Logger.Warn("Cannot store value", zap.Error(storeErr))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	render.JSON(w, r, map[string]string{"key": key.String()})
}

// SubmitTransaction signs the posted payload with this node's identity
// key and submits the resulting transaction.
func (h *KademliaRESTHandler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Payload string `json:"payload"`
	}
	if jsonDecodeErr := render.DecodeJSON(r.Body, &body); jsonDecodeErr != nil || body.Payload == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	tx := ledger.CreateSignedTransaction(h.nodeCtx.Identity.PrivateKey, h.nodeCtx.Identity.PublicKey, []byte(body.Payload))
	if submitErr := h.nodeCtx.Ledger.SubmitTransaction(r.Context(), tx); submitErr != nil {
		h.nodeCtx.Logger.Warn("Transaction rejected", zap.Error(submitErr))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, map[string]string{"error": submitErr.Error()})
		return
	}
	render.JSON(w, r, map[string]string{"id": hex.EncodeToString(tx.ID)})
}

// GetChainInfo reports the best chain height, its tip and the pool
// backlog.
func (h *KademliaRESTHandler) GetChainInfo(w http.ResponseWriter, r *http.Request) {
	tip := h.nodeCtx.Ledger.Chain.BestTip()
	render.JSON(w, r, map[string]interface{}{
		"height":               h.nodeCtx.Ledger.Chain.Height(),
		"tip":                  hex.EncodeToString(tip.Hash),
		"pending_transactions": h.nodeCtx.Ledger.Pool.Len(),
	})
}

// GetBlock returns any known block by its hex hash.
func (h *KademliaRESTHandler) GetBlock(w http.ResponseWriter, r *http.Request) {
	hash, decodeErr := hex.DecodeString(chi.URLParam(r, "hash"))
	if decodeErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	block, present := h.nodeCtx.Ledger.Chain.BlockByHash(hash)
	if !present {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	render.JSON(w, r, block)
}

// ForgeBlock builds and publishes the next block from the pool.
func (h *KademliaRESTHandler) ForgeBlock(w http.ResponseWriter, r *http.Request) {
	block, forgeErr := h.nodeCtx.Ledger.ForgeBlock(r.Context())
	if forgeErr != nil {
		h.nodeCtx.Logger.Warn("Cannot forge block", zap.Error(forgeErr))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, map[string]string{"error": forgeErr.Error()})
		return
	}
	render.JSON(w, r, block)
}
