// Package rpc implements the JSON-RPC 2.0 surface mounted at /rpc. It
// exposes the catalog-backed forecast as a single MCP-style tool,
// get_forecast, discoverable through tools/list and invoked through
// tools/call.
package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/brandao-20/mcp-server-ipma/internal/observability"
	"github.com/brandao-20/mcp-server-ipma/internal/service"
	"github.com/brandao-20/mcp-server-ipma/internal/validation"
)

// JSON-RPC 2.0 error codes. -32000 is the server-defined internal error.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32000
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Tool describes one callable tool in the tools/list response.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// TextContent is one block of a tool result. Callers read content[0].text.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolResult struct {
	Content []TextContent `json:"content"`
}

// Handler serves POST /rpc. With ciMode set, tool calls return an empty
// result without resolving or fetching anything; tools/list stays live since
// it is static.
type Handler struct {
	service *service.Service
	logger  *zap.Logger
	ciMode  bool
}

// NewHandler returns a new Handler.
func NewHandler(service *service.Service, logger *zap.Logger, ciMode bool) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		ciMode:  ciMode,
	}
}

// ServeHTTP handles one non-batch JSON-RPC 2.0 request. RPC-level failures
// are reported in the JSON-RPC error envelope with HTTP status 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.record("invalid", "error")
		writeRPCError(w, nil, codeInvalidRequest, "Pedido inválido")
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		h.record("invalid", "error")
		writeRPCError(w, req.ID, codeInvalidRequest, "Pedido inválido")
		return
	}

	switch req.Method {
	case "tools/list":
		h.record("tools/list", "success")
		writeResult(w, req.ID, toolList())
	case "tools/call":
		h.toolsCall(w, r, req)
	default:
		h.record("other", "error")
		writeRPCError(w, req.ID, codeMethodNotFound, "Método não suportado")
	}
}

func (h *Handler) toolsCall(w http.ResponseWriter, r *http.Request, req request) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.record("tools/call", "error")
		writeRPCError(w, req.ID, codeInvalidParams, "Parâmetros inválidos")
		return
	}

	if params.Name != "get_forecast" {
		h.record("tools/call", "error")
		writeRPCError(w, req.ID, codeMethodNotFound, "Ferramenta não suportada")
		return
	}

	if h.ciMode {
		h.record("tools/call", "success")
		writeResult(w, req.ID, toolResult{Content: []TextContent{}})
		return
	}

	var args struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(params.Arguments, &args); err != nil {
		h.record("tools/call", "error")
		writeRPCError(w, req.ID, codeInvalidParams, "Parâmetro city inválido")
		return
	}
	city, err := validation.ValidateCity(args.City)
	if err != nil {
		h.record("tools/call", "error")
		writeRPCError(w, req.ID, codeInvalidParams, "Parâmetro city inválido")
		return
	}

	globalID, ok := h.service.ResolveCity(city)
	if !ok {
		h.record("tools/call", "error")
		writeRPCError(w, req.ID, codeInvalidParams, "Cidade não encontrada: "+city)
		return
	}

	bundle, err := h.service.Forecast(r.Context(), globalID)
	if err != nil {
		h.record("tools/call", "error")
		switch {
		case errors.Is(err, service.ErrUnknownCity):
			writeRPCError(w, req.ID, codeInvalidParams, "Cidade não encontrada: "+city)
		case errors.Is(err, service.ErrNoForecast):
			writeRPCError(w, req.ID, codeInvalidParams, "Sem dados de previsão")
		default:
			h.logError(r, err)
			writeRPCError(w, req.ID, codeInternalError, "Erro interno no servidor")
		}
		return
	}

	h.record("tools/call", "success")
	writeResult(w, req.ID, toolResult{
		Content: []TextContent{{Type: "text", Text: formatForecastText(bundle)}},
	})
}

func toolList() interface{} {
	return map[string]interface{}{
		"tools": []Tool{
			{
				Name:        "get_forecast",
				Description: "Previsão meteorológica diária do IPMA para uma cidade portuguesa",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []string{"city"},
					"properties": map[string]interface{}{
						"city": map[string]interface{}{
							"type":        "string",
							"description": "Nome da cidade, por exemplo Braga",
						},
					},
				},
			},
		},
	}
}

func (h *Handler) record(method, outcome string) {
	observability.RPCRequestsTotal.WithLabelValues(method, outcome).Inc()
}

func (h *Handler) logError(r *http.Request, err error) {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Error("rpc request failed", zap.Error(err))
	} else if h.logger != nil {
		h.logger.Error("rpc request failed", zap.Error(err))
	}
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	writeResponse(w, response{JSONRPC: "2.0", ID: normalizeID(id), Result: result})
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	writeResponse(w, response{JSONRPC: "2.0", ID: normalizeID(id), Error: &rpcError{Code: code, Message: message}})
}

// normalizeID echoes the caller's id, or null when the request carried none.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

func writeResponse(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
