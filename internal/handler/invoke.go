// Package handler holds ledgerd's gin HTTP handlers and middleware.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/recordledger/internal/contract"
	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/identity"
	"go.uber.org/zap"
)

// Invoker runs a contract function as a caller. *contract.Gateway
// satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, contractName, function string, args []string, caller identity.Caller) (*contract.Response, error)
	Contracts() []string
}

// InvokeRequest is the body of POST /contracts/:contract/invoke.
type InvokeRequest struct {
	Function string   `json:"function" binding:"required"`
	Args     []string `json:"args"`
}

// InvokeHandler exposes the contract gateway over HTTP.
type InvokeHandler struct {
	gw     Invoker
	logger *zap.Logger
}

// NewInvokeHandler creates an InvokeHandler.
func NewInvokeHandler(gw Invoker, logger *zap.Logger) *InvokeHandler {
	return &InvokeHandler{gw: gw, logger: logger}
}

// Register mounts the contract routes on rg. rg must run identity.Authenticate.
func (h *InvokeHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/contracts", h.List)
	rg.POST("/contracts/:contract/invoke", h.Invoke)
}

// List handles GET /contracts.
func (h *InvokeHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"contracts": h.gw.Contracts()})
}

// Invoke handles POST /contracts/:contract/invoke.
func (h *InvokeHandler) Invoke(c *gin.Context) {
	caller, ok := identity.CallerFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}

	var req InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": fault.Malformed})
		return
	}
	if req.Args == nil {
		req.Args = []string{}
	}

	resp, err := h.gw.Invoke(c.Request.Context(), c.Param("contract"), req.Function, req.Args, caller)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(resp.Status, resp)
}

func (h *InvokeHandler) writeError(c *gin.Context, err error) {
	kind := fault.KindOf(err)
	if kind == fault.Internal {
		h.logger.Error("invoke",
			zap.String("contract", c.Param("contract")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "kind": kind})
		return
	}
	c.JSON(fault.HTTPStatus(kind), gin.H{"error": err.Error(), "kind": kind})
}
