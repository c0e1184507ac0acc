package api

import (
	"contract_system/internal/domain"     // Importing domain models
	"contract_system/internal/middleware" // Auth context helpers
	"contract_system/internal/service"    // Business logic
	"net/http"                            // HTTP status codes
	"strconv"                             // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateContractRequest is the body of POST /api/contracts
type CreateContractRequest struct {
	Title       string `json:"title" binding:"required,max=255"` // Contract title
	Content     string `json:"content" binding:"required"`       // Contract body
	CreatedByID *uint  `json:"createdById"`                      // Defaults to the caller
}

// UpdateContractRequest is the body of PATCH /api/contracts/:id
type UpdateContractRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=255"` // New title
	Content *string `json:"content" binding:"omitempty,min=1"`       // New body
}

// SendContractRequest is the body of POST /api/contracts/:id/send
type SendContractRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"` // Recipient email
}

// SignContractRequest is the body of POST /api/contracts/:id/sign
type SignContractRequest struct {
	Signature string `json:"signature" binding:"required"` // Base64 PNG, usually a data URL
}

func actorFrom(c *gin.Context) service.Actor {
	userID, role, _ := middleware.CurrentUser(c)
	return service.Actor{UserID: userID, Role: role}
}

// contractID parses :id; anything that is not a positive integer cannot name a contract
func contractID(c *gin.Context) (uint, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
	}
	return id, ok
}

// CreateContractHandler creates a draft contract
func CreateContractHandler(contracts *service.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateContractRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		in := service.CreateContractInput{Title: req.Title, Content: req.Content}
		if req.CreatedByID != nil {
			in.CreatedByID = *req.CreatedByID
		}
		contract, err := contracts.Create(c.Request.Context(), actorFrom(c), in)
		if err != nil {
			respondError(c, err, "Failed to create contract")
			return
		}
		c.JSON(http.StatusCreated, contract)
	}
}

// ListContractsHandler returns contracts newest first, optionally filtered and paged
func ListContractsHandler(contracts *service.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := service.ContractFilter{Status: domain.ContractStatus(c.Query("status"))}
		// Parse optional user filters
		for param, dst := range map[string]*uint{"createdById": &filter.CreatedByID, "signedById": &filter.SignedByID} {
			if raw := c.Query(param); raw != "" {
				v, err := strconv.ParseUint(raw, 10, 64)
				if err != nil {
					badRequest(c)
					return
				}
				*dst = uint(v)
			}
		}
		if page, pageSize, paged := pageParams(c); paged {
			filter.Page, filter.PageSize = page, pageSize
		}
		list, total, err := contracts.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err, "Failed to fetch contracts")
			return
		}
		c.Header("X-Total-Count", strconv.FormatInt(total, 10))
		c.JSON(http.StatusOK, list)
	}
}

// GetContractHandler returns a single contract with its signatures
func GetContractHandler(contracts *service.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contractID(c)
		if !ok {
			return
		}
		contract, err := contracts.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "Failed to fetch contract")
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

// UpdateContractHandler edits the title or content of a draft
func UpdateContractHandler(contracts *service.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contractID(c)
		if !ok {
			return
		}
		var req UpdateContractRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		contract, err := contracts.Update(c.Request.Context(), actorFrom(c), id, service.UpdateContractInput{
			Title:   req.Title,
			Content: req.Content,
		})
		if err != nil {
			respondError(c, err, "Failed to update contract")
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

// DeleteContractHandler removes a contract
func DeleteContractHandler(contracts *service.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contractID(c)
		if !ok {
			return
		}
		if err := contracts.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
			respondError(c, err, "Failed to delete contract")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// SendContractHandler sends a contract to a client by email
func SendContractHandler(contracts *service.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contractID(c)
		if !ok {
			return
		}
		var req SendContractRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		contract, err := contracts.Send(c.Request.Context(), actorFrom(c), id, req.ClientEmail)
		if err != nil {
			respondError(c, err, "Failed to send contract")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "contract": contract})
	}
}

// SignContractHandler records a drawn signature on a contract
func SignContractHandler(contracts *service.ContractService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contractID(c)
		if !ok {
			return
		}
		var req SignContractRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		signerID, _, _ := middleware.CurrentUser(c) // Zero for anonymous signing links
		contract, err := contracts.Sign(c.Request.Context(), id, signerID, req.Signature)
		if err != nil {
			respondError(c, err, "Failed to sign contract")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Contract signed successfully", "contract": contract})
	}
}
