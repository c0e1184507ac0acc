package api

import (
	"contract_system/internal/service" // Service sentinel errors
	"errors"                           // Error comparison
	"net/http"                         // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// errorStatus maps service errors to the status and message shown to clients
var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrContractNotFound, http.StatusNotFound, "Contract not found"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrCreatorNotFound, http.StatusBadRequest, "Creator not found"},
	{service.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{service.ErrInvalidRole, http.StatusBadRequest, "Role must be one of admin, client, seeker"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "Status must be one of draft, sent, signed"},
	{service.ErrInvalidSignature, http.StatusBadRequest, "Signature must be a base64 PNG image"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{service.ErrAlreadySigned, http.StatusConflict, "Contract already signed"},
	{service.ErrNotDraft, http.StatusConflict, "Only draft contracts can be edited"},
}

// respondError writes {"error": message} for err; unknown errors become a 500
// with the fallback message and are logged.
func respondError(c *gin.Context, err error, fallback string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.message})
			return
		}
	}
	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString("requestID"), // Correlation ID
		"path":       c.Request.URL.Path,       // Request path
		"error":      err.Error(),              // Error message
	}).Error(fallback)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

// badRequest rejects a body or query that failed to bind
func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
}
