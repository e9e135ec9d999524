// Package handlers adapts the services to gin: request binding, id parsing
// and the envelope/status mapping the browser client expects.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/errs"
)

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func successList(c *gin.Context, count int, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count, "data": data})
}

func created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message, "data": data})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// fail maps an error kind onto its HTTP status. Unclassified errors are
// internal.
func fail(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindConflict:
		status = http.StatusConflict
	case errs.KindConsistency:
		status = http.StatusInternalServerError
	default:
		message = "internal server error"
	}

	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.JSON(status, gin.H{"success": false, "message": message})
}

// paramID parses the :id route parameter, answering a 400 itself when the
// value is not a valid object id.
func paramID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id "+c.Param("id"))
		return primitive.NilObjectID, false
	}
	return id, true
}
