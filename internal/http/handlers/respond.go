package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vistahr/stayhub/internal/domain/listing"
)

// Error responses are {"error": message} with an optional "fields" map of
// field name -> violation message. Internal failures never leak detail.

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"error": message})
}

func RespondValidation(ctx *gin.Context, fields listing.FieldErrors) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":  "Validation failed",
		"fields": fields,
	})
}

func RespondBadRequest(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, message)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message)
}

func RespondForbidden(ctx *gin.Context) {
	RespondError(ctx, http.StatusForbidden, "Forbidden")
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusConflict, message)
}

func RespondStorageError(ctx *gin.Context) {
	RespondError(ctx, http.StatusInternalServerError, "Database error")
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message)
}
