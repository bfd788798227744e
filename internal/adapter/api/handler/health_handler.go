package handler

import (
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"google.golang.org/api/iterator"
)

type HealthHandler struct {
	firestoreClient *firestore.Client
}

func NewHealthHandler(firestoreClient *firestore.Client) *HealthHandler {
	return &HealthHandler{
		firestoreClient: firestoreClient,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// CheckFirestoreHealth runs a cheap read against Firestore to confirm the
// backing datastore is reachable.
func (h *HealthHandler) CheckFirestoreHealth(c echo.Context) error {
	ctx := c.Request().Context()
	iter := h.firestoreClient.Collections(ctx)
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "Firestore connection failed",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Firestore connected successfully",
	})
}
