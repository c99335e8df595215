package cache

import (
	"fmt"
	"net/http"

	"fulfillment-engine/internal/models"
)

type ErrorHandler struct {
	Err        error
	StatusCode int
}

func NewErrorHandler(err error, statusCode int) ErrorHandler {
	return ErrorHandler{Err: err, StatusCode: statusCode}
}

func (e ErrorHandler) Error() string { return e.Err.Error() }

// ProjectionCacheRepo keeps the latest reconciled projection per canonical
// order number for the read API.
type ProjectionCacheRepo struct {
	cch KV
}

func NewProjectionCache(cch KV) *ProjectionCacheRepo {
	return &ProjectionCacheRepo{cch: cch}
}

func (c *ProjectionCacheRepo) PutProjection(number string, p models.OrderProjection) {
	c.cch.Put(number, p)
}

func (c *ProjectionCacheRepo) GetProjection(number string) (models.OrderProjection, error) {
	v, ok := c.cch.Get(number)
	if !ok {
		return models.OrderProjection{},
			NewErrorHandler(fmt.Errorf("order %s not found", number), http.StatusNotFound)
	}

	p, ok := v.(models.OrderProjection)
	if !ok {
		return models.OrderProjection{},
			NewErrorHandler(fmt.Errorf("unexpected cache entry for order %s", number),
				http.StatusInternalServerError)
	}
	return p, nil
}

func (c *ProjectionCacheRepo) GetAllProjections() ([]models.OrderProjection, error) {
	snap := c.cch.Snapshot()
	if len(snap) == 0 {
		return []models.OrderProjection{}, nil
	}

	out := make([]models.OrderProjection, 0, len(snap))
	for number, v := range snap {
		p, ok := v.(models.OrderProjection)
		if !ok {
			return nil,
				NewErrorHandler(fmt.Errorf("unexpected cache entry for order %s", number),
					http.StatusInternalServerError)
		}
		out = append(out, p)
	}
	return out, nil
}
