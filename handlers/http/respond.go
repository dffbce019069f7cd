package httpHandler

import (
	"errors"
	"net/http"
	"strconv"

	"starter-server/apperrors"
	"starter-server/logger"
	"starter-server/middleware"
	"starter-server/repositories"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// base carries what every handler needs to answer errors.
type base struct {
	log logger.Logger
}

func (b base) fail(c *gin.Context, err error) {
	middleware.AbortWithError(c, b.log, err)
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

func respondList[T any](c *gin.Context, items []T, total int64) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "count": len(items), "total": total})
}

// bindJSON decodes the body into dst. Field rule failures keep their
// detail; anything else is reported as a malformed body.
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	var maxErr *http.MaxBytesError
	if errors.As(err, &verrs) || errors.As(err, &maxErr) {
		return err
	}
	return apperrors.Validation("invalid request body")
}

func principal(c *gin.Context) usecases.Principal {
	p, _ := middleware.CurrentPrincipal(c)
	return p
}

// listQuery reads ?q=&status=&limit=&offset=&sort=&order=.
func listQuery(c *gin.Context) (repositories.ListQuery, error) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return repositories.ListQuery{}, err
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		return repositories.ListQuery{}, err
	}
	if offset < 0 {
		return repositories.ListQuery{}, apperrors.Validation("offset cannot be negative")
	}
	return repositories.ListQuery{
		Search:    c.Query("q"),
		Status:    c.Query("status"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}, nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validationf("%s must be an integer", key)
	}
	return n, nil
}

func boolQuery(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}
