package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseListParams safely parses and validates the limit and cursor query
// parameters for cursor-paginated listings. The cursor is returned opaque;
// decoding is the pager's responsibility.
func ParseListParams(c *gin.Context, defaultLimit, maxLimit int) (limit int, cursor string, err error) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, "", fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxLimit)
	}

	return limit, c.Query("cursor"), nil
}
