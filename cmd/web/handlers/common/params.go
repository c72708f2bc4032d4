package common

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// NonNegativeQueryInt reads an optional integer query parameter, defaulting
// to def. Non-integers and negative values are rejected with a 400.
func NonNegativeQueryInt(c echo.Context, param string, def int64) (int64, error) {
	v := def
	if err := echo.QueryParamsBinder(c).Int64(param, &v).BindError(); err != nil {
		return 0, ErrBadRequest(fmt.Sprintf("%s: must be an integer", param))
	}
	if v < 0 {
		return 0, ErrBadRequest(fmt.Sprintf("%s: must be >= 0", param))
	}
	return v, nil
}
