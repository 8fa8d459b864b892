package match

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/jasmine/pkg/matching"
	"github.com/Ramsey-B/jasmine/pkg/models"
	"github.com/Ramsey-B/jasmine/pkg/utils"
)

// Register registers match routes on the api group
func Register(g *echo.Group) {
	g.POST("/matches/score", ComputeMatchScore)
	g.GET("/users/:id/matches", FindMatchingUsers)
}

// ComputeMatchScore scores one pair of users in both directions
func ComputeMatchScore(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.ComputeMatchScoreRequest](c)
	if err != nil {
		return err
	}

	ctx, scorer, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := scorer.ComputeMatchScore(ctx, req.UserID1, req.UserID2)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// FindMatchingUsers returns one page of ranked candidates for a viewer
func FindMatchingUsers(c echo.Context) error {
	ctx := c.Request().Context()

	viewerID := c.Param("id")
	if err := utils.ValidateValue(viewerID, "required,uuid4"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	pageSize, err := queryInt(c, "page_size")
	if err != nil {
		return err
	}

	ctx, finder, err := ectoinject.GetContext[*matching.Finder](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := finder.FindMatchingUsers(ctx, viewerID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// queryInt parses an optional positive integer query parameter; 0 means
// absent and lets the finder apply its defaults
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "%s must be a positive integer", name)
	}
	return value, nil
}
