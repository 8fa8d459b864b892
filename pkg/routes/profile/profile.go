package profile

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	profilerepo "github.com/Ramsey-B/jasmine/internal/repositories/profile"
	"github.com/Ramsey-B/jasmine/pkg/matching"
	"github.com/Ramsey-B/jasmine/pkg/utils"
)

// Register registers profile routes on the api group
func Register(g *echo.Group) {
	g.GET("/users/:id/profile", GetProfile)
	g.GET("/users/:id/preferences", GetPreferences)
}

// GetProfile returns one profile snapshot
func GetProfile(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.Param("id")
	if err := utils.ValidateValue(userID, "required,uuid4"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	ctx, repo, err := ectoinject.GetContext[*profilerepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	snapshot, err := repo.GetSnapshot(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, snapshot)
}

// GetPreferences returns one user's canonical preference set. The raw
// document is normalized on the way out so callers always see wildcard
// semantics applied.
func GetPreferences(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.Param("id")
	if err := utils.ValidateValue(userID, "required,uuid4"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	ctx, scorer, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	set, err := scorer.NormalizePreferences(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, set)
}
