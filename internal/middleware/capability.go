package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sheetdesk/internal/authz"
	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/models"
)

// AdminProfileKey holds the *models.AdminProfile resolved by RequireCapabilities.
const AdminProfileKey = "adminProfile"

// RequireCapabilities admits the request only when the caller holds an admin
// profile containing every listed capability. Capabilities are checked on
// each request, so grants and revocations apply without reissuing tokens.
func RequireCapabilities(gate authz.Authorizer, caps ...models.Capability) gin.HandlerFunc {
	required := models.NewCapabilitySet(caps...)
	return func(c *gin.Context) {
		profile, err := gate.Authorize(c.Request.Context(), c.GetString(UserIDKey), required)
		if err != nil {
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			AbortWithError(c, appErr)
			return
		}

		c.Set(AdminProfileKey, profile)
		c.Next()
	}
}

// AdminProfileFrom returns the profile stored by RequireCapabilities, or nil.
func AdminProfileFrom(c *gin.Context) *models.AdminProfile {
	v, ok := c.Get(AdminProfileKey)
	if !ok {
		return nil
	}
	profile, _ := v.(*models.AdminProfile)
	return profile
}
