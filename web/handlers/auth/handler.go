package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitepunch.app/sitepunch/account"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/web/common"
	"sitepunch.app/sitepunch/web/middlewares"
)

type Endpoint struct {
	accounts *account.Service
}

// Register mounts the public login route on public and the profile route on
// protected, which must already run the Authentication middleware.
func Register(public, protected *gin.RouterGroup, accounts *account.Service) {
	ep := &Endpoint{accounts: accounts}
	public.POST("/auth/login", ep.Login)
	protected.GET("/auth/me", ep.Me)
}

type loginRequest struct {
	CompanyCode string `json:"companyCode"`
	EmployeeID  string `json:"employeeId"`
	PIN         string `json:"pin"`
}

func (ep *Endpoint) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteBindingError(c, err)
		return
	}

	session, err := ep.accounts.LoginEmployee(c.Request.Context(), account.EmployeeCredentials{
		CompanyCode:    req.CompanyCode,
		EmployeeNumber: req.EmployeeID,
		PIN:            req.PIN,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(session))
}

func (ep *Endpoint) Me(c *gin.Context) {
	identity, ok := middlewares.CurrentIdentity(c)
	if !ok {
		common.WriteError(c, timeclock.ErrUnauthorized)
		return
	}

	profile, err := ep.accounts.Profile(c.Request.Context(), *identity)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(profile))
}
