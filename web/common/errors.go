package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitepunch.app/sitepunch/account"
	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/timeclock"
)

var clientErrors = []struct {
	err     error
	status  int
	message string
}{
	{timeclock.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{timeclock.ErrAlreadyClockedIn, http.StatusBadRequest, "Already clocked in"},
	{timeclock.ErrNotClockedIn, http.StatusBadRequest, "Not clocked in"},
	{account.ErrMissingCredentials, http.StatusBadRequest, "Company code, employee ID, and PIN are required"},
	{account.ErrMissingAdminLogin, http.StatusBadRequest, "Email and password are required"},
	{account.ErrInvalidCompany, http.StatusUnauthorized, "Invalid company code"},
	{account.ErrInvalidEmployeeAuth, http.StatusUnauthorized, "Invalid employee ID or PIN"},
	{account.ErrInvalidAdminAuth, http.StatusUnauthorized, "Invalid credentials"},
	{account.ErrProfileNotFound, http.StatusNotFound, "Profile not found"},
	{account.ErrAccountInactive, http.StatusUnauthorized, "Account is inactive"},
	{admin.ErrCompanyNotFound, http.StatusNotFound, "Company not found"},
	{admin.ErrEmployeeNotFound, http.StatusNotFound, "Employee not found"},
	{admin.ErrEmployeeExists, http.StatusBadRequest, "Employee ID already exists"},
}

// WriteError is the one place domain errors become HTTP responses. Anything
// not recognised is a 500; its cause is attached to the context for the
// request logger and never sent to the client.
func WriteError(c *gin.Context, err error) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			c.JSON(ce.status, NewErrorResponse(ce.message))
			return
		}
	}

	var verr *timeclock.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(verr.Error()))
		return
	}

	c.Error(err)
	c.JSON(http.StatusInternalServerError, NewErrorResponse("Server error"))
}

// WriteBindingError answers a request whose body or query failed to bind.
func WriteBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, NewErrorResponse(FormatBindingError(err)))
}
