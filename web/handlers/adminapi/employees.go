package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/web/common"
)

type createEmployeeRequest struct {
	FirstName  string  `json:"firstName" binding:"required"`
	LastName   string  `json:"lastName" binding:"required"`
	EmployeeID string  `json:"employeeId" binding:"required"`
	PIN        string  `json:"pin" binding:"required,min=4"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
}

type updateEmployeeRequest struct {
	FirstName  *string `json:"firstName" binding:"omitempty,min=1"`
	LastName   *string `json:"lastName" binding:"omitempty,min=1"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	PIN        *string `json:"pin" binding:"omitempty,min=4"`
	Active     *bool   `json:"active"`
}

func (ep *Endpoint) ListEmployees(c *gin.Context) {
	employees, err := ep.admin.ListEmployees(c.Request.Context(), companyID(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"employees": employees}))
}

func (ep *Endpoint) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteBindingError(c, err)
		return
	}

	employee, err := ep.admin.CreateEmployee(c.Request.Context(), companyID(c), admin.NewEmployee{
		EmployeeNumber: req.EmployeeID,
		PIN:            req.PIN,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Department:     req.Department,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(employee))
}

// employeeID reads the ?id= query parameter the console sends.
func employeeID(c *gin.Context) (string, error) {
	id := c.Query("id")
	if id == "" {
		return "", &timeclock.ValidationError{Field: "id", Message: "is required"}
	}
	return id, nil
}

func (ep *Endpoint) UpdateEmployee(c *gin.Context) {
	id, err := employeeID(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteBindingError(c, err)
		return
	}

	err = ep.admin.UpdateEmployee(c.Request.Context(), companyID(c), id, admin.EmployeeUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Department: req.Department,
		PIN:        req.PIN,
		Active:     req.Active,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"id": id}))
}

// DeleteEmployee deactivates; time entries stay.
func (ep *Endpoint) DeleteEmployee(c *gin.Context) {
	id, err := employeeID(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	if err := ep.admin.DeactivateEmployee(c.Request.Context(), companyID(c), id); err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"id": id}))
}
