package common

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type loginBody struct {
	CompanyCode string `json:"companyCode" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Hours       int    `json:"hours" binding:"gte=0,lte=168"`
}

func bindBody(body string) error {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var b loginBody
	return c.ShouldBindJSON(&b)
}

func TestFormatBindingError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "Request body is empty"},
		{"syntax", `{"companyCode" "acme"}`, "Invalid JSON"},
		{"type", `{"companyCode":"acme","hours":"many"}`, "hours should be of type int"},
		{"required", `{}`, "companyCode is required"},
		{"email", `{"companyCode":"acme","email":"nope"}`, "email must be a valid email"},
		{"range", `{"companyCode":"acme","hours":500}`, "hours must be at most 168"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, FormatBindingError(bindBody(tt.body)), tt.want)
		})
	}
	assert.Equal(t, "", FormatBindingError(nil))
}
