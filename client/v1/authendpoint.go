package v1

import (
	"context"

	"sitepunch.app/sitepunch/account"
)

type AuthEndpoint struct {
	transport *Transport
}

type LoginRequest struct {
	CompanyCode string `json:"companyCode"`
	EmployeeID  string `json:"employeeId"`
	PIN         string `json:"pin"`
}

// Login signs an employee in and keeps the returned token for later calls.
func (ep *AuthEndpoint) Login(ctx context.Context, req LoginRequest) (*account.EmployeeSession, error) {
	var session account.EmployeeSession
	if err := ep.transport.Post(ctx, "/auth/login", req, &session); err != nil {
		return nil, err
	}
	ep.transport.AuthToken = session.Token
	return &session, nil
}

func (ep *AuthEndpoint) Me(ctx context.Context) (*account.Profile, error) {
	var profile account.Profile
	if err := ep.transport.Get(ctx, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
