package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/security"
)

var (
	ErrMissingCredentials  = errors.New("company code, employee id and pin are required")
	ErrMissingAdminLogin   = errors.New("email and password are required")
	ErrInvalidCompany      = errors.New("invalid company code")
	ErrInvalidEmployeeAuth = errors.New("invalid employee id or pin")
	ErrInvalidAdminAuth    = errors.New("invalid credentials")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrAccountInactive     = errors.New("account is not active")
)

type Service struct {
	directory Directory
	secret    []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(directory Directory, secret []byte, tokenTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		directory: directory,
		secret:    secret,
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

type EmployeeCredentials struct {
	CompanyCode    string
	EmployeeNumber string
	PIN            string
}

type EmployeeSession struct {
	Token    string          `json:"token"`
	Employee *model.Employee `json:"employee"`
}

type AdminSession struct {
	Token string       `json:"token"`
	Admin *model.Admin `json:"admin"`
}

// Profile is what /auth/me reports for the caller.
type Profile struct {
	Identity security.Identity `json:"identity"`
	Employee *model.Employee   `json:"employee,omitempty"`
	Admin    *model.Admin      `json:"admin,omitempty"`
}

// LoginEmployee checks a company code, employee number and PIN and issues an
// employee token. Inactive employees cannot sign in.
func (s *Service) LoginEmployee(ctx context.Context, creds EmployeeCredentials) (*EmployeeSession, error) {
	code := strings.ToLower(strings.TrimSpace(creds.CompanyCode))
	number := strings.TrimSpace(creds.EmployeeNumber)
	if code == "" || number == "" || creds.PIN == "" {
		return nil, ErrMissingCredentials
	}

	company, err := s.directory.FindCompanyByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find company: %w", err)
	}
	if company == nil {
		return nil, ErrInvalidCompany
	}

	employee, err := s.directory.FindEmployeeByNumber(ctx, company.ID, number)
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	if employee == nil || !employee.Active {
		return nil, ErrInvalidEmployeeAuth
	}
	ok, err := security.CompareSecret(employee.PinHash, creds.PIN)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidEmployeeAuth
	}

	role := employee.Role
	if role == "" {
		role = model.RoleEmployee
	}
	token, err := security.CreateIdentityToken(security.Identity{
		EmployeeID: employee.ID,
		CompanyID:  company.ID,
		Role:       role,
	}, s.secret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	now := s.now()
	if err := s.directory.RecordEmployeeLogin(ctx, employee.ID, now); err != nil {
		// the sign-in itself succeeded
		s.logger.Warn("record employee login", zap.String("employeeId", employee.ID), zap.Error(err))
	} else {
		employee.LastLogin = &now
	}

	return &EmployeeSession{Token: token, Employee: employee}, nil
}

func (s *Service) LoginAdmin(ctx context.Context, email, password string) (*AdminSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrMissingAdminLogin
	}

	admin, err := s.directory.FindAdminByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if admin == nil || !admin.Active {
		return nil, ErrInvalidAdminAuth
	}
	ok, err := security.CompareSecret(admin.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidAdminAuth
	}

	token, err := security.CreateIdentityToken(security.Identity{
		EmployeeID: admin.ID,
		CompanyID:  admin.CompanyID,
		Role:       model.RoleAdmin,
	}, s.secret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	now := s.now()
	if err := s.directory.RecordAdminLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn("record admin login", zap.String("adminId", admin.ID), zap.Error(err))
	} else {
		admin.LastLogin = &now
	}

	return &AdminSession{Token: token, Admin: admin}, nil
}

func (s *Service) Profile(ctx context.Context, identity security.Identity) (*Profile, error) {
	profile := &Profile{Identity: identity}

	if identity.Role == model.RoleAdmin {
		admin, err := s.directory.FindAdmin(ctx, identity.CompanyID, identity.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("find admin: %w", err)
		}
		if admin != nil {
			profile.Admin = admin
			return profile, nil
		}
	}

	employee, err := s.directory.FindEmployee(ctx, identity.CompanyID, identity.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	if employee == nil {
		return nil, ErrProfileNotFound
	}
	profile.Employee = employee
	return profile, nil
}

// EnsureActive fails with ErrAccountInactive when the account behind a still
// valid token has been deactivated or removed.
func (s *Service) EnsureActive(ctx context.Context, identity security.Identity) error {
	if identity.Role == model.RoleAdmin {
		admin, err := s.directory.FindAdmin(ctx, identity.CompanyID, identity.EmployeeID)
		if err != nil {
			return fmt.Errorf("find admin: %w", err)
		}
		if admin == nil || !admin.Active {
			return ErrAccountInactive
		}
		return nil
	}

	employee, err := s.directory.FindEmployee(ctx, identity.CompanyID, identity.EmployeeID)
	if err != nil {
		return fmt.Errorf("find employee: %w", err)
	}
	if employee == nil || !employee.Active {
		return ErrAccountInactive
	}
	return nil
}

type BootstrapInput struct {
	CompanyCode   string
	CompanyName   string
	AdminEmail    string
	AdminPassword string
	FirstName     string
	LastName      string
}

// Bootstrap creates a company with its first administrator.
func (s *Service) Bootstrap(ctx context.Context, in BootstrapInput) (*model.Company, *model.Admin, error) {
	code := strings.ToLower(strings.TrimSpace(in.CompanyCode))
	email := strings.ToLower(strings.TrimSpace(in.AdminEmail))
	if code == "" || in.CompanyName == "" || email == "" || in.AdminPassword == "" {
		return nil, nil, errors.New("company code, company name, admin email and password are required")
	}

	hash, err := security.HashSecret(in.AdminPassword)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	company := &model.Company{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      in.CompanyName,
		Settings:  model.CompanySettings{}.WithDefaults(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.directory.CreateCompany(ctx, company); err != nil {
		return nil, nil, fmt.Errorf("create company %s: %w", code, err)
	}

	admin := &model.Admin{
		ID:           uuid.New().String(),
		CompanyID:    company.ID,
		Email:        email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         model.RoleAdmin,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
	}
	if err := s.directory.CreateAdmin(ctx, admin); err != nil {
		return nil, nil, fmt.Errorf("create admin %s: %w", email, err)
	}

	s.logger.Info("company bootstrapped", zap.String("companyId", company.ID), zap.String("code", code))
	return company, admin, nil
}
