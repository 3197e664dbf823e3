package client

import "context"

// RoleOption is one of the accounts a mobile number can log in as.
type RoleOption struct {
	Role        string `json:"role"`
	CompanyID   string `json:"companyId,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}

// LoginResult is either a completed login or a pending role selection.
type LoginResult struct {
	RequireSelection bool         `json:"requireSelection"`
	Options          []RoleOption `json:"options,omitempty"`
	SelectionToken   string       `json:"selectionToken,omitempty"`
	AccessToken      string       `json:"accessToken,omitempty"`
	RefreshToken     string       `json:"refreshToken,omitempty"`
	User             *SessionUser `json:"user,omitempty"`
}

// SendOTP requests a one-time code for the mobile number.
func (c *Client) SendOTP(ctx context.Context, mobile string) error {
	return c.Post(ctx, "/api/auth/otp/send", map[string]string{"mobile": mobile}, nil)
}

// VerifyOTP exchanges the code for tokens. When the mobile maps to several
// accounts the result asks for a role selection instead; nothing is stored
// until the selection completes.
func (c *Client) VerifyOTP(ctx context.Context, mobile, code string) (LoginResult, error) {
	var result LoginResult
	err := c.Post(ctx, "/api/auth/otp/verify", map[string]string{
		"mobile": mobile,
		"otp":    code,
	}, &result)
	if err != nil {
		return result, err
	}
	if !result.RequireSelection {
		err = c.storeLogin(result)
	}
	return result, err
}

// SelectRole finishes a disambiguated login using the short-lived
// selection token from VerifyOTP.
func (c *Client) SelectRole(ctx context.Context, selectionToken string, option RoleOption) (LoginResult, error) {
	var result LoginResult
	err := c.Post(ctx, "/api/auth/select-role", map[string]string{
		"selectionToken": selectionToken,
		"role":           option.Role,
		"companyId":      option.CompanyID,
	}, &result)
	if err != nil {
		return result, err
	}
	return result, c.storeLogin(result)
}

func (c *Client) storeLogin(result LoginResult) error {
	return c.sessions.Replace(Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	})
}

// Refresh rotates the token pair in place.
func (c *Client) Refresh(ctx context.Context) error {
	session := c.sessions.Current()
	if session == nil || session.RefreshToken == "" {
		return &APIError{Status: 401, Message: "not logged in"}
	}

	var result LoginResult
	err := c.Post(ctx, "/api/auth/refresh", map[string]string{
		"refreshToken": session.RefreshToken,
	}, &result)
	if err != nil {
		return err
	}
	return c.sessions.Update(func(s *Session) {
		s.AccessToken = result.AccessToken
		s.RefreshToken = result.RefreshToken
		if result.User != nil {
			s.User = result.User
		}
	})
}

// Logout revokes the refresh token server-side and clears the session
// locally regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	session := c.sessions.Current()
	if session != nil && session.RefreshToken != "" {
		_ = c.Post(ctx, "/api/auth/logout", map[string]string{
			"refreshToken": session.RefreshToken,
		}, nil)
	}
	return c.sessions.Clear()
}
