package api

import (
	"net/http"

	"eventplanner/internal/domain/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message   string     `json:"message"`
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expires_in"`
}

// @Summary     Sign up
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      user.RegisterInput  true  "Account"
// @Success     201      {object}  authResponse
// @Failure     400      {object}  apperr.AppError  "validation failed"
// @Failure     429      {object}  apperr.AppError  "rate limited"
// @Router      /api/v1/auth/register [post]
func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}

	u, err := h.userSvc.Register(r.Context(), req)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	h.issueToken(w, r, http.StatusCreated, "Account created", u)
}

// @Summary     Log in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      loginRequest  true  "Credentials"
// @Success     200      {object}  authResponse
// @Failure     401      {object}  apperr.AppError  "invalid credentials"
// @Failure     429      {object}  apperr.AppError  "rate limited"
// @Router      /api/v1/auth/login [post]
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}

	u, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	h.issueToken(w, r, http.StatusOK, "Logged in", u)
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request, status int, msg string, u *user.User) {
	token, err := h.jwtMgr.Generate(u.ID, u.RoleNames())
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, status, authResponse{
		Message:   msg,
		User:      u,
		Token:     token,
		ExpiresIn: int64(h.jwtMgr.TTL().Seconds()),
	})
}
