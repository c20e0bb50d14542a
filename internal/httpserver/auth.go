package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jewelry-storefront/internal/api"
	usersvc "jewelry-storefront/internal/service/user"
)

func (h *handler) signup(c *gin.Context) {
	var req api.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}
	u, token, err := h.deps.UserSvc.Signup(c.Request.Context(), usersvc.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.AuthResponse{Msg: api.MsgSignedUp, User: u, Token: token})
}

func (h *handler) signin(c *gin.Context) {
	var req api.SignInRequest
	if !bindJSON(c, &req) {
		return
	}
	u, token, err := h.deps.UserSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AuthResponse{Msg: api.MsgSignedIn, User: u, Token: token})
}

// signout revokes the presented token, if any. It always succeeds so a client
// holding a stale token can still clear its session.
func (h *handler) signout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if err := h.deps.UserSvc.Logout(c.Request.Context(), token); err != nil {
			h.logger.Warn("revoke token failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, api.MessageResponse{Success: true, Message: api.MsgSignedOut})
}

func (h *handler) forgotPassword(c *gin.Context) {
	var req api.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.deps.UserSvc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Success: true, Message: api.MsgCodeSent})
}

func (h *handler) verifyCode(c *gin.Context) {
	var req api.VerifyCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.deps.UserSvc.VerifyCode(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	msg := api.MsgCodeValid
	if req.NewPassword != "" {
		msg = api.MsgPasswordSet
	}
	c.JSON(http.StatusOK, api.MessageResponse{Success: true, Message: msg})
}
