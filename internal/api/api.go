// Package api defines the JSON bodies exchanged between the storefront
// client and the API server.
package api

import "jewelry-storefront/internal/domain"

// TotalCountHeader carries the unpaged row count of list responses.
const TotalCountHeader = "X-Total-Count"

// DataResponse wraps a single resource or an unpaged list.
type DataResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every 4xx/5xx answer.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type BatchRequest struct {
	IDs []string `json:"ids"`
}

type CartResponse struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    []domain.CartLine `json:"data"`
}

type DeleteCartItemRequest struct {
	CartItemID string `json:"cartItemId"`
}

type AddressListResponse struct {
	Msg        string           `json:"msg"`
	AllAddress []domain.Address `json:"allAddress"`
}

type AddressMessage struct {
	Msg string `json:"msg"`
}

type OrdersResponse struct {
	Success bool           `json:"success"`
	Orders  []domain.Order `json:"orders"`
}

type PlaceOrderRequest struct {
	AddressID string `json:"addressId"`
}

type OrderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Order   *domain.Order `json:"order"`
}

type UpdateOrderRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse answers sign-up and sign-in.
type AuthResponse struct {
	Msg   string       `json:"msg"`
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyCodeRequest checks a reset code. When NewPassword is set the
// password is replaced as well.
type VerifyCodeRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword,omitempty"`
}

// Messages the server answers auth calls with.
const (
	MsgSignedUp    = "Signup Successful!"
	MsgSignedIn    = "LoggedIn Successful!"
	MsgSignedOut   = "Signed out"
	MsgCodeSent    = "If the account exists, a verification code has been sent"
	MsgCodeValid   = "Code verified"
	MsgPasswordSet = "Password updated"
)
