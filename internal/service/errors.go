package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderLocked            = errors.New("order can no longer be edited")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrProductNotFound        = errors.New("product not found")
	ErrProductUnavailable     = errors.New("product is not available for this customer")
	ErrVisitNotFound          = errors.New("visit not found")
	ErrInvalidVisitTransition = errors.New("invalid visit transition")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrDuplicateUser          = errors.New("username or email already exists")
)
