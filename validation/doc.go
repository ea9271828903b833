// Package validation validates request DTOs with struct tags.
//
//	type SignUpRequest struct {
//	    Email    string `json:"email" validate:"required,email"`
//	    Password string `json:"password" validate:"required,min=8"`
//	}
//	if err := validation.Validate(req); err != nil {
//	    // err is an *errors.AppError with code BAD_REQUEST and per-field details
//	}
package validation
