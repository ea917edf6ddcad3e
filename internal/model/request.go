package model

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,max=254"`
	Password  string `json:"password" validate:"required,max=128"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// LoginRequest accepts either username or email as the identifier.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type EmailRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,max=128"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,max=254"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=128"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Type string `json:"type" validate:"required,oneof=income expense"`
}

type UpdateCategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
	Type *string `json:"type" validate:"omitempty,oneof=income expense"`
}

type CreateTransactionRequest struct {
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Type       string  `json:"type" validate:"required,oneof=income expense"`
	CategoryID string  `json:"category_id" validate:"required"`
	Date       string  `json:"date"`
	Note       string  `json:"note" validate:"max=500"`
}

type UpdateTransactionRequest struct {
	Amount     *float64 `json:"amount" validate:"omitempty,gt=0"`
	Type       *string  `json:"type" validate:"omitempty,oneof=income expense"`
	CategoryID *string  `json:"category_id" validate:"omitempty,min=1"`
	Date       *string  `json:"date"`
	Note       *string  `json:"note" validate:"omitempty,max=500"`
}

type BulkDeleteRequest struct {
	TransactionIDs []string `json:"transaction_ids" validate:"required,min=1,dive,required"`
}

type UserReportRequest struct {
	Format     string `json:"format" validate:"omitempty,oneof=csv excel pdf"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	Type       string `json:"type" validate:"omitempty,oneof=income expense"`
	CategoryID string `json:"category_id"`
}

type SystemReportRequest struct {
	Format    string `json:"format" validate:"omitempty,oneof=csv excel pdf"`
	Type      string `json:"type" validate:"omitempty,oneof=overview financial user-activity transaction-details"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Period    string `json:"period" validate:"omitempty,oneof=month quarter year"`
}
