package account

import "time"

// Account maps to one row of login_data (patients) or doctor_data (doctors).
// The two variants share every column except doctor_key.
type Account struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	DoctorKey    string    `db:"doctor_key" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RegisterInput carries the raw registration form fields. DoctorKey is only
// consulted for doctor registration.
type RegisterInput struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	DoctorKey       string `json:"key" form:"key"`
}

// ChangePasswordInput carries the raw password-change form fields.
type ChangePasswordInput struct {
	OldPassword     string `json:"old_password" form:"old_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}
