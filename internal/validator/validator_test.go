package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/GophAuth/internal/models"
)

func validForm() models.SignUpForm {
	return models.SignUpForm{
		FirstName:            "Ada",
		LastName:             "Lovelace",
		Email:                "ada@example.com",
		Password:             "longenough1",
		PasswordConfirmation: "longenough1",
	}
}

func TestValidateStruct_SignUpForm(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *models.SignUpForm)
		want   map[string]string
	}{
		{
			name:   "valid",
			mutate: func(f *models.SignUpForm) {},
			want:   nil,
		},
		{
			name:   "missing first name",
			mutate: func(f *models.SignUpForm) { f.FirstName = "" },
			want:   map[string]string{"first_name": "First name required"},
		},
		{
			name:   "missing last name",
			mutate: func(f *models.SignUpForm) { f.LastName = "" },
			want:   map[string]string{"last_name": "Last name required"},
		},
		{
			name:   "missing email",
			mutate: func(f *models.SignUpForm) { f.Email = "" },
			want:   map[string]string{"email": "Email is required"},
		},
		{
			name:   "malformed email",
			mutate: func(f *models.SignUpForm) { f.Email = "not-an-email" },
			want:   map[string]string{"email": "Invalid email address"},
		},
		{
			name: "short password",
			mutate: func(f *models.SignUpForm) {
				f.Password = "short"
				f.PasswordConfirmation = "short"
			},
			want: map[string]string{"password": "Password is too short - should be 8 chars minimum."},
		},
		{
			name:   "confirmation mismatch",
			mutate: func(f *models.SignUpForm) { f.PasswordConfirmation = "different" },
			want:   map[string]string{"password_confirmation": "Password must match"},
		},
		{
			name:   "empty confirmation is not accepted",
			mutate: func(f *models.SignUpForm) { f.PasswordConfirmation = "" },
			want:   map[string]string{"password_confirmation": "Password must match"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			fields, err := ValidateStruct(form)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Empty(t, fields)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, fields)
		})
	}
}

func TestValidateStruct_EmptyFormReportsEveryField(t *testing.T) {
	fields, err := ValidateStruct(models.SignUpForm{})
	require.Error(t, err)

	assert.Equal(t, "First name required", fields["first_name"])
	assert.Equal(t, "Last name required", fields["last_name"])
	assert.Equal(t, "Email is required", fields["email"])
	assert.Equal(t, "Password is required", fields["password"])
	_, hasConfirmation := fields["password_confirmation"]
	assert.False(t, hasConfirmation, "empty confirmation equals empty password")
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	fields, err := ValidateStruct("plain string")
	require.Error(t, err)
	assert.Contains(t, fields, "_")
}
