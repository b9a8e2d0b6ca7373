package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Phone    string `json:"phone_number" validate:"omitempty,phone"`
	Note     string `json:"note" validate:"omitempty,notblank,max=5"`
	Channel  string `json:"channel" validate:"omitempty,oneof=SMS Email"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateStruct(signup{Email: "a@b.co", Password: "Str0ng!pass", Phone: "+91 98765 43210"}))
	})

	t.Run("one error per field with json names", func(t *testing.T) {
		err := ValidateStruct(signup{Email: "nope", Password: "weak", Note: "too long", Channel: "Fax"})

		var multi *MultiError
		require.ErrorAs(t, err, &multi)

		fields := map[string]string{}
		for _, e := range multi.Errors {
			var v *ValidationError
			require.True(t, errors.As(e, &v))
			fields[v.Field] = v.Message
		}

		require.Equal(t, "invalid email format", fields["email"])
		require.Contains(t, fields["password"], "at least 8 characters")
		require.Equal(t, "must be at most 5 characters", fields["note"])
		require.Equal(t, "must be one of: SMS, Email", fields["channel"])
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(signup{Password: "Str0ng!pass"})

		require.Equal(t, "email: email is required", Message(err))
	})
}

func TestPasswordProblems(t *testing.T) {
	t.Parallel()

	require.Empty(t, PasswordProblems("Str0ng!pass"))
	require.Len(t, PasswordProblems(""), 5)
	require.Equal(t, []string{"password must contain at least one special character"}, PasswordProblems("Str0ngpass"))
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"9876543210", "+919876543210", "+91 98765-43210"} {
		require.NoError(t, ValidatePhone(ok), ok)
	}
	for _, bad := range []string{"", "12345", "+91-abc-defghij", "98765432101234567"} {
		require.Error(t, ValidatePhone(bad), bad)
	}
}

func TestValidateURL(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateURL("http://localhost:8080/api/v1"))
	require.Error(t, ValidateURL("not a url"))
	require.EqualError(t, ValidateURL(" "), "URL is required")
}
