package checkout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofalre.io/storefront/checkout"
)

func TestForm_Validate(t *testing.T) {
	valid := checkout.Form{Name: "Ada Lovelace", PhoneNumber: "+442071234567", Address: "12 St James's Square"}

	tests := []struct {
		name       string
		form       func() checkout.Form
		wantFields map[string]string
	}{
		{
			name: "valid form",
			form: func() checkout.Form { return valid },
		},
		{
			name: "phone without plus",
			form: func() checkout.Form {
				f := valid
				f.PhoneNumber = "4155550123"
				return f
			},
		},
		{
			name: "two letter name",
			form: func() checkout.Form {
				f := valid
				f.Name = "Bo"
				return f
			},
		},
		{
			name: "short name",
			form: func() checkout.Form {
				f := valid
				f.Name = "A"
				return f
			},
			wantFields: map[string]string{"name": checkout.MessageNameTooShort},
		},
		{
			name: "name padded with spaces",
			form: func() checkout.Form {
				f := valid
				f.Name = "  A  "
				return f
			},
			wantFields: map[string]string{"name": checkout.MessageNameTooShort},
		},
		{
			name: "phone with leading zero",
			form: func() checkout.Form {
				f := valid
				f.PhoneNumber = "0123456789"
				return f
			},
			wantFields: map[string]string{"phone_number": checkout.MessageInvalidPhone},
		},
		{
			name: "phone too long",
			form: func() checkout.Form {
				f := valid
				f.PhoneNumber = "+1234567890123456"
				return f
			},
			wantFields: map[string]string{"phone_number": checkout.MessageInvalidPhone},
		},
		{
			name: "phone with letters",
			form: func() checkout.Form {
				f := valid
				f.PhoneNumber = "+1-555-CALL"
				return f
			},
			wantFields: map[string]string{"phone_number": checkout.MessageInvalidPhone},
		},
		{
			name: "short address",
			form: func() checkout.Form {
				f := valid
				f.Address = "Home"
				return f
			},
			wantFields: map[string]string{"address": checkout.MessageAddressTooShort},
		},
		{
			name: "everything wrong",
			form: func() checkout.Form { return checkout.Form{} },
			wantFields: map[string]string{
				"name":         checkout.MessageNameTooShort,
				"phone_number": checkout.MessageInvalidPhone,
				"address":      checkout.MessageAddressTooShort,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form().Validate()
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *checkout.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, len(tt.wantFields))
			for field, msg := range tt.wantFields {
				assert.Equal(t, msg, verr.Message(field))
			}
		})
	}
}

func TestValidationError_ReportsFieldsInFormOrder(t *testing.T) {
	err := checkout.Form{}.Validate()

	assert.EqualError(t, err, "invalid checkout form: "+
		checkout.MessageNameTooShort+"; "+
		checkout.MessageInvalidPhone+"; "+
		checkout.MessageAddressTooShort)
	assert.Equal(t, checkout.MessageNameTooShort, checkout.Message(err))
}
