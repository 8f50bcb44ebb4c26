package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultCurrency is applied when a submission carries no main currency
const DefaultCurrency = "USD"

// Length caps on stored values; the values themselves are not parsed
const (
	MaxPhotoURLLength     = 2048
	MaxMainCurrencyLength = 64
)

// UserSettings is the per-user settings document
type UserSettings struct {
	ID           string  `json:"id,omitempty"`
	UserID       string  `json:"user_id"`
	PhotoURL     *string `json:"photo_url"`
	MainCurrency string  `json:"main_currency"`
}

// Sentinel errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("settings not found")
	ErrInternal         = errors.New("an error occurred while processing your request")
	ErrInvalidSettings  = errors.New("invalid settings")
	ErrDocumentNotFound = errors.New("settings document not found")
	ErrDuplicateUser    = errors.New("settings document already exists for user")
)

// UpsertRequest is the client-submitted settings payload.
// UserID is accepted for compatibility and always ignored.
type UpsertRequest struct {
	UserID       *string `json:"user_id,omitempty"`
	PhotoURL     *string `json:"photo_url" validate:"omitempty,max=2048"`
	MainCurrency *string `json:"main_currency" validate:"omitempty,max=64"`
}

// UpsertResult reports whether an upsert created a new document
type UpsertResult struct {
	Created  bool
	Settings *UserSettings
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the submitted fields
func (r *UpsertRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request cannot be nil", ErrInvalidSettings)
	}

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	return nil
}

// ToSettings builds a full document for userID from the submission.
// Fields missing from the submission take their defaults.
func (r *UpsertRequest) ToSettings(userID string) *UserSettings {
	s := &UserSettings{
		UserID:       userID,
		MainCurrency: DefaultCurrency,
	}
	if r == nil {
		return s
	}

	if r.PhotoURL != nil {
		photo := *r.PhotoURL
		s.PhotoURL = &photo
	}
	if r.MainCurrency != nil && *r.MainCurrency != "" {
		s.MainCurrency = *r.MainCurrency
	}

	return s
}
