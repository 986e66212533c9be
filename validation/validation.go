// Package validation defines the typed request bodies accepted by the API.
// Field rules live in `validate` struct tags; each Validate method returns the
// failing fields, or nil when the request is well formed.
package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"travel-server/models"
	"travel-server/utils/errors"
)

// Limits enforced by the validate tags below; keep the two in step.
const (
	MaxMessageLength     = 500
	MaxBioLength         = 255
	MaxNameLength        = 50
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
	MaxCategories        = 10
	MinPasswordLength    = 8
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsObjectID reports whether s has the shape of a document id.
func IsObjectID(s string) bool {
	return objectIDPattern.MatchString(s)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return IsObjectID(fl.Field().String())
	})
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Result collects field errors in the order they were found.
type Result []errors.FieldError

func (r *Result) add(field, format string, args ...any) {
	*r = append(*r, errors.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err converts the result into a validation APIError, or nil when empty.
func (r Result) Err() error {
	if len(r) == 0 {
		return nil
	}
	return errors.NewValidationError(r)
}

// check runs the struct tags of req.
func check(req any) Result {
	var r Result
	err := validate.Struct(req)
	if err == nil {
		return r
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		r.add("body", "%v", err)
		return r
	}
	for _, fe := range fieldErrs {
		r = append(r, errors.FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return r
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "objectid":
		return "Invalid ObjectId format"
	case "email":
		return "email is not a valid address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return field + " must not be empty"
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("at most %s %s allowed", fe.Param(), field)
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, lowerFirst(fe.Param()))
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

type CreateThreadRequest struct {
	Initiator  string   `json:"initiator" validate:"required,objectid"`
	Recipients []string `json:"recipients" validate:"min=1,dive,objectid"`
	Message    string   `json:"message" validate:"notblank,max=500"`
}

func (req CreateThreadRequest) Validate() Result {
	return check(req)
}

type PostMessageRequest struct {
	Content string `json:"content" validate:"notblank,max=500"`
}

func (req PostMessageRequest) Validate() Result {
	return check(req)
}

// ParticipantRequest is the body of event register/unregister.
type ParticipantRequest struct {
	UserID string `json:"userId" validate:"required,objectid"`
}

func (req ParticipantRequest) Validate() Result {
	return check(req)
}

type RegisterRequest struct {
	Email     string               `json:"email" validate:"required,email"`
	Password  string               `json:"password" validate:"required,min=8"`
	FirstName string               `json:"firstName" validate:"notblank,max=50"`
	LastName  string               `json:"lastName" validate:"notblank,max=50"`
	Location  *models.LocationData `json:"location,omitempty"`
}

func (req RegisterRequest) Validate() Result {
	r := check(req)
	if req.Location != nil {
		r.location("location", *req.Location)
	}
	return r
}

type LoginRequest struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

func (req LoginRequest) Validate() Result {
	return check(req)
}

// EventRequest is the body of event create and edit.
type EventRequest struct {
	Title       string               `json:"title" validate:"notblank,max=100"`
	Description string               `json:"description" validate:"max=2000"`
	ImageURL    string               `json:"imageUrl"`
	StartDate   time.Time            `json:"startDate" validate:"required"`
	EndDate     time.Time            `json:"endDate" validate:"required,gtefield=StartDate"`
	Categories  []string             `json:"categories" validate:"max=10"`
	Location    *models.LocationData `json:"location,omitempty"`
}

func (req EventRequest) Validate() Result {
	r := check(req)
	if req.Location != nil {
		r.location("location", *req.Location)
	}
	return r
}

// Details converts the request into the service input.
func (req EventRequest) Details() models.EventDetails {
	return models.EventDetails{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Categories:  req.Categories,
		Location:    req.Location,
	}
}

type ProfileRequest struct {
	FirstName      string `json:"firstName" validate:"notblank,max=50"`
	LastName       string `json:"lastName" validate:"notblank,max=50"`
	Bio            string `json:"bio" validate:"max=255"`
	ImageURL       string `json:"imageUrl,omitempty"`
	DeleteImageURL bool   `json:"deleteImageUrl,omitempty"`
}

func (req ProfileRequest) Validate() Result {
	return check(req)
}

func (req ProfileRequest) Update() models.ProfileUpdate {
	return models.ProfileUpdate{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Bio:            req.Bio,
		ImageURL:       req.ImageURL,
		DeleteImageURL: req.DeleteImageURL,
	}
}

type LocationRequest struct {
	Location *models.LocationData `json:"location"`
}

func (req LocationRequest) Validate() Result {
	var r Result
	if req.Location == nil {
		r.add("location", "location is required")
		return r
	}
	r.location("location", *req.Location)
	return r
}

func (r *Result) location(field string, loc models.LocationData) {
	if loc.FormattedAddress == "" && loc.Coords.IsZero() {
		r.add(field, "%s needs an address or coordinates", field)
	}
	if !loc.Coords.Valid() {
		r.add(field+".coords", "coordinates are out of range")
	}
}
