package moderation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"eden/internal/apperr"
	"eden/internal/models"
	"eden/internal/money"
)

// Fields is the kind-specific payload of a posting: one of *JobListingFields,
// *StoreItemFields or *ServiceAvailFields.
type Fields interface {
	Kind() models.Kind
	common() *Common
	apply(p *models.Posting)
}

// Common are the fields every kind carries.
type Common struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"required"`
	ImagePath   string `json:"-" form:"-"`
}

type JobListingFields struct {
	Common
	HourlyRate *float64 `json:"hourly_rate" form:"hourly_rate" validate:"required,gte=0,lte=100000000"`
}

// StoreItemFields.Price is in the legacy storefront scale (150 displays as ₱15.00).
type StoreItemFields struct {
	Common
	Price       *float64 `json:"price" form:"price" validate:"required,gte=0,lte=100000000"`
	Subcategory string   `json:"subcategory" form:"subcategory" validate:"required,oneof=tools decoration plants flowers miscellaneous"`
}

type ServiceAvailFields struct {
	Common
	ParentJobID uint `json:"parent_job_id" form:"parent_job_id" validate:"required"`
}

func (*JobListingFields) Kind() models.Kind   { return models.KindJobListing }
func (*StoreItemFields) Kind() models.Kind    { return models.KindStore }
func (*ServiceAvailFields) Kind() models.Kind { return models.KindServiceAvail }

func (f *JobListingFields) common() *Common   { return &f.Common }
func (f *StoreItemFields) common() *Common    { return &f.Common }
func (f *ServiceAvailFields) common() *Common { return &f.Common }

func (c *Common) apply(p *models.Posting) {
	p.Title = c.Title
	p.Description = c.Description
	if c.ImagePath != "" {
		p.ImagePath = c.ImagePath
	}
	p.HourlyRate = nil
	p.PriceCentavos = nil
	p.Subcategory = nil
	p.ParentJobID = nil
}

func (f *JobListingFields) apply(p *models.Posting) {
	f.Common.apply(p)
	rate := *f.HourlyRate
	p.HourlyRate = &rate
}

func (f *StoreItemFields) apply(p *models.Posting) {
	f.Common.apply(p)
	price := int64(money.FromLegacyPrice(*f.Price))
	sub := f.Subcategory
	p.PriceCentavos = &price
	p.Subcategory = &sub
}

func (f *ServiceAvailFields) apply(p *models.Posting) {
	f.Common.apply(p)
	parent := f.ParentJobID
	p.ParentJobID = &parent
}

// NewFields returns an empty payload for kind, ready to be decoded into.
func NewFields(kind models.Kind) (Fields, error) {
	switch kind {
	case models.KindJobListing:
		return &JobListingFields{}, nil
	case models.KindStore:
		return &StoreItemFields{}, nil
	case models.KindServiceAvail:
		return &ServiceAvailFields{}, nil
	}
	return nil, apperr.Validation("moderation.NewFields", "unknown posting type %q", kind)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateFields trims the free-text fields and checks f against its kind's contract.
func validateFields(op string, f Fields) error {
	if f == nil || reflect.ValueOf(f).IsNil() {
		return apperr.Validation(op, "missing posting fields")
	}
	c := f.common()
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	if name := nonFinite(f); name != "" {
		return apperr.Validation(op, "%s must be a finite number", name)
	}
	return validateStruct(op, f)
}

// nonFinite names the first NaN or infinite amount in f.
func nonFinite(f Fields) string {
	bad := func(v *float64) bool { return v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) }
	switch f := f.(type) {
	case *JobListingFields:
		if bad(f.HourlyRate) {
			return "hourly_rate"
		}
	case *StoreItemFields:
		if bad(f.Price) {
			return "price"
		}
	}
	return ""
}

func validateStruct(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return apperr.Validation(op, "%s", strings.Join(msgs, "; "))
	}
	return apperr.Validation(op, "%v", err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email address"
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}
