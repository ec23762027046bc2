package validation

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
)

// DateLayout is the format of date query parameters.
const DateLayout = "2006-01-02"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Checker is implemented by requests with rules that span several fields.
// Check runs after the tag rules and adds its findings to errs.
type Checker interface {
	Check(errs *apperrors.ValidationErrors)
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("notplaceholder", func(fl validator.FieldLevel) bool {
			return !domain.IsPlaceholder(fl.Field().String())
		})

		validate = v
	})
	return validate
}

// Struct runs the tag rules of s and, when s implements Checker, its
// cross-field rules. It returns *errors.ValidationErrors or nil.
func Struct(s any) error {
	errs := apperrors.NewValidationErrors()

	if err := instance().Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs.Add(fe.Field(), message(fe))
		}
	}

	if c, ok := s.(Checker); ok {
		c.Check(errs)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "notplaceholder":
		return "Please select a value"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	}
	return "Invalid value"
}

// DecodeAndValidate decodes the JSON request body and validates it
func DecodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}

	if err := Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ParseDate reads a YYYY-MM-DD query parameter. def is returned when the
// parameter is absent.
func ParseDate(r *http.Request, key string, def time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.NewBadRequestError(err, "Invalid "+key+" date, expected YYYY-MM-DD")
	}
	return t, nil
}

// ParseDateWindow reads the from/to query parameters, each defaulting to today.
// Inverted windows are allowed and simply match nothing.
func ParseDateWindow(r *http.Request, today time.Time) (start, end time.Time, err error) {
	today = domain.DateOf(today)
	if start, err = ParseDate(r, "from", today); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = ParseDate(r, "to", today); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ParseDateRange reads an optional from/to filter. It returns nil when neither
// parameter is present; a missing end defaults to the other one.
func ParseDateRange(r *http.Request) (*domain.DateRange, error) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		return nil, nil
	}

	from, err := ParseDate(r, "from", time.Time{})
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(r, "to", time.Time{})
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = to
	}
	if to.IsZero() {
		to = from
	}

	rng, err := domain.NewDateRange(from, to)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err, "from must not be after to")
	}
	return &rng, nil
}

// ParseStatusFilter reads the status query parameter.
func ParseStatusFilter(r *http.Request) (domain.StatusFilter, error) {
	status, err := domain.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		return "", apperrors.NewBadRequestError(err, "status must be one of: all, open, closed")
	}
	return status, nil
}

// ParseID parses a positive integer path parameter.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Invalid ticket ID")
	}
	return id, nil
}

// ParseMulti collects a repeatable query parameter (?k=a&k=b), dropping blanks.
func ParseMulti(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		if v := strings.TrimSpace(raw); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseStatuses reads repeated status parameters and maps each one to the
// stored ticket status label. "all" contributes nothing.
func ParseStatuses(r *http.Request, key string) ([]string, error) {
	var out []string
	for _, raw := range ParseMulti(r, key) {
		filter, err := domain.ParseStatusFilter(raw)
		if err != nil {
			return nil, apperrors.NewBadRequestError(err, "status must be one of: all, open, closed")
		}
		status, ok := filter.Status()
		if !ok {
			continue
		}
		if !slices.Contains(out, string(status)) {
			out = append(out, string(status))
		}
	}
	return out, nil
}
