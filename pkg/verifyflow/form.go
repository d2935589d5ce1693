package verifyflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	RatingExcellent = "excellent"
	RatingGood      = "good"
	RatingFair      = "fair"
	RatingPoor      = "poor"
)

const MaxCommentsLength = 500

var ErrInvalidForm = errors.New("invalid verification form")

var validate = validator.New()

// Form is the reference-giver's feedback.
type Form struct {
	Rating   string `validate:"required,oneof=excellent good fair poor"`
	Comments string `validate:"required,min=1,max=500"`
}

func NewForm() Form {
	return Form{Rating: RatingGood}
}

func (f Form) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Rating":
			msgs = append(msgs, "please select a rating")
		case "Comments":
			if fe.Tag() == "max" {
				msgs = append(msgs, fmt.Sprintf("comments must be at most %d characters", MaxCommentsLength))
			} else {
				msgs = append(msgs, "please provide comments")
			}
		}
	}

	return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(msgs, ", "))
}
