package services

import (
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/srs"
)

var validate = validator.New()

// validationError turns the first failed validator rule into a VALIDATION_ERROR.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return errors.NewValidationError(strings.ToLower(fe.Field()), reason)
	}
	return errors.NewBadRequestError(err.Error())
}

// storeError maps repository errors onto AppErrors. resource and id are used
// for NOT_FOUND messages.
func storeError(err error, resource string, id any) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return errors.NewNotFoundError(resource, id)
	case stderrors.Is(err, repository.ErrConflict):
		return errors.NewConflictError(resource+" was modified concurrently, try again", err)
	case stderrors.Is(err, repository.ErrDuplicate):
		return errors.NewConflictError(resource+" already exists", err)
	case stderrors.Is(err, srs.ErrInvalidQuality):
		return errors.NewInvalidQualityError(err)
	case stderrors.Is(err, srs.ErrInvalidState):
		return errors.NewInternalError(err)
	default:
		return errors.NewPersistenceError(err)
	}
}

func canSee(deck *models.Deck, userID int64) bool {
	return deck.OwnerID == userID || deck.IsPublic
}
