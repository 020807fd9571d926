package domain

import (
	"net/http"

	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// Invariant violations raised by domain types before persistence.
var (
	ErrInvalidRole        = apperrors.NewDomainError(apperrors.CodeInvariantViolation, "unknown role", http.StatusUnprocessableEntity, nil)
	ErrDuplicateRole      = apperrors.NewDomainError(apperrors.CodeInvariantViolation, "primary and secondary role must differ", http.StatusUnprocessableEntity, nil)
	ErrIllegalTransition  = apperrors.NewDomainError(apperrors.CodeInvariantViolation, "illegal complaint status transition", http.StatusUnprocessableEntity, nil)
	ErrUnreviewedReviewer = apperrors.NewDomainError(apperrors.CodeInvariantViolation, "reviewed resolution requires a reviewer", http.StatusUnprocessableEntity, nil)
)
