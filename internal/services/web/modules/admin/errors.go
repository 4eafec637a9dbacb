package admin

import (
	"errors"

	newsletterdomain "github.com/pepedome/site/internal/services/newsletter/domain"
	"github.com/pepedome/site/internal/services/newsletter/render"
	apperrors "github.com/pepedome/site/internal/services/web/platform/errors"
)

// errInvalidTime is returned when the schedule field does not parse.
var errInvalidTime = errors.New("invalid schedule time")

// domainErrors maps newsletter sentinels to web kinds and admin catalog keys.
var domainErrors = []struct {
	err  error
	kind apperrors.Kind
	key  string
}{
	{newsletterdomain.ErrNotFound, apperrors.KindNotFound, ""},
	{newsletterdomain.ErrSubjectRequired, apperrors.KindInvalidInput, "admin.error.subject_required"},
	{newsletterdomain.ErrSectionsRequired, apperrors.KindInvalidInput, "admin.error.sections_required"},
	{newsletterdomain.ErrScheduleInPast, apperrors.KindInvalidInput, "admin.error.schedule_in_past"},
	{newsletterdomain.ErrInvalidSection, apperrors.KindInvalidInput, "admin.error.invalid_section"},
	{newsletterdomain.ErrContentNotFound, apperrors.KindInvalidInput, "admin.error.content_not_found"},
	{newsletterdomain.ErrInvalidOrder, apperrors.KindConflict, "admin.error.invalid_order"},
	{newsletterdomain.ErrInvalidTransition, apperrors.KindConflict, "admin.error.invalid_transition"},
	{newsletterdomain.ErrConflict, apperrors.KindConflict, "admin.error.conflict"},
	{render.ErrEmptySubject, apperrors.KindInvalidInput, "admin.error.subject_required"},
	{errInvalidTime, apperrors.KindInvalidInput, "admin.error.invalid_time"},
}

// classify wraps known domain errors in typed web errors. Unknown errors
// pass through and surface as server errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, mapping := range domainErrors {
		if errors.Is(err, mapping.err) {
			return apperrors.Wrap(mapping.kind, mapping.key, err)
		}
	}
	return err
}
