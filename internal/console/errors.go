package console

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/pkg/ctxlog"
	"github.com/bissquit/mediconnect-console/internal/pkg/httputil"
)

// notificationFor maps err to a response status and an error banner.
// Feature mappings are tried first, then platform rejections, which show the
// server's message or fallback. Anything else is logged and reported
// generically.
func notificationFor(ctx context.Context, err error, fallback string, mappings []httputil.ErrorMapping) (int, domain.Notification) {
	if m, ok := httputil.Match(err, mappings, backend.ErrorMappings); ok {
		return m.Status, domain.Failure(m.Message)
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusOK
		if apiErr.Status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return status, domain.Failure(apiErr.MessageOr(fallback))
	}

	if errors.Is(err, backend.ErrMalformedResponse) {
		ctxlog.FromContext(ctx).Warn("unexpected platform response", "error", err)
		return http.StatusBadGateway, domain.Failure(fallback)
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	return http.StatusInternalServerError, domain.Failure(httputil.GenericFailure)
}
