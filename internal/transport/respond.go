package transport

import (
	"errors"
	"net/http"
	"strconv"

	"wishyoulucky/internal/cart"
	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/repository"
	"wishyoulucky/internal/service"
	"wishyoulucky/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// statusFor maps service and repository errors to an HTTP status and client message.
func statusFor(err error) (int, string, bool) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return http.StatusNotFound, "product not found", true
	case errors.Is(err, repository.ErrProductImageNotFound):
		return http.StatusNotFound, "image not found", true
	case errors.Is(err, repository.ErrCategoryNotFound):
		return http.StatusNotFound, "category not found", true
	case errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound, "order not found", true
	case errors.Is(err, repository.ErrBannerNotFound), errors.Is(err, repository.ErrCategoryBannerNotFound):
		return http.StatusNotFound, "banner not found", true
	case errors.Is(err, repository.ErrWishlistItemNotFound):
		return http.StatusNotFound, "wishlist item not found", true
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "user not found", true
	case errors.Is(err, service.ErrCartItemNotFound):
		return http.StatusNotFound, "cart item not found", true
	case errors.Is(err, repository.ErrProductExtraNotFound):
		return http.StatusNotFound, "product extra info not found", true
	case errors.Is(err, service.ErrNoRecipients):
		return http.StatusNotFound, "no customers have ordered this sku", true

	case errors.Is(err, repository.ErrProductSKUExists):
		return http.StatusConflict, "a product with this sku already exists", true
	case errors.Is(err, repository.ErrProductSlugExists):
		return http.StatusConflict, "a product with this slug already exists", true
	case errors.Is(err, repository.ErrCategoryAlreadyExists):
		return http.StatusConflict, "a category with this name already exists", true
	case errors.Is(err, repository.ErrUserAlreadyExists):
		return http.StatusConflict, "user with this email already exists", true
	case errors.Is(err, cart.ErrConflict):
		return http.StatusConflict, "cart was modified concurrently, please retry", true

	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest, "cart is empty", true
	case errors.Is(err, service.ErrProductUnavailable):
		return http.StatusConflict, err.Error(), true
	case errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid order status", true
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, "amount must not be negative", true
	case errors.Is(err, service.ErrOrderAccessDenied):
		// same answer as a missing order so numbers cannot be probed
		return http.StatusNotFound, "order not found", true
	case errors.Is(err, repository.ErrTagNameRequired):
		return http.StatusBadRequest, "tag name is required", true

	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file exceeds 10 MiB", true
	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "only jpeg, png, webp and gif images are accepted", true
	case errors.Is(err, storage.ErrEmptyFile):
		return http.StatusBadRequest, "file is empty", true
	case errors.Is(err, storage.ErrInvalidFolder):
		return http.StatusBadRequest, "invalid folder", true
	}
	return 0, "", false
}

// respondError writes the error envelope for err. Unknown errors are logged and
// reported as a 500 with fallback as the message.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var verrs service.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]middleware.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, middleware.ValidationError{Field: fe.Field, Message: fe.Message})
		}
		middleware.RespondWithValidationErrors(w, out)
		return
	}

	if code, msg, ok := statusFor(err); ok {
		logger.Debug("Request rejected", zap.Int("status", code), zap.Error(err))
		middleware.RespondWithError(w, code, msg)
		return
	}

	logger.Error("Request failed", zap.String("reason", fallback), zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

// int64Param reads a positive numeric URL parameter.
func int64Param(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func isAdmin(r *http.Request) bool {
	role, ok := middleware.GetUserRole(r.Context())
	return ok && role == domain.RoleAdmin
}
