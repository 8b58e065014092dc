package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pratik-mahalle/tiergate/internal/api/dto"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/utils"
	"github.com/pratik-mahalle/tiergate/internal/pkg/validator"
)

const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst. It writes the error response
// itself and reports whether the handler should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validator, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return false
	}
	if validationErrs := v.Validate(dst); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return false
	}
	return true
}

func toUserDTO(rec *user.Record) *dto.UserDTO {
	return &dto.UserDTO{
		ID:        rec.ID,
		Email:     rec.Email,
		Role:      rec.Role,
		PlanID:    string(rec.Subscription.PlanID),
		ExpiresAt: rec.Subscription.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}
}
