package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/errs"
)

const maxBody = 1 << 20

func writeEnvelope(w http.ResponseWriter, status int, env convert.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData(w http.ResponseWriter, status int, data any) {
	env := convert.Envelope{Success: true}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			writeFail(w, http.StatusInternalServerError, "encode response")
			return
		}
		env.Data = b
	}
	writeEnvelope(w, status, env)
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, convert.Envelope{Success: false, Message: msg})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrExpired):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as an envelope. Internal errors are logged and not echoed.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeFail(w, code, "internal error")
		return
	}
	writeFail(w, code, err.Error())
}

// decode reads a JSON body into dst and validates its struct tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: bad json: %v", errs.ErrValidation, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrValidation, describe(err))
	}
	return nil
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
