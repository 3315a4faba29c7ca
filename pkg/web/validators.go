package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gte returns a ParamValidator that checks if the argument is greater than or equal to the value captured in the closure.
func gte(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue >= closedValue
	})
}

// ParseOptionalGte reads an optional integer query parameter that must be >= value.
// A missing parameter yields def.
func ParseOptionalGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, value int64, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	return parseValidate(raw, w, logger, key, gte(value))
}

// ParseOptionalEnum reads an optional query parameter restricted to allowed values.
// A missing parameter yields def.
func ParseOptionalEnum(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def string, allowed ...string) (string, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	if !slices.Contains(allowed, raw) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s value: %s", key, raw))
		return "", false
	}
	return raw, true
}

func parseValidate(value string, w http.ResponseWriter, logger *slog.Logger, key string, pValidator ParamValidator) (int, bool) {
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int(intValue), true
}
