package handler

import (
	"strconv"

	"github.com/go-faster/errors"
)

func parseProductID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

func parseLimit(raw string, fallback, maxLimit int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, errors.Errorf("limit must be an integer between 1 and %d", maxLimit)
	}
	return limit, nil
}
