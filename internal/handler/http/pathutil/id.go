package pathutil

import (
	"errors"
	"net/http"
	"strconv"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// PathID parses the {name} wildcard of a ServeMux pattern such as
// "GET /stories/{id}".
func PathID(r *http.Request, name string) (int64, error) {
	return parseID(r.PathValue(name))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
