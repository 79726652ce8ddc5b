package imagefile

import (
	"errors"
	"net/http"
	"strconv"

	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/pathutil"
	"universitas/internal/handler/http/respond"
	"universitas/internal/repository"
	photoUC "universitas/internal/usecase/photo"
)

type SearchHandler struct{ Svc Service }

// ServeHTTP finds duplicates of a file before it is uploaded.
//
//	GET /images/search?md5=...&fingerprint=...&filename=IMG_0042.jpg&cutoff=0.5
//	GET /images/search?basename=IMG_0042.jpg&cutoff=0.5
//
// basename compares with the full file name of each original instead of
// the stem.
func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var cutoff float64
	if v := q.Get("cutoff"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("invalid query parameter: cutoff must be between 0 and 1"))
			return
		}
		cutoff = f
	}

	var (
		images []*entity.ImageFile
		err    error
	)
	if name := q.Get("basename"); name != "" {
		images, err = h.Svc.FilenameSearch(r.Context(), name, cutoff)
	} else {
		images, err = h.Svc.Search(r.Context(), photoUC.SearchQuery{
			MD5:         q.Get("md5"),
			Fingerprint: q.Get("fingerprint"),
			Filename:    q.Get("filename"),
			Cutoff:      cutoff,
		})
	}
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(h.Svc, images))
}

type SimilarHandler struct{ Svc Service }

// ServeHTTP lists images like the one in the path.
//
//	GET /images/{id}/similar?field=imagehash|md5|created&minutes=30
func (h SimilarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	q := r.URL.Query()
	field := repository.SimilarField(q.Get("field"))
	switch field {
	case "", repository.SimilarByImageHash, repository.SimilarByMD5, repository.SimilarByCreated:
	default:
		respond.SafeError(w, http.StatusBadRequest, repository.ErrInvalidSimilarField)
		return
	}
	var minutes int
	if v := q.Get("minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("invalid query parameter: minutes must be a positive integer"))
			return
		}
		minutes = n
	}

	images, err := h.Svc.Similar(r.Context(), id, field, minutes)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(h.Svc, images))
}
