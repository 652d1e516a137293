package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"snipbin/cfg"
	"snipbin/pkg/codec"
	"snipbin/pkg/domain"
	"snipbin/svc/svc"
	"snipbin/svc/util"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/text/unicode/norm"
)

type Hdl struct {
	engine *svc.Service
	cfg    *cfg.Cfg
}

func (h *Hdl) CreateProfile(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	identity := Identity(r.Context())
	if identity == "" {
		writeErr(w, domain.ErrUnauthorized, requestID)
		return
	}
	var req domain.CreateProfileParams
	if !h.decodeBody(w, r, &req, requestID) {
		return
	}
	req.Name = sanitize(req.Name)
	req.Gravatar = sanitize(req.Gravatar)
	req.Bio = sanitize(req.Bio)
	profile, err := h.engine.CreateProfile(r.Context(), identity, req)
	if err != nil {
		log.Warn().Err(err).Msg("create profile failed")
		writeErr(w, err, requestID)
		return
	}
	log.Info().Str("identity", identity).Msg("profile created")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(profile)
}

func (h *Hdl) GetProfile(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	identity := Identity(r.Context())
	if identity == "" {
		writeErr(w, domain.ErrUnauthorized, requestID)
		return
	}
	profile, err := h.engine.GetProfile(r.Context(), identity)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(profile)
}

func (h *Hdl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	identity := Identity(r.Context())
	if identity == "" {
		writeErr(w, domain.ErrUnauthorized, requestID)
		return
	}
	var req domain.UpdateProfileParams
	if !h.decodeBody(w, r, &req, requestID) {
		return
	}
	sanitizePtr(req.Name)
	sanitizePtr(req.Gravatar)
	sanitizePtr(req.Bio)
	profile, err := h.engine.UpdateProfile(r.Context(), identity, req)
	if err != nil {
		log.Warn().Err(err).Msg("update profile failed")
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(profile)
}

func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	var req domain.CreatePasteParams
	if !h.decodeBody(w, r, &req, requestID) {
		return
	}
	if req.Content == "" {
		log.Warn().Msg("empty content")
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	if len(req.Content) > codec.MaxPasteSize {
		writeErr(w, domain.ErrRecordTooLarge, requestID)
		return
	}
	req.Name = sanitize(req.Name)
	req.Description = sanitize(req.Description)
	req.Tags = sanitize(req.Tags)
	req.Content = norm.NFC.String(req.Content)

	paste, err := h.engine.CreatePaste(r.Context(), Identity(r.Context()), req)
	if err != nil {
		log.Warn().Err(err).Msg("create paste failed")
		writeErr(w, err, requestID)
		return
	}
	log.Info().
		Str("paste_id", paste.ID).
		Bool("anonymous", paste.Creator == nil).
		Uint32("expire_seconds", paste.ExpireSeconds).
		Msg("paste created")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(paste)
}

func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	paste, err := h.engine.GetPaste(r.Context(), id)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(paste)
}

func (h *Hdl) UpdatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	var req domain.UpdatePasteParams
	if !h.decodeBody(w, r, &req, requestID) {
		return
	}
	if req.Content != nil && len(*req.Content) > codec.MaxPasteSize {
		writeErr(w, domain.ErrRecordTooLarge, requestID)
		return
	}
	sanitizePtr(req.Name)
	sanitizePtr(req.Description)
	sanitizePtr(req.Tags)
	if req.Content != nil {
		c := norm.NFC.String(*req.Content)
		req.Content = &c
	}
	paste, err := h.engine.UpdatePaste(r.Context(), Identity(r.Context()), id, req)
	if err != nil {
		log.Warn().Err(err).Str("paste_id", id).Msg("update paste failed")
		writeErr(w, err, requestID)
		return
	}
	log.Info().Str("paste_id", id).Int("version", paste.Version).Msg("paste updated")
	json.NewEncoder(w).Encode(paste)
}

// GetOwnedPastes lists pastes owned by ?owner=, defaulting to the caller.
func (h *Hdl) GetOwnedPastes(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = Identity(r.Context())
	}
	pastes, err := h.engine.GetPastesByOwner(r.Context(), owner)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(pastes)
}

func (h *Hdl) GetRecentPastes(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	// An absent count means the default; an explicit 0 means none.
	count := -1
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErr(w, domain.ErrInvalidRequest, requestID)
			return
		}
		count = n
	}
	pastes, err := h.engine.GetRecentPastes(r.Context(), count)
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(pastes)
}

func (h *Hdl) SearchByTag(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	pastes, err := h.engine.FindPastesByTag(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(pastes)
}

func (h *Hdl) SearchByName(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	pastes, err := h.engine.FindPastesByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(pastes)
}

func (h *Hdl) SearchByExtension(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	pastes, err := h.engine.FindPastesByExtension(r.Context(), chi.URLParam(r, "ext"))
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(pastes)
}

func (h *Hdl) ResolveShortURL(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	paste, err := h.engine.ResolveShortURL(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	json.NewEncoder(w).Encode(paste)
}

func (h *Hdl) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, requestID string) bool {
	log := hlog.FromRequest(r)
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		log.Warn().Str("content_type", r.Header.Get("Content-Type")).Msg("invalid Content-Type header")
		w.WriteHeader(http.StatusUnsupportedMediaType)
		json.NewEncoder(w).Encode(map[string]string{
			"error":      "expected Content-Type: application/json",
			"request_id": requestID,
		})
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			log.Warn().Msg("empty request body")
		} else {
			log.Warn().Err(err).Msg("invalid request body")
		}
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return false
	}
	return true
}

func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	w.WriteHeader(statusCode)
	errorMsg := domain.ToResp(err).Error.Msg
	if statusCode >= 500 {
		errorMsg = "internal server error"
		util.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("internal error with detailed info")
	}
	json.NewEncoder(w).Encode(map[string]string{
		"error":      errorMsg,
		"request_id": requestID,
	})
}

// sanitize NFC-normalizes a metadata field and strips control characters.
// Paste content is normalized only; it may legitimately carry tabs and
// newlines.
func sanitize(s string) string {
	s = norm.NFC.String(s)
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(s *string) {
	if s != nil {
		*s = sanitize(*s)
	}
}
