package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/techzara/platform/internal/services"
)

const (
	maxMultipartMemory = 8 << 20
	maxAvatarBytes     = 5 << 20
	formFieldAvatar    = "avatar"
)

// ProfileHandler serves profile pictures.
type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// AvatarResponse reports the storage key of an uploaded avatar.
type AvatarResponse struct {
	AvatarKey string `json:"avatarKey"`
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.profileService.Enabled() {
		writeServiceError(w, r, services.ErrStorageDisabled, "failed to upload avatar")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile(formFieldAvatar)
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	data, err := readFileLimited(file, maxAvatarBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := http.DetectContentType(data)
	key, err := h.profileService.UploadAvatar(r.Context(), userID, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		writeServiceError(w, r, err, "failed to upload avatar")
		return
	}

	writeJSON(w, http.StatusOK, AvatarResponse{AvatarKey: key})
}

func (h *ProfileHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	obj, err := h.profileService.OpenAvatar(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch avatar")
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj.Body)
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("uploaded file exceeds %d bytes", limit)
	}
	if len(data) == 0 {
		return nil, errors.New("uploaded file is empty")
	}
	return data, nil
}
