// files.go — обработчики /api/v1/files endpoints.
// Загрузка, список, получение, скачивание, изменение метаданных
// и удаление файлов.
package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
	"github.com/bigkaa/gofileshare/internal/domain/access"
)

// multipartMemoryLimit — размер части multipart-формы, удерживаемой
// в памяти; остальное net/http сбрасывает во временные файлы.
const multipartMemoryLimit = 32 << 20

// fileDetailsResponse — файл вместе с предоставлениями доступа.
type fileDetailsResponse struct {
	fileResponse
	Shares []shareResponse `json:"shares"`
}

// filePatchRequest — тело запроса PATCH /api/v1/files/{id}.
// nil-поля не изменяются.
type filePatchRequest struct {
	OriginalFilename *string `json:"original_filename"`
	IsPublic         *bool   `json:"is_public"`
}

// fileIDParam извлекает и проверяет UUID файла из пути.
// Возвращает пустую строку, если ответ уже записан.
func fileIDParam(w http.ResponseWriter, r *http.Request) string {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		apierrors.ValidationError(w, "Некорректный UUID файла")
		return ""
	}
	return id
}

// UploadFile — POST /api/v1/files.
// Принимает multipart-форму: часть file — содержимое, поле is_public —
// видимость ("true"/"false", по умолчанию false).
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	part, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Часть формы file обязательна")
		return
	}
	defer part.Close()

	isPublic := r.FormValue("is_public") == "true"
	contentType := partContentType(header)

	f, err := h.files.Upload(r.Context(), p, part, header.Filename, contentType, isPublic)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка загрузки файла")
		return
	}

	writeJSON(w, http.StatusCreated, mapFile(f))
}

// partContentType возвращает Content-Type части формы или пустую
// строку, чтобы сервис подставил значение по умолчанию.
func partContentType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if ct == "application/octet-stream" {
		// Браузеры ставят octet-stream для неизвестных типов
		return ""
	}
	return ct
}

// ListFiles — GET /api/v1/files.
// Страница файлов, видимых пользователю: собственные, предоставленные
// и публичные. Параметры: search, limit, offset.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	limit, offset := paginationParams(r)

	var search *string
	if s := r.URL.Query().Get("search"); s != "" {
		search = &s
	}

	files, total, err := h.files.List(r.Context(), p, search, limit, offset)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения списка файлов")
		return
	}

	items := make([]fileResponse, len(files))
	for i, f := range files {
		items[i] = mapFile(f)
	}

	writeJSON(w, http.StatusOK, fileListResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	})
}

// GetFile — GET /api/v1/files/{id}.
// Метаданные файла с предоставлениями доступа.
func (h *APIHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	id := fileIDParam(w, r)
	if id == "" {
		return
	}

	details, err := h.files.Get(r.Context(), p, id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения файла")
		return
	}

	resp := fileDetailsResponse{
		fileResponse: mapFile(details.File),
		Shares:       make([]shareResponse, len(details.Shares)),
	}
	for i, s := range details.Shares {
		resp.Shares[i] = mapShare(s)
	}

	writeJSON(w, http.StatusOK, resp)
}

// DownloadFile — GET /api/v1/files/{id}/download.
// Отдаёт содержимое файла потоком с поддержкой Range-запросов.
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	id := fileIDParam(w, r)
	if id == "" {
		return
	}

	f, blob, err := h.files.Download(r.Context(), p, id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка скачивания файла")
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(f.OriginalFilename)))

	http.ServeContent(w, r, f.OriginalFilename, f.UpdatedAt, blob)
}

// UpdateFile — PATCH /api/v1/files/{id}.
// Частичное обновление метаданных: переименование и смена видимости.
// Патч атомарен: при отказе по любому полю не меняется ничего.
func (h *APIHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	id := fileIDParam(w, r)
	if id == "" {
		return
	}

	var req filePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	patch := access.FilePatch{
		Rename:    req.OriginalFilename,
		SetPublic: req.IsPublic,
	}

	updated, err := h.files.Update(r.Context(), p, id, patch)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка обновления файла")
		return
	}

	writeJSON(w, http.StatusOK, mapFile(updated))
}

// DeleteFile — DELETE /api/v1/files/{id}.
// Удаляет запись файла и его содержимое.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	id := fileIDParam(w, r)
	if id == "" {
		return
	}

	if err := h.files.Delete(r.Context(), p, id); err != nil {
		h.writeServiceError(w, err, "Ошибка удаления файла")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
