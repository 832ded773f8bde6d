package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shotforge/internal/filesystem"
	"shotforge/internal/logging"
	"shotforge/internal/media"
	"shotforge/internal/mediatypes"
	"shotforge/internal/metrics"
	"shotforge/internal/pipeline"

	"github.com/gorilla/mux"
)

const (
	// MaxUploadSize caps a single uploaded file.
	MaxUploadSize = 32 << 20
	// maxUploadMemory is the multipart buffer kept in memory before
	// spilling to temp files.
	maxUploadMemory = 8 << 20
)

// GalleryItem is one image in the outputs directory.
type GalleryItem struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
	Width   int       `json:"width,omitempty"`
	Height  int       `json:"height,omitempty"`
	Format  string    `json:"format"`
	Origin  string    `json:"origin"`
	Source  string    `json:"source,omitempty"`
	// Pair is true while the screenshot the image was generated from is
	// still in the watched directory.
	Pair bool `json:"pair"`
}

// GalleryResponse is a page of gallery items.
type GalleryResponse struct {
	Items  []GalleryItem `json:"items"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// ListGallery lists generated and uploaded images, newest first by default.
func (h *Handlers) ListGallery(w http.ResponseWriter, r *http.Request) {
	files, err := filesystem.ListImages(h.outputsDir)
	if err != nil {
		logging.Error("Gallery: %v", err)
		writeJSONError(w, "Failed to list outputs", http.StatusInternalServerError)
		return
	}

	field := mediatypes.SortField(r.URL.Query().Get("sort"))
	order := mediatypes.SortOrder(r.URL.Query().Get("order"))
	if field == "" {
		field = mediatypes.SortByDate
	}
	if order == "" {
		order = mediatypes.SortDesc
	}
	sortEntries(files, field, order)

	total := len(files)
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	items := make([]GalleryItem, 0, end-offset)
	for _, f := range files[offset:end] {
		items = append(items, h.galleryItem(f))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, GalleryResponse{Items: items, Total: total, Offset: offset, Limit: limit})
}

func (h *Handlers) galleryItem(f filesystem.FileEntry) GalleryItem {
	item := GalleryItem{
		Name:    f.Name,
		Size:    f.Size,
		ModTime: f.ModTime,
		Format:  mediatypes.FormatName(f.Name),
	}

	if dims, err := media.GetImageDimensions(f.Path); err == nil {
		item.Width = dims.Width
		item.Height = dims.Height
		item.Format = dims.Format
	} else {
		logging.Debug("Gallery: no dimensions for %s: %v", f.Name, err)
	}

	parsed := pipeline.ParseName(f.Name)
	item.Origin = parsed.Origin
	if parsed.Origin == pipeline.NameGenerated {
		item.Source = parsed.SourceName
		if src, err := resolveName(h.screenshotsDir, parsed.SourceName); err == nil {
			item.Pair = filesystem.Exists(src)
		}
	}
	return item
}

func sortEntries(files []filesystem.FileEntry, field mediatypes.SortField, order mediatypes.SortOrder) {
	less := func(i, j int) bool {
		switch field {
		case mediatypes.SortBySize:
			if files[i].Size != files[j].Size {
				return files[i].Size < files[j].Size
			}
		case mediatypes.SortByDate:
			if !files[i].ModTime.Equal(files[j].ModTime) {
				return files[i].ModTime.Before(files[j].ModTime)
			}
		}
		return files[i].Name < files[j].Name
	}

	if order == mediatypes.SortDesc {
		sort.SliceStable(files, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(files, less)
}

// ScreenshotsResponse lists the watched directory.
type ScreenshotsResponse struct {
	Dir   string                `json:"dir"`
	Files []watcherFileResponse `json:"files"`
}

type watcherFileResponse struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	Status   string    `json:"status"`
	Attempts int       `json:"attempts,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ListScreenshots lists images waiting in the watched directory together
// with what the watcher knows about each.
func (h *Handlers) ListScreenshots(w http.ResponseWriter, _ *http.Request) {
	files, err := h.watcher.Files()
	if err != nil {
		logging.Error("Screenshots: %v", err)
		writeJSONError(w, "Failed to list screenshots", http.StatusInternalServerError)
		return
	}

	resp := ScreenshotsResponse{Dir: h.screenshotsDir, Files: make([]watcherFileResponse, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, watcherFileResponse(f))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// dirFor picks the directory a {name} route refers to.
func (h *Handlers) dirFor(r *http.Request) (string, string) {
	if r.URL.Query().Get("src") == "screenshots" {
		return h.screenshotsDir, "screenshots"
	}
	return h.outputsDir, "outputs"
}

// lookup resolves {name} and stats it, writing the error response itself.
func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (string, os.FileInfo, bool) {
	dir, _ := h.dirFor(r)
	fullPath, err := resolveName(dir, mux.Vars(r)["name"])
	if err != nil {
		writeJSONError(w, "Invalid file name", http.StatusBadRequest)
		return "", nil, false
	}

	info, err := filesystem.StatWithRetry(fullPath, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSONError(w, "File not found", http.StatusNotFound)
		} else {
			logging.Error("Failed to stat %s: %v", fullPath, err)
			writeJSONError(w, "Failed to access file", http.StatusInternalServerError)
		}
		return "", nil, false
	}
	if info.IsDir() || !mediatypes.IsImageFile(fullPath) {
		writeJSONError(w, "Not an image", http.StatusBadRequest)
		return "", nil, false
	}
	return fullPath, info, true
}

// GetFile serves an image from the outputs or watched directory.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	fullPath, _, ok := h.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(strings.ToLower(filepath.Ext(fullPath))))
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(fullPath)))
	}
	http.ServeFile(w, r, fullPath)
}

// DeleteFile removes an image from the outputs directory. Screenshots are
// owned by the pipeline and cannot be deleted here.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("src") == "screenshots" {
		writeJSONError(w, "Screenshots cannot be deleted", http.StatusForbidden)
		return
	}

	fullPath, _, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := filesystem.RemoveVerified(fullPath); err != nil {
		logging.Error("Failed to delete %s: %v", fullPath, err)
		writeJSONError(w, "Failed to delete file", http.StatusInternalServerError)
		return
	}

	logging.Info("Deleted output %s", filepath.Base(fullPath))
	writeJSONStatus(w, "deleted")
}

// GetThumbnail serves a cached JPEG thumbnail, or the full image when
// thumbnails are disabled.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	fullPath, _, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if !h.thumbGen.IsEnabled() {
		http.ServeFile(w, r, fullPath)
		return
	}

	thumb, err := h.thumbGen.GetThumbnail(fullPath)
	if err != nil {
		logging.Error("Thumbnail: generation failed for %s: %v", filepath.Base(fullPath), err)
		writeJSONError(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("Thumbnail: write failed: %v", err)
	}
}

// ImageInfo describes one image.
type ImageInfo struct {
	Name    string    `json:"name"`
	Dir     string    `json:"dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Format  string    `json:"format"`
	DataURL string    `json:"dataUrl,omitempty"`
}

// GetImageInfo returns dimensions and format, plus the encoded data URL
// the vision service would receive when dataurl=1.
func (h *Handlers) GetImageInfo(w http.ResponseWriter, r *http.Request) {
	fullPath, info, ok := h.lookup(w, r)
	if !ok {
		return
	}
	_, dirName := h.dirFor(r)

	dims, err := media.GetImageDimensions(fullPath)
	if err != nil {
		writeJSONError(w, "Unreadable image", http.StatusUnprocessableEntity)
		return
	}

	resp := ImageInfo{
		Name:    info.Name(),
		Dir:     dirName,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Width:   dims.Width,
		Height:  dims.Height,
		Format:  dims.Format,
	}

	if r.URL.Query().Get("dataurl") == "1" {
		dataURL, err := media.EncodeDataURL(fullPath)
		if err != nil {
			logging.Error("Failed to encode %s: %v", fullPath, err)
			writeJSONError(w, "Failed to encode image", http.StatusInternalServerError)
			return
		}
		resp.DataURL = dataURL
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// UploadResult reports one file of an upload request.
type UploadResult struct {
	Name  string `json:"name"`
	Saved string `json:"saved,omitempty"`
	Size  int64  `json:"size,omitempty"`
	Error string `json:"error,omitempty"`
}

// UploadResponse is the body of an upload response.
type UploadResponse struct {
	Uploaded []UploadResult `json:"uploaded"`
	Rejected []UploadResult `json:"rejected"`
}

// Upload stores one or more multipart "file" parts in the outputs
// directory as uploaded_<timestamp>_<name>.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4*MaxUploadSize)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSONError(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Debug("Upload: cleanup failed: %v", err)
		}
	}()

	parts := r.MultipartForm.File["file"]
	if len(parts) == 0 {
		writeJSONError(w, "No file provided", http.StatusBadRequest)
		return
	}

	resp := UploadResponse{Uploaded: []UploadResult{}, Rejected: []UploadResult{}}
	now := time.Now()

	for _, fh := range parts {
		saved, err := h.saveUpload(fh, now)
		if err != nil {
			resp.Rejected = append(resp.Rejected, UploadResult{Name: fh.Filename, Error: err.Error()})
			continue
		}
		resp.Uploaded = append(resp.Uploaded, UploadResult{Name: fh.Filename, Saved: filepath.Base(saved), Size: fh.Size})
		logging.Info("Uploaded %s as %s", fh.Filename, filepath.Base(saved))
	}

	w.Header().Set("Content-Type", "application/json")
	if len(resp.Uploaded) == 0 {
		w.WriteHeader(http.StatusBadRequest)
	}
	writeJSON(w, resp)
}

var errUnsupportedUpload = errors.New("unsupported file type")

func (h *Handlers) saveUpload(fh *multipart.FileHeader, now time.Time) (string, error) {
	name := filepath.Base(strings.ReplaceAll(fh.Filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(name))
	if !mediatypes.UploadExtensions[ext] || strings.HasPrefix(name, ".") {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return "", errUnsupportedUpload
	}
	if fh.Size > MaxUploadSize {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("file exceeds %d MB", MaxUploadSize>>20)
	}

	src, err := fh.Open()
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("read upload: %w", err)
	}
	defer src.Close()

	if _, err := media.DecodeDimensions(src); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return "", errors.New("not a valid image")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	dest := filepath.Join(h.outputsDir, pipeline.UploadName(now, name))
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, os.ErrExist) {
			return "", errors.New("a file with this name was just uploaded")
		}
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("close file: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	return dest, nil
}
