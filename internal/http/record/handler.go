package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/backoffice/internal/export"
	"github.com/MrJamesThe3rd/backoffice/internal/http/respond"
	"github.com/MrJamesThe3rd/backoffice/internal/importer"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc       *record.Service
	importSvc *importer.Service
	now       func() time.Time
}

func NewHandler(svc *record.Service, importSvc *importer.Service) *Handler {
	return &Handler{svc: svc, importSvc: importSvc, now: time.Now}
}

// Routes mounts the record endpoints. The router must supply a {module} URL parameter.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/export", h.export)
	r.Post("/import", h.importRecords)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/items", h.addItem)
	r.Delete("/{id}/items/{itemID}", h.removeItem)
}

// ListModules serves the module definitions the records endpoints accept.
func (h *Handler) ListModules(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.svc.Modules())
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context(), chi.URLParam(r, "module"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	if recs == nil {
		recs = []*record.Record{}
	}

	respond.JSON(w, http.StatusOK, recs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "module"), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, rec)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in record.Record
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.svc.Create(r.Context(), chi.URLParam(r, "module"), in)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var in record.Record
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.svc.Update(r.Context(), chi.URLParam(r, "module"), id, in)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "module"), id); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var in record.LineItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.svc.AddItem(r.Context(), chi.URLParam(r, "module"), id, in)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, item)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.svc.RemoveItem(r.Context(), chi.URLParam(r, "module"), id, itemID); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Module(chi.URLParam(r, "module"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	recs, err := h.svc.List(r.Context(), m.Name)
	if err != nil {
		respond.Error(w, err)
		return
	}

	rows := make([]record.Record, len(recs))
	for i, rec := range recs {
		rows[i] = *rec
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(m, h.now())))

	if err := export.Write(w, m, rows); err != nil {
		slog.Error("failed to write export", "module", m.Name, "error", err)
	}
}

type importResponse struct {
	Imported int              `json:"imported"`
	Records  []*record.Record `json:"records"`
}

// importRecords accepts either a raw body or a multipart form with the file under "file". The format
// comes from ?format=, else from the uploaded file name, else CSV.
func (h *Handler) importRecords(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Module(chi.URLParam(r, "module"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	var body io.Reader = r.Body

	format := importer.Format(r.URL.Query().Get("format"))

	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			respond.Message(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "file field is required")
			return
		}
		defer file.Close()

		body = file

		if format == "" {
			format = importer.FormatFor(header.Filename)
		}
	}

	parsed, err := h.importSvc.Import(format, m, body)
	if err != nil {
		if errors.Is(err, record.ErrValidation) {
			respond.Error(w, err)
			return
		}

		respond.Message(w, http.StatusBadRequest, err.Error())

		return
	}

	recs, err := h.svc.CreateBatch(r.Context(), m.Name, parsed)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if recs == nil {
		recs = []*record.Record{}
	}

	respond.JSON(w, http.StatusCreated, importResponse{Imported: len(recs), Records: recs})
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respond.Message(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}

	return id, true
}
