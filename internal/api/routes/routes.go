// Пакет routes — контракт HTTP API Compose Suite и его привязка к chi.
// Повторяет api/openapi.yaml: каждая операция контракта — метод
// ServerInterface с уже разобранными параметрами пути и запроса.
package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/DavidsonLima-ui/Compose-Suite/internal/api/errors"
)

// FileID — идентификатор файла в реестре.
type FileID = openapi_types.UUID

// SessionID — идентификатор сессии редактора.
type SessionID = openapi_types.UUID

// SlideIndex — индекс слайда (с нуля).
type SlideIndex = int

// ListFilesParams — параметры GET /api/v1/files.
type ListFilesParams struct {
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Offset *int    `form:"offset,omitempty" json:"offset,omitempty"`
	Kind   *string `form:"kind,omitempty" json:"kind,omitempty"`
}

// ExportFileParams — параметры GET /api/v1/files/{file_id}/export.
type ExportFileParams struct {
	Format *string `form:"format,omitempty" json:"format,omitempty"`
}

// ServerInterface — операции HTTP API.
type ServerInterface interface {
	// (GET /health/live)
	HealthLive(w http.ResponseWriter, r *http.Request)
	// (GET /health/ready)
	HealthReady(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	GetMetrics(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/openapi.yaml)
	GetOpenAPISpec(w http.ResponseWriter, r *http.Request)

	// (GET /api/v1/files)
	ListFiles(w http.ResponseWriter, r *http.Request, params ListFilesParams)
	// (POST /api/v1/files)
	SaveFile(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/files/{file_id})
	GetFile(w http.ResponseWriter, r *http.Request, fileID FileID)
	// (DELETE /api/v1/files/{file_id})
	DeleteFile(w http.ResponseWriter, r *http.Request, fileID FileID)
	// (GET /api/v1/files/{file_id}/export)
	ExportFile(w http.ResponseWriter, r *http.Request, fileID FileID, params ExportFileParams)

	// (POST /api/v1/export)
	ExportContent(w http.ResponseWriter, r *http.Request)

	// (POST /api/v1/sessions)
	CreateSession(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/sessions/{session_id})
	GetSession(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (DELETE /api/v1/sessions/{session_id})
	CloseSession(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/save-intent)
	SaveIntent(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/confirm)
	ConfirmSave(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/cancel)
	CancelSave(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/back)
	BackSession(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (PUT /api/v1/sessions/{session_id}/content)
	SetContent(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/images)
	InsertImage(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/select)
	SelectCell(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (PUT /api/v1/sessions/{session_id}/cells)
	SetCell(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/format)
	FormatCell(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/slides)
	AppendSlide(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (DELETE /api/v1/sessions/{session_id}/slides/{index})
	DeleteSlide(w http.ResponseWriter, r *http.Request, sessionID SessionID, index SlideIndex)
	// (POST /api/v1/sessions/{session_id}/slides/{index}/select)
	SelectSlide(w http.ResponseWriter, r *http.Request, sessionID SessionID, index SlideIndex)
	// (POST /api/v1/sessions/{session_id}/seed)
	SeedSheet(w http.ResponseWriter, r *http.Request, sessionID SessionID)
	// (POST /api/v1/sessions/{session_id}/assist)
	AssistSession(w http.ResponseWriter, r *http.Request, sessionID SessionID)

	// (POST /api/v1/assist/enhance)
	EnhanceText(w http.ResponseWriter, r *http.Request)
	// (POST /api/v1/assist/data)
	GenerateData(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError — параметр не удалось разобрать.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("некорректный формат параметра %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper разбирает параметры и вызывает ServerInterface.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// defaultErrorHandler отвечает 400 VALIDATION_ERROR.
func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	apierrors.ValidationError(w, err.Error())
}

func (siw *ServerInterfaceWrapper) pathUUID(r *http.Request, name string) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return id, nil
}

func (siw *ServerInterfaceWrapper) pathInt(r *http.Request, name string) (int, error) {
	var v int
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return v, nil
}

// ListFiles разбирает limit, offset и kind.
func (siw *ServerInterfaceWrapper) ListFiles(w http.ResponseWriter, r *http.Request) {
	var params ListFilesParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &params.Offset); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "offset", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "kind", query, &params.Kind); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "kind", Err: err})
		return
	}

	siw.Handler.ListFiles(w, r, params)
}

// withFileID разбирает file_id из пути.
func (siw *ServerInterfaceWrapper) withFileID(fn func(http.ResponseWriter, *http.Request, FileID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := siw.pathUUID(r, "file_id")
		if err != nil {
			siw.ErrorHandlerFunc(w, r, err)
			return
		}
		fn(w, r, id)
	}
}

// ExportFile разбирает file_id и format.
func (siw *ServerInterfaceWrapper) ExportFile(w http.ResponseWriter, r *http.Request) {
	id, err := siw.pathUUID(r, "file_id")
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	var params ExportFileParams
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &params.Format); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "format", Err: err})
		return
	}

	siw.Handler.ExportFile(w, r, id, params)
}

// withSessionID разбирает session_id из пути.
func (siw *ServerInterfaceWrapper) withSessionID(fn func(http.ResponseWriter, *http.Request, SessionID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := siw.pathUUID(r, "session_id")
		if err != nil {
			siw.ErrorHandlerFunc(w, r, err)
			return
		}
		fn(w, r, id)
	}
}

// withSlide разбирает session_id и index из пути.
func (siw *ServerInterfaceWrapper) withSlide(fn func(http.ResponseWriter, *http.Request, SessionID, SlideIndex)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := siw.pathUUID(r, "session_id")
		if err != nil {
			siw.ErrorHandlerFunc(w, r, err)
			return
		}
		index, err := siw.pathInt(r, "index")
		if err != nil {
			siw.ErrorHandlerFunc(w, r, err)
			return
		}
		fn(w, r, id, index)
	}
}

// ChiServerOptions — параметры привязки к chi.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux регистрирует все маршруты API на переданном роутере.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions регистрирует маршруты с дополнительными параметрами.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = defaultErrorHandler
	}
	siw := &ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Get("/health/live", si.HealthLive)
	r.Get("/health/ready", si.HealthReady)
	r.Get("/metrics", si.GetMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/openapi.yaml", si.GetOpenAPISpec)

		r.Get("/files", siw.ListFiles)
		r.Post("/files", si.SaveFile)
		r.Get("/files/{file_id}", siw.withFileID(si.GetFile))
		r.Delete("/files/{file_id}", siw.withFileID(si.DeleteFile))
		r.Get("/files/{file_id}/export", siw.ExportFile)

		r.Post("/export", si.ExportContent)

		r.Post("/sessions", si.CreateSession)
		r.Route("/sessions/{session_id}", func(r chi.Router) {
			r.Get("/", siw.withSessionID(si.GetSession))
			r.Delete("/", siw.withSessionID(si.CloseSession))
			r.Post("/save-intent", siw.withSessionID(si.SaveIntent))
			r.Post("/confirm", siw.withSessionID(si.ConfirmSave))
			r.Post("/cancel", siw.withSessionID(si.CancelSave))
			r.Post("/back", siw.withSessionID(si.BackSession))
			r.Put("/content", siw.withSessionID(si.SetContent))
			r.Post("/images", siw.withSessionID(si.InsertImage))
			r.Post("/select", siw.withSessionID(si.SelectCell))
			r.Put("/cells", siw.withSessionID(si.SetCell))
			r.Post("/format", siw.withSessionID(si.FormatCell))
			r.Post("/slides", siw.withSessionID(si.AppendSlide))
			r.Delete("/slides/{index}", siw.withSlide(si.DeleteSlide))
			r.Post("/slides/{index}/select", siw.withSlide(si.SelectSlide))
			r.Post("/seed", siw.withSessionID(si.SeedSheet))
			r.Post("/assist", siw.withSessionID(si.AssistSession))
		})

		r.Post("/assist/enhance", si.EnhanceText)
		r.Post("/assist/data", si.GenerateData)
	})

	return r
}
