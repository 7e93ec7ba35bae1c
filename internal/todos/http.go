package todos

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/taskora/internal/platform/middleware"
	requestutil "github.com/taibuivan/taskora/internal/platform/request"
	"github.com/taibuivan/taskora/internal/platform/respond"
	"github.com/taibuivan/taskora/internal/platform/validate"
	"github.com/taibuivan/taskora/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.remove)

	return router
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("title", input.Title).MaxLen("title", input.Title, 200)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	todo, err := handler.service.Create(request.Context(), ownerID, CreateInput{
		Title:       input.Title,
		Description: input.Description,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, todo)
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	items, meta, err := handler.service.List(request.Context(), ownerID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, items, meta)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.NumericID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	todo, err := handler.service.Get(request.Context(), ownerID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, todo)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.NumericID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if patch.Title != nil {
		validator := &validate.Validator{}
		validator.Required("title", *patch.Title).MaxLen("title", *patch.Title, 200)
		if err := validator.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	todo, err := handler.service.Update(request.Context(), ownerID, id, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, todo)
}

func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.NumericID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), ownerID, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
