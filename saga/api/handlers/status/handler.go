package status

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type StatusHandler struct {
	service StatusService
	logger  log.Logger
}

func NewStatusHandler(logger log.Logger, service StatusService) *StatusHandler {
	return &StatusHandler{service: service, logger: logger}
}

// Register mounts GET /sagas/{id} and GET /sagas on the router
func (h *StatusHandler) Register(router *mux.Router) {
	router.HandleFunc("/sagas/{id}", h.GetStatus).Methods(http.MethodGet)
	router.HandleFunc("/sagas", h.GetFilteredBy).Methods(http.MethodGet)
}

func (h *StatusHandler) GetStatus(resp http.ResponseWriter, r *http.Request) {
	sagaId := mux.Vars(r)["id"]

	if sagaId == "" {
		NewResponseWriterFromErrMsg("Saga id is empty", http.StatusBadRequest).write(resp, h.logger)
		return
	}

	statusResp, err := h.service.GetStatus(r.Context(), sagaId)

	if err != nil {
		NewResponseWriterFromError(err).write(resp, h.logger)
		return
	}

	NewResponseWriter(statusResp, http.StatusOK).write(resp, h.logger)
}

func (h *StatusHandler) GetFilteredBy(resp http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		filters    Filters
		pagination *Pagination
	)

	filters.SagaID = query.Get("sagaId")
	filters.Status = query.Get("status")
	filters.SagaName = query.Get("name")

	offset, err := h.getInt(query, "offset")

	if err != nil {
		NewResponseWriterFromError(err).write(resp, h.logger)
		return
	}

	limit, err := h.getInt(query, "limit")

	if err != nil {
		NewResponseWriterFromError(err).write(resp, h.logger)
		return
	}

	if offset != nil && limit == nil {
		NewResponseWriterFromErrMsg("Query param 'limit' must be specified along with 'offset'", http.StatusBadRequest).write(resp, h.logger)
		return
	}

	if limit != nil && offset == nil {
		NewResponseWriterFromErrMsg("Query param 'offset' must be specified along with 'limit'", http.StatusBadRequest).write(resp, h.logger)
		return
	}

	if limit != nil {
		pagination = &Pagination{
			Offset: *offset,
			Limit:  *limit,
		}
	}

	statusesResp, err := h.service.GetFilteredBy(r.Context(), &filters, pagination)

	if err != nil {
		NewResponseWriterFromError(err).write(resp, h.logger)
		return
	}

	NewResponseWriter(statusesResp, http.StatusOK).write(resp, h.logger)
}

func (h *StatusHandler) getInt(values url.Values, paramName string) (*int, error) {
	paramValue := values.Get(paramName)
	if paramValue == "" {
		return nil, nil
	}

	intValue, err := strconv.Atoi(paramValue)
	if err != nil || intValue < 0 {
		return nil, NewResponseError(http.StatusBadRequest, errors.Errorf("Query parameter '%s' is expected to be a non negative integer", paramName))
	}

	return &intValue, nil
}
