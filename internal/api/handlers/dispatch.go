package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fleet-dispatch-service/internal/api/dto"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/services"
)

// Form field limits for spreadsheet uploads.
const maxUploadBytes = 32 << 20

// DispatchHandler accepts a multipart submission (order spreadsheets, one
// asset spreadsheet, credentials, route date and hours) and runs it through
// the dispatcher.
type DispatchHandler struct {
	Dispatcher *services.Dispatcher
	// Location is the timezone the route date and hours are interpreted in.
	Location *time.Location
}

func (h *DispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	orderHeaders := r.MultipartForm.File["orders"]
	assetHeaders := r.MultipartForm.File["assets"]
	token := strings.TrimSpace(r.FormValue("token"))
	resourceText := strings.TrimSpace(r.FormValue("resource_id"))

	if len(orderHeaders) == 0 || len(assetHeaders) == 0 || token == "" || resourceText == "" {
		writeError(w, r, http.StatusBadRequest, "orders file(s), assets file, token and resource_id are required")
		return
	}

	resourceID, err := strconv.ParseInt(resourceText, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "resource_id must be numeric")
		return
	}

	window, err := h.parseWindow(r.FormValue("date"), r.FormValue("start_hour"), r.FormValue("end_hour"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	orders := make([]io.Reader, 0, len(orderHeaders))
	closers := make([]io.Closer, 0, len(orderHeaders)+1)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	for _, fh := range orderHeaders {
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("open orders file %q", fh.Filename))
			return
		}
		closers = append(closers, f)
		orders = append(orders, f)
	}

	assets, err := assetHeaders[0].Open()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("open assets file %q", assetHeaders[0].Filename))
		return
	}
	closers = append(closers, assets)

	result := h.Dispatcher.Dispatch(r.Context(), services.DispatchRequest{
		Orders:     orders,
		Assets:     assets,
		Token:      token,
		ResourceID: resourceID,
		Window:     window,
	})

	writeJSON(w, r, http.StatusOK, dto.DispatchResponse{
		OK:             result.OK,
		Message:        result.Message,
		PlanURL:        result.PlanURL,
		DeliveryPoints: result.DeliveryPoints,
		TotalTonnage:   result.TotalTonnage,
		TotalAmount:    result.TotalAmount,
	})
}

// parseWindow builds the delivery window from a date and two hours in the
// configured timezone.
func (h *DispatchHandler) parseWindow(date, startHour, endHour string) (domain.TimeWindow, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), h.Location)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("date must be formatted YYYY-MM-DD")
	}

	start, err := parseHour(startHour)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("start_hour: %w", err)
	}
	end, err := parseHour(endHour)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("end_hour: %w", err)
	}
	if end <= start {
		return domain.TimeWindow{}, fmt.Errorf("end_hour must be after start_hour")
	}

	return domain.TimeWindow{
		From: day.Add(time.Duration(start) * time.Hour).Unix(),
		To:   day.Add(time.Duration(end) * time.Hour).Unix(),
	}, nil
}

func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("must be an hour between 0 and 23")
	}
	return h, nil
}
