package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	nurl "net/url"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

// BackendAdapter - клиент REST-бэкенда платформы с basic-авторизацией
type BackendAdapter struct {
	client   *http.Client
	baseURL  string
	username string
	password string
	logger   out.LoggerPort
}

func NewBackendAdapter(cfg *config.Config, logger out.LoggerPort) *BackendAdapter {
	return &BackendAdapter{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  cfg.Backend.URL,
		username: cfg.Backend.Username,
		password: cfg.Backend.Password,
		logger:   logger,
	}
}

func (a *BackendAdapter) newRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(a.username, a.password)

	return req, nil
}

func (a *BackendAdapter) GetAvailability(ctx context.Context, userID uuid.UUID) (domain.WeeklyAvailability, error) {
	a.logger.Info("backend.availability.fetch", out.LogFields{
		"userId": userID,
	})

	url := fmt.Sprintf("%s/User/%s/availability", a.baseURL, userID)
	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("backend.availability.fetch_failed", out.LogFields{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("backend.availability.fetch_failed", out.LogFields{
			"userId": userID,
			"status": resp.StatusCode,
		})
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var availability domain.WeeklyAvailability
	if err := json.NewDecoder(resp.Body).Decode(&availability); err != nil {
		a.logger.Error("backend.availability.decode_failed", out.LogFields{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, err
	}

	return availability, nil
}

func (a *BackendAdapter) GetCourse(ctx context.Context, courseID uuid.UUID) (*domain.CourseWindow, error) {
	url := fmt.Sprintf("%s/Course/%s", a.baseURL, courseID)
	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var course domain.CourseWindow
	if err := json.NewDecoder(resp.Body).Decode(&course); err != nil {
		return nil, err
	}

	return &course, nil
}

func (a *BackendAdapter) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*domain.Appointment, error) {
	url := fmt.Sprintf("%s/Appointment/%s", a.baseURL, appointmentID)
	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var appointment domain.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appointment); err != nil {
		return nil, err
	}

	return &appointment, nil
}

func (a *BackendAdapter) ListAppointments(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error) {
	a.logger.Info("backend.appointments.fetch", out.LogFields{
		"userId": userID,
	})

	url := fmt.Sprintf("%s/Appointment", a.baseURL)
	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	query := nurl.Values{}
	query.Add("participant", userID.String())
	req.URL.RawQuery = query.Encode()

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("backend.appointments.fetch_failed", out.LogFields{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("backend.appointments.fetch_failed", out.LogFields{
			"userId": userID,
			"status": resp.StatusCode,
		})
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var appointments []domain.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appointments); err != nil {
		a.logger.Error("backend.appointments.decode_failed", out.LogFields{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, err
	}

	return appointments, nil
}

func (a *BackendAdapter) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	url := fmt.Sprintf("%s/Appointment", a.baseURL)
	req, err := a.newRequest(ctx, http.MethodPost, url, appointment)
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(appointment); err != nil {
		return err
	}

	return nil
}

func (a *BackendAdapter) UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) error {
	a.logger.Info("backend.appointment.status_patch", out.LogFields{
		"appointmentId": appointmentID,
		"status":        status,
	})

	url := fmt.Sprintf("%s/Appointment/%s", a.baseURL, appointmentID)
	req, err := a.newRequest(ctx, http.MethodPatch, url, map[string]interface{}{
		"status": status,
	})
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("backend.appointment.status_patch_failed", out.LogFields{
			"appointmentId": appointmentID,
			"error":         err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("backend.appointment.status_patch_failed", out.LogFields{
			"appointmentId": appointmentID,
			"status":        resp.StatusCode,
		})
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func (a *BackendAdapter) RescheduleAppointment(ctx context.Context, appointmentID uuid.UUID, date time.Time, clock json_types.ClockTime) error {
	url := fmt.Sprintf("%s/Appointment/%s", a.baseURL, appointmentID)
	req, err := a.newRequest(ctx, http.MethodPatch, url, map[string]interface{}{
		"date": date.Format("2006-01-02"),
		"time": clock,
	})
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func (a *BackendAdapter) getSingleAppointment(ctx context.Context, userID uuid.UUID, filter string) (*domain.Appointment, error) {
	url := fmt.Sprintf("%s/Appointment", a.baseURL)
	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	query := nurl.Values{}
	query.Add("participant", userID.String())
	query.Add("filter", filter)
	query.Add("count", "1")
	req.URL.RawQuery = query.Encode()

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var appointments []domain.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appointments); err != nil {
		return nil, err
	}

	if len(appointments) == 0 {
		return nil, nil
	}

	return &appointments[0], nil
}

// GetActiveAppointment - запись, идущая прямо сейчас
func (a *BackendAdapter) GetActiveAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error) {
	return a.getSingleAppointment(ctx, userID, "active-now")
}

// GetUpcomingAppointment - ближайшая будущая запись
func (a *BackendAdapter) GetUpcomingAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error) {
	return a.getSingleAppointment(ctx, userID, "upcoming")
}
