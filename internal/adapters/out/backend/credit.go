package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

// IncreaseTeacherCredit начисляет учителю кредит за проведенную сессию.
// Вызов best-effort: идемпотентность на стороне леджера не гарантируется.
func (a *BackendAdapter) IncreaseTeacherCredit(ctx context.Context, teacherID uuid.UUID) error {
	a.logger.Info("backend.credit.increase", out.LogFields{
		"teacherId": teacherID,
	})

	url := fmt.Sprintf("%s/User/%s/$credit", a.baseURL, teacherID)
	req, err := a.newRequest(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("backend.credit.increase_failed", out.LogFields{
			"teacherId": teacherID,
			"error":     err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("backend.credit.increase_failed", out.LogFields{
			"teacherId": teacherID,
			"status":    resp.StatusCode,
		})
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
