package availability_service

import (
	"sync"

	"github.com/skillswap/session-service/internal/core/domain"
)

type availabilityServiceDebug struct {
	mu   sync.Mutex
	data []domain.DebugInfo
}

func (d *availabilityServiceDebug) AddDebugInfo(info domain.DebugInfo) {
	d.mu.Lock()
	d.data = append(d.data, info)
	d.mu.Unlock()
}
